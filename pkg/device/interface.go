package device

// LineSource yields raw text lines, one measurement per line.
type LineSource interface {
	// Available reports whether ReadLine can return without blocking.
	Available() bool
	// ReadLine returns the next line without its terminator. io.EOF means
	// the source is exhausted.
	ReadLine() ([]byte, error)
	// Close releases the underlying connection. It is safe to call twice.
	Close() error
}

// Ensure implementations satisfy LineSource.
var (
	_ LineSource = (*Serial)(nil)
	_ LineSource = (*Mock)(nil)
	_ LineSource = (*Lines)(nil)
)
