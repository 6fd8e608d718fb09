package device

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// Lines is a line source over a fixed list of lines, used for replaying
// captured output and in tests. After the last line ReadLine returns io.EOF.
type Lines struct {
	mu     sync.Mutex
	lines  [][]byte
	pos    int
	closed bool
}

// NewLines creates a source that yields the given lines in order.
func NewLines(lines ...string) *Lines {
	l := &Lines{lines: make([][]byte, len(lines))}
	for i, s := range lines {
		l.lines[i] = []byte(s)
	}
	return l
}

// ReadLinesFile loads a replay source from a text file, one line per reading.
func ReadLinesFile(filename string) (*Lines, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	l := &Lines{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		l.lines = append(l.lines, append([]byte(nil), scanner.Bytes()...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read replay file: %w", err)
	}
	return l, nil
}

// Available always reports true: either a line or io.EOF is ready.
func (l *Lines) Available() bool {
	return true
}

// ReadLine returns the next line.
func (l *Lines) ReadLine() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrNotConnected
	}
	if l.pos >= len(l.lines) {
		return nil, io.EOF
	}
	line := l.lines[l.pos]
	l.pos++
	return line, nil
}

// Close marks the source closed.
func (l *Lines) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// Closed reports whether Close was called.
func (l *Lines) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
