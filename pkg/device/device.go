package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the Arduino sketch's Serial.begin(9600).
	DefaultBaudRate = 9600
	// DefaultBufferSize is the default number of complete lines buffered.
	DefaultBufferSize = 100
)

// ErrNotConnected is returned when reading from a closed or unopened source.
var ErrNotConnected = errors.New("not connected")

// Serial is a line source reading from a serial port.
//
// A reader goroutine splits the byte stream into lines so that Available can
// report whether a complete line is waiting without blocking.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	lines     chan []byte
	done      chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	readErr   error
}

// New creates a new Serial instance with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		lines:    make(chan []byte, bufSize),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Port returns the configured port name.
func (d *Serial) Port() string {
	return d.port
}

// Connect opens the serial port and starts reading lines.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}
	if d.ctx.Err() != nil {
		return fmt.Errorf("serial source for %s was closed", d.port)
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readLines(port)

	return nil
}

// Close closes the port and waits for the reader goroutine to exit.
func (d *Serial) Close() error {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()

	var err error
	if d.conn != nil {
		if err = d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}
	d.connected = false
	d.mu.Unlock()

	<-d.done

	return err
}

// IsConnected returns whether the port is currently open.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Available reports whether ReadLine would return without blocking: either a
// complete line is buffered or the reader has stopped.
func (d *Serial) Available() bool {
	if len(d.lines) > 0 {
		return true
	}
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// ReadLine returns the next complete line without its terminator. It returns
// io.EOF or the read error once the reader has stopped and the buffer is empty.
func (d *Serial) ReadLine() ([]byte, error) {
	d.mu.RLock()
	started := d.connected || d.ctx.Err() != nil
	d.mu.RUnlock()
	if !started {
		return nil, ErrNotConnected
	}

	line, ok := <-d.lines
	if !ok {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.readErr != nil {
			return nil, d.readErr
		}
		return nil, io.EOF
	}
	return line, nil
}

// readLines splits the port stream into lines until the port fails or is closed.
func (d *Serial) readLines(port io.Reader) {
	defer close(d.done)
	defer close(d.lines)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readLines: %v", r)
		}
	}()

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		// Scanner reuses its buffer
		line := append([]byte(nil), scanner.Bytes()...)

		select {
		case d.lines <- line:
		case <-d.ctx.Done():
			return
		}
	}

	if d.ctx.Err() != nil {
		// Closed on purpose, the read error is expected
		return
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Error reading from serial port %s: %v", d.port, err)
		d.mu.Lock()
		d.readErr = fmt.Errorf("read from %s: %w", d.port, err)
		d.mu.Unlock()
	}
}
