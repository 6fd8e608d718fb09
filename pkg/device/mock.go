package device

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/itohio/voltlog/pkg/config"
)

// Mock simulates a microcontroller printing one voltage per line.
type Mock struct {
	cfg *config.MockConfig

	lines     chan []byte
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	closed    bool

	startTime time.Time
	count     int
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			Offset:     2.5,
			Amplitude:  1.0,
			Frequency:  0.5,
			NoiseLevel: 0.01,
			SampleRate: 50 * time.Millisecond,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:    cfg,
		lines:  make(chan []byte, DefaultBufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect simulates connecting to the device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.closed {
		return fmt.Errorf("mock device was closed")
	}

	m.connected = true
	m.startTime = time.Now()

	go m.generateLines()

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false
	m.closed = true

	return nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Available reports whether a line is buffered or the device was closed.
func (m *Mock) Available() bool {
	if len(m.lines) > 0 {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// ReadLine returns the next generated line, or io.EOF after Close once the
// buffer is drained.
func (m *Mock) ReadLine() ([]byte, error) {
	select {
	case line := <-m.lines:
		return line, nil
	default:
	}

	m.mu.RLock()
	connected, closed := m.connected, m.closed
	m.mu.RUnlock()
	if closed {
		return nil, io.EOF
	}
	if !connected {
		return nil, ErrNotConnected
	}

	select {
	case line := <-m.lines:
		return line, nil
	case <-m.ctx.Done():
		return nil, io.EOF
	}
}

// generateLines produces lines at the configured sample rate.
func (m *Mock) generateLines() {
	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			line := m.generateLine(now.Sub(m.startTime))
			select {
			case m.lines <- line:
			case <-m.ctx.Done():
				return
			default:
				// Buffer full, the reader is not keeping up
			}
		}
	}
}

// generateLine renders the reading at elapsed time, or a malformed line every
// GarbageEvery lines.
func (m *Mock) generateLine(elapsed time.Duration) []byte {
	m.count++
	if m.cfg.GarbageEvery > 0 && m.count%m.cfg.GarbageEvery == 0 {
		return []byte("ERR")
	}
	v := m.voltage(elapsed.Seconds())
	return []byte(strconv.FormatFloat(v, 'f', 2, 64))
}

// voltage returns offset + amplitude*sin(2*pi*f*t) plus deterministic noise.
func (m *Mock) voltage(t float64) float64 {
	signal := m.cfg.Offset + m.cfg.Amplitude*math.Sin(2*math.Pi*m.cfg.Frequency*t)
	noise := (math.Sin(t*1000) + math.Cos(t*1300)) * m.cfg.NoiseLevel * 0.5
	return signal + noise
}
