package sink

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gammazero/deque"
	"github.com/itohio/voltlog/pkg/sample"
)

var _ Sink = (*Async)(nil)

const (
	// DefaultQueueSize is used when NewAsync is given a non-positive size.
	DefaultQueueSize = 256
	// DefaultDrainTimeout bounds how long Close waits for queued samples.
	DefaultDrainTimeout = 5 * time.Second
	// DefaultRetryDelay is the pause before the first retry, doubled per attempt.
	DefaultRetryDelay = 100 * time.Millisecond
)

var (
	// ErrQueueFull is reported for samples evicted from a full queue.
	ErrQueueFull = errors.New("queue full")
	// ErrClosed is returned when writing to a closed sink.
	ErrClosed = errors.New("sink closed")
)

// Async decouples a slow sink from the read loop. Samples are queued in a
// bounded FIFO and delivered in order by one worker goroutine. When the queue
// is full the oldest queued sample is dropped.
type Async struct {
	next    Sink
	size    int
	retries int

	// RetryDelay is the pause before the first retry.
	RetryDelay time.Duration
	// DrainTimeout bounds Close.
	DrainTimeout time.Duration
	// OnDrop is called for every sample that is not delivered. It runs on
	// the writer or worker goroutine and must not block.
	OnDrop func(s sample.Sample, err error)

	mu      sync.Mutex
	queue   *deque.Deque[sample.Sample]
	closing bool
	wake    chan struct{}
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc

	delivered atomic.Int64
	dropped   atomic.Int64
}

// NewAsync wraps next and starts the delivery worker. retries is the number
// of extra attempts per sample; 0 drops a sample after its first failure.
func NewAsync(next Sink, size, retries int) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if retries < 0 {
		retries = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Async{
		next:         next,
		size:         size,
		retries:      retries,
		RetryDelay:   DefaultRetryDelay,
		DrainTimeout: DefaultDrainTimeout,
		queue:        deque.New[sample.Sample](0, 64),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}

	go a.run()

	return a
}

func (a *Async) Name() string {
	return a.next.Name()
}

// Write enqueues s and returns immediately.
func (a *Async) Write(_ context.Context, s sample.Sample) error {
	a.mu.Lock()
	if a.closing {
		a.mu.Unlock()
		return ErrClosed
	}

	var evicted *sample.Sample
	if a.queue.Len() >= a.size {
		old := a.queue.PopFront()
		evicted = &old
	}
	a.queue.PushBack(s)
	a.mu.Unlock()

	if evicted != nil {
		a.drop(*evicted, ErrQueueFull)
	}
	a.signal()

	return nil
}

// Pending returns the number of queued samples.
func (a *Async) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queue.Len()
}

// Delivered returns the number of samples written to the wrapped sink.
func (a *Async) Delivered() int64 {
	return a.delivered.Load()
}

// Dropped returns the number of samples that were not delivered.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops accepting samples, waits up to DrainTimeout for the queue to
// drain and closes the wrapped sink. Samples still queued at the deadline
// are dropped.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closing {
		a.mu.Unlock()
		return nil
	}
	a.closing = true
	a.mu.Unlock()
	a.signal()

	var err error
	timer := time.NewTimer(a.DrainTimeout)
	defer timer.Stop()

	select {
	case <-a.done:
	case <-timer.C:
		a.cancel()
		<-a.done
		remaining := a.discard()
		err = fmt.Errorf("%s: drain timed out, %d samples dropped", a.Name(), remaining)
	}
	a.cancel()

	return combineErrors(err, a.next.Close())
}

func (a *Async) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *Async) run() {
	defer close(a.done)

	for {
		a.mu.Lock()
		n, closing := a.queue.Len(), a.closing
		var s sample.Sample
		if n > 0 {
			s = a.queue.PopFront()
		}
		a.mu.Unlock()

		if n == 0 {
			if closing {
				return
			}
			select {
			case <-a.wake:
			case <-a.ctx.Done():
				return
			}
			continue
		}

		if a.ctx.Err() != nil {
			a.drop(s, a.ctx.Err())
			return
		}
		a.deliver(s)
	}
}

// deliver writes s with up to retries extra attempts.
func (a *Async) deliver(s sample.Sample) {
	delay := a.RetryDelay
	var err error
	for attempt := 0; attempt <= a.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
				delay *= 2
			case <-a.ctx.Done():
				a.drop(s, err)
				return
			}
		}

		if err = a.write(s); err == nil {
			a.delivered.Add(1)
			return
		}
	}
	a.drop(s, err)
}

// write isolates the wrapped sink so a panic only loses one sample.
func (a *Async) write(s sample.Sample) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.next.Write(a.ctx, s)
}

func (a *Async) discard() int {
	a.mu.Lock()
	var rest []sample.Sample
	for a.queue.Len() > 0 {
		rest = append(rest, a.queue.PopFront())
	}
	a.mu.Unlock()

	for _, s := range rest {
		a.drop(s, ErrClosed)
	}
	return len(rest)
}

func (a *Async) drop(s sample.Sample, err error) {
	a.dropped.Add(1)
	if a.OnDrop != nil {
		a.OnDrop(s, err)
		return
	}
	log.Printf("warning: %s: dropped sample at %.3fs: %v", a.Name(), s.Time, err)
}
