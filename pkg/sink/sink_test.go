package sink

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/itohio/voltlog/pkg/sample"
	"github.com/stretchr/testify/assert"
)

// recordSink records writes and optionally fails them.
type recordSink struct {
	name string

	mu      sync.Mutex
	samples []sample.Sample
	calls   int
	closed  int
	fail    func(call int) error
	block   chan struct{}
	closeEr error
}

func (r *recordSink) Name() string {
	if r.name == "" {
		return "record"
	}
	return r.name
}

func (r *recordSink) Write(ctx context.Context, s sample.Sample) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail != nil {
		if err := r.fail(r.calls); err != nil {
			return err
		}
	}
	r.samples = append(r.samples, s)
	return nil
}

func (r *recordSink) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return r.closeEr
}

func (r *recordSink) Samples() []sample.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sample.Sample(nil), r.samples...)
}

func (r *recordSink) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestCloseAll(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	a := &recordSink{closeEr: errA}
	b := &recordSink{}
	c := &recordSink{closeEr: errB}

	err := CloseAll(a, nil, b, c)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
	assert.Equal(t, 1, c.closed)
}

func TestCloseAll_NoErrors(t *testing.T) {
	assert.NoError(t, CloseAll(&recordSink{}, &recordSink{}))
	assert.NoError(t, CloseAll())
}

func TestCombineErrors(t *testing.T) {
	e := errors.New("only")
	assert.NoError(t, combineErrors(nil, nil))
	assert.Equal(t, e, combineErrors(nil, e, nil))
}
