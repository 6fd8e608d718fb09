package pipeline

import (
	"errors"
	"fmt"
)

// ErrAlreadyRun is returned when Run is called on a pipeline that has run.
var ErrAlreadyRun = errors.New("pipeline already run")

// ConnectionError reports that the line source could not be opened.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// SinkError reports a failed write or refresh of one sink. It never stops
// the pipeline.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
