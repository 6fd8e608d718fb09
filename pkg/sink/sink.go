package sink

import (
	"context"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/itohio/voltlog/pkg/sample"
)

// Sink receives every accepted sample, in order.
type Sink interface {
	Name() string
	Write(ctx context.Context, s sample.Sample) error
	Close() error
}

// Plotter is redrawn from the full history after every accepted sample.
// History is shared and must not be modified.
type Plotter interface {
	Name() string
	Refresh(history []sample.Sample) error
}

// CloseAll closes every closer and combines the errors.
func CloseAll(closers ...io.Closer) error {
	var err error
	for _, c := range closers {
		if c == nil {
			continue
		}
		err = combineErrors(err, c.Close())
	}
	return err
}

func combineErrors(errors ...error) (err error) {
	for _, e := range errors {
		switch {
		case e == nil:
			// ignore
		case err == nil:
			err = e
		default:
			err = multierror.Append(err, e)
		}
	}
	return err
}
