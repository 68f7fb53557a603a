package export

import (
	"context"
	"fmt"
	"image"

	"github.com/soocke/flipbook-go/domain/encoder"
)

// ErrCanceled is returned when the job's context is canceled. It also matches
// context.Canceled under errors.Is.
var ErrCanceled = fmt.Errorf("export: canceled: %w", context.Canceled)

// Encoder is the event-driven GIF encoder the pipeline feeds.
type Encoder interface {
	AddFrame(img image.Image, opts encoder.FrameOptions) error
	OnProgress(fn func(float64))
	OnFinished(fn func([]byte))
	OnError(fn func(error))
	Render() error
	Abort()
}

func newEncoder(cfg encoder.Config) (Encoder, error) {
	return encoder.New(cfg)
}

type outcome struct {
	blob []byte
	err  error
}

// Await starts rendering and blocks until the encoder reports its single
// outcome. Canceling ctx aborts the encoder and returns ErrCanceled.
func Await(ctx context.Context, enc Encoder) ([]byte, error) {
	ch := make(chan outcome, 1)
	settle := func(o outcome) {
		select {
		case ch <- o:
		default:
		}
	}
	enc.OnFinished(func(b []byte) { settle(outcome{blob: b}) })
	enc.OnError(func(err error) { settle(outcome{err: err}) })
	if err := enc.Render(); err != nil {
		return nil, err
	}
	select {
	case o := <-ch:
		if o.err != nil {
			return nil, fmt.Errorf("export: encode: %w", o.err)
		}
		return o.blob, nil
	case <-ctx.Done():
		enc.Abort()
		return nil, ErrCanceled
	}
}
