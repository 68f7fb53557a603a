// Package export turns an ordered list of source images into an animated GIF.
//
// Frames are processed strictly one at a time: decode, compose onto the
// square canvas, hand a copy to the encoder, release the decoded pixels.
// The context is checked before each frame and again right after decode.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/soocke/flipbook-go/domain/acquire"
	"github.com/soocke/flipbook-go/domain/compositor"
	"github.com/soocke/flipbook-go/domain/encoder"
	"github.com/soocke/flipbook-go/domain/source"
)

var ErrNoImages = errors.New("export: no images")

const defaultWorkers = 2

// Opener materializes a source image into a drawable.
type Opener interface {
	Open(ctx context.Context, src *source.Image) (acquire.Drawable, error)
}

// Pipeline holds the collaborators of an export. The zero value uses the
// default decoder and the GIF encoder.
type Pipeline struct {
	Decoder    Opener
	Stage      StageMeasurer
	Logger     *slog.Logger
	NewEncoder func(encoder.Config) (Encoder, error)
	Workers    int
}

// Build encodes images into a GIF. onProgress, if non-nil, receives the
// encoder's progress fractions unchanged. images is neither reordered nor
// mutated.
func (p *Pipeline) Build(ctx context.Context, images []*source.Image, opts Options, onProgress func(float64)) ([]byte, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	opts, err := opts.resolve(p.Stage)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, ErrCanceled
	}

	comp, err := compositor.New(opts.Side, opts.Supersample, opts.Background)
	if err != nil {
		return nil, err
	}
	defer comp.Close()

	mk := p.NewEncoder
	if mk == nil {
		mk = newEncoder
	}
	workers := p.Workers
	if workers < 1 {
		workers = defaultWorkers
	}
	enc, err := mk(encoder.Config{
		Width:      opts.Side,
		Height:     opts.Side,
		Quality:    opts.Quality,
		Repeat:     0,
		Background: opts.Background,
		Workers:    workers,
	})
	if err != nil {
		return nil, fmt.Errorf("export: create encoder: %w", err)
	}
	if onProgress != nil {
		enc.OnProgress(onProgress)
	}

	dec := p.Decoder
	if dec == nil {
		dec = acquire.Default
	}
	frameOpts := encoder.FrameOptions{Delay: opts.Delay, Dispose: encoder.DisposeBackground}
	for i, img := range images {
		if err := p.addFrame(ctx, dec, comp, enc, img, frameOpts); err != nil {
			enc.Abort()
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				p.logger().Debug("export canceled", "frame", i, "frames", len(images))
				return nil, ErrCanceled
			}
			return nil, fmt.Errorf("export: frame %d: %w", i, err)
		}
	}
	return Await(ctx, enc)
}

func (p *Pipeline) addFrame(ctx context.Context, dec Opener, comp *compositor.Compositor, enc Encoder, img *source.Image, fo encoder.FrameOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, err := dec.Open(ctx, img)
	if err != nil {
		return err
	}
	defer acquire.Release(d)
	if err := ctx.Err(); err != nil {
		return err
	}
	return enc.AddFrame(comp.Compose(d.Image()), fo)
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}
