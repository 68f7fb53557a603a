package presenter

import (
	"context"
	"fmt"
	"image"
	"image/color"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/soocke/flipbook-go/domain/acquire"
	"github.com/soocke/flipbook-go/domain/compositor"
	"github.com/soocke/flipbook-go/domain/source"
)

const defaultPreviewEntries = 32

// Decoder turns an encoded payload into a drawable. The preview decodes the
// payload directly so it never holds the source's open slot, which belongs to
// a running export.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (acquire.Drawable, error)
}

type previewKey struct {
	img  *source.Image
	side int
	bg   color.RGBA
}

// PreviewCache renders stage frames exactly like exported frames (contain on
// a square background) and keeps the most recently used ones.
type PreviewCache struct {
	decoder Decoder
	cache   *lru.Cache[previewKey, *image.RGBA]
}

// NewPreviewCache returns a cache holding up to size frames. decoder nil uses
// the default decoder.
func NewPreviewCache(decoder Decoder, size int) *PreviewCache {
	if decoder == nil {
		decoder = acquire.Default
	}
	if size <= 0 {
		size = defaultPreviewEntries
	}
	c, _ := lru.New[previewKey, *image.RGBA](size)
	return &PreviewCache{decoder: decoder, cache: c}
}

// Frame returns the side x side preview of img.
func (p *PreviewCache) Frame(ctx context.Context, img *source.Image, side int, bg color.RGBA) (*image.RGBA, error) {
	bg.A = 0xff
	key := previewKey{img: img, side: side, bg: bg}
	if f, ok := p.cache.Get(key); ok {
		return f, nil
	}
	comp, err := compositor.New(side, 1, bg)
	if err != nil {
		return nil, err
	}
	defer comp.Close()
	data := img.Data()
	if data == nil {
		return nil, source.ErrReleased
	}
	d, err := p.decoder.Decode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", img.Name, err)
	}
	defer acquire.Release(d)
	out := comp.Compose(d.Image())
	frame := image.NewRGBA(out.Rect)
	copy(frame.Pix, out.Pix)
	p.cache.Add(key, frame)
	return frame, nil
}

// Purge drops every cached frame, e.g. after the selection changed.
func (p *PreviewCache) Purge() { p.cache.Purge() }

// Len reports the number of cached frames.
func (p *PreviewCache) Len() int { return p.cache.Len() }
