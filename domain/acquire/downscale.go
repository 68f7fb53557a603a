package acquire

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"

	"github.com/soocke/flipbook-go/domain/source"
)

// Format selects the re-encode format used by Downscale.
type Format string

const (
	FormatJPEG         Format = "jpeg"
	FormatWebP         Format = "webp"
	FormatWebPLossless Format = "webp-lossless"
)

// Normalizer shrinks oversized originals on import.
type Normalizer struct {
	MaxEdge int     // 0 disables downscaling
	Format  Format  // defaults to JPEG
	Quality float64 // 0..1, defaults to 0.85
	Decoder *Decoder
	Logger  *slog.Logger
}

// Downscale returns data unchanged when its longest edge is within maxEdge.
// Otherwise it resamples to fit maxEdge and re-encodes. Any failure along the
// way yields the untouched original.
func Downscale(ctx context.Context, data []byte, maxEdge int, format Format, quality float64) []byte {
	n := Normalizer{MaxEdge: maxEdge, Format: format, Quality: quality}
	return n.Downscale(ctx, data)
}

// Downscale applies the normalizer to one payload.
func (n *Normalizer) Downscale(ctx context.Context, data []byte) []byte {
	if n.MaxEdge <= 0 || len(data) == 0 {
		return data
	}
	dec := n.Decoder
	if dec == nil {
		dec = Default
	}
	d, err := dec.Decode(ctx, data)
	if err != nil {
		n.warn("downscale decode failed", err)
		return data
	}
	defer Release(d)

	w, h := d.Width(), d.Height()
	if w == 0 || h == 0 || max(w, h) <= n.MaxEdge {
		return data
	}
	if ctx.Err() != nil {
		return data
	}

	scale := float64(n.MaxEdge) / float64(max(w, h))
	dw := max(1, int(math.Round(float64(w)*scale)))
	dh := max(1, int(math.Round(float64(h)*scale)))
	resized := imaging.Resize(d.Image(), dw, dh, imaging.Lanczos)

	out, err := n.encode(resized)
	if err != nil {
		n.warn("downscale encode failed", err)
		return data
	}
	if n.Logger != nil {
		n.Logger.Debug("downscaled", "from", fmt.Sprintf("%dx%d", w, h), "to", fmt.Sprintf("%dx%d", dw, dh), "bytes", len(out))
	}
	return out
}

// Normalize downscales the payload of img and replaces it once.
func (n *Normalizer) Normalize(ctx context.Context, img *source.Image) error {
	if img.Normalized() {
		return nil
	}
	return img.ReplaceData(n.Downscale(ctx, img.Data()))
}

func (n *Normalizer) encode(img image.Image) ([]byte, error) {
	q := n.Quality
	if q <= 0 || q > 1 {
		q = 0.85
	}
	var buf bytes.Buffer
	var err error
	switch n.Format {
	case FormatWebP:
		err = webp.Encode(&buf, img, webp.Options{Quality: int(math.Round(q * 100)), Method: 4})
	case FormatWebPLossless:
		err = nativewebp.Encode(&buf, img, nil)
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(int(math.Round(q*100))))
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Normalizer) warn(msg string, err error) {
	if n.Logger != nil {
		n.Logger.Warn(msg, "error", err)
	}
}
