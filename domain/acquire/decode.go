package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/soocke/flipbook-go/domain/source"
)

var ErrEmpty = errors.New("acquire: empty payload")

// DecodeError reports that both decode strategies failed.
type DecodeError struct {
	Fast     error
	Fallback error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("acquire: decode failed (fast: %v; fallback: %v)", e.Fast, e.Fallback)
}

func (e *DecodeError) Unwrap() []error { return []error{e.Fast, e.Fallback} }

// Decoder turns encoded payloads into drawables. Fast decodes in memory;
// Fallback decodes from a temp file written for it. The zero value uses the
// default strategies.
type Decoder struct {
	Fast     func(data []byte) (image.Image, error)
	Fallback func(path string) (image.Image, error)
	TempDir  string
}

// Default is the decoder used by the package-level helpers.
var Default = &Decoder{}

// Decode decodes data with the default decoder.
func Decode(ctx context.Context, data []byte) (Drawable, error) {
	return Default.Decode(ctx, data)
}

// Decode tries the fast in-memory path, then the file-backed fallback. The
// fallback runs to completion before Decode returns.
func (d *Decoder) Decode(ctx context.Context, data []byte) (Drawable, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	fast := d.Fast
	if fast == nil {
		fast = decodeFast
	}
	img, fastErr := fast(data)
	if fastErr == nil && img != nil {
		return &bitmap{raster: newRaster(img)}, nil
	}
	if fastErr == nil {
		fastErr = errors.New("nil image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := d.writeTemp(data)
	if err != nil {
		return nil, &DecodeError{Fast: fastErr, Fallback: err}
	}
	fallback := d.Fallback
	if fallback == nil {
		fallback = decodeFile
	}
	img, err = fallback(path)
	if err == nil && img == nil {
		err = errors.New("nil image")
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, &DecodeError{Fast: fastErr, Fallback: err}
	}
	return &element{raster: newRaster(img), path: path}, nil
}

func (d *Decoder) writeTemp(data []byte) (string, error) {
	f, err := os.CreateTemp(d.TempDir, "flipbook-src-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// decodeFast decodes in memory with the registered formats, honoring EXIF
// orientation.
func decodeFast(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

// decodeFile is the generic decoder: imaging first, then the WebP decoder that
// handles extended and animated files.
func decodeFile(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	f, ferr := os.Open(path)
	if ferr != nil {
		return nil, err
	}
	defer f.Close()
	img, werr := webp.Decode(f)
	if werr != nil {
		return nil, errors.Join(err, werr)
	}
	return img, nil
}

// handle ties a drawable to its source so the source sees exactly one open
// drawable at a time.
type handle struct {
	Drawable
	src  *source.Image
	done bool
}

func (h *handle) Close() {
	h.Drawable.Close()
	h.unacquire()
}

func (h *handle) Revoke() {
	h.Drawable.Revoke()
	h.unacquire()
}

func (h *handle) unacquire() {
	if h.done {
		return
	}
	h.done = true
	h.src.Unacquire()
}

// Open decodes a source image into a drawable and records its natural size.
// The source must be released (via Release) before it can be opened again.
func (d *Decoder) Open(ctx context.Context, src *source.Image) (Drawable, error) {
	if err := src.Acquire(); err != nil {
		return nil, err
	}
	dr, err := d.Decode(ctx, src.Data())
	if err != nil {
		src.Unacquire()
		return nil, fmt.Errorf("%s: %w", src.Name, err)
	}
	src.SetSize(dr.Width(), dr.Height())
	return &handle{Drawable: dr, src: src}, nil
}

// Open opens src with the default decoder.
func Open(ctx context.Context, src *source.Image) (Drawable, error) {
	return Default.Open(ctx, src)
}
