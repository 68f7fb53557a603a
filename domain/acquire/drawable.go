package acquire

import (
	"image"
	"os"
)

// Drawable is a decoded raster handle plus its natural size.
//
// Close frees decoder-held pixels and Revoke removes any temporary addressable
// reference (a temp file) created while decoding. Implementations that have
// nothing to free treat either call as a no-op, so callers can always invoke
// both; see Release.
type Drawable interface {
	Image() image.Image
	Width() int
	Height() int
	Close()
	Revoke()
}

// Release tears down a drawable. Nil-safe.
func Release(d Drawable) {
	if d == nil {
		return
	}
	d.Close()
	d.Revoke()
}

type noClose struct{}

func (noClose) Close() {}

type noRevoke struct{}

func (noRevoke) Revoke() {}

// raster holds decoded pixels.
type raster struct {
	img  image.Image
	w, h int
}

func newRaster(img image.Image) raster {
	b := img.Bounds()
	return raster{img: img, w: b.Dx(), h: b.Dy()}
}

func (r *raster) Image() image.Image { return r.img }
func (r *raster) Width() int         { return r.w }
func (r *raster) Height() int        { return r.h }

// bitmap comes from the in-memory fast path; it only holds pixels.
type bitmap struct {
	raster
	noRevoke
}

func (b *bitmap) Close() { b.img = nil }

// element comes from the file-backed fallback path. Its pixels are left to the
// GC; Revoke deletes the backing temp file.
type element struct {
	raster
	noClose
	path string
}

func (e *element) Revoke() {
	if e.path == "" {
		return
	}
	_ = os.Remove(e.path)
	e.path = ""
}
