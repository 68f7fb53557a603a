// Package frame pools the large RGBA buffers used per export job.
//
// Compositor canvases and encoder frame copies are sized identically for the
// whole job, so recycling them keeps a long export from retaining one backing
// slice per frame. If callers never recycle, behavior degrades gracefully to
// plain allocation.
package frame

import (
	"image"
	"image/color"
	"sync"
)

var pool sync.Pool // stores *image.RGBA

// Acquire returns a reusable RGBA image sized to rect. The returned Pix
// length exactly matches rect area * 4 and Stride is width*4. Pixel contents
// are unspecified; callers must overwrite them.
func Acquire(rect image.Rectangle) *image.RGBA {
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return &image.RGBA{Rect: rect}
	}
	needed := w * h * 4
	var img *image.RGBA
	if v := pool.Get(); v != nil {
		img = v.(*image.RGBA)
	}
	if img == nil || cap(img.Pix) < needed {
		img = &image.RGBA{Pix: make([]byte, needed), Stride: w * 4, Rect: rect}
	} else {
		img.Stride = w * 4
		img.Rect = rect
		img.Pix = img.Pix[:needed]
	}
	return img
}

// Recycle returns the frame to the pool for potential reuse. The frame must no
// longer be accessed by the caller after invoking Recycle.
func Recycle(img *image.RGBA) {
	if img == nil || img.Pix == nil {
		return
	}
	pool.Put(img)
}

// Fill overwrites every pixel of img with c.
func Fill(img *image.RGBA, c color.RGBA) {
	if img == nil || len(img.Pix) < 4 {
		return
	}
	px := img.Pix
	px[0], px[1], px[2], px[3] = c.R, c.G, c.B, c.A
	// Doubling copy: each pass copies the already-filled prefix.
	for n := 4; n < len(px); n *= 2 {
		copy(px[n:], px[:n])
	}
}
