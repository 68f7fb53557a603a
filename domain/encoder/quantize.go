package encoder

import (
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

// quantizeFrame builds a <=256 color palette from every quality-th pixel of
// src and maps src onto it.
func quantizeFrame(src *image.RGBA, quality int, dither bool) *image.Paletted {
	b := src.Bounds()
	q := quantize.MedianCutQuantizer{}
	pal := q.Quantize(make(color.Palette, 0, 256), sample(src, quality))
	if len(pal) == 0 {
		pal = color.Palette{color.RGBA{A: 0xff}}
	}
	dst := image.NewPaletted(b, pal)
	if dither {
		draw.FloydSteinberg.Draw(dst, b, src, b.Min)
	} else {
		draw.Draw(dst, b, src, b.Min, draw.Src)
	}
	return dst
}

// sample packs every step-th pixel of src into a one-row image.
func sample(src *image.RGBA, step int) *image.RGBA {
	if step <= 1 {
		return src
	}
	px := len(src.Pix) / 4
	n := (px + step - 1) / step
	out := image.NewRGBA(image.Rect(0, 0, n, 1))
	for i, j := 0, 0; i < px && j < n; i, j = i+step, j+1 {
		copy(out.Pix[j*4:j*4+4], src.Pix[i*4:i*4+4])
	}
	return out
}
