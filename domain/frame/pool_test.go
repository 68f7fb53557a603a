package frame

import (
	"image"
	"image/color"
	"testing"
)

func TestAcquire_SizesBuffer(t *testing.T) {
	r := image.Rect(0, 0, 10, 6)
	img := Acquire(r)
	if len(img.Pix) != 10*6*4 || img.Stride != 40 || img.Rect != r {
		t.Fatalf("bad frame: len=%d stride=%d rect=%v", len(img.Pix), img.Stride, img.Rect)
	}
	Recycle(img)
	small := Acquire(image.Rect(0, 0, 2, 2))
	if len(small.Pix) != 16 || small.Stride != 8 {
		t.Fatalf("reused frame not resized: len=%d stride=%d", len(small.Pix), small.Stride)
	}
}

func TestAcquire_EmptyRect(t *testing.T) {
	img := Acquire(image.Rect(0, 0, 0, 5))
	if img == nil || len(img.Pix) != 0 {
		t.Fatalf("expected empty frame")
	}
	Recycle(img) // nil Pix: ignored
}

func TestFill(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 7, 5))
	c := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	Fill(img, c)
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			if got := img.RGBAAt(x, y); got != c {
				t.Fatalf("pixel (%d,%d)=%v want %v", x, y, got, c)
			}
		}
	}
}
