package compositor

import (
	"errors"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/soocke/flipbook-go/domain/frame"
)

// maxCanvasSide bounds the working surface (side * supersample).
const maxCanvasSide = 16384

var ErrCanvas = errors.New("compositor: canvas unavailable")

// Compositor renders sources centered and contained on a square canvas.
// The work and output canvases are allocated once and reused for every frame;
// the image returned by Compose is only valid until the next call.
// Not safe for concurrent use.
type Compositor struct {
	side int
	ss   int
	bg   color.RGBA
	work *image.RGBA // side*ss square
	out  *image.RGBA // side square, only when ss > 1
}

// New allocates canvases for a side x side output rendered at supersample x
// the resolution internally.
func New(side, supersample int, bg color.RGBA) (*Compositor, error) {
	if supersample < 1 {
		supersample = 1
	}
	if side <= 0 || side*supersample > maxCanvasSide {
		return nil, ErrCanvas
	}
	bg.A = 0xff
	c := &Compositor{side: side, ss: supersample, bg: bg}
	c.work = frame.Acquire(image.Rect(0, 0, side*supersample, side*supersample))
	if supersample > 1 {
		c.out = frame.Acquire(image.Rect(0, 0, side, side))
	}
	return c, nil
}

// Side returns the output side length.
func (c *Compositor) Side() int { return c.side }

// Placement returns the destination rectangle of a srcW x srcH source
// contained in a target x target square: uniform scale, rounded size,
// floor-centered origin.
func Placement(srcW, srcH, target int) image.Rectangle {
	if srcW <= 0 || srcH <= 0 || target <= 0 {
		return image.Rectangle{}
	}
	scale := math.Min(float64(target)/float64(srcW), float64(target)/float64(srcH))
	dw := int(math.Round(float64(srcW) * scale))
	dh := int(math.Round(float64(srcH) * scale))
	dx := int(math.Floor(float64(target-dw) / 2))
	dy := int(math.Floor(float64(target-dh) / 2))
	return image.Rect(dx, dy, dx+dw, dy+dh)
}

// Compose draws src onto the canvas and returns the side x side frame.
// A nil or empty source yields a background-only frame.
func (c *Compositor) Compose(src image.Image) *image.RGBA {
	target := c.side * c.ss
	frame.Fill(c.work, c.bg)
	if src != nil {
		sb := src.Bounds()
		if dst := Placement(sb.Dx(), sb.Dy(), target); !dst.Empty() {
			draw.CatmullRom.Scale(c.work, dst, src, sb, draw.Over, nil)
		}
	}
	if c.ss == 1 {
		return c.work
	}
	frame.Fill(c.out, c.bg)
	draw.CatmullRom.Scale(c.out, c.out.Bounds(), c.work, c.work.Bounds(), draw.Src, nil)
	return c.out
}

// Close returns the canvases to the frame pool. The compositor must not be
// used afterwards.
func (c *Compositor) Close() {
	if c == nil {
		return
	}
	frame.Recycle(c.work)
	frame.Recycle(c.out)
	c.work, c.out = nil, nil
}
