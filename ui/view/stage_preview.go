package view

import (
	"image"

	"github.com/soocke/flipbook-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// StagePreview is the square playback stage.
type StagePreview interface {
	Show(img image.Image)
	Reset()
	Side() int
}

type stagePreview struct {
	label *LabelWidget
	side  int
	photo *Img // current Tk photo, deleted before replacement
}

const (
	minStageSide = 64
	maxStageSide = 1024
)

// NewStagePreview creates the stage label spanning the layout columns at row.
// The side is fixed for the lifetime of the window.
func NewStagePreview(row, side int) StagePreview {
	side = min(max(side, minStageSide), maxStageSide)
	photo := NewPhoto(Data(images.EncodePNG(images.Placeholder(side, side, 0x20))))
	lbl := Label(Image(photo), Borderwidth(1), Relief("sunken"))
	Grid(lbl, Row(row), Column(0), Columnspan(4), Padx("0.4m"), Pady("0.4m"))
	return &stagePreview{label: lbl, side: side, photo: photo}
}

func (v *stagePreview) Side() int {
	if v == nil {
		return 0
	}
	return v.side
}

func (v *stagePreview) Show(img image.Image) {
	if v == nil || v.label == nil {
		return
	}
	if img == nil {
		v.Reset()
		return
	}
	v.replace(images.EncodePNG(images.ScaleToFit(img, v.side, v.side)))
}

func (v *stagePreview) Reset() {
	if v == nil || v.label == nil {
		return
	}
	v.replace(images.EncodePNG(images.Placeholder(v.side, v.side, 0x20)))
}

func (v *stagePreview) replace(pngBytes []byte) {
	if len(pngBytes) == 0 {
		return
	}
	if v.photo != nil {
		v.photo.Delete()
	}
	v.photo = NewPhoto(Data(pngBytes))
	v.label.Configure(Image(v.photo))
}
