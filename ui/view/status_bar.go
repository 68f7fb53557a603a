package view

import (
	"fmt"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// StatusBar shows the frame position, export progress and the last notice.
type StatusBar interface {
	SetInfo(text string)
	SetProgress(fraction float64)
	SetStatus(text string)
}

type statusBar struct {
	infoLbl     *LabelWidget
	progressLbl *LabelWidget
	statusLbl   *LabelWidget
}

// NewStatusBar creates the three labels in a grid row inside parent.
// If parent is nil, labels are positioned relative to the App root.
func NewStatusBar(parent *FrameWidget, row int) StatusBar {
	s := &statusBar{
		infoLbl:     Label(Width(28), Anchor("w")),
		progressLbl: Label(Width(14), Anchor("w")),
		statusLbl:   Label(Width(40), Anchor("w")),
	}
	for i, l := range []*LabelWidget{s.infoLbl, s.progressLbl, s.statusLbl} {
		if parent != nil {
			Grid(l, In(parent), Row(row), Column(i), Sticky("w"), Padx("0.2m"))
		} else {
			Grid(l, Row(row), Column(i), Sticky("w"), Padx("0.2m"))
		}
	}
	s.infoLbl.Configure(Txt("0 / 0"))
	s.progressLbl.Configure(Txt("Export: -"))
	s.statusLbl.Configure(Txt(""))
	return s
}

func (s *statusBar) SetInfo(text string) {
	if s == nil || s.infoLbl == nil {
		return
	}
	s.infoLbl.Configure(Txt(text))
}

func (s *statusBar) SetProgress(fraction float64) {
	if s == nil || s.progressLbl == nil {
		return
	}
	fraction = min(max(fraction, 0), 1)
	s.progressLbl.Configure(Txt(fmt.Sprintf("Export: %3.0f%%", fraction*100)))
}

func (s *statusBar) SetStatus(text string) {
	if s == nil || s.statusLbl == nil {
		return
	}
	s.statusLbl.Configure(Txt(text))
}
