package presenter

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/soocke/flipbook-go/domain/source"
	"github.com/soocke/flipbook-go/ui/model"
)

// FrameSource is the ordered selection being previewed.
type FrameSource interface {
	Len() int
	At(i int) *source.Image
}

// PlaybackView shows the current frame and its position.
type PlaybackView interface {
	ShowFrame(img image.Image)
	SetInfo(text string)
	StageSize() int
}

// PlaybackSettings supplies the live frame delay and background.
type PlaybackSettings interface {
	FrameDelay() time.Duration
	Background() color.RGBA
}

// PlaybackPresenter advances the playback model and pushes frames to the view.
type PlaybackPresenter struct {
	model    *model.Playback
	book     FrameSource
	preview  *PreviewCache
	settings PlaybackSettings
	view     PlaybackView
	logger   *slog.Logger
	dirty    bool
}

// NewPlaybackPresenter returns a presenter that renders on its first Tick.
func NewPlaybackPresenter(m *model.Playback, book FrameSource, preview *PreviewCache, settings PlaybackSettings, view PlaybackView, logger *slog.Logger) *PlaybackPresenter {
	return &PlaybackPresenter{model: m, book: book, preview: preview, settings: settings, view: view, logger: logger, dirty: true}
}

func (p *PlaybackPresenter) ready() bool {
	return p != nil && p.model != nil && p.book != nil && p.preview != nil && p.settings != nil && p.view != nil
}

// Play starts playback over the current selection.
func (p *PlaybackPresenter) Play() {
	if !p.ready() {
		return
	}
	p.model.Start(p.book.Len())
}

// Stop pauses on the current frame.
func (p *PlaybackPresenter) Stop() {
	if !p.ready() {
		return
	}
	p.model.Stop()
}

// Reset stops and rewinds to the first frame.
func (p *PlaybackPresenter) Reset() {
	if !p.ready() {
		return
	}
	p.model.Reset()
	p.dirty = true
}

// Step moves delta frames forward (negative for backward).
func (p *PlaybackPresenter) Step(delta int) {
	if !p.ready() {
		return
	}
	p.model.SetTotal(p.book.Len())
	p.model.SetIndex(p.model.Index() + delta)
	p.dirty = true
}

// SelectionChanged drops cached frames and rewinds after a new selection.
func (p *PlaybackPresenter) SelectionChanged() {
	if !p.ready() {
		return
	}
	p.preview.Purge()
	p.model.Reset()
	p.model.SetTotal(p.book.Len())
	p.dirty = true
}

// Invalidate forces a redraw on the next tick (stage size or colors changed).
func (p *PlaybackPresenter) Invalidate() {
	if p != nil {
		p.dirty = true
	}
}

// Tick advances the model and redraws when the frame changed.
func (p *PlaybackPresenter) Tick(now time.Time) {
	if !p.ready() {
		return
	}
	advanced := p.model.Tick(now, p.settings.FrameDelay())
	if !advanced && !p.dirty {
		return
	}
	p.dirty = false
	p.render()
}

func (p *PlaybackPresenter) render() {
	n := p.book.Len()
	idx := p.model.Index()
	img := p.book.At(idx)
	if img == nil {
		p.view.ShowFrame(nil)
		p.view.SetInfo("0 / 0")
		return
	}
	p.view.SetInfo(fmt.Sprintf("%d / %d (%s)", idx+1, n, img.Name))
	frame, err := p.preview.Frame(context.Background(), img, max(2, p.view.StageSize()), p.settings.Background())
	if err != nil {
		if p.logger != nil {
			p.logger.Error("preview render failed", "name", img.Name, "error", err)
		}
		p.view.ShowFrame(nil)
		return
	}
	p.view.ShowFrame(frame)
}
