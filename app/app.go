package app

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/flipbook-go/ui/presenter"
	"github.com/soocke/flipbook-go/ui/theme"
	"github.com/soocke/flipbook-go/ui/view"
)

const (
	tick = 40 * time.Millisecond
)

// Preview runs the preview window on the Tk event loop.
type Preview struct {
	c       *AppContainer
	title   string
	width   int
	height  int
	afterID string
}

func NewPreview(title string, width, height int, c *AppContainer) *Preview {
	return &Preview{c: c, title: title, width: width, height: height}
}

// Start builds the window and blocks until it is closed.
func (a *Preview) Start() {
	theme.SetDark(a.c.Config.Dark)
	App.WmTitle(a.title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", a.width, a.height))

	pp, ep := a.c.PlaybackPresenter, a.c.ExportPresenter
	a.c.RootView.Build(view.Handlers{
		Play:          pp.Play,
		Stop:          pp.Stop,
		Reset:         pp.Reset,
		Prev:          func() { pp.Step(-1) },
		Next:          func() { pp.Step(1) },
		Export:        ep.Start,
		Cancel:        ep.Cancel,
		Exit:          a.exitHandler,
		ConfigApplied: pp.Invalidate,
	})
	pp.SelectionChanged()

	a.c.Loop = presenter.NewLoop(pp, ep, a.scheduleUpdate)
	a.scheduleUpdate()

	App.Wait()
}

func (a *Preview) exitHandler() {
	// Abandon a running export; its goroutine exits at the next checkpoint.
	a.c.ExportPresenter.Cancel()
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	a.c.Flipbook.Clear()
	if a.c.Logger != nil {
		a.c.Logger.Info("preview closed")
	}
	Destroy(App)
}

func (a *Preview) scheduleUpdate() {
	// Schedule the next update using TclAfter to stay on Tk's event loop thread.
	a.afterID = TclAfter(tick, func() { a.c.Loop.Tick() })
}
