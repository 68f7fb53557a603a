package view

import (
	"image"
	"log/slog"

	"github.com/soocke/flipbook-go/config"
	"github.com/soocke/flipbook-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are invoked on user actions.
type Handlers struct {
	Play, Stop, Reset func()
	Prev, Next        func()
	Export, Cancel    func()
	Exit              func()
	ConfigApplied     func()
}

// RootView composes the top-level application layout and wires UI callbacks.
// It owns high-level subviews and satisfies the presenter view contracts.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	// Subviews
	Stage       StagePreview
	Status      StatusBar
	ConfigPanel ConfigPanel

	// Widgets
	exportBtn *TButtonWidget
	cancelBtn *TButtonWidget
}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger}
}

// Build constructs the layout.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	noop := func() {}
	or := func(fn func()) func() {
		if fn == nil {
			return noop
		}
		return fn
	}

	// Row 0: stage
	rv.Stage = NewStagePreview(0, rv.cfg.StageSize)

	// Row 1: transport buttons
	btnFrame := Frame()
	Grid(btnFrame, Row(1), Column(0), Columnspan(4), Sticky("we"), Padx("0.3m"), Pady("0.3m"))
	buttons := []struct {
		label string
		fn    func()
	}{
		{"<", h.Prev}, {"Play", h.Play}, {"Stop", h.Stop}, {"Reset", h.Reset}, {">", h.Next},
	}
	for i, b := range buttons {
		btn := Button(Txt(b.label), Command(or(b.fn)))
		Grid(btn, In(btnFrame), Row(0), Column(i), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	}
	rv.exportBtn = TButton(Txt("Export GIF"), Style(theme.StylePrimaryButton), Command(or(h.Export)))
	Grid(rv.exportBtn, In(btnFrame), Row(0), Column(len(buttons)), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.cancelBtn = TButton(Txt("Cancel"), Style(theme.StyleDangerButton), Command(or(h.Cancel)))
	Grid(rv.cancelBtn, In(btnFrame), Row(0), Column(len(buttons)+1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.cancelBtn.Configure(State("disabled"))
	exitBtn := Button(Txt("Exit"), Command(or(h.Exit)))
	Grid(exitBtn, In(btnFrame), Row(0), Column(len(buttons)+2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))

	// Row 2: status
	statusFrame := Frame()
	Grid(statusFrame, Row(2), Column(0), Columnspan(4), Sticky("we"), Padx("0.3m"))
	rv.Status = NewStatusBar(statusFrame, 0)

	// Config panel rows
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger, h.ConfigApplied)
	rv.ConfigPanel.Build(3)
}

// --- PlaybackPresenter view contract ---

// ShowFrame displays img on the stage; nil shows the empty stage.
func (rv *RootView) ShowFrame(img image.Image) {
	if rv != nil && rv.Stage != nil {
		rv.Stage.Show(img)
	}
}

// SetInfo updates the frame position label.
func (rv *RootView) SetInfo(text string) {
	if rv != nil && rv.Status != nil {
		rv.Status.SetInfo(text)
	}
}

// StageSize reports the stage side in pixels. It is fixed once built, so it
// may be called from the export goroutine.
func (rv *RootView) StageSize() int {
	if rv == nil || rv.Stage == nil {
		return 0
	}
	return rv.Stage.Side()
}

// --- ExportPresenter view contract ---

// SetExporting swaps the export/cancel buttons and locks the settings.
func (rv *RootView) SetExporting(active bool) {
	if rv == nil {
		return
	}
	on, off := "normal", "disabled"
	if active {
		on, off = off, on
	}
	if rv.exportBtn != nil {
		rv.exportBtn.Configure(State(on))
	}
	if rv.cancelBtn != nil {
		rv.cancelBtn.Configure(State(off))
	}
	if rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(!active)
	}
}

// SetProgress updates the export progress label.
func (rv *RootView) SetProgress(fraction float64) {
	if rv != nil && rv.Status != nil {
		rv.Status.SetProgress(fraction)
	}
}

// SetStatus shows a notice such as the saved path or a failure.
func (rv *RootView) SetStatus(text string) {
	if rv != nil && rv.Status != nil {
		rv.Status.SetStatus(text)
	}
}
