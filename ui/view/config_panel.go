package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/flipbook-go/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel encapsulates the export settings form widgets and apply logic.
// It owns its widgets and writes back into *config.Config on ApplyChanges.
type ConfigPanel interface {
	Build(startRow int) (endRow int) // constructs widgets starting at startRow, returns next free row
	SetEditable(enabled bool)
	ApplyChanges() // parses widget text into underlying config and persists
}

type configPanel struct {
	cfg       *config.Config
	cfgPath   string
	logger    *slog.Logger
	onApplied func()
	applyBtn  *ButtonWidget
	widgets   map[string]*TextWidget // keyed by internal field id
}

// NewConfigPanel creates the view bound to cfg. onApplied runs after a
// successful apply.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger, onApplied func()) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, onApplied: onApplied, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(startRow int) (row int) {
	c := v.cfg
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(16))
		Grid(w, Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("frameMs", "Frame (ms, 50-5000)", fmt.Sprintf("%d", c.FrameMs))
	makeRow("sizePreset", "Size (stage/256/512/720/custom)", c.SizePreset)
	makeRow("customSize", "Custom Size (64-2048)", fmt.Sprintf("%d", c.CustomSize))
	makeRow("bgColor", "Background (#rrggbb)", c.BgColor)
	makeRow("quality", "Quality (1 best - 30 fast)", fmt.Sprintf("%d", c.Quality))
	makeRow("supersample", "Supersample (1-4)", fmt.Sprintf("%d", c.Supersample))
	makeRow("output", "Output File", c.Output)
	v.applyBtn = Button(Txt("Apply Changes"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) text(id string) string {
	w := v.widgets[id]
	if w == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(w.Get("1.0", END), ""))
}

func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	cfg := *v.cfg // copy
	assignInt := func(id string, dst *int) {
		if i, ok := parseIntField(v.text(id)); ok {
			*dst = i
		}
	}
	assignString := func(id string, dst *string) {
		if s := v.text(id); s != "" {
			*dst = s
		}
	}
	assignInt("frameMs", &cfg.FrameMs)
	assignString("sizePreset", &cfg.SizePreset)
	assignInt("customSize", &cfg.CustomSize)
	if s := v.text("bgColor"); s != "" {
		if _, err := config.ParseColor(s); err == nil {
			cfg.BgColor = s
		} else if v.logger != nil {
			v.logger.Warn("ignoring background color", "error", err)
		}
	}
	assignInt("quality", &cfg.Quality)
	assignInt("supersample", &cfg.Supersample)
	assignString("output", &cfg.Output)
	cfg.SizePreset = strings.ToLower(cfg.SizePreset)
	if verr := cfg.Validate(); verr != nil {
		return
	}
	*v.cfg = cfg
	v.refresh()
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
	} else {
		if v.logger != nil {
			v.logger.Info("config saved", "path", v.cfgPath)
		}
	}
	if v.onApplied != nil {
		v.onApplied()
	}
}

// refresh writes the clamped values back into the form.
func (v *configPanel) refresh() {
	c := v.cfg
	set := func(id, value string) {
		if w := v.widgets[id]; w != nil {
			w.Delete("1.0", END)
			w.Insert("1.0", value)
		}
	}
	set("frameMs", strconv.Itoa(c.FrameMs))
	set("sizePreset", c.SizePreset)
	set("customSize", strconv.Itoa(c.CustomSize))
	set("bgColor", c.BgColor)
	set("quality", strconv.Itoa(c.Quality))
	set("supersample", strconv.Itoa(c.Supersample))
	set("output", c.Output)
}

func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}
