package app

import (
	"image/color"
	"log/slog"
	"time"

	"github.com/soocke/flipbook-go/config"
	"github.com/soocke/flipbook-go/domain/export"
	"github.com/soocke/flipbook-go/domain/output"
	"github.com/soocke/flipbook-go/domain/source"
	"github.com/soocke/flipbook-go/ui/model"
	"github.com/soocke/flipbook-go/ui/presenter"
	"github.com/soocke/flipbook-go/ui/view"
)

// Container assembles models, services, presenters and the root view.
type AppContainer struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger

	// Models
	Flipbook *model.Flipbook
	Playback *model.Playback
	Export   *model.ExportModel

	// Services
	Pipeline *export.Pipeline
	Preview  *presenter.PreviewCache

	RootView *view.RootView

	// Presenters
	PlaybackPresenter *presenter.PlaybackPresenter
	ExportPresenter   *presenter.ExportPresenter
	Loop              *presenter.Loop
}

// configSettings exposes live playback settings from the config.
type configSettings struct{ cfg *config.Config }

func (s configSettings) FrameDelay() time.Duration {
	return time.Duration(s.cfg.FrameMs) * time.Millisecond
}

func (s configSettings) Background() color.RGBA { return s.cfg.Background() }

// BuildContainer constructs all components. No widgets are created here; the
// view is built by App.Start on the Tk thread.
func BuildContainer(cfg *config.Config, cfgPath string, logger *slog.Logger, images []*source.Image) *AppContainer {
	c := &AppContainer{Config: cfg, ConfigPath: cfgPath, Logger: logger}
	c.Flipbook = &model.Flipbook{}
	c.Flipbook.Replace(images)
	c.Playback = model.NewPlayback()
	c.Export = &model.ExportModel{}

	// View
	c.RootView = view.NewRootView(cfg, cfgPath, logger)

	c.Pipeline = &export.Pipeline{Stage: c.RootView, Logger: logger}
	c.Preview = presenter.NewPreviewCache(nil, 0)

	// Presenters
	c.PlaybackPresenter = presenter.NewPlaybackPresenter(c.Playback, c.Flipbook, c.Preview, configSettings{cfg}, c.RootView, logger)
	c.ExportPresenter = presenter.NewExportPresenter(c.Export, c.Pipeline, c.Flipbook,
		func() export.Options { return export.OptionsFromConfig(cfg) },
		func(blob []byte) (string, error) { return output.Save(blob, cfg.Output) },
		c.RootView, logger)
	return c
}
