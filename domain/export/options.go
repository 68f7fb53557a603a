package export

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/soocke/flipbook-go/config"
)

var ErrInvalidOptions = errors.New("export: invalid options")

// StageMeasurer reports the current on-screen stage side in pixels.
type StageMeasurer interface {
	StageSize() int
}

// Options is an immutable snapshot of the settings for one export run.
type Options struct {
	Side        int
	MatchStage  bool // resolve Side from the stage at build time
	Delay       time.Duration
	Background  color.RGBA
	Quality     int // 1 (best) .. 30 (fastest)
	Supersample int
}

// OptionsFromConfig snapshots the export settings of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	side, match := cfg.Side()
	return Options{
		Side:        side,
		MatchStage:  match,
		Delay:       time.Duration(cfg.FrameMs) * time.Millisecond,
		Background:  cfg.Background(),
		Quality:     cfg.Quality,
		Supersample: cfg.Supersample,
	}
}

// Validate rejects unusable options and clamps quality into range.
func (o *Options) Validate() error {
	switch {
	case o.Side <= 0:
		return fmt.Errorf("%w: side %d", ErrInvalidOptions, o.Side)
	case o.Delay <= 0:
		return fmt.Errorf("%w: delay %v", ErrInvalidOptions, o.Delay)
	case o.Supersample < 1:
		return fmt.Errorf("%w: supersample %d", ErrInvalidOptions, o.Supersample)
	}
	if o.Quality < 1 {
		o.Quality = 1
	}
	if o.Quality > 30 {
		o.Quality = 30
	}
	o.Background.A = 0xff
	return nil
}

// resolve fixes the side for this run and validates the result.
func (o Options) resolve(stage StageMeasurer) (Options, error) {
	if o.MatchStage && stage != nil {
		o.Side = max(2, stage.StageSize())
	}
	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}
