package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
)

// Size presets accepted by SizePreset.
const (
	SizeStage  = "stage"
	SizeCustom = "custom"
)

// Import re-encode formats.
const (
	ImportJPEG         = "jpeg"
	ImportWebP         = "webp"
	ImportWebPLossless = "webp-lossless"
)

// Config holds export and import settings for the flipbook.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug"`
	Dark  bool `json:"dark"` // dark preview window theme

	// Export parameters
	FrameMs     int    `json:"frame_ms"`
	SizePreset  string `json:"size_preset"` // stage | 256 | 512 | 720 | custom
	CustomSize  int    `json:"custom_size"`
	StageSize   int    `json:"stage_size"` // stage side used when no window is measuring it
	BgColor     string `json:"bg_color"`
	Quality     int    `json:"quality"` // 1 (best) .. 30 (fastest)
	Supersample int    `json:"supersample"`

	// Import normalization
	ImportMaxEdge int     `json:"import_max_edge"` // 0 = off
	ImportFormat  string  `json:"import_format"`
	ImportQuality float64 `json:"import_quality"`

	// Output
	Output string `json:"output"` // strftime patterns allowed
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:         false,
		FrameMs:       500,
		SizePreset:    SizeStage,
		CustomSize:    640,
		StageSize:     512,
		BgColor:       "#000000",
		Quality:       10,
		Supersample:   1,
		ImportMaxEdge: 0,
		ImportFormat:  ImportJPEG,
		ImportQuality: 0.85,
		Output:        "flipbook.gif",
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	c.FrameMs = clamp(c.FrameMs, 50, 5000, 500)
	c.CustomSize = clamp(c.CustomSize, 64, 2048, 640)
	c.StageSize = clamp(c.StageSize, 2, 4096, 512)
	c.Quality = clamp(c.Quality, 1, 30, 10)
	c.Supersample = clamp(c.Supersample, 1, 4, 1)
	switch c.SizePreset {
	case SizeStage, SizeCustom, "256", "512", "720":
	default:
		c.SizePreset = SizeStage
	}
	if _, err := ParseColor(c.BgColor); err != nil {
		c.BgColor = "#000000"
	}
	if c.ImportMaxEdge < 0 {
		c.ImportMaxEdge = 0
	}
	if c.ImportMaxEdge > 0 && c.ImportMaxEdge < 64 {
		c.ImportMaxEdge = 64
	}
	switch c.ImportFormat {
	case ImportJPEG, ImportWebP, ImportWebPLossless:
	default:
		c.ImportFormat = ImportJPEG
	}
	if c.ImportQuality <= 0 || c.ImportQuality > 1 {
		c.ImportQuality = 0.85
	}
	if strings.TrimSpace(c.Output) == "" {
		c.Output = "flipbook.gif"
	}
	return nil
}

// Side returns the fixed export side for the preset and whether the stage
// size should be used instead.
func (c *Config) Side() (side int, matchStage bool) {
	switch c.SizePreset {
	case SizeStage:
		return c.StageSize, true
	case SizeCustom:
		return c.CustomSize, false
	default:
		n, err := strconv.Atoi(c.SizePreset)
		if err != nil || n <= 0 {
			return c.StageSize, true
		}
		return n, false
	}
}

// Background parses BgColor, falling back to opaque black.
func (c *Config) Background() color.RGBA {
	bg, err := ParseColor(c.BgColor)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return bg
}

// ParseColor parses #rgb or #rrggbb into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("config: bad color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("config: bad color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// DefaultPath returns the per-user config location (XDG config home).
func DefaultPath() string {
	p, err := xdg.ConfigFile("flipbook/config.json")
	if err != nil {
		return "flipbook.json"
	}
	return p
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

func clamp(v, lo, hi, fallback int) int {
	if v == 0 {
		return fallback
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
