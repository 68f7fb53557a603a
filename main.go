package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/flipbook-go/app"
	"github.com/soocke/flipbook-go/config"
	"github.com/soocke/flipbook-go/debug"
	"github.com/soocke/flipbook-go/domain/acquire"
	"github.com/soocke/flipbook-go/domain/export"
	"github.com/soocke/flipbook-go/domain/output"
	"github.com/soocke/flipbook-go/domain/source"
)

// flags overriding the config file. Zero values leave the config untouched.
type flags struct {
	configPath   string
	output       string
	side         int
	delayMs      int
	bg           string
	quality      int
	supersample  int
	importMax    int
	importFormat string
	debug        bool
	preview      bool
	args         []string
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.configPath, "config", config.DefaultPath(), "config file (JSON)")
	flag.StringVar(&f.output, "o", "", "output file; strftime patterns such as %Y%m%d are expanded")
	flag.IntVar(&f.side, "side", 0, "export side in pixels (0 = config size preset)")
	flag.IntVar(&f.delayMs, "delay", 0, "frame delay in milliseconds")
	flag.StringVar(&f.bg, "bg", "", "background color (#rgb or #rrggbb)")
	flag.IntVar(&f.quality, "quality", 0, "palette sample interval, 1 (best) to 30 (fastest)")
	flag.IntVar(&f.supersample, "ss", 0, "supersample factor (1-4)")
	flag.IntVar(&f.importMax, "import-max-edge", -1, "downscale originals above this edge on import (0 = off)")
	flag.StringVar(&f.importFormat, "import-format", "", "import re-encode format: jpeg, webp, webp-lossless")
	flag.BoolVar(&f.debug, "debug", false, "debug logging and runtime stats")
	flag.BoolVar(&f.preview, "preview", false, "open the preview window instead of exporting")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: flipbook [flags] <dir|image>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	f.args = flag.Args()
	return f
}

func (f *flags) apply(cfg *config.Config) {
	if f.output != "" {
		cfg.Output = f.output
	}
	if f.side > 0 {
		cfg.SizePreset = config.SizeCustom
		cfg.CustomSize = f.side
	}
	if f.delayMs > 0 {
		cfg.FrameMs = f.delayMs
	}
	if f.bg != "" {
		cfg.BgColor = f.bg
	}
	if f.quality > 0 {
		cfg.Quality = f.quality
	}
	if f.supersample > 0 {
		cfg.Supersample = f.supersample
	}
	if f.importMax >= 0 {
		cfg.ImportMaxEdge = f.importMax
	}
	if f.importFormat != "" {
		cfg.ImportFormat = f.importFormat
	}
	if f.debug {
		cfg.Debug = true
	}
	_ = cfg.Validate()
}

func main() {
	os.Exit(realMain())
}

// realMain returns the process exit code so deferred cleanup runs before exit.
func realMain() int {
	f := parseFlags()

	cfg, cfgErr := config.Load(f.configPath)
	f.apply(cfg)

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(os.Stderr, level)
	if cfgErr != nil {
		logger.Warn("config load failed, using defaults", "path", f.configPath, "error", cfgErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Debug {
		debug.Start(ctx, 5*time.Second, logger)
	}

	err := run(ctx, f, cfg, logger)
	switch code := exitCode(err); code {
	case 0:
		return 0
	case exitCanceled:
		logger.Info("export cancelled")
		return code
	default:
		logger.Error("flipbook failed", "error", err)
		return code
	}
}

const exitCanceled = 130

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, export.ErrCanceled):
		return exitCanceled
	default:
		return 1
	}
}

func run(ctx context.Context, f *flags, cfg *config.Config, logger *slog.Logger) error {
	if len(f.args) == 0 && !f.preview {
		flag.Usage()
		return errors.New("no input images")
	}
	var images []*source.Image
	if len(f.args) > 0 {
		var err error
		images, err = source.Load(f.args, logger)
		if err != nil {
			return err
		}
	}
	defer source.ReleaseAll(images)
	if cfg.ImportMaxEdge > 0 {
		n := &acquire.Normalizer{
			MaxEdge: cfg.ImportMaxEdge,
			Format:  acquire.Format(cfg.ImportFormat),
			Quality: cfg.ImportQuality,
			Logger:  logger,
		}
		for _, img := range images {
			if err := n.Normalize(ctx, img); err != nil {
				logger.Warn("normalize failed", "name", img.Name, "error", err)
			}
		}
	}

	if f.preview {
		c := app.BuildContainer(cfg, f.configPath, logger, images)
		side := cfg.StageSize
		app.NewPreview("Flipbook", max(side+40, 480), side+360, c).Start()
		return nil
	}

	if len(images) == 0 {
		return errors.New("no images found in input")
	}
	p := &export.Pipeline{Logger: logger}
	job := p.Start(ctx, images, export.OptionsFromConfig(cfg), progressPrinter())
	blob, err := job.Wait()
	if isTerminal(os.Stderr) {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}
	path, err := output.Save(blob, cfg.Output)
	if err != nil {
		return err
	}
	logger.Info("saved", "path", path, "size", humanize.Bytes(uint64(len(blob))), "frames", len(images))
	return nil
}

// progressPrinter renders a single updating line on a terminal.
func progressPrinter() func(float64) {
	if !isTerminal(os.Stderr) {
		return nil
	}
	return func(f float64) {
		fmt.Fprintf(os.Stderr, "\rencoding %3.0f%%", f*100)
	}
}
