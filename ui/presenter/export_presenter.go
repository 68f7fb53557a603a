package presenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/flipbook-go/domain/export"
	"github.com/soocke/flipbook-go/domain/source"
	"github.com/soocke/flipbook-go/ui/model"
)

// JobRunner starts asynchronous export jobs.
type JobRunner interface {
	Start(ctx context.Context, images []*source.Image, opts export.Options, onProgress func(float64)) *export.Job
}

// Selection provides a snapshot of the images to export.
type Selection interface {
	Images() []*source.Image
}

// ExportView reflects export state. Called only from Tick or user actions.
type ExportView interface {
	SetExporting(active bool)
	SetProgress(fraction float64)
	SetStatus(text string)
}

// ExportPresenter runs one export job at a time and reports its outcome.
// The job publishes progress through atomics; Tick reads them on the UI thread.
type ExportPresenter struct {
	model   *model.ExportModel
	runner  JobRunner
	sel     Selection
	options func() export.Options
	save    func([]byte) (string, error)
	view    ExportView
	logger  *slog.Logger

	job  *export.Job
	last float64
}

// NewExportPresenter wires the presenter. save consumes the finished GIF and
// returns where it went.
func NewExportPresenter(m *model.ExportModel, runner JobRunner, sel Selection, options func() export.Options, save func([]byte) (string, error), view ExportView, logger *slog.Logger) *ExportPresenter {
	return &ExportPresenter{model: m, runner: runner, sel: sel, options: options, save: save, view: view, logger: logger}
}

func (p *ExportPresenter) ready() bool {
	return p != nil && p.model != nil && p.runner != nil && p.sel != nil && p.options != nil && p.save != nil && p.view != nil
}

// Start begins an export of the current selection. Ignored while one runs.
func (p *ExportPresenter) Start() {
	if !p.ready() {
		return
	}
	images := p.sel.Images()
	if len(images) == 0 {
		p.view.SetStatus("No images selected")
		return
	}
	if !p.model.TryBegin() {
		return
	}
	p.job = p.runner.Start(context.Background(), images, p.options(), nil)
	p.last = 0
	p.view.SetExporting(true)
	p.view.SetProgress(0)
	p.view.SetStatus(fmt.Sprintf("Exporting %d frames", len(images)))
}

// Cancel requests cancellation of the running job. Idempotent.
func (p *ExportPresenter) Cancel() {
	if p == nil || p.job == nil {
		return
	}
	p.job.Cancel()
}

// Active reports whether a job is in flight.
func (p *ExportPresenter) Active() bool { return p != nil && p.job != nil }

// Tick forwards progress and settles a finished job.
func (p *ExportPresenter) Tick(now time.Time) {
	if !p.ready() || p.job == nil {
		return
	}
	if f := p.job.Progress(); f != p.last {
		p.last = f
		p.view.SetProgress(f)
	}
	blob, err := p.job.Result()
	if errors.Is(err, export.ErrRunning) {
		return
	}
	p.job = nil
	p.model.End()
	p.view.SetExporting(false)
	switch {
	case err == nil:
		path, serr := p.save(blob)
		if serr != nil {
			p.fail(serr)
			return
		}
		p.view.SetProgress(1)
		p.view.SetStatus(fmt.Sprintf("Saved %s (%s)", path, humanize.Bytes(uint64(len(blob)))))
	case errors.Is(err, export.ErrCanceled):
		p.view.SetProgress(0)
		p.view.SetStatus("")
	default:
		p.fail(err)
	}
}

func (p *ExportPresenter) fail(err error) {
	if p.logger != nil {
		p.logger.Error("export failed", "error", err)
	}
	p.view.SetProgress(0)
	p.view.SetStatus("Export failed")
}
