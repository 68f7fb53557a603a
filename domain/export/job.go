package export

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/soocke/flipbook-go/domain/source"
)

var ErrRunning = errors.New("export: job still running")

// State is the lifecycle state of a Job.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s >= StateCompleted }

// Job is one export run with its own cancellation and progress.
// One job at a time is the caller's responsibility.
type Job struct {
	ID string

	images []*source.Image
	opts   Options

	state    atomic.Int32
	progress atomic.Uint64 // float64 bits
	cancel   context.CancelFunc
	done     chan struct{}

	blob []byte
	err  error
}

// Start runs Build asynchronously on a snapshot of images. onProgress, if
// non-nil, is called from the export goroutine.
func (p *Pipeline) Start(ctx context.Context, images []*source.Image, opts Options, onProgress func(float64)) *Job {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{
		ID:     uuid.NewString(),
		images: append([]*source.Image(nil), images...),
		opts:   opts,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	j.state.Store(int32(StateRunning))
	go j.run(ctx, p, onProgress)
	return j
}

func (j *Job) run(ctx context.Context, p *Pipeline, onProgress func(float64)) {
	defer close(j.done)
	defer j.cancel()
	logger := p.logger().With("job", j.ID)
	logger.Info("export started", "frames", len(j.images))
	start := time.Now()

	blob, err := p.Build(ctx, j.images, j.opts, func(f float64) {
		j.progress.Store(math.Float64bits(f))
		if onProgress != nil {
			onProgress(f)
		}
	})
	switch {
	case err == nil:
		j.blob = blob
		j.progress.Store(math.Float64bits(1))
		j.state.Store(int32(StateCompleted))
		logger.Info("export finished", "size", humanize.Bytes(uint64(len(blob))), "duration", time.Since(start))
	case errors.Is(err, ErrCanceled):
		j.err = err
		j.state.Store(int32(StateCancelled))
		logger.Info("export cancelled", "duration", time.Since(start))
	default:
		j.err = err
		j.state.Store(int32(StateFailed))
		logger.Error("export failed", "error", err)
	}
}

// Cancel requests cooperative cancellation. Safe to call more than once.
func (j *Job) Cancel() { j.cancel() }

// Done is closed once the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// State returns the current lifecycle state.
func (j *Job) State() State { return State(j.state.Load()) }

// Progress returns the last reported fraction in [0,1].
func (j *Job) Progress() float64 { return math.Float64frombits(j.progress.Load()) }

// Wait blocks until the job settles and returns its outcome.
func (j *Job) Wait() ([]byte, error) {
	<-j.done
	return j.blob, j.err
}

// Result returns the outcome without blocking, or ErrRunning before the job
// has settled.
func (j *Job) Result() ([]byte, error) {
	select {
	case <-j.done:
		return j.blob, j.err
	default:
		return nil, ErrRunning
	}
}
