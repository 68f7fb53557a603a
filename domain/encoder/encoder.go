// Package encoder is an incremental animated GIF encoder.
//
// Frames are copied on AddFrame and quantized on worker goroutines once Render
// is called. Completion is reported through events: zero or more progress
// fractions, then exactly one finished (with the GIF bytes) or error event.
// Event callbacks run on a single goroutine, in order.
package encoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"math"
	"slices"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/soocke/flipbook-go/domain/frame"
)

// Dispose is the per-frame disposal method. Values match image/gif.
type Dispose byte

const (
	DisposeUnspecified Dispose = 0
	DisposeNone        Dispose = gif.DisposalNone
	DisposeBackground  Dispose = gif.DisposalBackground
	DisposePrevious    Dispose = gif.DisposalPrevious
)

const (
	defaultQuality = 10
	maxQuality     = 30
	defaultWorkers = 2
)

var (
	ErrSize      = errors.New("encoder: invalid canvas size")
	ErrNoFrames  = errors.New("encoder: no frames")
	ErrRendering = errors.New("encoder: render already started")
	ErrNilImage  = errors.New("encoder: nil frame image")
)

// Config is fixed at construction.
type Config struct {
	Width, Height int
	// Quality is the pixel sample interval used to build each palette:
	// 1 samples every pixel (best), 30 every 30th (fastest).
	Quality int
	// Repeat follows image/gif LoopCount: 0 loops forever, -1 plays once.
	Repeat     int
	Background color.RGBA
	Workers    int
	Dither     bool
}

// FrameOptions carries per-frame metadata.
type FrameOptions struct {
	Delay   time.Duration
	Dispose Dispose
}

type pending struct {
	pix  *image.RGBA
	opts FrameOptions
}

// Encoder accumulates frames and renders them into a GIF stream.
type Encoder struct {
	cfg Config

	mu         sync.Mutex
	frames     []pending
	rendering  bool
	onProgress []func(float64)
	onFinished []func([]byte)
	onError    []func(error)

	abort     chan struct{}
	abortOnce sync.Once
}

// New validates cfg and returns an idle encoder.
func New(cfg Config) (*Encoder, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > 65535 || cfg.Height > 65535 {
		return nil, ErrSize
	}
	if cfg.Quality < 1 {
		cfg.Quality = defaultQuality
	}
	if cfg.Quality > maxQuality {
		cfg.Quality = maxQuality
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	cfg.Background.A = 0xff
	return &Encoder{cfg: cfg, abort: make(chan struct{})}, nil
}

// Config returns the effective configuration.
func (e *Encoder) Config() Config { return e.cfg }

// OnProgress registers a progress listener (fraction in 0..1).
func (e *Encoder) OnProgress(fn func(float64)) {
	e.mu.Lock()
	e.onProgress = append(e.onProgress, fn)
	e.mu.Unlock()
}

// OnFinished registers a completion listener receiving the GIF bytes.
func (e *Encoder) OnFinished(fn func([]byte)) {
	e.mu.Lock()
	e.onFinished = append(e.onFinished, fn)
	e.mu.Unlock()
}

// OnError registers a failure listener.
func (e *Encoder) OnError(fn func(error)) {
	e.mu.Lock()
	e.onError = append(e.onError, fn)
	e.mu.Unlock()
}

// AddFrame copies img into the frame list. The caller may reuse img as soon as
// AddFrame returns.
func (e *Encoder) AddFrame(img image.Image, opts FrameOptions) error {
	if img == nil {
		return ErrNilImage
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rendering {
		return ErrRendering
	}
	rect := image.Rect(0, 0, e.cfg.Width, e.cfg.Height)
	dst := frame.Acquire(rect)
	b := img.Bounds()
	if b.Dx() != rect.Dx() || b.Dy() != rect.Dy() {
		frame.Fill(dst, e.cfg.Background)
	}
	draw.Draw(dst, rect, img, b.Min, draw.Src)
	e.frames = append(e.frames, pending{pix: dst, opts: opts})
	return nil
}

// Frames reports how many frames have been added.
func (e *Encoder) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.frames)
}

// Render starts encoding in the background. Listeners are notified when done.
func (e *Encoder) Render() error {
	e.mu.Lock()
	if e.rendering {
		e.mu.Unlock()
		return ErrRendering
	}
	if len(e.frames) == 0 {
		e.mu.Unlock()
		return ErrNoFrames
	}
	e.rendering = true
	frames := e.frames
	e.frames = nil
	e.mu.Unlock()

	go e.render(frames)
	return nil
}

// Abort stops a pending render; no finished or error event follows.
// Frames not yet rendered are released.
func (e *Encoder) Abort() {
	e.abortOnce.Do(func() { close(e.abort) })
	e.mu.Lock()
	frames := e.frames
	e.frames = nil
	e.rendering = true
	e.mu.Unlock()
	for _, f := range frames {
		frame.Recycle(f.pix)
	}
}

func (e *Encoder) aborted() bool {
	select {
	case <-e.abort:
		return true
	default:
		return false
	}
}

type quantized struct {
	idx int
	img *image.Paletted
}

func (e *Encoder) render(frames []pending) {
	n := len(frames)
	work := make(chan int, n)
	for i := range frames {
		work <- i
	}
	close(work)

	results := make(chan quantized, n)
	var wg sync.WaitGroup
	workers := min(e.cfg.Workers, n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				if e.aborted() {
					frame.Recycle(frames[idx].pix)
					continue
				}
				p := quantizeFrame(frames[idx].pix, e.cfg.Quality, e.cfg.Dither)
				frame.Recycle(frames[idx].pix)
				results <- quantized{idx: idx, img: p}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]*image.Paletted, n)
	done := 0
	for r := range results {
		out[r.idx] = r.img
		done++
		if !e.aborted() {
			e.emitProgress(float64(done) / float64(n))
		}
	}
	if e.aborted() {
		return
	}

	g := &gif.GIF{
		Image:     out,
		Delay:     make([]int, n),
		Disposal:  make([]byte, n),
		LoopCount: e.cfg.Repeat,
		Config: image.Config{
			ColorModel: out[0].Palette,
			Width:      e.cfg.Width,
			Height:     e.cfg.Height,
		},
		BackgroundIndex: uint8(out[0].Palette.Index(e.cfg.Background)),
	}
	for i, f := range frames {
		g.Delay[i] = centiseconds(f.opts.Delay)
		g.Disposal[i] = byte(f.opts.Dispose)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		e.emitError(err)
		return
	}
	if e.aborted() {
		return
	}
	e.emitFinished(buf.Bytes())
}

// centiseconds converts a delay to GIF units, rounding and never returning 0.
func centiseconds(d time.Duration) int {
	cs := int(math.Round(float64(d) / float64(10*time.Millisecond)))
	if cs < 1 {
		cs = 1
	}
	return cs
}

func (e *Encoder) emitProgress(p float64) {
	e.mu.Lock()
	fns := slices.Clone(e.onProgress)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}

func (e *Encoder) emitFinished(b []byte) {
	e.mu.Lock()
	fns := slices.Clone(e.onFinished)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(b)
	}
}

func (e *Encoder) emitError(err error) {
	e.mu.Lock()
	fns := slices.Clone(e.onError)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}
