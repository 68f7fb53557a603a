package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/soocke/flipbook-go/domain/acquire"
	"github.com/soocke/flipbook-go/domain/encoder"
	"github.com/soocke/flipbook-go/domain/source"
)

func pngSource(t *testing.T, name string, w, h int, c color.RGBA) *source.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return source.New(name, buf.Bytes())
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func baseOptions() Options {
	return Options{Side: 64, Delay: 200 * time.Millisecond, Quality: 10, Supersample: 1}
}

// fakeEncoder records submitted frames and finishes on Render unless hold is set.
type fakeEncoder struct {
	mu       sync.Mutex
	cfg      encoder.Config
	centers  []color.RGBA
	opts     []encoder.FrameOptions
	onAdd    func(n int)
	progress []func(float64)
	finished []func([]byte)
	failed   []func(error)
	fail     error
	hold     bool
	aborted  bool
	rendered bool
}

func (f *fakeEncoder) AddFrame(img image.Image, opts encoder.FrameOptions) error {
	f.mu.Lock()
	b := img.Bounds()
	r, g, bl, a := img.At(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2).RGBA()
	f.centers = append(f.centers, color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8), uint8(a >> 8)})
	f.opts = append(f.opts, opts)
	n := len(f.centers)
	hook := f.onAdd
	f.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return nil
}

func (f *fakeEncoder) OnProgress(fn func(float64)) { f.progress = append(f.progress, fn) }
func (f *fakeEncoder) OnFinished(fn func([]byte))  { f.finished = append(f.finished, fn) }
func (f *fakeEncoder) OnError(fn func(error))      { f.failed = append(f.failed, fn) }

func (f *fakeEncoder) Render() error {
	f.mu.Lock()
	f.rendered = true
	f.mu.Unlock()
	if f.hold {
		return nil
	}
	go func() {
		for _, fn := range f.progress {
			fn(0.5)
			fn(1)
		}
		if f.fail != nil {
			for _, fn := range f.failed {
				fn(f.fail)
			}
			return
		}
		for _, fn := range f.finished {
			fn([]byte("GIF89a"))
		}
	}()
	return nil
}

func (f *fakeEncoder) Abort() {
	f.mu.Lock()
	f.aborted = true
	f.mu.Unlock()
}

func (f *fakeEncoder) frames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.centers)
}

func near(a, b color.RGBA) bool {
	d := func(x, y uint8) bool { return max(x, y)-min(x, y) < 4 }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B)
}

func withFake(p *Pipeline, fe *fakeEncoder) *Pipeline {
	p.NewEncoder = func(cfg encoder.Config) (Encoder, error) {
		fe.cfg = cfg
		return fe, nil
	}
	return p
}

type fixedStage int

func (s fixedStage) StageSize() int { return int(s) }

func TestBuild_ThreeImagesEncodesSquareGIF(t *testing.T) {
	images := []*source.Image{
		pngSource(t, "a.png", 400, 300, red),
		pngSource(t, "b.png", 300, 400, green),
		pngSource(t, "c.png", 500, 500, blue),
	}
	p := &Pipeline{Decoder: &acquire.Decoder{TempDir: t.TempDir()}}
	opts := Options{Side: 256, Delay: 500 * time.Millisecond, Quality: 10, Supersample: 1}

	var mu sync.Mutex
	var last float64
	blob, err := p.Build(context.Background(), images, opts, func(f float64) {
		mu.Lock()
		if f < last {
			t.Errorf("progress went backwards: %v -> %v", last, f)
		}
		last = f
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	g, err := gif.DecodeAll(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}
	if g.Config.Width != 256 || g.Config.Height != 256 || len(g.Image) != 3 {
		t.Fatalf("unexpected gif %dx%d frames=%d", g.Config.Width, g.Config.Height, len(g.Image))
	}
	if g.LoopCount != 0 {
		t.Fatalf("expected infinite loop, got %d", g.LoopCount)
	}
	for i, d := range g.Delay {
		if d != 50 {
			t.Fatalf("frame %d delay %d want 50", i, d)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if last != 1 {
		t.Fatalf("final progress %v want 1", last)
	}
	for _, img := range images {
		if w, h := img.Size(); w == 0 || h == 0 {
			t.Fatalf("%s: natural size not recorded", img.Name)
		}
		if err := img.Acquire(); err != nil {
			t.Fatalf("%s: drawable left open: %v", img.Name, err)
		}
		img.Unacquire()
	}
}

func TestBuild_SubmitsEveryFrameInOrder(t *testing.T) {
	images := []*source.Image{
		pngSource(t, "1.png", 10, 10, red),
		pngSource(t, "2.png", 20, 5, green),
		pngSource(t, "3.png", 5, 20, blue),
		pngSource(t, "4.png", 8, 8, red),
	}
	snapshot := append([]*source.Image(nil), images...)
	fe := &fakeEncoder{}
	p := withFake(&Pipeline{}, fe)
	blob, err := p.Build(context.Background(), images, baseOptions(), nil)
	if err != nil || string(blob) != "GIF89a" {
		t.Fatalf("build: blob=%q err=%v", blob, err)
	}
	want := []color.RGBA{red, green, blue, red}
	if len(fe.centers) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(fe.centers))
	}
	for i := range want {
		if !near(fe.centers[i], want[i]) {
			t.Fatalf("frame %d center %v want %v", i, fe.centers[i], want[i])
		}
		if fe.opts[i].Dispose != encoder.DisposeBackground || fe.opts[i].Delay != 200*time.Millisecond {
			t.Fatalf("frame %d options %+v", i, fe.opts[i])
		}
	}
	for i := range images {
		if images[i] != snapshot[i] {
			t.Fatalf("caller list mutated at %d", i)
		}
	}
	if fe.cfg.Width != 64 || fe.cfg.Height != 64 || fe.cfg.Repeat != 0 || fe.cfg.Workers != defaultWorkers {
		t.Fatalf("unexpected encoder config %+v", fe.cfg)
	}
}

func TestBuild_CancelBeforeFirstFrame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fe := &fakeEncoder{}
	p := withFake(&Pipeline{}, fe)
	blob, err := p.Build(ctx, []*source.Image{pngSource(t, "a.png", 4, 4, red)}, baseOptions(), nil)
	if !errors.Is(err, ErrCanceled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if blob != nil || fe.frames() != 0 {
		t.Fatalf("cancelled build produced output: blob=%v frames=%d", blob, fe.frames())
	}
}

func TestBuild_CancelAfterFrameK(t *testing.T) {
	const n, k = 5, 2
	var images []*source.Image
	for i := 0; i < n; i++ {
		images = append(images, pngSource(t, "f.png", 6, 6, green))
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fe := &fakeEncoder{onAdd: func(added int) {
		if added == k {
			cancel()
		}
	}}
	p := withFake(&Pipeline{}, fe)
	blob, err := p.Build(ctx, images, baseOptions(), nil)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
	if blob != nil {
		t.Fatalf("cancelled build returned a blob")
	}
	if got := fe.frames(); got > k+1 {
		t.Fatalf("expected at most %d frames, got %d", k+1, got)
	}
	if fe.rendered || !fe.aborted {
		t.Fatalf("encoder should be abandoned: rendered=%v aborted=%v", fe.rendered, fe.aborted)
	}
}

type cancelingOpener struct {
	cancel   context.CancelFunc
	released bool
}

type trackedDrawable struct {
	img image.Image
	o   *cancelingOpener
}

func (d *trackedDrawable) Image() image.Image { return d.img }
func (d *trackedDrawable) Width() int         { return d.img.Bounds().Dx() }
func (d *trackedDrawable) Height() int        { return d.img.Bounds().Dy() }
func (d *trackedDrawable) Close()             { d.o.released = true }
func (d *trackedDrawable) Revoke()            {}

func (o *cancelingOpener) Open(ctx context.Context, src *source.Image) (acquire.Drawable, error) {
	o.cancel()
	return &trackedDrawable{img: image.NewRGBA(image.Rect(0, 0, 3, 3)), o: o}, nil
}

func TestBuild_CancelDuringDecodeReleasesHandle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	op := &cancelingOpener{cancel: cancel}
	fe := &fakeEncoder{}
	p := withFake(&Pipeline{Decoder: op}, fe)
	_, err := p.Build(ctx, []*source.Image{source.New("x", []byte{1})}, baseOptions(), nil)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
	if fe.frames() != 0 {
		t.Fatalf("frame added after cancellation during decode")
	}
	if !op.released {
		t.Fatalf("drawable not released")
	}
}

func TestBuild_DecodeFailureFailsJob(t *testing.T) {
	fe := &fakeEncoder{}
	p := withFake(&Pipeline{Decoder: &acquire.Decoder{TempDir: t.TempDir()}}, fe)
	images := []*source.Image{
		pngSource(t, "ok.png", 4, 4, red),
		source.New("bad.png", []byte("definitely not an image")),
	}
	_, err := p.Build(context.Background(), images, baseOptions(), nil)
	var de *acquire.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if errors.Is(err, ErrCanceled) {
		t.Fatalf("failure must not look like cancellation")
	}
	if fe.frames() != 1 || fe.rendered {
		t.Fatalf("unexpected encoder state: frames=%d rendered=%v", fe.frames(), fe.rendered)
	}
}

func TestBuild_EncoderErrorFails(t *testing.T) {
	fe := &fakeEncoder{fail: errors.New("boom")}
	p := withFake(&Pipeline{}, fe)
	blob, err := p.Build(context.Background(), []*source.Image{pngSource(t, "a.png", 4, 4, red)}, baseOptions(), nil)
	if err == nil || blob != nil || errors.Is(err, ErrCanceled) {
		t.Fatalf("expected encode failure, got blob=%v err=%v", blob, err)
	}
}

func TestBuild_MatchStageResolvesSide(t *testing.T) {
	for _, c := range []struct{ stage, want int }{{300, 300}, {1, 2}, {0, 2}} {
		fe := &fakeEncoder{}
		p := withFake(&Pipeline{Stage: fixedStage(c.stage)}, fe)
		opts := baseOptions()
		opts.MatchStage = true
		if _, err := p.Build(context.Background(), []*source.Image{pngSource(t, "a.png", 4, 4, red)}, opts, nil); err != nil {
			t.Fatalf("stage %d: %v", c.stage, err)
		}
		if fe.cfg.Width != c.want || fe.cfg.Height != c.want {
			t.Fatalf("stage %d: side %d want %d", c.stage, fe.cfg.Width, c.want)
		}
	}
}

func TestBuild_RejectsBadInput(t *testing.T) {
	p := withFake(&Pipeline{}, &fakeEncoder{})
	if _, err := p.Build(context.Background(), nil, baseOptions(), nil); !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
	opts := baseOptions()
	opts.Delay = 0
	if _, err := p.Build(context.Background(), []*source.Image{source.New("a", []byte{1})}, opts, nil); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions, got %v", err)
	}
}

func TestOptions_ValidateClampsQuality(t *testing.T) {
	o := Options{Side: 10, Delay: time.Second, Quality: 99, Supersample: 1, Background: color.RGBA{R: 9}}
	if err := o.Validate(); err != nil {
		t.Fatal(err)
	}
	if o.Quality != 30 || o.Background.A != 255 {
		t.Fatalf("unexpected normalized options %+v", o)
	}
	o.Supersample = 0
	if err := o.Validate(); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for supersample 0, got %v", err)
	}
}

func TestJob_CompletesWithProgress(t *testing.T) {
	fe := &fakeEncoder{}
	p := withFake(&Pipeline{}, fe)
	j := p.Start(context.Background(), []*source.Image{pngSource(t, "a.png", 4, 4, red)}, baseOptions(), nil)
	if j.ID == "" {
		t.Fatalf("job without id")
	}
	blob, err := j.Wait()
	if err != nil || len(blob) == 0 {
		t.Fatalf("wait: blob=%v err=%v", blob, err)
	}
	if j.State() != StateCompleted || j.Progress() != 1 {
		t.Fatalf("state=%v progress=%v", j.State(), j.Progress())
	}
	if b, err := j.Result(); err != nil || !bytes.Equal(b, blob) {
		t.Fatalf("result mismatch: %v", err)
	}
}

func TestJob_CancelWhileRendering(t *testing.T) {
	fe := &fakeEncoder{hold: true}
	p := withFake(&Pipeline{}, fe)
	j := p.Start(context.Background(), []*source.Image{pngSource(t, "a.png", 4, 4, red)}, baseOptions(), nil)
	if _, err := j.Result(); !errors.Is(err, ErrRunning) {
		t.Fatalf("expected ErrRunning while running, got %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		fe.mu.Lock()
		r := fe.rendered
		fe.mu.Unlock()
		if r {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("render never started")
		}
		time.Sleep(time.Millisecond)
	}
	j.Cancel()
	j.Cancel()
	if _, err := j.Wait(); !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
	if j.State() != StateCancelled || !fe.aborted {
		t.Fatalf("state=%v aborted=%v", j.State(), fe.aborted)
	}
}

func TestJob_FailureState(t *testing.T) {
	fe := &fakeEncoder{fail: errors.New("boom")}
	p := withFake(&Pipeline{}, fe)
	j := p.Start(context.Background(), []*source.Image{pngSource(t, "a.png", 4, 4, red)}, baseOptions(), nil)
	if _, err := j.Wait(); err == nil {
		t.Fatalf("expected failure")
	}
	if j.State() != StateFailed || !j.State().Terminal() {
		t.Fatalf("state=%v", j.State())
	}
}
