package model

import (
	"testing"
	"time"

	"github.com/soocke/flipbook-go/domain/source"
)

func TestPlayback_AdvancesOnAccumulatedTime(t *testing.T) {
	m := NewPlayback()
	base := time.Unix(0, 0)
	delay := 500 * time.Millisecond

	m.Start(3)
	// First tick only records the timestamp.
	if m.Tick(base, delay) || m.Index() != 0 {
		t.Fatalf("first tick should not advance, index=%d", m.Index())
	}
	if m.Tick(base.Add(400*time.Millisecond), delay) {
		t.Fatalf("advanced before delay elapsed")
	}
	if !m.Tick(base.Add(600*time.Millisecond), delay) || m.Index() != 1 {
		t.Fatalf("expected index 1, got %d", m.Index())
	}
	// A long gap advances several frames and wraps.
	m.Tick(base.Add(1700*time.Millisecond), delay)
	if m.Index() != 0 {
		t.Fatalf("expected wrap to 0 after 1.7s, got %d", m.Index())
	}
}

func TestPlayback_StopResetAndEdgeCases(t *testing.T) {
	m := &Playback{}
	m.Start(0)
	if m.Playing() {
		t.Fatalf("start with zero frames must be a no-op")
	}
	base := time.Unix(100, 0)
	m.Start(4)
	m.Tick(base, time.Second)
	m.Tick(base.Add(2*time.Second), time.Second)
	if m.Index() != 2 {
		t.Fatalf("expected index 2, got %d", m.Index())
	}
	m.Stop()
	if m.Tick(base.Add(10*time.Second), time.Second) || m.Index() != 2 {
		t.Fatalf("stopped playback advanced")
	}
	// Restart: the pause must not count as elapsed time.
	m.Start(4)
	m.Tick(base.Add(20*time.Second), time.Second)
	if m.Index() != 2 {
		t.Fatalf("pause leaked into accumulator, index=%d", m.Index())
	}
	m.Reset()
	if m.Playing() || m.Index() != 0 {
		t.Fatalf("reset should stop and rewind: playing=%v index=%d", m.Playing(), m.Index())
	}
	m.SetTotal(4)
	m.SetIndex(-1)
	if m.Index() != 3 {
		t.Fatalf("SetIndex(-1) should wrap to 3, got %d", m.Index())
	}
	var nilModel *Playback
	nilModel.Start(2)
	if nilModel.Tick(base, time.Second) || nilModel.Index() != 0 {
		t.Fatalf("nil model should be inert")
	}
}

func TestFlipbook_ReplaceReleasesPrevious(t *testing.T) {
	a := source.New("a.png", []byte{1, 2, 3})
	b := source.New("b.png", []byte{4, 5})
	c := source.New("c.png", []byte{6})
	var f Flipbook
	f.Replace([]*source.Image{a, b})
	if f.Len() != 2 || f.At(1) != b || f.At(5) != nil {
		t.Fatalf("unexpected selection")
	}
	f.Replace([]*source.Image{b, c})
	if a.Len() != 0 {
		t.Fatalf("superseded image should be released")
	}
	if b.Len() == 0 {
		t.Fatalf("image kept across selections must not be released")
	}
	snap := f.Images()
	snap[0] = nil
	if f.At(0) != b {
		t.Fatalf("snapshot aliases internal list")
	}
	f.Clear()
	if f.Len() != 0 || c.Len() != 0 {
		t.Fatalf("clear should release all images")
	}
}

func TestExportModel_SingleFlight(t *testing.T) {
	var m ExportModel
	if !m.TryBegin() || m.TryBegin() || !m.Active() {
		t.Fatalf("only one export may begin")
	}
	m.End()
	if m.Active() || !m.TryBegin() {
		t.Fatalf("end should allow a new export")
	}
}
