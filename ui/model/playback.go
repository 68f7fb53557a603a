package model

import (
	"time"
)

// Playback advances the current frame index on accumulated elapsed time.
// It is decoupled from the UI; presenters call Tick and read Index.
// The zero value is stopped at frame 0 and ready to use.
type Playback struct {
	playing bool
	index   int
	total   int
	last    time.Time // zero until the first tick after Start
	acc     time.Duration
}

// NewPlayback returns a pointer to a ready-to-use Playback.
func NewPlayback() *Playback { return &Playback{} }

// Start begins playback over total frames. total == 0 is a no-op.
func (m *Playback) Start(total int) {
	if m == nil || total <= 0 {
		return
	}
	m.total = total
	if m.index >= total {
		m.index = 0
	}
	m.playing = true
	m.last = time.Time{}
}

// Stop pauses playback and forgets the last timestamp.
func (m *Playback) Stop() {
	if m == nil {
		return
	}
	m.playing = false
	m.last = time.Time{}
}

// Reset stops playback and rewinds to the first frame.
func (m *Playback) Reset() {
	if m == nil {
		return
	}
	m.Stop()
	m.index = 0
	m.acc = 0
}

// SetTotal updates the frame count, clamping the index into range.
func (m *Playback) SetTotal(total int) {
	if m == nil {
		return
	}
	if total < 0 {
		total = 0
	}
	m.total = total
	if m.index >= total {
		m.index = 0
	}
	if total == 0 {
		m.Reset()
	}
}

// SetIndex jumps to frame i (wrapped into range).
func (m *Playback) SetIndex(i int) {
	if m == nil || m.total <= 0 {
		return
	}
	m.index = ((i % m.total) + m.total) % m.total
	m.acc = 0
}

// Tick advances the index by one frame for every delay of accumulated time.
// The first tick after Start only records now. It reports whether the
// index changed.
func (m *Playback) Tick(now time.Time, delay time.Duration) bool {
	if m == nil || !m.playing || m.total <= 0 || delay <= 0 {
		return false
	}
	if m.last.IsZero() {
		m.last = now
		return false
	}
	dt := now.Sub(m.last)
	m.last = now
	if dt < 0 {
		return false
	}
	m.acc += dt
	prev := m.index
	for m.acc >= delay {
		m.acc -= delay
		m.index = (m.index + 1) % m.total
	}
	return m.index != prev
}

// Index returns the current frame index.
func (m *Playback) Index() int {
	if m == nil {
		return 0
	}
	return m.index
}

// Total returns the frame count.
func (m *Playback) Total() int {
	if m == nil {
		return 0
	}
	return m.total
}

// Playing reports whether playback is running.
func (m *Playback) Playing() bool { return m != nil && m.playing }
