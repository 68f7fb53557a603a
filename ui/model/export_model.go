package model

import (
	"sync/atomic"
)

// ExportModel tracks whether an export is in flight. The zero value is idle
// and usable. Atomic because UI callbacks and presenter ticks may race.
type ExportModel struct{ active atomic.Bool }

// Active reports whether an export is running.
func (m *ExportModel) Active() bool {
	if m == nil {
		return false
	}
	return m.active.Load()
}

// TryBegin marks an export as running. It returns false if one already is.
func (m *ExportModel) TryBegin() bool {
	if m == nil {
		return false
	}
	return m.active.CompareAndSwap(false, true)
}

// End marks the export as finished.
func (m *ExportModel) End() {
	if m == nil {
		return
	}
	m.active.Store(false)
}
