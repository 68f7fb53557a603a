package model

import (
	"sync"

	"github.com/soocke/flipbook-go/domain/source"
)

// Flipbook holds the current ordered image selection. A new selection
// discards and releases the previous one. Safe for concurrent use; the zero
// value is an empty flipbook.
type Flipbook struct {
	mu     sync.RWMutex
	images []*source.Image
}

// Replace installs images as the selection and releases the previous list.
func (f *Flipbook) Replace(images []*source.Image) {
	if f == nil {
		return
	}
	f.mu.Lock()
	old := f.images
	f.images = append([]*source.Image(nil), images...)
	f.mu.Unlock()
	keep := make(map[*source.Image]bool, len(images))
	for _, img := range images {
		keep[img] = true
	}
	for _, img := range old {
		if !keep[img] {
			img.Release()
		}
	}
}

// Clear releases every image.
func (f *Flipbook) Clear() { f.Replace(nil) }

// Images returns a snapshot of the selection.
func (f *Flipbook) Images() []*source.Image {
	if f == nil {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]*source.Image(nil), f.images...)
}

// Len returns the number of images.
func (f *Flipbook) Len() int {
	if f == nil {
		return 0
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.images)
}

// At returns image i or nil when out of range.
func (f *Flipbook) At(i int) *source.Image {
	if f == nil {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if i < 0 || i >= len(f.images) {
		return nil
	}
	return f.images[i]
}
