package source

import (
	"errors"
	"sync"
)

var (
	ErrAlreadyNormalized = errors.New("source: payload already replaced")
	ErrReleased          = errors.New("source: image released")
	ErrDrawableOpen      = errors.New("source: drawable already open")
)

// Image is one flipbook frame: a display name plus the raw encoded payload.
// The payload is owned by the Image; the export pipeline only borrows it.
// Safe for concurrent use.
type Image struct {
	Name string

	mu         sync.Mutex
	mediaType  string
	data       []byte
	normalized bool
	open       bool
	released   bool
	width      int
	height     int
}

// New wraps a payload.
func New(name string, data []byte) *Image {
	return &Image{Name: name, mediaType: sniff(name, data), data: data}
}

// Data returns the current payload (nil after Release).
func (i *Image) Data() []byte {
	if i == nil {
		return nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.data
}

// MediaType returns the sniffed media type of the current payload.
func (i *Image) MediaType() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.mediaType
}

// Len reports the payload size in bytes.
func (i *Image) Len() int { return len(i.Data()) }

// ReplaceData swaps in a normalized payload. Only one replacement is allowed.
func (i *Image) ReplaceData(data []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.released {
		return ErrReleased
	}
	if i.normalized {
		return ErrAlreadyNormalized
	}
	i.normalized = true
	i.data = data
	i.mediaType = sniff(i.Name, data)
	i.width, i.height = 0, 0
	return nil
}

// Normalized reports whether ReplaceData has been applied.
func (i *Image) Normalized() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.normalized
}

// Acquire marks a drawable as open. It fails while another one is open.
func (i *Image) Acquire() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.released {
		return ErrReleased
	}
	if i.open {
		return ErrDrawableOpen
	}
	i.open = true
	return nil
}

// Unacquire marks the open drawable as released.
func (i *Image) Unacquire() {
	i.mu.Lock()
	i.open = false
	i.mu.Unlock()
}

// SetSize records the natural pixel size once known.
func (i *Image) SetSize(w, h int) {
	i.mu.Lock()
	i.width, i.height = w, h
	i.mu.Unlock()
}

// Size returns the natural pixel size, zero if not yet decoded.
func (i *Image) Size() (w, h int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.width, i.height
}

// Release drops the payload. Further access yields nil data.
func (i *Image) Release() {
	if i == nil {
		return
	}
	i.mu.Lock()
	i.data = nil
	i.released = true
	i.mu.Unlock()
}
