// Package output hands finished GIF blobs to the filesystem.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evilsocket/islazy/fs"
	"github.com/ncruces/go-strftime"
)

const MediaType = "image/gif"

var ErrEmpty = errors.New("output: empty blob")

// Resolve expands strftime patterns (evaluated at now) and a leading ~ in
// pattern, returning an absolute path.
func Resolve(pattern string, now time.Time) (string, error) {
	if strings.ContainsRune(pattern, '%') {
		pattern = strftime.Format(pattern, now)
	}
	p, err := fs.Expand(pattern)
	if err != nil {
		return "", fmt.Errorf("output: expand %q: %w", pattern, err)
	}
	if filepath.Ext(p) == "" {
		p += ".gif"
	}
	return p, nil
}

// Save writes blob to the path resolved from pattern, replacing any existing
// file atomically. It returns the final path.
func Save(blob []byte, pattern string) (string, error) {
	if len(blob) == 0 {
		return "", ErrEmpty
	}
	path, err := Resolve(pattern, time.Now())
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("output: %w", err)
	}
	f, err := os.CreateTemp(dir, ".flipbook-*.gif")
	if err != nil {
		return "", fmt.Errorf("output: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(blob); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("output: write: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("output: write: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("output: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("output: %w", err)
	}
	return path, nil
}

// Share has no desktop equivalent of a platform share sheet; it falls back to
// Save like an unavailable or dismissed share action would.
func Share(blob []byte, pattern string) (string, error) {
	return Save(blob, pattern)
}
