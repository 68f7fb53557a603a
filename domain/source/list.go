package source

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
)

// sniff returns the media type of data, falling back to the file extension for
// formats the content sniffer does not know.
func sniff(name string, data []byte) string {
	mt := http.DetectContentType(data)
	if strings.HasPrefix(mt, "image/") {
		return mt
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tif", ".tiff":
		return "image/tiff"
	case ".heic", ".heif":
		return "image/heic"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	}
	return mt
}

// IsImage reports whether the entry carries an image media type.
func (i *Image) IsImage() bool { return strings.HasPrefix(i.MediaType(), "image/") }

// Load reads the given files and directories (non-recursive) into an ordered
// list of images. Non-image files are skipped; the result is sorted in natural
// filename order.
func Load(paths []string, logger *slog.Logger) ([]*Image, error) {
	var files []string
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			files = append(files, filepath.Join(p, e.Name()))
		}
	}

	var out []*Image
	var total uint64
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("source: read %s: %w", f, err)
		}
		img := New(filepath.Base(f), data)
		if !img.IsImage() {
			if logger != nil {
				logger.Debug("skipping non-image", "path", f, "type", img.MediaType())
			}
			continue
		}
		total += uint64(len(data))
		out = append(out, img)
	}
	Sort(out)
	if logger != nil {
		logger.Info("images loaded", "count", len(out), "size", humanize.Bytes(total))
	}
	return out, nil
}

// Sort orders images by natural, case-insensitive name order.
func Sort(images []*Image) {
	sort.SliceStable(images, func(a, b int) bool { return NaturalLess(images[a].Name, images[b].Name) })
}

// NaturalLess compares names treating digit runs as numbers and ignoring case,
// so "frame2" sorts before "Frame10".
func NaturalLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		ca, cb := ra[i], rb[j]
		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			na := strings.TrimLeft(string(ra[si:i]), "0")
			nb := strings.TrimLeft(string(rb[sj:j]), "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			continue
		}
		la, lb := unicode.ToLower(ca), unicode.ToLower(cb)
		if la != lb {
			return la < lb
		}
		i++
		j++
	}
	if len(ra)-i != len(rb)-j {
		return len(ra)-i < len(rb)-j
	}
	return a < b
}

// ReleaseAll drops the payloads of a superseded selection.
func ReleaseAll(images []*Image) {
	for _, img := range images {
		img.Release()
	}
}
