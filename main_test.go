package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/soocke/flipbook-go/config"
	"github.com/soocke/flipbook-go/domain/export"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{export.ErrCanceled, exitCanceled},
		{fmt.Errorf("wrapped: %w", export.ErrCanceled), exitCanceled},
		{errors.New("boom"), 1},
	}
	for _, c := range cases {
		if got := exitCode(c.err); got != c.want {
			t.Fatalf("exitCode(%v)=%d want %d", c.err, got, c.want)
		}
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_ReturnsSaveFailure(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.SizePreset = config.SizeCustom
	cfg.CustomSize = 16
	cfg.ImportMaxEdge = 0
	cfg.Output = filepath.Join(blocker, "out.gif")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := run(context.Background(), &flags{args: []string{dir}}, cfg, logger)
	if err == nil {
		t.Fatalf("expected save into a file path to fail")
	}
	if exitCode(err) != 1 {
		t.Fatalf("unexpected exit code %d for %v", exitCode(err), err)
	}
}

func TestRun_CanceledMapsToInterruptCode(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	cfg := config.DefaultConfig()
	cfg.SizePreset = config.SizeCustom
	cfg.CustomSize = 16
	cfg.ImportMaxEdge = 0
	cfg.Output = filepath.Join(t.TempDir(), "out.gif")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, &flags{args: []string{dir}}, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if exitCode(err) != exitCanceled {
		t.Fatalf("expected cancel exit code, got %d (%v)", exitCode(err), err)
	}
}
