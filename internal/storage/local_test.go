package storage_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stocklane/stocklane/internal/storage"
)

func TestLocalStoreSaveAndURL(t *testing.T) {
	dir := t.TempDir()

	s, err := storage.NewLocalStore(dir, "http://localhost:8080/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = s.Save(context.Background(), "20260830_chair.png", bytes.NewReader([]byte("png")), 3, "image/png")

	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "20260830_chair.png"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(got) != "png" {
		t.Errorf("stored %q, want png bytes", got)
	}

	if url := s.URL("20260830_chair.png"); url != "http://localhost:8080/uploads/20260830_chair.png" {
		t.Errorf("got url %q", url)
	}
}

func TestLocalStoreSaveCancelledContext(t *testing.T) {
	dir := t.TempDir()

	s, err := storage.NewLocalStore(dir, "http://localhost:8080")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Save(ctx, "late.png", bytes.NewReader([]byte("png")), 3, "image/png")

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "late.png")); !os.IsNotExist(statErr) {
		t.Error("cancelled save must not leave a file behind")
	}
}

func TestNewLocalStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	if _, err := storage.NewLocalStore(dir, "http://localhost:8080"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat upload dir: %v", err)
	}
	if !info.IsDir() {
		t.Error("upload path is not a directory")
	}
}
