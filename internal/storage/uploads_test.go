package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stocklane/stocklane/internal/storage"
)

type fakeBlobStore struct {
	savedKey   string
	savedBytes []byte
	saveErr    error
}

func (f *fakeBlobStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.saveErr != nil {
		return f.saveErr
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	f.savedKey = key
	f.savedBytes = b

	return nil
}

func (f *fakeBlobStore) URL(key string) string {
	return "http://localhost:8080/uploads/" + key
}

// buildFileHeader runs a real multipart round trip so the FileHeader
// behaves exactly as it would inside a handler.
func buildFileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}

	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	_, fh, err := req.FormFile("image")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}

	return fh
}

func TestAcceptStoresValidImage(t *testing.T) {
	store := &fakeBlobStore{}
	uploads := storage.NewUploads(store, nil)

	fh := buildFileHeader(t, "chair.png", "image/png", []byte("png-bytes"))

	url, err := uploads.Accept(context.Background(), fh)

	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}

	if !strings.HasSuffix(store.savedKey, "_chair.png") {
		t.Errorf("key %q missing original-name suffix", store.savedKey)
	}

	if len(store.savedKey) <= len("_chair.png") {
		t.Errorf("key %q missing timestamp prefix", store.savedKey)
	}

	if string(store.savedBytes) != "png-bytes" {
		t.Error("stored bytes do not match the upload")
	}

	if url != "http://localhost:8080/uploads/"+store.savedKey {
		t.Errorf("got url %q", url)
	}
}

func TestAcceptRejectsNonImage(t *testing.T) {
	store := &fakeBlobStore{}
	uploads := storage.NewUploads(store, nil)

	fh := buildFileHeader(t, "notes.txt", "text/plain", []byte("hello"))

	_, err := uploads.Accept(context.Background(), fh)

	if !errors.Is(err, storage.ErrNotImage) {
		t.Fatalf("got %v, want ErrNotImage", err)
	}

	if store.savedKey != "" {
		t.Error("rejected file must not reach the blob store")
	}
}

func TestAcceptRejectsOversizedImage(t *testing.T) {
	store := &fakeBlobStore{}
	uploads := storage.NewUploads(store, nil)

	big := bytes.Repeat([]byte("x"), storage.MaxImageBytes+1)
	fh := buildFileHeader(t, "huge.jpg", "image/jpeg", big)

	_, err := uploads.Accept(context.Background(), fh)

	if !errors.Is(err, storage.ErrTooLarge) {
		t.Fatalf("got %v, want ErrTooLarge", err)
	}

	if store.savedKey != "" {
		t.Error("rejected file must not reach the blob store")
	}
}

func TestAcceptStripsClientDirectories(t *testing.T) {
	store := &fakeBlobStore{}
	uploads := storage.NewUploads(store, nil)

	fh := buildFileHeader(t, "evil.png", "image/png", []byte("x"))
	// the multipart layer already sanitizes most of this; Base guards
	// whatever slips through
	fh.Filename = "../../etc/evil.png"

	_, err := uploads.Accept(context.Background(), fh)

	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}

	if strings.Contains(store.savedKey, "/") || strings.Contains(store.savedKey, "..") {
		t.Errorf("key %q leaks path segments", store.savedKey)
	}
}
