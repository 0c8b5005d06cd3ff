package download

import (
	"ExpressionAPI/pkg/tmpstore"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func newFetcher(t *testing.T) (IFetcher, string) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	dir := t.TempDir()
	store, err := tmpstore.NewInDir(dir, log)
	if err != nil {
		t.Fatal(err)
	}
	return New(store), dir
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files left in %s, found %d", dir, len(entries))
	}
}

func TestToFile(t *testing.T) {
	payload := strings.Repeat("v", 3*ChunkSize+17)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, payload)
	}))
	defer srv.Close()

	f, dir := newFetcher(t)

	file, err := f.ToFile(context.Background(), srv.URL+"/clips/sample.webm")
	if err != nil {
		t.Fatalf("ToFile: %v", err)
	}

	if !strings.HasSuffix(file.Name(), ".webm") {
		t.Errorf("expected .webm suffix, got %s", file.Name())
	}

	data, err := os.ReadFile(file.Name())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != payload {
		t.Errorf("downloaded %d bytes, want %d", len(data), len(payload))
	}

	file.Release()
	assertEmptyDir(t, dir)
}

func TestToFileBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f, dir := newFetcher(t)

	_, err := f.ToFile(context.Background(), srv.URL+"/missing.mp4")
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus, got %v", err)
	}
	assertEmptyDir(t, dir)
}

func TestToFileUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f, dir := newFetcher(t)

	if _, err := f.ToFile(context.Background(), addr+"/video.mp4"); err == nil {
		t.Fatal("expected an error for an unreachable host")
	}
	assertEmptyDir(t, dir)
}

func TestExtensionOf(t *testing.T) {
	tests := map[string]string{
		"https://cdn.example.com/a/b/clip.mov":         ".mov",
		"https://cdn.example.com/a/b/clip.mov?sig=abc": ".mov",
		"https://cdn.example.com/stream":               DefaultExt,
		"https://cdn.example.com/":                     DefaultExt,
		"://bad":                                       DefaultExt,
	}
	for in, want := range tests {
		if got := ExtensionOf(in); got != want {
			t.Errorf("ExtensionOf(%q) = %q, want %q", in, got, want)
		}
	}
}
