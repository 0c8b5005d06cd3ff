package expression

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestHuggingFaceClassify(t *testing.T) {
	var gotAuth, gotType, gotPath string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"label":"happy","score":0.93},{"label":"neutral","score":0.04}]`)
	}))
	defer srv.Close()

	c, err := NewHuggingFace(srv.URL+"/models/", "acme/fer", "secret")
	if err != nil {
		t.Fatal(err)
	}

	preds, err := c.Classify(context.Background(), pngHeader)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if len(preds) != 2 || preds[0].Label != "happy" || preds[0].Score != 0.93 {
		t.Errorf("unexpected predictions %+v", preds)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotType != "image/png" {
		t.Errorf("content type = %q", gotType)
	}
	if gotPath != "/models/acme/fer" {
		t.Errorf("path = %q", gotPath)
	}
	if string(gotBody) != string(pngHeader) {
		t.Error("image bytes were not forwarded verbatim")
	}
}

func TestHuggingFaceClassifyAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":"Model is currently loading"}`)
	}))
	defer srv.Close()

	c, err := NewHuggingFace(srv.URL, "", "secret")
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Classify(context.Background(), pngHeader)
	if err == nil || !strings.Contains(err.Error(), "Model is currently loading") {
		t.Fatalf("expected API error message, got %v", err)
	}
}

func TestNewHuggingFaceRequiresToken(t *testing.T) {
	if _, err := NewHuggingFace("", "", ""); err == nil {
		t.Fatal("expected an error without token")
	}
}

func TestNewFallsBackToUnavailable(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	t.Setenv("EXPRESSION_PROVIDER", "huggingface")
	t.Setenv("HF_API_TOKEN", "")

	c := New(log)
	if IsAvailable(c) {
		t.Fatal("classifier without credentials should be unavailable")
	}

	// Later calls keep failing the same way.
	for i := 0; i < 2; i++ {
		if _, err := c.Classify(context.Background(), pngHeader); !errors.Is(err, ErrModelNotInitialized) {
			t.Fatalf("call %d: expected ErrModelNotInitialized, got %v", i, err)
		}
	}

	t.Setenv("EXPRESSION_PROVIDER", "tarot")
	if IsAvailable(New(log)) {
		t.Fatal("unknown provider should be unavailable")
	}
}

func TestParsePredictions(t *testing.T) {
	preds, err := parsePredictions("Sure!\n```json\n[{\"label\":\"sad\",\"score\":0.2},{\"label\":\"fear\",\"score\":0.7}]\n```")
	if err != nil {
		t.Fatalf("parsePredictions: %v", err)
	}
	if preds[0].Label != "fear" || preds[1].Label != "sad" {
		t.Errorf("expected descending order, got %+v", preds)
	}

	for _, bad := range []string{"no json here", "[]", "[{\"label\": 3}]"} {
		if _, err := parsePredictions(bad); err == nil {
			t.Errorf("parsePredictions(%q) should fail", bad)
		}
	}
}

func TestImageFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", pngHeader, "png"},
		{"jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), "jpeg"},
		{"plain text", []byte("hello there"), "jpeg"},
		{"empty", nil, "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := imageFormat(tt.data); got != tt.want {
				t.Fatalf("imageFormat = %q, want %q", got, tt.want)
			}
		})
	}
}
