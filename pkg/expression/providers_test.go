package expression

import (
	"ExpressionAPI/internal/entity"
	"ExpressionAPI/pkg/openai"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

func TestOpenAIClassify(t *testing.T) {
	var gotPath, gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {
					"role": "assistant",
					"content": "[{\"label\":\"neutral\",\"score\":0.3},{\"label\":\"surprise\",\"score\":0.6}]"
				}
			}]
		}`)
	}))
	defer srv.Close()

	cfg := goopenai.DefaultConfig("secret")
	cfg.BaseURL = srv.URL + "/v1"

	c := NewOpenAI(openai.NewVisionWithConfig(cfg, "vision-test"))

	preds, err := c.Classify(context.Background(), pngHeader)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if len(preds) != 2 || preds[0].Label != "surprise" {
		t.Errorf("unexpected predictions %+v", preds)
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotBody, "data:image/png;base64,") {
		t.Error("image was not sent as a data URL")
	}
	if !strings.Contains(gotBody, `"vision-test"`) {
		t.Error("configured model was not used")
	}
}

type memoryCache struct {
	entries map[string][]entity.Prediction
	gets    int
	failGet bool
}

func (m *memoryCache) GetPredictions(_ context.Context, key string) ([]entity.Prediction, bool, error) {
	m.gets++
	if m.failGet {
		return nil, false, errors.New("connection refused")
	}
	p, ok := m.entries[key]
	return p, ok, nil
}

func (m *memoryCache) SetPredictions(_ context.Context, key string, predictions []entity.Prediction, _ time.Duration) error {
	m.entries[key] = predictions
	return nil
}

type countingClassifier struct {
	calls int
}

func (c *countingClassifier) Classify(_ context.Context, _ []byte) ([]entity.Prediction, error) {
	c.calls++
	return []entity.Prediction{{Label: "happy", Score: 1}}, nil
}

func TestCachedClassifier(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	t.Run("hit after first call", func(t *testing.T) {
		inner := &countingClassifier{}
		cache := &memoryCache{entries: map[string][]entity.Prediction{}}
		c := NewCached(inner, cache, time.Minute, log)

		for i := 0; i < 3; i++ {
			preds, err := c.Classify(context.Background(), pngHeader)
			if err != nil || len(preds) != 1 {
				t.Fatalf("call %d: %v %+v", i, err, preds)
			}
		}
		if inner.calls != 1 {
			t.Fatalf("expected one upstream call, got %d", inner.calls)
		}
	})

	t.Run("lookup failure falls through", func(t *testing.T) {
		inner := &countingClassifier{}
		cache := &memoryCache{entries: map[string][]entity.Prediction{}, failGet: true}
		c := NewCached(inner, cache, time.Minute, log)

		if _, err := c.Classify(context.Background(), pngHeader); err != nil {
			t.Fatal(err)
		}
		if inner.calls != 1 {
			t.Fatalf("expected upstream call, got %d", inner.calls)
		}
	})

	t.Run("unavailable is not wrapped", func(t *testing.T) {
		down := Unavailable(errors.New("no token"))
		cache := &memoryCache{entries: map[string][]entity.Prediction{}}
		if IsAvailable(NewCached(down, cache, time.Minute, log)) {
			t.Fatal("wrapping must keep the classifier unavailable")
		}
	})
}
