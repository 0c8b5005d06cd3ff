package expression

import (
	"ExpressionAPI/internal/entity"
	"ExpressionAPI/pkg/gemini"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type geminiClassifier struct {
	client gemini.IGemini
}

func NewGemini(client gemini.IGemini) Classifier {
	return &geminiClassifier{client: client}
}

// classificationPrompt asks a general vision model for output shaped like
// the default model's.
func classificationPrompt() string {
	return fmt.Sprintf(`
	Classify the facial expression of the most prominent face in this image.
	Use only these labels: %s.
	Return a JSON array of objects with "label" and "score" fields, one per label,
	scores between 0 and 1 summing to 1, sorted by score descending. Example:
	[{"label": "happy", "score": 0.91}, {"label": "neutral", "score": 0.05}]
	Return ONLY the JSON array, without any additional text.
	`, strings.Join(Labels, ", "))
}

func (g *geminiClassifier) Classify(ctx context.Context, image []byte) ([]entity.Prediction, error) {
	text, err := g.client.AnalyzeImage(ctx, image, imageFormat(image), classificationPrompt())
	if err != nil {
		return nil, err
	}

	return parsePredictions(text)
}

// imageFormat names the image subtype for the Gemini blob, jpeg when the
// bytes are not recognised as an image.
func imageFormat(image []byte) string {
	detected := mimetype.Detect(image).String()
	if !strings.HasPrefix(detected, "image/") {
		return "jpeg"
	}
	return strings.TrimPrefix(detected, "image/")
}

func parsePredictions(response string) ([]entity.Prediction, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, errors.New("cannot find a JSON array in model response")
	}

	var predictions []entity.Prediction
	if err := json.Unmarshal([]byte(response[start:end+1]), &predictions); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	if len(predictions) == 0 {
		return nil, errors.New("model returned no predictions")
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Score > predictions[j].Score
	})

	return predictions, nil
}
