package expression

import (
	"ExpressionAPI/internal/entity"
	"ExpressionAPI/pkg/openai"
	"context"

	"github.com/gabriel-vasile/mimetype"
)

type openAIClassifier struct {
	client openai.IVision
}

func NewOpenAI(client openai.IVision) Classifier {
	return &openAIClassifier{client: client}
}

func (o *openAIClassifier) Classify(ctx context.Context, image []byte) ([]entity.Prediction, error) {
	text, err := o.client.AnalyzeImage(ctx, image, mimetype.Detect(image).String(), classificationPrompt())
	if err != nil {
		return nil, err
	}

	return parsePredictions(text)
}
