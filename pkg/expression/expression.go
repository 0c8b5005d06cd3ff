// Package expression classifies the facial expression shown in an image.
package expression

import (
	"ExpressionAPI/internal/entity"
	"ExpressionAPI/pkg/gemini"
	"ExpressionAPI/pkg/openai"
	"context"
	"errors"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var ErrModelNotInitialized = errors.New("facial expression model not initialized")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"
	ProviderOpenAI      = "openai"

	DefaultModel = "motheecreator/vit-Facial-Expression-Recognition"
)

// Labels produced by the default model.
var Labels = []string{"angry", "disgust", "fear", "happy", "neutral", "sad", "surprise"}

type Classifier interface {
	Classify(ctx context.Context, image []byte) ([]entity.Prediction, error)
}

// New builds the classifier selected by EXPRESSION_PROVIDER. A construction
// failure is logged and yields a classifier that is unavailable for the
// life of the process.
func New(log *logrus.Logger) Classifier {
	provider := os.Getenv("EXPRESSION_PROVIDER")
	if provider == "" {
		provider = ProviderHuggingFace
	}

	var (
		c   Classifier
		err error
	)

	switch provider {
	case ProviderHuggingFace:
		c, err = NewHuggingFace(os.Getenv("HF_INFERENCE_URL"), os.Getenv("EXPRESSION_MODEL"), os.Getenv("HF_API_TOKEN"))
	case ProviderGemini:
		var client gemini.IGemini
		client, err = gemini.NewGeminiClient()
		if err == nil {
			c = NewGemini(client)
		}
	case ProviderOpenAI:
		var client openai.IVision
		client, err = openai.NewVision()
		if err == nil {
			c = NewOpenAI(client)
		}
	default:
		err = fmt.Errorf("unknown expression provider %q", provider)
	}

	if err != nil {
		log.WithFields(logrus.Fields{
			"provider": provider,
			"error":    err.Error(),
		}).Error("Error initializing facial expression model")
		return Unavailable(err)
	}

	log.WithField("provider", provider).Info("Facial expression model initialized")
	return c
}

type unavailable struct {
	cause error
}

// Unavailable is the classifier left behind by a failed initialization.
func Unavailable(cause error) Classifier {
	return &unavailable{cause: cause}
}

func (u *unavailable) Classify(_ context.Context, _ []byte) ([]entity.Prediction, error) {
	return nil, ErrModelNotInitialized
}

// IsAvailable reports whether c can serve requests at all.
func IsAvailable(c Classifier) bool {
	if c == nil {
		return false
	}
	_, down := c.(*unavailable)
	return !down
}

type fake struct {
	predictions []entity.Prediction
	err         error
}

func NewFake(predictions []entity.Prediction, err error) Classifier {
	return &fake{predictions: predictions, err: err}
}

func (f *fake) Classify(_ context.Context, _ []byte) ([]entity.Prediction, error) {
	return f.predictions, f.err
}
