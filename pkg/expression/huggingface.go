package expression

import (
	"ExpressionAPI/internal/entity"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
)

const defaultInferenceURL = "https://api-inference.huggingface.co/models/"

type huggingFace struct {
	endpoint string
	token    string
	timeout  time.Duration
}

// NewHuggingFace targets the hosted inference API for model. baseURL
// defaults to the public endpoint and model to DefaultModel.
func NewHuggingFace(baseURL, model, token string) (Classifier, error) {
	if token == "" {
		return nil, errors.New("HF_API_TOKEN is required")
	}
	if baseURL == "" {
		baseURL = defaultInferenceURL
	}
	if model == "" {
		model = DefaultModel
	}

	return &huggingFace{
		endpoint: strings.TrimSuffix(baseURL, "/") + "/" + model,
		token:    token,
		timeout:  60 * time.Second,
	}, nil
}

type hfError struct {
	Error string `json:"error"`
}

func (h *huggingFace) Classify(ctx context.Context, image []byte) ([]entity.Prediction, error) {
	if len(image) == 0 {
		return nil, errors.New("empty image")
	}

	timeout := h.timeout
	if dl, ok := ctx.Deadline(); ok {
		remaining := time.Until(dl)
		if remaining <= 0 {
			return nil, context.DeadlineExceeded
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(h.endpoint)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+h.token)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.ContentType(mimetype.Detect(image).String())
	agent.Body(image)
	agent.Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("inference request failed: %w", errs[0])
	}

	if code != fiber.StatusOK {
		var apiErr hfError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("inference API returned %d: %s", code, apiErr.Error)
		}
		return nil, fmt.Errorf("inference API returned %d", code)
	}

	var predictions []entity.Prediction
	if err := json.Unmarshal(body, &predictions); err != nil {
		return nil, fmt.Errorf("error decoding inference response: %w", err)
	}

	return predictions, nil
}
