package video

import (
	"ExpressionAPI/pkg/response"
	"context"
	"errors"
	"net/http"
)

var (
	ErrImageRequired          = response.NewError(http.StatusBadRequest, "image_file is required")
	ErrVideoRequired          = response.NewError(http.StatusBadRequest, "video_file is required")
	ErrInvalidImageType       = response.NewError(http.StatusBadRequest, "File must be an image")
	ErrInvalidVideoType       = response.NewError(http.StatusBadRequest, "File must be a video")
	ErrFileTooLarge           = response.NewError(http.StatusBadRequest, "File too large. Maximum size is 100MB.")
	ErrInvalidURL             = response.NewError(http.StatusBadRequest, "A valid url is required")
	ErrInvalidSampling        = response.NewError(http.StatusBadRequest, "max_frames must be >= 0 and sample_rate must be >= 1")
	ErrUndecodableImage       = response.NewError(http.StatusBadRequest, "Could not decode image")
	ErrNoFramesExtracted      = response.NewError(http.StatusBadRequest, "Could not extract frames from video")
	ErrMiddleFrameUnavailable = response.NewError(http.StatusBadRequest, "Could not extract middle frame from video")
	ErrNoFaceInImage          = response.NewError(http.StatusBadRequest, "No face detected in the image")
	ErrNoFaceInMiddleFrame    = response.NewError(http.StatusBadRequest, "No face detected in the middle frame")
	ErrModelNotInitialized    = response.NewError(http.StatusInternalServerError, "Facial expression model not initialized")
)

// ProcessingError reports an unexpected failure while handling scope as a 500.
// Errors that already carry a status, and context expiry, pass through untouched.
func ProcessingError(scope string, err error) error {
	if err == nil {
		return nil
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	return response.Wrap(http.StatusInternalServerError, "Error processing "+scope, err)
}
