package video

import (
	"ExpressionAPI/internal/entity"
	"ExpressionAPI/pkg/attention"
)

type URLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ProcessOptions bound the frames sampled from a video.
type ProcessOptions struct {
	MaxFrames  int
	SampleRate int
}

type ExpressionResponse struct {
	Message     string              `json:"message"`
	Predictions []entity.Prediction `json:"predictions"`
}

type ProcessResponse struct {
	Message         string                  `json:"message"`
	TotalFrames     int                     `json:"total_frames"`
	FramesWithFaces int                     `json:"frames_with_faces"`
	Results         []entity.FrameLandmarks `json:"results"`
}

type MiddleFrameResponse struct {
	Message           string               `json:"message"`
	Landmarks         []entity.LandmarkSet `json:"landmarks"`
	VisualizationPath string               `json:"visualization_path"`
	VisualizationURL  string               `json:"visualization_url,omitempty"`
}

type AttentionResponse struct {
	Message       string              `json:"message"`
	IsAttentive   bool                `json:"is_attentive"`
	FaceDirection attention.Direction `json:"face_direction"`
	NosePosition  *entity.Landmark    `json:"nose_position"`
}

type StreamResponse struct {
	Landmarks     []entity.LandmarkSet `json:"landmarks"`
	FaceDirection attention.Direction  `json:"face_direction"`
}

type StreamError struct {
	Error string `json:"error"`
}

const (
	MessageImageProcessed       = "Image processed successfully"
	MessageVideoProcessed       = "Video processed successfully"
	MessageMiddleFrameProcessed = "Middle frame processed successfully"
	MessageAttentionProcessed   = "Attention analyzed successfully"

	// MaxReportedFrames caps the per-frame results returned for a video.
	MaxReportedFrames = 5
)
