// Package facemesh talks to the dense face mesh model that runs as a sidecar.
package facemesh

import (
	"ExpressionAPI/internal/entity"
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var (
	ErrNoFace       = errors.New("no face detected")
	ErrNotConnected = errors.New("face mesh service not connected")
	ErrEmptyFrame   = errors.New("empty frame")
)

type Detector interface {
	Detect(ctx context.Context, frame gocv.Mat) ([]entity.LandmarkSet, error)
	Close() error
}

// Options mirror the model settings of the sidecar.
type Options struct {
	StaticImageMode        bool
	MaxNumFaces            int
	RefineLandmarks        bool
	MinDetectionConfidence float64
}

func DefaultOptions() Options {
	return Options{
		StaticImageMode:        true,
		MaxNumFaces:            1,
		RefineLandmarks:        true,
		MinDetectionConfidence: 0.5,
	}
}

// DetectOrEmpty treats every failure as "no face".
func DetectOrEmpty(ctx context.Context, d Detector, frame gocv.Mat) []entity.LandmarkSet {
	sets, err := d.Detect(ctx, frame)
	if err != nil {
		return nil
	}
	return sets
}

// headerSize is the width and height prefix of an encoded frame.
const headerSize = 8

// EncodeFrame converts a BGR frame to RGB and prefixes the raw pixels with
// big-endian uint32 width and height.
func EncodeFrame(frame gocv.Mat) ([]byte, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}
	if frame.Channels() != 3 {
		return nil, fmt.Errorf("expected 3 channel frame, got %d", frame.Channels())
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(frame, &rgb, gocv.ColorBGRToRGB)

	pixels := rgb.ToBytes()
	msg := make([]byte, headerSize+len(pixels))
	binary.BigEndian.PutUint32(msg[0:4], uint32(rgb.Cols()))
	binary.BigEndian.PutUint32(msg[4:8], uint32(rgb.Rows()))
	copy(msg[headerSize:], pixels)

	return msg, nil
}

// DecodeHeader reads back the dimensions written by EncodeFrame.
func DecodeHeader(msg []byte) (width, height int, err error) {
	if len(msg) < headerSize {
		return 0, 0, fmt.Errorf("frame message too short: %d bytes", len(msg))
	}
	width = int(binary.BigEndian.Uint32(msg[0:4]))
	height = int(binary.BigEndian.Uint32(msg[4:8]))
	if len(msg)-headerSize != width*height*3 {
		return 0, 0, fmt.Errorf("frame payload is %d bytes, want %d", len(msg)-headerSize, width*height*3)
	}
	return width, height, nil
}

type wirePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type wireResponse struct {
	Faces [][]wirePoint `json:"faces"`
	Error string        `json:"error,omitempty"`
}

func (r wireResponse) toLandmarkSets(maxFaces int) []entity.LandmarkSet {
	faces := r.Faces
	if maxFaces > 0 && len(faces) > maxFaces {
		faces = faces[:maxFaces]
	}

	sets := make([]entity.LandmarkSet, 0, len(faces))
	for _, face := range faces {
		set := make(entity.LandmarkSet, len(face))
		for idx, p := range face {
			set[idx] = entity.Landmark{Index: idx, X: p.X, Y: p.Y, Z: p.Z}
		}
		sets = append(sets, set)
	}
	return sets
}
