package videoService

import (
	"ExpressionAPI/internal/api/video"
	"ExpressionAPI/internal/entity"
	"ExpressionAPI/pkg/attention"
	contextPkg "ExpressionAPI/pkg/context"
	"ExpressionAPI/pkg/download"
	"ExpressionAPI/pkg/expression"
	"ExpressionAPI/pkg/facemesh"
	"ExpressionAPI/pkg/log"
	videoPkg "ExpressionAPI/pkg/video"
	"errors"
	"mime/multipart"
	"path/filepath"

	"gocv.io/x/gocv"
	"golang.org/x/net/context"
)

func (s *videoService) ClassifyExpression(ctx context.Context, image *multipart.FileHeader) (*video.ExpressionResponse, error) {
	if !expression.IsAvailable(s.classifier) {
		return nil, video.ErrModelNotInitialized
	}

	data, err := s.utils.ReadFile(image)
	if err != nil {
		return nil, video.ProcessingError("image", err)
	}

	predictions, err := s.classifier.Classify(ctx, data)
	if err != nil {
		if errors.Is(err, expression.ErrModelNotInitialized) {
			return nil, video.ErrModelNotInitialized
		}
		return nil, video.ProcessingError("image", err)
	}

	return &video.ExpressionResponse{
		Message:     video.MessageImageProcessed,
		Predictions: predictions,
	}, nil
}

func (s *videoService) ProcessUpload(ctx context.Context, file *multipart.FileHeader, opts video.ProcessOptions) (*video.ProcessResponse, error) {
	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = download.DefaultExt
	}

	tmp, err := s.store.Acquire(ext)
	if err != nil {
		return nil, video.ProcessingError("video", err)
	}
	defer tmp.Release()

	src, err := file.Open()
	if err != nil {
		return nil, video.ProcessingError("video", err)
	}
	defer src.Close()

	if _, err := tmp.Fill(src, download.ChunkSize); err != nil {
		return nil, video.ProcessingError("video", err)
	}

	resp, err := s.processFile(ctx, tmp.Name(), opts)
	if err != nil {
		return nil, video.ProcessingError("video", err)
	}

	return resp, nil
}

func (s *videoService) ProcessURL(ctx context.Context, rawURL string, opts video.ProcessOptions) (*video.ProcessResponse, error) {
	tmp, err := s.fetcher.ToFile(ctx, rawURL)
	if err != nil {
		return nil, video.ProcessingError("video", err)
	}
	defer tmp.Release()

	resp, err := s.processFile(ctx, tmp.Name(), opts)
	if err != nil {
		return nil, video.ProcessingError("video", err)
	}

	return resp, nil
}

// processFile samples frames from path and runs landmark detection on each.
// Only frames with at least one face are reported, and at most
// MaxReportedFrames of them.
func (s *videoService) processFile(ctx context.Context, path string, opts video.ProcessOptions) (*video.ProcessResponse, error) {
	frames := videoPkg.ExtractFrames(path, opts.MaxFrames, opts.SampleRate)
	defer videoPkg.CloseAll(frames)

	if len(frames) == 0 {
		return nil, video.ErrNoFramesExtracted
	}

	results := make([]entity.FrameLandmarks, 0, len(frames))
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sets := s.detect(ctx, frame)
		if len(sets) == 0 {
			continue
		}

		results = append(results, entity.FrameLandmarks{
			FrameNumber: i,
			Landmarks:   sets,
		})
	}

	s.log.WithFields(log.Fields{
		"path":              path,
		"total_frames":      len(frames),
		"frames_with_faces": len(results),
	}).Debug("Video frames processed")

	reported := results
	if len(reported) > video.MaxReportedFrames {
		reported = reported[:video.MaxReportedFrames]
	}

	return &video.ProcessResponse{
		Message:         video.MessageVideoProcessed,
		TotalFrames:     len(frames),
		FramesWithFaces: len(results),
		Results:         reported,
	}, nil
}

func (s *videoService) ProcessURLMiddleFrame(ctx context.Context, rawURL string) (*video.MiddleFrameResponse, error) {
	tmp, err := s.fetcher.ToFile(ctx, rawURL)
	if err != nil {
		return nil, video.ProcessingError("video", err)
	}
	defer tmp.Release()

	frame, ok := videoPkg.ExtractMiddleFrame(tmp.Name())
	if !ok {
		return nil, video.ErrMiddleFrameUnavailable
	}
	defer frame.Close()

	sets := s.detect(ctx, frame)
	if len(sets) == 0 {
		return nil, video.ErrNoFaceInMiddleFrame
	}

	path, err := s.visualizer.Save(frame, sets)
	if err != nil {
		return nil, video.ProcessingError("video", err)
	}

	resp := &video.MiddleFrameResponse{
		Message:           video.MessageMiddleFrameProcessed,
		Landmarks:         sets,
		VisualizationPath: path,
	}

	if s.mirror != nil {
		location, err := s.mirror.UploadFile(path, "")
		if err != nil {
			s.log.WithFields(log.Fields{
				"path":  path,
				"error": err.Error(),
			}).Warn("Failed to mirror visualization to S3")
		} else {
			resp.VisualizationURL = location
		}
	}

	return resp, nil
}

func (s *videoService) DetectAttention(ctx context.Context, image *multipart.FileHeader) (*video.AttentionResponse, error) {
	data, err := s.utils.ReadFile(image)
	if err != nil {
		return nil, video.ProcessingError("image", err)
	}

	frame, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	sets := s.detect(ctx, frame)
	if len(sets) == 0 {
		return nil, video.ErrNoFaceInImage
	}

	face := sets[0]
	direction := attention.DetermineFaceAngle(face)

	resp := &video.AttentionResponse{
		Message:       video.MessageAttentionProcessed,
		IsAttentive:   attention.IsAttentive(direction),
		FaceDirection: direction,
	}
	if nose, ok := attention.NosePosition(face); ok {
		resp.NosePosition = &nose
	}

	return resp, nil
}

// AnalyzeFrame serves the streaming endpoint. An image without a face is not
// an error here, the reply simply carries no landmarks.
func (s *videoService) AnalyzeFrame(ctx context.Context, image []byte) (*video.StreamResponse, error) {
	frame, err := decodeImage(image)
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	sets := s.detect(ctx, frame)
	if sets == nil {
		sets = []entity.LandmarkSet{}
	}

	direction := attention.Unknown
	if len(sets) > 0 {
		direction = attention.DetermineFaceAngle(sets[0])
	}

	return &video.StreamResponse{
		Landmarks:     sets,
		FaceDirection: direction,
	}, nil
}

// detect returns the faces in frame. Detector failures other than "no face"
// are logged and then treated the same way.
func (s *videoService) detect(ctx context.Context, frame gocv.Mat) []entity.LandmarkSet {
	sets, err := s.detector.Detect(ctx, frame)
	if err != nil {
		if !errors.Is(err, facemesh.ErrNoFace) {
			s.log.WithFields(log.Fields{
				log.RequestIDKey: contextPkg.GetRequestID(ctx),
				"error":          err.Error(),
			}).Warn("Landmark detection failed")
		}
		return nil
	}
	return sets
}

func decodeImage(data []byte) (gocv.Mat, error) {
	frame, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || frame.Empty() {
		if err == nil {
			frame.Close()
		}
		return gocv.Mat{}, video.ErrUndecodableImage
	}
	return frame, nil
}
