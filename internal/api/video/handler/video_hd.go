package videoHandler

import (
	"ExpressionAPI/internal/api/video"
	contextPkg "ExpressionAPI/pkg/context"
	"ExpressionAPI/pkg/handlerUtil"
	"ExpressionAPI/pkg/log"
	"ExpressionAPI/pkg/utils"
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const (
	imageField = "image_file"
	videoField = "video_file"
)

func (h *VideoHandler) ClassifyExpression(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	image, err := h.formMedia(ctx, imageField, utils.ImageMedia)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_image_file")
	}

	res, err := h.videoService.ClassifyExpression(c, image)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "classify_expression")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id":  requestID,
			"path":        ctx.Path(),
			"predictions": len(res.Predictions),
		}).Info("Expression classified")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *VideoHandler) ProcessVideo(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	file, err := h.formMedia(ctx, videoField, utils.VideoMedia)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_video_file")
	}

	opts, err := h.processOptions(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_process_options")
	}

	h.log.WithFields(log.Fields{
		"request_id":  requestID,
		"path":        ctx.Path(),
		"file_name":   file.Filename,
		"file_size":   file.Size,
		"max_frames":  opts.MaxFrames,
		"sample_rate": opts.SampleRate,
	}).Debug("Processing uploaded video")

	res, err := h.videoService.ProcessUpload(c, file, opts)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_video")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *VideoHandler) ProcessVideoURL(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req video.URLRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, video.ErrInvalidURL, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	opts, err := h.processOptions(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_process_options")
	}

	res, err := h.videoService.ProcessURL(c, req.URL, opts)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_video_url")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *VideoHandler) ProcessMiddleFrame(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req video.URLRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, video.ErrInvalidURL, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.videoService.ProcessURLMiddleFrame(c, req.URL)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_middle_frame")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id":         requestID,
			"path":               ctx.Path(),
			"visualization_path": res.VisualizationPath,
		}).Info("Middle frame visualized")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *VideoHandler) DetectAttention(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	image, err := h.formMedia(ctx, imageField, utils.ImageMedia)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_image_file")
	}

	res, err := h.videoService.DetectAttention(c, image)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect_attention")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

// formMedia fetches a multipart part and checks its declared media type.
func (h *VideoHandler) formMedia(ctx *fiber.Ctx, field string, mediaPrefix string) (*multipart.FileHeader, error) {
	missing, wrongType := video.ErrImageRequired, video.ErrInvalidImageType
	if mediaPrefix == utils.VideoMedia {
		missing, wrongType = video.ErrVideoRequired, video.ErrInvalidVideoType
	}

	file, err := ctx.FormFile(field)
	if err != nil {
		return nil, missing
	}

	if err := h.utils.ValidateMediaFile(file, mediaPrefix); err != nil {
		switch {
		case errors.Is(err, utils.ErrWrongMediaType):
			return nil, wrongType
		case errors.Is(err, utils.ErrFileTooLarge):
			return nil, video.ErrFileTooLarge
		default:
			return nil, missing
		}
	}

	return file, nil
}

func (h *VideoHandler) processOptions(ctx *fiber.Ctx) (video.ProcessOptions, error) {
	opts := video.ProcessOptions{
		MaxFrames:  ctx.QueryInt("max_frames", h.defaults.MaxFrames),
		SampleRate: ctx.QueryInt("sample_rate", h.defaults.SampleRate),
	}

	if opts.MaxFrames < 0 || opts.SampleRate < 1 {
		return video.ProcessOptions{}, video.ErrInvalidSampling
	}

	return opts, nil
}
