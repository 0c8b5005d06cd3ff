package videoHandler

import (
	"ExpressionAPI/internal/api/video"
	videoService "ExpressionAPI/internal/api/video/service"
	"ExpressionAPI/internal/middleware"
	"ExpressionAPI/pkg/utils"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const (
	defaultRequestTimeout = 60 * time.Second
	defaultMaxFrames      = 30
	defaultSampleRate     = 10
)

type VideoHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	videoService videoService.IVideoService
	utils        utils.IUtils
	timeout      time.Duration
	defaults     video.ProcessOptions
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	vs videoService.IVideoService,
	utils utils.IUtils,
) *VideoHandler {
	return &VideoHandler{
		log:          log,
		validator:    validator,
		middleware:   middleware,
		videoService: vs,
		utils:        utils,
		timeout:      durationFromEnv("REQUEST_TIMEOUT", defaultRequestTimeout),
		defaults: video.ProcessOptions{
			MaxFrames:  intFromEnv("VIDEO_MAX_FRAMES", defaultMaxFrames, 0),
			SampleRate: intFromEnv("VIDEO_SAMPLE_RATE", defaultSampleRate, 1),
		},
	}
}

func (h *VideoHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	videoRoute := srv.Group("/video")
	videoRoute.Post("/expression", h.middleware.NewRateLimiter, h.ClassifyExpression)
	videoRoute.Post("/process", h.middleware.NewRateLimiter, h.ProcessVideo)
	videoRoute.Post("/process-url", h.middleware.NewRateLimiter, h.ProcessVideoURL)
	videoRoute.Post("/process-url-middle-frame", h.middleware.NewRateLimiter, h.ProcessMiddleFrame)
	videoRoute.Post("/attention", h.middleware.NewRateLimiter, h.DetectAttention)

	videoRoute.Use("/ws", wsMiddleware)
	videoRoute.Get("/ws", websocket.New(h.handleStream))
}

// durationFromEnv accepts a Go duration ("45s") or a bare number of seconds.
func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// intFromEnv falls back when the value is unset, malformed or below floor.
func intFromEnv(key string, fallback, floor int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < floor {
		return fallback
	}
	return n
}
