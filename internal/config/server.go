package config

import (
	videoHandler "ExpressionAPI/internal/api/video/handler"
	videoService "ExpressionAPI/internal/api/video/service"
	"ExpressionAPI/internal/middleware"
	"ExpressionAPI/pkg/download"
	"ExpressionAPI/pkg/expression"
	"ExpressionAPI/pkg/facemesh"
	"ExpressionAPI/pkg/redis"
	"ExpressionAPI/pkg/s3"
	"ExpressionAPI/pkg/tmpstore"
	"ExpressionAPI/pkg/utils"
	"ExpressionAPI/pkg/visualize"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

const welcomeMessage = "Welcome to the Expression Prediction API"

type ServerOption func(*Server) error

type Server struct {
	engine     *fiber.App
	log        *logrus.Logger
	middleware middleware.Middleware
	validator  *validator.Validate
	utils      utils.IUtils
	handlers   []handler
	detector   facemesh.Detector
	classifier expression.Classifier
	store      tmpstore.IStore
	visualizer visualize.IWriter
	s3Client   s3.ItfS3
	cache      redis.IRedis
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.store == nil {
		return nil, fmt.Errorf("temp store is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithTempStore(store tmpstore.IStore) ServerOption {
	return func(s *Server) error {
		s.store = store
		return nil
	}
}

func WithFaceMesh(detector facemesh.Detector) ServerOption {
	return func(s *Server) error {
		s.detector = detector
		return nil
	}
}

func WithExpressionClassifier(classifier expression.Classifier) ServerOption {
	return func(s *Server) error {
		s.classifier = classifier
		return nil
	}
}

func WithVisualizer(visualizer visualize.IWriter) ServerOption {
	return func(s *Server) error {
		s.visualizer = visualizer
		return nil
	}
}

// WithS3Client enables mirroring of visualizations. A missing bucket is not
// an error, the server just keeps files local.
func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if errors.Is(err, s3.ErrNotConfigured) {
			return nil
		}
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

// WithRedisCache caches expression predictions when REDIS_ADDRESS is set.
func WithRedisCache() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before redis")
		}
		cache, err := redis.New(s.log)
		if errors.Is(err, redis.ErrNotConfigured) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		s.cache = cache
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	if s.detector == nil {
		s.detector = facemesh.New(s.log)
	}
	if s.classifier == nil {
		s.classifier = expression.New(s.log)
	}
	if s.cache != nil {
		s.classifier = expression.NewCached(s.classifier, s.cache, expression.DefaultCacheTTL, s.log)
	}
	if s.visualizer == nil {
		s.visualizer = visualize.New()
	}
	if s.utils == nil {
		s.utils = utils.New()
	}
	if s.validator == nil {
		s.validator = NewValidator()
	}
	if s.middleware == nil {
		s.middleware = middleware.New(s.log)
	}

	// Video Domain
	videoServices := videoService.NewVideoService(
		s.log,
		s.detector,
		s.classifier,
		download.New(s.store),
		s.store,
		s.visualizer,
		s.s3Client,
		s.utils,
	)
	videoHandlers := videoHandler.New(s.log, s.validator, s.middleware, videoServices, s.utils)

	s.engine.Use(recover.New())
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "*",
		AllowCredentials: false,
	}))
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	s.setupHealthCheck()
	s.handlers = append(s.handlers, videoHandlers)

	router := s.engine.Group("/api")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

// App exposes the engine so tests can drive it with app.Test.
func (s *Server) App() *fiber.App {
	return s.engine
}

func (s *Server) Run() error {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	s.log.Infof("Listening on :%s", port)

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests, waits for in-flight ones and then closes
// the detector connection.
func (s *Server) Shutdown() error {
	err := s.engine.Shutdown()

	if s.detector != nil {
		if closeErr := s.detector.Close(); closeErr != nil {
			s.log.Warnf("Failed to close face mesh detector: %v", closeErr)
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": welcomeMessage,
		})
	})
}
