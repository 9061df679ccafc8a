// Package server exposes membership scoring over HTTP.
package server

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/cognisight/internal/config"
	"github.com/tensorplex-labs/cognisight/internal/detector"
	"github.com/tensorplex-labs/cognisight/internal/scoring"
	"github.com/tensorplex-labs/cognisight/internal/store"
)

var ErrUnavailable = errors.New("service unavailable")

type Option func(*Server)

func WithDetector(d *detector.Detector) Option {
	return func(s *Server) {
		s.detector = d
	}
}

func WithStore(runs RunStore) Option {
	return func(s *Server) {
		s.runs = runs
	}
}

// WithTargetFPR sets the false-positive rate used when a request omits one.
func WithTargetFPR(fpr float64) Option {
	return func(s *Server) {
		s.targetFPR = fpr
	}
}

// NewServer creates the HTTP server and registers every route.
func NewServer(serverConfig *config.ServerEnvConfig, opts ...Option) *Server {
	if serverConfig == nil {
		serverConfig = &config.ServerEnvConfig{
			Address:       "127.0.0.1",
			Port:          8080,
			BodySizeLimit: DefaultBodyLimit,
		}
	}
	if serverConfig.BodySizeLimit <= 0 {
		serverConfig.BodySizeLimit = DefaultBodyLimit
	}

	log.Info().
		Str("address", serverConfig.ListenAddress()).
		Int("body_limit", serverConfig.BodySizeLimit).
		Bool("api_key", serverConfig.APIKey != "").
		Msg("Server configuration loaded")

	app := fiber.New(fiber.Config{
		Prefork:               false,
		DisableStartupMessage: true,
		ErrorHandler:          fiberErrHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             serverConfig.BodySizeLimit,
	})

	app.Use(recover.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	s := &Server{
		App:       app,
		config:    serverConfig,
		targetFPR: 0.05,
	}
	for _, opt := range opts {
		opt(s)
	}

	app.Use(APIKeyMiddleware(serverConfig.APIKey, defaultWhitelist))
	app.Use(ZstdMiddleware(defaultWhitelist))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.App.Get("/health", s.health)

	ServeRoute(s, "/score", s.score)
	ServeRoute(s, "/analyze", s.analyze)
	ServeRoute(s, "/chunked", s.chunked)
	ServeRoute(s, "/calibrate", s.calibrate)
	ServeRoute(s, "/evaluate", s.evaluate)

	s.App.Get("/runs", s.listRuns)
	s.App.Get("/runs/:id", s.getRun)
}

func statusFor(err error) int {
	var e *fiber.Error
	switch {
	case errors.As(err, &e):
		return e.Code
	case errors.Is(err, scoring.ErrInvalidParameter):
		return fiber.StatusBadRequest
	case errors.Is(err, scoring.ErrInsufficientData):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func fiberErrHandler(ctx *fiber.Ctx, err error) error {
	code := statusFor(err)

	log.Error().
		Err(err).
		Int("status_code", code).
		Str("path", ctx.Path()).
		Str("method", ctx.Method()).
		Msg("Fiber error handler triggered")

	return ctx.Status(code).JSON(createResponse(map[string]any{}, err))
}

// ServeRoute registers a POST handler that decodes Req and wraps Resp in a StdResponse.
func ServeRoute[Req, Resp any](s *Server, path string, handler RouterHandler[Req, Resp]) {
	s.App.Post(path, func(c *fiber.Ctx) error {
		var req Req
		if err := c.BodyParser(&req); err != nil {
			log.Error().
				Err(err).
				Str("route", path).
				Msg("Failed to parse request body")
			return c.Status(fiber.StatusBadRequest).
				JSON(createResponse(map[string]any{}, err))
		}

		resp, err := handler(c, req)
		if err != nil {
			code := statusFor(err)
			log.Error().
				Err(err).
				Int("status_code", code).
				Str("route", path).
				Msg("Handler returned error")
			var zero Resp
			return c.Status(code).JSON(createResponse(zero, err))
		}

		return c.JSON(createResponse(resp, nil))
	})
}

// Start blocks serving on the configured address.
func (s *Server) Start() error {
	addr := s.config.ListenAddress()
	log.Info().Str("address", addr).Msg("Server listening")
	return s.App.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}
