package router

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/motionhero/api/internal/handler"
	"github.com/motionhero/api/internal/middleware"
	"github.com/motionhero/api/pkg/response"
	"github.com/rs/zerolog"

	ws "github.com/motionhero/api/internal/websocket"
)

// Deps is everything the HTTP surface needs
type Deps struct {
	Logger          zerolog.Logger
	BodyLimit       int
	Generation      *handler.GenerationHandler
	Health          handler.HealthChecks
	RateLimiter     *middleware.RateLimiter
	GeneratePerHour int
	Hub             *ws.Hub
}

// New builds the fiber app with all routes mounted
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(d.Logger),
		BodyLimit:    d.BodyLimit,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.AccessLog(d.Logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))

	app.Get("/", handler.Root)
	app.Get("/health", handler.Health(d.Health))

	api := app.Group("/api")
	fal := api.Group("/fal")
	generate := []fiber.Handler{d.Generation.RequireCredential}
	if d.RateLimiter != nil {
		generate = append(generate, d.RateLimiter.GenerateLimit(d.GeneratePerHour))
	}
	generate = append(generate, d.Generation.ImageToVideo)
	fal.Post("/image-to-video", generate...)

	if d.Hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})

		app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
			d.Hub.HandleConnection(c, c.Params("jobId"))
		}))
	}

	return app
}

func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := response.MsgInternal

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		} else {
			logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}

		return response.Error(c, code, message, nil)
	}
}
