package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthChecks reports which collaborators are configured
type HealthChecks struct {
	Fal     func() bool
	Storage func() bool
	Redis   func() bool
}

// Root handles GET /
func Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"timestamp": time.Now().Unix(),
	})
}

// Health handles GET /health
func Health(checks HealthChecks) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"fal":     call(checks.Fal),
				"storage": call(checks.Storage),
				"redis":   call(checks.Redis),
			},
		})
	}
}

func call(f func() bool) bool {
	return f != nil && f()
}
