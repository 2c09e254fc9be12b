package delivery

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/matuszelenak/trojsten-graph/config"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

func NewHealthHandler(app *fiber.App, ping Pinger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := ping(c.Context()); err != nil {
			config.PrintLogInfo(nil, fiber.StatusServiceUnavailable, "Health")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"success": false,
				"message": "Database unavailable",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"message": "ok",
		})
	})
}
