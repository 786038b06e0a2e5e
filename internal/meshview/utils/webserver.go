package utils

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// multipart framing on top of the file itself
const formOverhead = 1 << 20

// NewWebServer returns a fiber app able to take bodies of maxUpload bytes so
// oversized files reach the handler and get a JSON answer.
func NewWebServer(maxUpload int64) *fiber.App {
	return fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             int(maxUpload) + formOverhead,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				slog.Error("Request failed", "path", c.Path(), "error", err)
			}
			return c.SendStatus(code)
		},
	})
}
