package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxPaymentFields    int
	MaxBatchSize        int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware performs shallow request validation ahead of the handlers:
// content type, payload shape and batch size. Field-level semantics stay
// with the normalizer.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxPaymentFields == 0 {
		cfg.MaxPaymentFields = 200
	}
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = 100
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json", "multipart/form-data"}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			contentType := c.Get("Content-Type")
			if contentType != "" && !allowedType(contentType, cfg.AllowedContentTypes) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		path := c.Path()

		if c.Method() == fiber.MethodPost &&
			(strings.HasSuffix(path, "/validate") || strings.HasSuffix(path, "/queue/messages")) {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			fields, ok := req["payment"].(map[string]interface{})
			if !ok || len(fields) == 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "A payment object with at least one field is required",
				})
			}

			if len(fields) > cfg.MaxPaymentFields {
				cfg.Logger.Warn("Oversized payment submission",
					zap.String("ip", c.IP()),
					zap.Int("fields", len(fields)),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Payment exceeds the maximum field count",
				})
			}
		}

		if c.Method() == fiber.MethodPost && strings.HasSuffix(path, "/queue/batch") {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			payments, ok := req["payments"].([]interface{})
			if !ok || len(payments) == 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "A payments array with at least one entry is required",
				})
			}

			if len(payments) > cfg.MaxBatchSize {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Batch exceeds the maximum size",
				})
			}
		}

		return c.Next()
	}
}

func allowedType(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}
