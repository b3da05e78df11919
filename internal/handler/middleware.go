package handler

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const headerAPIKey = "X-API-Key"

// requireAPIKey accepts "Authorization: Bearer <key>" or "X-API-Key: <key>".
func requireAPIKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}

		provided := c.Get(headerAPIKey)
		if bearer, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "); ok {
			provided = bearer
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			log.WithFields(log.Fields{
				"component": "http",
				"path":      c.Path(),
				"ip":        c.IP(),
			}).Warn("rejected request with invalid api key")
			return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{Error: "invalid or missing api key"})
		}
		return c.Next()
	}
}
