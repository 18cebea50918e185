// Package rayid tags every request with a unique id.
package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sohosai/hyperdashi-server/core/logger"
)

// Header carries the request id in both directions.
const Header = "X-Ray-ID"

// New returns middleware that reuses an incoming X-Ray-ID or generates one,
// stores it in the request locals and echoes it on the response.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(Header)
		if _, err := uuid.Parse(rid); err != nil {
			rid = uuid.NewString()
		}
		c.Locals(logger.RayIDKey, rid)
		c.Set(Header, rid)
		return c.Next()
	}
}
