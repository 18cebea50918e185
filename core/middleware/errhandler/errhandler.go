// Package errhandler renders handler errors as {"error": message} JSON.
package errhandler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/logger"
)

// Response is the body of every error reply.
type Response struct {
	Error string `json:"error"`
}

// New returns a fiber.ErrorHandler. Server-side failures are logged with
// their cause; clients only see the public message.
func New(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(Response{Error: fe.Message})
		}

		code := apperror.StatusCode(err)
		if code >= fiber.StatusInternalServerError {
			logger.WithRayID(log, c).Error("Request failed",
				zap.String("kind", apperror.KindOf(err).String()),
				zap.Error(err),
			)
		}
		return c.Status(code).JSON(Response{Error: apperror.PublicMessage(err)})
	}
}
