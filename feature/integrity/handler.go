package integrity

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sohosai/hyperdashi-server/core/logger"
	"github.com/sohosai/hyperdashi-server/core/request"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/integrity", h.HandleIntegrityCheck)
}

// HandleIntegrityCheck runs every check and optionally repairs.
// @Summary Run Integrity Checks
// @Description Checks loan flags, the label counter and schema parity. With fix=true repairable drift is corrected.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Apply repairs"
// @Success 200 {object} Report
// @Failure 400 {object} errhandler.Response
// @Failure 500 {object} errhandler.Response
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	fix, err := request.OptBool(c, "fix")
	if err != nil {
		return err
	}
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Running integrity checks")

	report, err := h.service.Run(c.Context(), fix != nil && *fix)
	if err != nil {
		return err
	}
	return c.JSON(report)
}
