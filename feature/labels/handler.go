package labels

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/labels"
	"github.com/sohosai/hyperdashi-server/core/logger"
	"github.com/sohosai/hyperdashi-server/core/request"
	"github.com/sohosai/hyperdashi-server/feature/items"
)

// Handler serves label generation, the label inventory and id checks.
type Handler struct {
	alloc  *labels.Allocator
	items  *items.Repository
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(alloc *labels.Allocator, repo *items.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{alloc: alloc, items: repo, logger: logger}
}

// RegisterRoutes registers the label and id routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/labels")
	group.Post("/generate", h.HandleGenerate)
	group.Get("/current", h.HandleCurrent)
	group.Get("/", h.HandleInventory)

	app.Get("/ids/:id/check", h.HandleCheckID)
}

// HandleGenerate draws a batch of labels for printing.
// @Summary Generate Labels
// @Description Allocates 1 to 1000 consecutive labels from the shared counter.
// @Tags labels
// @Accept json
// @Produce json
// @Param request body labels.GenerateRequest true "Quantity and record type"
// @Success 200 {object} labels.GenerateResponse
// @Failure 400 {object} errhandler.Response
// @Router /labels/generate [post]
func (h *Handler) HandleGenerate(c *fiber.Ctx) error {
	var req labels.GenerateRequest
	if err := request.JSON(c, &req); err != nil {
		return err
	}
	resp, err := h.alloc.Generate(c.Context(), req)
	if err != nil {
		return err
	}
	logger.WithRayID(h.logger, c).Info("Labels generated",
		zap.Int("quantity", req.Quantity),
		zap.String("record_type", req.RecordType))
	return c.JSON(resp)
}

// HandleCurrent reports the counter value.
// @Summary Current Label Counter
// @Tags labels
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /labels/current [get]
func (h *Handler) HandleCurrent(c *fiber.Ctx) error {
	n, err := h.alloc.Current(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"current_value": n, "last_label": labels.Encode(n)})
}

// HandleInventory lists labels in a range with their holders.
// @Summary Label Inventory
// @Tags labels
// @Produce json
// @Param from query string false "First label" default(0000)
// @Param to query string false "Last label"
// @Success 200 {array} items.LabelInfo
// @Failure 400 {object} errhandler.Response
// @Router /labels [get]
func (h *Handler) HandleInventory(c *fiber.Ctx) error {
	list, err := h.items.LabelInventory(c.Context(), items.LabelRange{From: c.Query("from"), To: c.Query("to")})
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// HandleCheckID reports whether an id is taken by an item or a container.
// @Summary Check ID
// @Tags labels
// @Produce json
// @Param id path string true "Label or container id"
// @Success 200 {object} items.IDCheck
// @Router /ids/{id}/check [get]
func (h *Handler) HandleCheckID(c *fiber.Ctx) error {
	check, err := h.items.CheckGlobalID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(check)
}
