package cablecolors

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sohosai/hyperdashi-server/core/request"
)

// Handler handles HTTP requests for cable colors.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new HTTP handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the cable color routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/cable_colors")
	group.Post("/", h.HandleCreate)
	group.Get("/", h.HandleList)
	group.Get("/:id", h.HandleGet)
	group.Put("/:id", h.HandleUpdate)
	group.Delete("/:id", h.HandleDelete)
}

// HandleCreate creates a cable color.
// @Summary Create Cable Color
// @Tags cable_colors
// @Accept json
// @Produce json
// @Param color body CreateRequest true "Cable color"
// @Success 201 {object} CableColor
// @Failure 400 {object} errhandler.Response
// @Router /cable_colors [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var req CreateRequest
	if err := request.JSON(c, &req); err != nil {
		return err
	}
	cc, err := h.repo.Create(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(cc)
}

// HandleList lists cable colors.
// @Summary List Cable Colors
// @Tags cable_colors
// @Produce json
// @Param page query int false "Page" default(1)
// @Param per_page query int false "Page size" default(20)
// @Success 200 {object} ListResult
// @Router /cable_colors [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	res, err := h.repo.List(c.Context(), request.Page(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// HandleGet returns one cable color.
// @Summary Get Cable Color
// @Tags cable_colors
// @Produce json
// @Param id path int true "Cable color ID"
// @Success 200 {object} CableColor
// @Failure 404 {object} errhandler.Response
// @Router /cable_colors/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	id, err := request.ID(c, "id")
	if err != nil {
		return err
	}
	cc, err := h.repo.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(cc)
}

// HandleUpdate applies a partial update.
// @Summary Update Cable Color
// @Tags cable_colors
// @Accept json
// @Produce json
// @Param id path int true "Cable color ID"
// @Param color body UpdateRequest true "Fields to change"
// @Success 200 {object} CableColor
// @Router /cable_colors/{id} [put]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	id, err := request.ID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := request.JSON(c, &req); err != nil {
		return err
	}
	cc, err := h.repo.Update(c.Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(cc)
}

// HandleDelete deletes a cable color.
// @Summary Delete Cable Color
// @Tags cable_colors
// @Param id path int true "Cable color ID"
// @Success 204
// @Router /cable_colors/{id} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	id, err := request.ID(c, "id")
	if err != nil {
		return err
	}
	if err := h.repo.Delete(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
