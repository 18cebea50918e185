package items

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/logger"
	"github.com/sohosai/hyperdashi-server/core/request"
)

// Handler handles HTTP requests for items.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new HTTP handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the item routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/items")
	group.Post("/", h.HandleCreate)
	group.Get("/", h.HandleList)
	group.Get("/by-label/:label_id", h.HandleGetByLabel)
	group.Get("/suggestions/connection_names", h.HandleConnectionNames)
	group.Get("/suggestions/storage_locations", h.HandleStorageLocations)
	group.Get("/:id", h.HandleGet)
	group.Put("/:id", h.HandleUpdate)
	group.Delete("/:id", h.HandleDelete)
	group.Post("/:id/dispose", h.HandleDispose)
	group.Post("/:id/undispose", h.HandleUndispose)
}

// HandleCreate creates an item.
// @Summary Create Item
// @Description Creates an item. A label is drawn from the shared counter when label_id is empty.
// @Tags items
// @Accept json
// @Produce json
// @Param item body CreateRequest true "Item"
// @Success 201 {object} Item
// @Failure 400 {object} errhandler.Response
// @Failure 409 {object} errhandler.Response
// @Router /items [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var req CreateRequest
	if err := request.JSON(c, &req); err != nil {
		return err
	}
	item, err := h.repo.Create(c.Context(), req)
	if err != nil {
		return err
	}
	logger.WithRayID(h.repo.logger, c).Debug("Item created over HTTP", zap.Int64("id", item.ID))
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleList lists items.
// @Summary List Items
// @Tags items
// @Produce json
// @Param page query int false "Page" default(1)
// @Param per_page query int false "Page size" default(20)
// @Param search query string false "Matches name, label_id, model_number and remarks"
// @Param is_on_loan query boolean false "Loan state"
// @Param is_disposed query boolean false "Disposal state"
// @Param container_id query string false "Container"
// @Param storage_type query string false "location or container"
// @Param sort_by query string false "name, created_at, updated_at, is_disposed"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} ListResult
// @Router /items [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	f := Filter{
		Search:      c.Query("search"),
		ContainerID: request.OptString(c, "container_id"),
		StorageType: request.OptString(c, "storage_type"),
	}
	var err error
	if f.IsOnLoan, err = request.OptBool(c, "is_on_loan"); err != nil {
		return err
	}
	if f.IsDisposed, err = request.OptBool(c, "is_disposed"); err != nil {
		return err
	}

	res, err := h.repo.List(c.Context(), f, request.Sort(c), request.Page(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// HandleGet returns one item.
// @Summary Get Item
// @Tags items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} Item
// @Failure 404 {object} errhandler.Response
// @Router /items/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	id, err := request.ID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.repo.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// HandleGetByLabel returns the item carrying a label.
// @Summary Get Item By Label
// @Tags items
// @Produce json
// @Param label_id path string true "Label"
// @Success 200 {object} Item
// @Failure 404 {object} errhandler.Response
// @Router /items/by-label/{label_id} [get]
func (h *Handler) HandleGetByLabel(c *fiber.Ctx) error {
	item, err := h.repo.GetByLabel(c.Context(), c.Params("label_id"))
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// HandleUpdate applies a partial update.
// @Summary Update Item
// @Tags items
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param item body UpdateRequest true "Fields to change"
// @Success 200 {object} Item
// @Failure 400 {object} errhandler.Response
// @Failure 404 {object} errhandler.Response
// @Router /items/{id} [put]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	id, err := request.ID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := request.JSON(c, &req); err != nil {
		return err
	}
	item, err := h.repo.Update(c.Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// HandleDelete deletes an item that is not on loan.
// @Summary Delete Item
// @Tags items
// @Param id path int true "Item ID"
// @Success 204
// @Failure 404 {object} errhandler.Response
// @Failure 409 {object} errhandler.Response
// @Router /items/{id} [delete]
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

// HandleDispose marks an item disposed.
// @Summary Dispose Item
// @Tags items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} Item
// @Router /items/{id}/dispose [post]
func (h *Handler) HandleDispose(c *fiber.Ctx) error {
	id, err := request.ID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.repo.Dispose(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// HandleUndispose clears the disposed flag.
// @Summary Undispose Item
// @Tags items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} Item
// @Router /items/{id}/undispose [post]
func (h *Handler) HandleUndispose(c *fiber.Ctx) error {
	id, err := request.ID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.repo.Undispose(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// HandleConnectionNames returns connection name suggestions.
// @Summary Connection Name Suggestions
// @Tags items
// @Produce json
// @Success 200 {array} string
// @Router /items/suggestions/connection_names [get]
func (h *Handler) HandleConnectionNames(c *fiber.Ctx) error {
	names, err := h.repo.ConnectionNameSuggestions(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(names)
}

// HandleStorageLocations returns storage location suggestions.
// @Summary Storage Location Suggestions
// @Tags items
// @Produce json
// @Success 200 {array} string
// @Router /items/suggestions/storage_locations [get]
func (h *Handler) HandleStorageLocations(c *fiber.Ctx) error {
	locations, err := h.repo.StorageLocationSuggestions(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(locations)
}
