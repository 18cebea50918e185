package containers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/logger"
	"github.com/sohosai/hyperdashi-server/core/request"
)

// Handler handles HTTP requests for containers.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new HTTP handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the container routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/containers")
	group.Post("/", h.HandleCreate)
	group.Get("/", h.HandleList)
	group.Get("/by-location/:location", h.HandleByLocation)
	group.Post("/bulk-delete", h.HandleBulkDelete)
	group.Post("/bulk-disposed", h.HandleBulkDisposed)
	group.Get("/:id", h.HandleGet)
	group.Put("/:id", h.HandleUpdate)
	group.Delete("/:id", h.HandleDelete)
}

// HandleCreate creates a container with a freshly drawn label.
// @Summary Create Container
// @Tags containers
// @Accept json
// @Produce json
// @Param container body CreateRequest true "Container"
// @Success 201 {object} Container
// @Failure 400 {object} errhandler.Response
// @Router /containers [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var req CreateRequest
	if err := request.JSON(c, &req); err != nil {
		return err
	}
	created, err := h.repo.Create(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleList lists containers with item counts.
// @Summary List Containers
// @Tags containers
// @Produce json
// @Param include_disposed query boolean false "Include disposed containers"
// @Param location query string false "Exact location"
// @Param search query string false "Matches id, name and description"
// @Param sort_by query string false "name, location, item_count, created_at, updated_at, is_disposed"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page" default(1)
// @Param per_page query int false "Page size" default(20)
// @Success 200 {object} ListResult
// @Router /containers [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	include, err := request.OptBool(c, "include_disposed")
	if err != nil {
		return err
	}
	f := Filter{
		IncludeDisposed: include != nil && *include,
		Location:        request.OptString(c, "location"),
		Search:          c.Query("search"),
	}
	res, err := h.repo.List(c.Context(), f, request.Sort(c), request.Page(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// HandleGet returns one container.
// @Summary Get Container
// @Tags containers
// @Produce json
// @Param id path string true "Container ID"
// @Success 200 {object} Container
// @Failure 404 {object} errhandler.Response
// @Router /containers/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	found, err := h.repo.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(found)
}

// HandleByLocation lists the non-disposed containers at a location.
// @Summary Containers By Location
// @Tags containers
// @Produce json
// @Param location path string true "Location"
// @Success 200 {array} Container
// @Router /containers/by-location/{location} [get]
func (h *Handler) HandleByLocation(c *fiber.Ctx) error {
	location, err := url.PathUnescape(c.Params("location"))
	if err != nil {
		return apperror.BadRequest("Invalid location")
	}
	list, err := h.repo.ByLocation(c.Context(), location)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// HandleUpdate applies a partial update.
// @Summary Update Container
// @Tags containers
// @Accept json
// @Produce json
// @Param id path string true "Container ID"
// @Param container body UpdateRequest true "Fields to change"
// @Success 200 {object} Container
// @Failure 409 {object} errhandler.Response
// @Router /containers/{id} [put]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	var req UpdateRequest
	if err := request.JSON(c, &req); err != nil {
		return err
	}
	updated, err := h.repo.Update(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// HandleDelete deletes an empty container.
// @Summary Delete Container
// @Tags containers
// @Param id path string true "Container ID"
// @Success 204
// @Failure 409 {object} errhandler.Response
// @Router /containers/{id} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	if err := h.repo.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleBulkDelete deletes several containers atomically.
// @Summary Bulk Delete Containers
// @Tags containers
// @Accept json
// @Param request body BulkDeleteRequest true "Container IDs"
// @Success 204
// @Failure 404 {object} errhandler.Response
// @Failure 409 {object} errhandler.Response
// @Router /containers/bulk-delete [post]
func (h *Handler) HandleBulkDelete(c *fiber.Ctx) error {
	var req BulkDeleteRequest
	if err := request.JSON(c, &req); err != nil {
		return err
	}
	if err := h.repo.BulkDelete(c.Context(), req.IDs); err != nil {
		return err
	}
	logger.WithRayID(h.repo.logger, c).Debug("Bulk delete served", zap.Int("count", len(req.IDs)))
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleBulkDisposed sets the disposed flag on several containers atomically.
// @Summary Bulk Set Container Disposal
// @Tags containers
// @Accept json
// @Param request body BulkDisposedRequest true "Container IDs and state"
// @Success 204
// @Failure 404 {object} errhandler.Response
// @Failure 409 {object} errhandler.Response
// @Router /containers/bulk-disposed [post]
func (h *Handler) HandleBulkDisposed(c *fiber.Ctx) error {
	var req BulkDisposedRequest
	if err := request.JSON(c, &req); err != nil {
		return err
	}
	if err := h.repo.BulkSetDisposed(c.Context(), req.IDs, req.IsDisposed); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
