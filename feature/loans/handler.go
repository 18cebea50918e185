package loans

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/logger"
	"github.com/sohosai/hyperdashi-server/core/request"
)

// Handler handles HTTP requests for loans.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new HTTP handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the loan routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/loans")
	group.Post("/", h.HandleCreate)
	group.Get("/", h.HandleList)
	group.Get("/:id", h.HandleGet)
	group.Post("/:id/return", h.HandleReturn)
}

// HandleCreate lends an item.
// @Summary Create Loan
// @Tags loans
// @Accept json
// @Produce json
// @Param loan body CreateRequest true "Loan"
// @Success 201 {object} WithItem
// @Failure 404 {object} errhandler.Response
// @Failure 409 {object} errhandler.Response
// @Router /loans [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var req CreateRequest
	if err := request.JSON(c, &req); err != nil {
		return err
	}
	loan, err := h.repo.Create(c.Context(), req)
	if err != nil {
		return err
	}
	logger.WithRayID(h.repo.logger, c).Debug("Loan served", zap.Int64("id", loan.ID))
	return c.Status(fiber.StatusCreated).JSON(loan)
}

// HandleList lists loans, newest first.
// @Summary List Loans
// @Tags loans
// @Produce json
// @Param item_id query int false "Item"
// @Param student_number query string false "Student number"
// @Param active_only query boolean false "true for active loans, false for returned ones"
// @Param page query int false "Page" default(1)
// @Param per_page query int false "Page size" default(20)
// @Success 200 {object} ListResult
// @Router /loans [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	f := Filter{StudentNumber: request.OptString(c, "student_number")}
	if raw := c.Query("item_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperror.BadRequest("Invalid item_id: %q", raw)
		}
		f.ItemID = &id
	}
	var err error
	if f.ActiveOnly, err = request.OptBool(c, "active_only"); err != nil {
		return err
	}

	res, err := h.repo.List(c.Context(), f, request.Page(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// HandleGet returns one loan.
// @Summary Get Loan
// @Tags loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} WithItem
// @Failure 404 {object} errhandler.Response
// @Router /loans/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	id, err := request.ID(c, "id")
	if err != nil {
		return err
	}
	loan, err := h.repo.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(loan)
}

// HandleReturn closes a loan. The body is optional.
// @Summary Return Loan
// @Tags loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param request body ReturnRequest false "Return date and remarks"
// @Success 200 {object} WithItem
// @Failure 404 {object} errhandler.Response
// @Failure 409 {object} errhandler.Response
// @Router /loans/{id}/return [post]
func (h *Handler) HandleReturn(c *fiber.Ctx) error {
	id, err := request.ID(c, "id")
	if err != nil {
		return err
	}
	var req ReturnRequest
	if len(c.Body()) > 0 {
		if err := request.JSON(c, &req); err != nil {
			return err
		}
	}
	loan, err := h.repo.Return(c.Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(loan)
}
