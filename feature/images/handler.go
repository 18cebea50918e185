package images

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/logger"
)

// Handler handles HTTP requests for images.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the image routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/images")
	group.Post("/", h.HandleUpload)
	group.Delete("/", h.HandleDelete)
}

// HandleUpload stores the multipart field "image".
// @Summary Upload Image
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} errhandler.Response
// @Router /images [post]
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	fh, err := c.FormFile("image")
	if err != nil {
		return apperror.BadRequest("No image field in request")
	}
	limit := h.service.MaxFileSizeBytes()
	if fh.Size > limit {
		return apperror.BadRequest("File size exceeds %dMB limit", limit/(1024*1024))
	}

	f, err := fh.Open()
	if err != nil {
		return apperror.BadRequest("Failed to read uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return apperror.IO(err, "Failed to read uploaded file")
	}

	resp, err := h.service.Upload(c.Context(), fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		l.Warn("Image upload rejected", zap.String("filename", fh.Filename), zap.Error(err))
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleDelete removes a stored image.
// @Summary Delete Image
// @Tags images
// @Param url query string true "Image URL returned by upload"
// @Success 204
// @Failure 400 {object} errhandler.Response
// @Router /images [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Query("url")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
