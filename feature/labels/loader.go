package labels

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/labels"
	"github.com/sohosai/hyperdashi-server/feature/items"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
}

// NewFeature creates the labels feature.
func NewFeature(alloc *labels.Allocator, repo *items.Repository, logger *zap.Logger) *Feature {
	return &Feature{handler: NewHandler(alloc, repo, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "labels"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
