package integrity

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/feature/integrity/checks"
)

// Feature implements the integrity feature.
type Feature struct {
	handler *Handler
}

// NewFeature creates a new integrity feature.
func NewFeature(db Inspectable, counter checks.CounterReader, logger *zap.Logger) *Feature {
	return &Feature{handler: NewHandler(NewService(db, counter, logger))}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "integrity"
}

// IsEnabled returns true if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
