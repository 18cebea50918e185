package loans

import (
	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	repo    *Repository
	handler *Handler
}

// NewFeature creates the loans feature around an existing repository.
func NewFeature(repo *Repository) *Feature {
	return &Feature{repo: repo, handler: NewHandler(repo)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "loans"
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
