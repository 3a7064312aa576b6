package orgunit

import (
	"orgunit-sync/core/metrics"
	"orgunit-sync/feature/orgunit/snapshot"
	"orgunit-sync/feature/orgunit/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
	enabled bool
}

// NewFeature creates a new orgunit feature. It is disabled without a database.
func NewFeature(db *gorm.DB, resolver snapshot.Resolver, logger *zap.Logger, m *metrics.SyncMetrics) *Feature {
	svc := NewService(store.New(db), logger, m)
	h := NewHandler(svc, resolver)
	return &Feature{service: svc, handler: h, enabled: db != nil}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "orgunit"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
