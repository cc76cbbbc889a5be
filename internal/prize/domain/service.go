package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByTenantID(ctx context.Context, db *gorm.DB, tenantID string) (*WheelSettings, error)
	Upsert(ctx context.Context, db *gorm.DB, settings *WheelSettings) error
}

type SaveCatalogRequest struct {
	Segments []Segment
}

type Service interface {
	// Get returns the stored catalog or ErrNotFound.
	Get(ctx context.Context, tenantID string) (Catalog, error)
	Save(ctx context.Context, tenantID string, req SaveCatalogRequest) (Catalog, error)
}

// ValidationError carries every problem found in a submitted catalog.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "invalid catalog"
	}
	return e.Errors[0].Error()
}
