package cmslicenses

import (
	"context"

	"gorm.io/gorm"

	"github.com/pluginbazaar/pluginbazaar-backend/internal/repo"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
)

// Repository looks up platform licenses for best-effort enrichment.
type Repository struct {
	repo.Base
}

// NewRepository constructs a CMS license repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByKey returns the CMS license with the given key, or
// gorm.ErrRecordNotFound.
func (r *Repository) FindByKey(ctx context.Context, key string) (*models.CmsLicense, error) {
	var license models.CmsLicense
	if err := r.DB(ctx).First(&license, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &license, nil
}
