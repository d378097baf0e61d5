package discounts

import (
	"context"

	"gorm.io/gorm"

	"github.com/pluginbazaar/pluginbazaar-backend/internal/repo"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
)

// Repository resolves coupon codes to their discount metadata.
type Repository struct {
	repo.Base
}

// NewRepository constructs a discount repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByCode returns the discount with the given code, or
// gorm.ErrRecordNotFound. The creation timestamp on the row decides whether a
// coupon grandfathers a license.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Discount, error) {
	var discount models.Discount
	if err := r.DB(ctx).First(&discount, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}
