package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/pluginbazaar/pluginbazaar-backend/internal/repo"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
)

// Repository exposes catalog reads over plugins and their editions.
type Repository struct {
	repo.Base
}

// NewRepository constructs a catalog repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindPluginByID loads one plugin.
func (r *Repository) FindPluginByID(ctx context.Context, id int64) (*models.Plugin, error) {
	var plugin models.Plugin
	if err := r.DB(ctx).First(&plugin, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plugin, nil
}

// FindEditionByID loads one edition.
func (r *Repository) FindEditionByID(ctx context.Context, id int64) (*models.PluginEdition, error) {
	var edition models.PluginEdition
	if err := r.DB(ctx).First(&edition, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &edition, nil
}

// ListPlugins returns all plugins ordered by handle.
func (r *Repository) ListPlugins(ctx context.Context) ([]models.Plugin, error) {
	var rows []models.Plugin
	if err := r.DB(ctx).Order("handle ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListEditions returns the editions of one plugin ordered by price.
func (r *Repository) ListEditions(ctx context.Context, pluginID int64) ([]models.PluginEdition, error) {
	var rows []models.PluginEdition
	err := r.DB(ctx).
		Where("plugin_id = ?", pluginID).
		Order("price ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
