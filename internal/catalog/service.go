package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	pkgerrors "github.com/pluginbazaar/pluginbazaar-backend/pkg/errors"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
)

type catalogRepository interface {
	FindPluginByID(ctx context.Context, id int64) (*models.Plugin, error)
	FindEditionByID(ctx context.Context, id int64) (*models.PluginEdition, error)
	ListPlugins(ctx context.Context) ([]models.Plugin, error)
	ListEditions(ctx context.Context, pluginID int64) ([]models.PluginEdition, error)
}

// Service resolves purchasables and serves the catalog read API.
type Service interface {
	ResolvePurchasable(ctx context.Context, editionID int64) (*EditionPurchasable, error)
	GetEdition(ctx context.Context, editionID int64) (*EditionView, error)
	ListPlugins(ctx context.Context) ([]models.Plugin, error)
	ListEditions(ctx context.Context, pluginID int64) ([]EditionView, error)
}

type service struct {
	repo catalogRepository
	logg *logger.Logger
}

// EditionView is the API shape of one edition with its derived fields.
type EditionView struct {
	ID           int64  `json:"id"`
	PluginID     int64  `json:"pluginId"`
	Name         string `json:"name"`
	Handle       string `json:"handle"`
	SKU          string `json:"sku"`
	Description  string `json:"description"`
	FullName     string `json:"fullName"`
	Price        string `json:"price"`
	RenewalPrice string `json:"renewalPrice"`
}

// NewService builds the catalog service.
func NewService(repo catalogRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// ResolvePurchasable loads the edition and its plugin. The plugin is required
// here: SKU and description are meaningless without it, so provisioning and
// order intake get a hard failure instead of a degraded purchasable.
func (s *service) ResolvePurchasable(ctx context.Context, editionID int64) (*EditionPurchasable, error) {
	edition, err := s.repo.FindEditionByID(ctx, editionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "edition not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup edition")
	}
	plugin, err := s.repo.FindPluginByID(ctx, edition.PluginID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plugin not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup plugin")
	}
	return &EditionPurchasable{Edition: *edition, Plugin: plugin}, nil
}

// GetEdition builds the read view. A plugin lookup failure is swallowed and
// the view degrades to bare edition fields.
func (s *service) GetEdition(ctx context.Context, editionID int64) (*EditionView, error) {
	edition, err := s.repo.FindEditionByID(ctx, editionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "edition not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup edition")
	}
	view := s.buildView(ctx, *edition)
	return &view, nil
}

func (s *service) ListPlugins(ctx context.Context) ([]models.Plugin, error) {
	rows, err := s.repo.ListPlugins(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plugins")
	}
	return rows, nil
}

func (s *service) ListEditions(ctx context.Context, pluginID int64) ([]EditionView, error) {
	rows, err := s.repo.ListEditions(ctx, pluginID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list editions")
	}
	views := make([]EditionView, len(rows))
	for i, row := range rows {
		views[i] = s.buildView(ctx, row)
	}
	return views, nil
}

func (s *service) buildView(ctx context.Context, edition models.PluginEdition) EditionView {
	purchasable := EditionPurchasable{Edition: edition}
	plugin, err := s.repo.FindPluginByID(ctx, edition.PluginID)
	if err != nil {
		logCtx := s.logg.WithField(ctx, "plugin_id", edition.PluginID)
		s.logg.Warn(logCtx, "plugin lookup failed, rendering bare edition")
	} else {
		purchasable.Plugin = plugin
	}
	return EditionView{
		ID:           edition.ID,
		PluginID:     edition.PluginID,
		Name:         edition.Name,
		Handle:       edition.Handle,
		SKU:          purchasable.SKU(),
		Description:  purchasable.Description(),
		FullName:     purchasable.FullName(),
		Price:        edition.Price.StringFixed(2),
		RenewalPrice: edition.RenewalPrice.StringFixed(2),
	}
}
