package catalog

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	pkgerrors "github.com/pluginbazaar/pluginbazaar-backend/pkg/errors"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
)

type stubCatalogRepo struct {
	plugins   map[int64]*models.Plugin
	editions  map[int64]*models.PluginEdition
	pluginErr error
}

func (s *stubCatalogRepo) FindPluginByID(_ context.Context, id int64) (*models.Plugin, error) {
	if s.pluginErr != nil {
		return nil, s.pluginErr
	}
	if plugin, ok := s.plugins[id]; ok {
		return plugin, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalogRepo) FindEditionByID(_ context.Context, id int64) (*models.PluginEdition, error) {
	if edition, ok := s.editions[id]; ok {
		return edition, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalogRepo) ListPlugins(context.Context) ([]models.Plugin, error) {
	rows := make([]models.Plugin, 0, len(s.plugins))
	for _, plugin := range s.plugins {
		rows = append(rows, *plugin)
	}
	return rows, nil
}

func (s *stubCatalogRepo) ListEditions(_ context.Context, pluginID int64) ([]models.PluginEdition, error) {
	var rows []models.PluginEdition
	for _, edition := range s.editions {
		if edition.PluginID == pluginID {
			rows = append(rows, *edition)
		}
	}
	return rows, nil
}

func newCatalogTestService(t *testing.T, repo *stubCatalogRepo) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "catalog-test", Output: io.Discard})
	svc, err := NewService(repo, logg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestResolvePurchasable(t *testing.T) {
	repo := &stubCatalogRepo{
		plugins: map[int64]*models.Plugin{
			7: {ID: 7, DeveloperName: "Acme", Name: "Awesome", Handle: "awesome"},
		},
		editions: map[int64]*models.PluginEdition{
			3: {ID: 3, PluginID: 7, Name: "Pro", Handle: "pro", Price: decimal.RequireFromString("99.00")},
		},
	}
	svc := newCatalogTestService(t, repo)

	purchasable, err := svc.ResolvePurchasable(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if purchasable.SKU() != "AWESOME-PRO" {
		t.Fatalf("unexpected sku %q", purchasable.SKU())
	}
	if purchasable.Description() != "Acme Awesome" {
		t.Fatalf("unexpected description %q", purchasable.Description())
	}
}

func TestResolvePurchasableUnknownEdition(t *testing.T) {
	svc := newCatalogTestService(t, &stubCatalogRepo{})

	_, err := svc.ResolvePurchasable(context.Background(), 42)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolvePurchasableRequiresPlugin(t *testing.T) {
	repo := &stubCatalogRepo{
		editions: map[int64]*models.PluginEdition{
			3: {ID: 3, PluginID: 7, Name: "Pro", Handle: "pro"},
		},
	}
	svc := newCatalogTestService(t, repo)

	_, err := svc.ResolvePurchasable(context.Background(), 3)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for missing plugin, got %v", err)
	}
}

func TestGetEditionDegradesWhenPluginLookupFails(t *testing.T) {
	repo := &stubCatalogRepo{
		editions: map[int64]*models.PluginEdition{
			3: {ID: 3, PluginID: 7, Name: "Pro", Handle: "pro", Price: decimal.RequireFromString("99.00"), RenewalPrice: decimal.RequireFromString("49.00")},
		},
		pluginErr: errors.New("connection refused"),
	}
	svc := newCatalogTestService(t, repo)

	view, err := svc.GetEdition(context.Background(), 3)
	if err != nil {
		t.Fatalf("plugin failure should not propagate: %v", err)
	}
	if view.FullName != "Pro" {
		t.Fatalf("expected bare edition name, got %q", view.FullName)
	}
	if view.Price != "99.00" || view.RenewalPrice != "49.00" {
		t.Fatalf("unexpected prices %s/%s", view.Price, view.RenewalPrice)
	}
}
