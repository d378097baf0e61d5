package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pluginbazaar/pluginbazaar-backend/internal/catalog"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/licenses"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/orders"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/config"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	pkgerrors "github.com/pluginbazaar/pluginbazaar-backend/pkg/errors"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubCatalogService struct{}

func (stubCatalogService) ResolvePurchasable(context.Context, int64) (*catalog.EditionPurchasable, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "edition not found")
}

func (stubCatalogService) GetEdition(context.Context, int64) (*catalog.EditionView, error) {
	return &catalog.EditionView{ID: 3, PluginID: 7, Name: "Pro", Handle: "pro", SKU: "AWESOME-PRO"}, nil
}

func (stubCatalogService) ListPlugins(context.Context) ([]models.Plugin, error) {
	return []models.Plugin{{ID: 7, Name: "Awesome", Handle: "awesome", DeveloperName: "Acme"}}, nil
}

func (stubCatalogService) ListEditions(context.Context, int64) ([]catalog.EditionView, error) {
	return []catalog.EditionView{}, nil
}

type stubLicensesService struct{}

func (stubLicensesService) GetByKey(_ context.Context, key string) (*licenses.ListItem, error) {
	if key != "KNOWN123" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
	}
	return &licenses.ListItem{ID: 1, Key: key}, nil
}

func (stubLicensesService) ListLicenses(_ context.Context, params licenses.ListParams) (*licenses.ListResult, error) {
	if params.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	return &licenses.ListResult{Items: []licenses.ListItem{}}, nil
}

type stubOrdersService struct {
	created []orders.CreateOrderInput
}

func (s *stubOrdersService) Create(_ context.Context, input orders.CreateOrderInput) (*orders.OrderView, error) {
	s.created = append(s.created, input)
	return &orders.OrderView{ID: 1, Number: input.Number, Email: input.Email}, nil
}

func (s *stubOrdersService) Get(_ context.Context, number string) (*orders.OrderView, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersService) MarkPaid(context.Context, string) error {
	return nil
}

func (s *stubOrdersService) Complete(context.Context, string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
	}
}

func newTestRouter(dbErr error) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{err: dbErr},
		stubPinger{},
		stubCatalogService{},
		stubLicensesService{},
		&stubOrdersService{},
	)
}

func TestHealthReady(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-PluginBazaar-Env"); env != "test" {
		t.Fatalf("expected env header, got %q", env)
	}
}

func TestHealthReadyFailsWhenDatabaseDown(t *testing.T) {
	router := newTestRouter(context.DeadlineExceeded)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK {
		t.Fatalf("ready must fail when the database is down")
	}
}

func TestPluginListRoute(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/plugins", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload struct {
		Data struct {
			Plugins []map[string]any `json:"plugins"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Data.Plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(payload.Data.Plugins))
	}
}

func TestLicenseDetailRoute(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/licenses/KNOWN123", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/licenses/MISSING", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestLicenseListRequiresEmail(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/licenses", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderCreateRoute(t *testing.T) {
	router := newTestRouter(nil)
	body := `{"number":"ord-1","email":"a@b.com","lineItems":[{"editionId":3,"licenseKey":"new:XYZ789"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestOrderCreateRejectsBadJSON(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}
