package provisioning

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"gorm.io/gorm"

	"github.com/pluginbazaar/pluginbazaar-backend/internal/catalog"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	dbtypes "github.com/pluginbazaar/pluginbazaar-backend/pkg/db/types"
	pkgerrors "github.com/pluginbazaar/pluginbazaar-backend/pkg/errors"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/metrics"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/outbox"
)

type fakeLicenseRepo struct {
	byKey     map[string]*models.PluginLicense
	nextID    int64
	saved     []*models.PluginLicense
	attached  [][2]int64
	findErr   error
	saveErr   error
	attachErr error
}

func newFakeLicenseRepo() *fakeLicenseRepo {
	return &fakeLicenseRepo{byKey: map[string]*models.PluginLicense{}, nextID: 100}
}

func (f *fakeLicenseRepo) FindByKey(_ context.Context, key string) (*models.PluginLicense, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if license, ok := f.byKey[key]; ok {
		copied := *license
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLicenseRepo) Save(_ context.Context, _ *gorm.DB, license *models.PluginLicense) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if license.ID == 0 {
		if _, exists := f.byKey[license.Key]; exists {
			return pkgerrors.New(pkgerrors.CodeValidation, "license key already taken")
		}
		f.nextID++
		license.ID = f.nextID
	}
	copied := *license
	f.byKey[license.Key] = &copied
	f.saved = append(f.saved, &copied)
	return nil
}

func (f *fakeLicenseRepo) AttachLineItem(_ *gorm.DB, licenseID, lineItemID int64) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	f.attached = append(f.attached, [2]int64{licenseID, lineItemID})
	return nil
}

type fakeCmsRepo struct {
	byKey map[string]*models.CmsLicense
	err   error
}

func (f *fakeCmsRepo) FindByKey(_ context.Context, key string) (*models.CmsLicense, error) {
	if f.err != nil {
		return nil, f.err
	}
	if license, ok := f.byKey[key]; ok {
		return license, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeDiscountRepo struct {
	byCode map[string]*models.Discount
}

func (f *fakeDiscountRepo) FindByCode(_ context.Context, code string) (*models.Discount, error) {
	if discount, ok := f.byCode[code]; ok {
		return discount, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeCatalog struct {
	editions map[int64]*catalog.EditionPurchasable
}

func (f *fakeCatalog) ResolvePurchasable(_ context.Context, editionID int64) (*catalog.EditionPurchasable, error) {
	if purchasable, ok := f.editions[editionID]; ok {
		return purchasable, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "edition not found")
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type engineFixture struct {
	engine    *Engine
	licenses  *fakeLicenseRepo
	cms       *fakeCmsRepo
	discounts *fakeDiscountRepo
	outbox    *fakeOutbox
	registry  *prometheus.Registry
	now       time.Time
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	fixture := &engineFixture{
		licenses:  newFakeLicenseRepo(),
		cms:       &fakeCmsRepo{byKey: map[string]*models.CmsLicense{}},
		discounts: &fakeDiscountRepo{byCode: map[string]*models.Discount{}},
		outbox:    &fakeOutbox{},
		registry:  prometheus.NewRegistry(),
		now:       time.Unix(1600000000, 0).UTC(),
	}
	cat := &fakeCatalog{editions: map[int64]*catalog.EditionPurchasable{
		3: {
			Edition: models.PluginEdition{ID: 3, PluginID: 7, Name: "Pro", Handle: "pro"},
			Plugin:  &models.Plugin{ID: 7, Name: "Awesome", Handle: "awesome"},
		},
		9: {
			Edition: models.PluginEdition{ID: 9, PluginID: 7, Name: "Max", Handle: "max"},
			Plugin:  &models.Plugin{ID: 7, Name: "Awesome", Handle: "awesome"},
		},
	}}
	logg := logger.New(logger.Options{ServiceName: "provisioning-test", Output: io.Discard})
	engine, err := NewEngine(EngineParams{
		Licenses:    fixture.licenses,
		CmsLicenses: fixture.cms,
		Discounts:   fixture.discounts,
		Catalog:     cat,
		Tx:          fakeTxRunner{},
		Outbox:      fixture.outbox,
		Logger:      logg,
		Metrics:     metrics.NewProvisioningMetrics(fixture.registry),
		Now:         func() time.Time { return fixture.now },
	})
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	fixture.engine = engine
	return fixture
}

func editionID(id int64) *int64 {
	return &id
}

func TestProvisionNewLicense(t *testing.T) {
	fixture := newEngineFixture(t)
	order := models.Order{ID: 1, Number: "ord-1", Email: "a@b.com"}
	lineItem := models.OrderLineItem{
		ID:        20,
		OrderID:   1,
		EditionID: editionID(3),
		Options:   dbtypes.LineItemOptions{LicenseKey: "new:XYZ789"},
	}

	if err := fixture.engine.ProvisionLineItem(context.Background(), order, lineItem); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	license, ok := fixture.licenses.byKey["XYZ789"]
	if !ok {
		t.Fatalf("license not persisted")
	}
	if license.PluginID != 7 || license.EditionID != 3 {
		t.Fatalf("unexpected license %+v", license)
	}
	if license.Email != "a@b.com" || license.Expired {
		t.Fatalf("unexpected license fields %+v", license)
	}
	if !license.Expirable {
		t.Fatalf("post-cutoff license without coupon must stay expirable")
	}
	if len(fixture.licenses.attached) != 1 || fixture.licenses.attached[0] != [2]int64{license.ID, 20} {
		t.Fatalf("unexpected associations %+v", fixture.licenses.attached)
	}
	if len(fixture.outbox.events) != 1 || fixture.outbox.events[0].AggregateID != license.ID {
		t.Fatalf("expected one provisioned event, got %+v", fixture.outbox.events)
	}
}

func TestProvisionNewLicenseWithCmsEnrichment(t *testing.T) {
	fixture := newEngineFixture(t)
	fixture.cms.byKey["CMS001"] = &models.CmsLicense{ID: 44, Key: "CMS001"}
	order := models.Order{ID: 1, Number: "ord-1", Email: "a@b.com"}
	lineItem := models.OrderLineItem{
		ID:        20,
		EditionID: editionID(3),
		Options:   dbtypes.LineItemOptions{LicenseKey: "new:XYZ789", CmsLicenseKey: "CMS001"},
	}

	if err := fixture.engine.ProvisionLineItem(context.Background(), order, lineItem); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	license := fixture.licenses.byKey["XYZ789"]
	if license.CmsLicenseID == nil || *license.CmsLicenseID != 44 {
		t.Fatalf("expected cms linkage, got %+v", license.CmsLicenseID)
	}
}

func TestProvisionNewLicenseCmsLookupFailureDegrades(t *testing.T) {
	fixture := newEngineFixture(t)
	fixture.cms.err = errors.New("connection refused")
	order := models.Order{ID: 1, Number: "ord-1", Email: "a@b.com"}
	lineItem := models.OrderLineItem{
		ID:        20,
		EditionID: editionID(3),
		Options:   dbtypes.LineItemOptions{LicenseKey: "new:XYZ789", CmsLicenseKey: "CMS001"},
	}

	if err := fixture.engine.ProvisionLineItem(context.Background(), order, lineItem); err != nil {
		t.Fatalf("lookup failure must not abort provisioning: %v", err)
	}
	license := fixture.licenses.byKey["XYZ789"]
	if license.CmsLicenseID != nil {
		t.Fatalf("expected nil cms linkage, got %d", *license.CmsLicenseID)
	}
}

func TestProvisionUpgradesExistingLicense(t *testing.T) {
	fixture := newEngineFixture(t)
	fixture.licenses.byKey["EXIST123"] = &models.PluginLicense{
		ID: 50, PluginID: 7, EditionID: 1, Email: "a@b.com", Key: "EXIST123", Expired: true, Expirable: true,
	}
	order := models.Order{ID: 1, Number: "ord-1", Email: "a@b.com"}
	lineItem := models.OrderLineItem{
		ID:        21,
		EditionID: editionID(9),
		Options:   dbtypes.LineItemOptions{LicenseKey: "EXIST123"},
	}

	if err := fixture.engine.ProvisionLineItem(context.Background(), order, lineItem); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	license := fixture.licenses.byKey["EXIST123"]
	if license.ID != 50 {
		t.Fatalf("upgrade must mutate in place, got id %d", license.ID)
	}
	if license.EditionID != 9 || license.Expired {
		t.Fatalf("unexpected upgraded license %+v", license)
	}
	if len(fixture.licenses.attached) != 1 || fixture.licenses.attached[0] != [2]int64{50, 21} {
		t.Fatalf("unexpected associations %+v", fixture.licenses.attached)
	}
}

func TestProvisionUpgradeUnknownKey(t *testing.T) {
	fixture := newEngineFixture(t)
	order := models.Order{ID: 1, Number: "ord-1", Email: "a@b.com"}
	lineItem := models.OrderLineItem{
		ID:        21,
		EditionID: editionID(9),
		Options:   dbtypes.LineItemOptions{LicenseKey: "NOPE999"},
	}

	err := fixture.engine.ProvisionLineItem(context.Background(), order, lineItem)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(fixture.licenses.saved) != 0 || len(fixture.licenses.attached) != 0 {
		t.Fatalf("nothing should be written on unknown key")
	}
}

func TestProvisionUpgradeLookupFailure(t *testing.T) {
	fixture := newEngineFixture(t)
	fixture.licenses.findErr = errors.New("connection refused")
	order := models.Order{ID: 1, Number: "ord-1", Email: "a@b.com"}
	lineItem := models.OrderLineItem{
		ID:        21,
		EditionID: editionID(9),
		Options:   dbtypes.LineItemOptions{LicenseKey: "EXIST123"},
	}

	err := fixture.engine.ProvisionLineItem(context.Background(), order, lineItem)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if got := failureCount(t, fixture.registry, "lookup_failed"); got != 1 {
		t.Fatalf("expected lookup_failed=1, got %f", got)
	}
	if got := failureCount(t, fixture.registry, "license_not_found"); got != 0 {
		t.Fatalf("transient lookup error must not count as a bad key, got %f", got)
	}
}

func failureCount(t *testing.T, registry *prometheus.Registry, reason string) float64 {
	t.Helper()
	mfs, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf.GetName() == "license_provisioning_failures_total" {
			family = mf
			break
		}
	}
	if family == nil {
		return 0
	}
	for _, metric := range family.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "reason" && label.GetValue() == reason {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestGrandfatherPreCutoff(t *testing.T) {
	fixture := newEngineFixture(t)
	fixture.now = time.Unix(1500000000, 0).UTC()
	order := models.Order{ID: 1, Number: "ord-1", Email: "a@b.com"}
	lineItem := models.OrderLineItem{
		ID:        20,
		EditionID: editionID(3),
		Options:   dbtypes.LineItemOptions{LicenseKey: "new:XYZ789"},
	}

	if err := fixture.engine.ProvisionLineItem(context.Background(), order, lineItem); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fixture.licenses.byKey["XYZ789"].Expirable {
		t.Fatalf("pre-cutoff license must be perpetual")
	}
}

func TestGrandfatherPreCutoffCoupon(t *testing.T) {
	fixture := newEngineFixture(t)
	fixture.discounts.byCode["SPRING10"] = &models.Discount{
		Code:      "SPRING10",
		CreatedAt: time.Unix(1500000001, 0).UTC(),
	}
	coupon := "SPRING10"
	order := models.Order{ID: 1, Number: "ord-1", Email: "a@b.com", CouponCode: &coupon}
	lineItem := models.OrderLineItem{
		ID:        20,
		EditionID: editionID(3),
		Options:   dbtypes.LineItemOptions{LicenseKey: "new:XYZ789"},
	}

	if err := fixture.engine.ProvisionLineItem(context.Background(), order, lineItem); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fixture.licenses.byKey["XYZ789"].Expirable {
		t.Fatalf("pre-cutoff coupon must grandfather the license")
	}
}

func TestGrandfatherPostCutoffCoupon(t *testing.T) {
	fixture := newEngineFixture(t)
	fixture.discounts.byCode["FALL20"] = &models.Discount{
		Code:      "FALL20",
		CreatedAt: time.Unix(1522800001, 0).UTC(),
	}
	coupon := "FALL20"
	order := models.Order{ID: 1, Number: "ord-1", Email: "a@b.com", CouponCode: &coupon}
	lineItem := models.OrderLineItem{
		ID:        20,
		EditionID: editionID(3),
		Options:   dbtypes.LineItemOptions{LicenseKey: "new:XYZ789"},
	}

	if err := fixture.engine.ProvisionLineItem(context.Background(), order, lineItem); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fixture.licenses.byKey["XYZ789"].Expirable {
		t.Fatalf("post-cutoff coupon must not grandfather the license")
	}
}

func TestProvisionReplayFailsUniqueness(t *testing.T) {
	fixture := newEngineFixture(t)
	order := models.Order{ID: 1, Number: "ord-1", Email: "a@b.com"}
	lineItem := models.OrderLineItem{
		ID:        20,
		EditionID: editionID(3),
		Options:   dbtypes.LineItemOptions{LicenseKey: "new:XYZ789"},
	}

	if err := fixture.engine.ProvisionLineItem(context.Background(), order, lineItem); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	err := fixture.engine.ProvisionLineItem(context.Background(), order, lineItem)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("replay must fail key uniqueness, got %v", err)
	}
	if len(fixture.licenses.saved) != 1 {
		t.Fatalf("exactly one license must be persisted, got %d", len(fixture.licenses.saved))
	}
	if len(fixture.licenses.attached) != 1 {
		t.Fatalf("exactly one association must exist, got %d", len(fixture.licenses.attached))
	}
}

func TestAssociationFailureSurfacesDependencyError(t *testing.T) {
	fixture := newEngineFixture(t)
	fixture.licenses.attachErr = errors.New("disk full")
	order := models.Order{ID: 1, Number: "ord-1", Email: "a@b.com"}
	lineItem := models.OrderLineItem{
		ID:        20,
		EditionID: editionID(3),
		Options:   dbtypes.LineItemOptions{LicenseKey: "new:XYZ789"},
	}

	err := fixture.engine.ProvisionLineItem(context.Background(), order, lineItem)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(fixture.outbox.events) != 0 {
		t.Fatalf("no event should be emitted when the association write fails")
	}
}
