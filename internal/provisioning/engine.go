package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pluginbazaar/pluginbazaar-backend/internal/catalog"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/enums"
	pkgerrors "github.com/pluginbazaar/pluginbazaar-backend/pkg/errors"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/metrics"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/outbox"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/outbox/payloads"
)

// GrandfatherCutoff is the moment the expirable-license policy took effect
// (2018-04-04T00:00:00Z). Purchases before it, and purchases using coupons
// created before it, stay perpetual.
var GrandfatherCutoff = time.Unix(1522800000, 0).UTC()

const (
	pathNew     = "new"
	pathUpgrade = "upgrade"

	reasonLicenseNotFound   = "license_not_found"
	reasonLookupFailed      = "lookup_failed"
	reasonValidationFailed  = "validation_failed"
	reasonAssociationFailed = "association_write_failed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type licenseRepository interface {
	FindByKey(ctx context.Context, key string) (*models.PluginLicense, error)
	Save(ctx context.Context, tx *gorm.DB, license *models.PluginLicense) error
	AttachLineItem(tx *gorm.DB, licenseID, lineItemID int64) error
}

type cmsLicenseRepository interface {
	FindByKey(ctx context.Context, key string) (*models.CmsLicense, error)
}

type discountRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Discount, error)
}

type purchasableResolver interface {
	ResolvePurchasable(ctx context.Context, editionID int64) (*catalog.EditionPurchasable, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Engine turns a completed order line item into a license mutation.
type Engine struct {
	licenses    licenseRepository
	cmsLicenses cmsLicenseRepository
	discounts   discountRepository
	catalog     purchasableResolver
	tx          txRunner
	outbox      outboxPublisher
	logg        *logger.Logger
	metrics     *metrics.ProvisioningMetrics
	now         func() time.Time
}

// EngineParams carries the engine's collaborators.
type EngineParams struct {
	Licenses    licenseRepository
	CmsLicenses cmsLicenseRepository
	Discounts   discountRepository
	Catalog     purchasableResolver
	Tx          txRunner
	Outbox      outboxPublisher
	Logger      *logger.Logger
	Metrics     *metrics.ProvisioningMetrics
	Now         func() time.Time
}

// NewEngine builds the provisioning engine. Metrics may be nil (noop); the
// clock defaults to time.Now.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Licenses == nil {
		return nil, fmt.Errorf("license repository required")
	}
	if params.CmsLicenses == nil {
		return nil, fmt.Errorf("cms license repository required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		licenses:    params.Licenses,
		cmsLicenses: params.CmsLicenses,
		discounts:   params.Discounts,
		catalog:     params.Catalog,
		tx:          params.Tx,
		outbox:      params.Outbox,
		logg:        params.Logger,
		metrics:     params.Metrics,
		now:         now,
	}, nil
}

// ProvisionLineItem creates or upgrades the license purchased by one line
// item and writes its association row, both in one transaction. All failure
// modes are logged and returned; callers treat the error as "this line item
// did not get its license" and keep going.
func (e *Engine) ProvisionLineItem(ctx context.Context, order models.Order, lineItem models.OrderLineItem) error {
	ctx = e.logg.WithOrderNumber(ctx, order.Number)
	ctx = e.logg.WithLineItemID(ctx, lineItem.ID)

	if lineItem.EditionID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "line item has no edition")
	}
	if strings.TrimSpace(lineItem.Options.LicenseKey) == "" {
		// Caller contract violation: order intake validates this field.
		missing := pkgerrors.New(pkgerrors.CodeValidation, "licenseKey missing from line item options")
		e.recordFailure(ctx, reasonValidationFailed, missing)
		return missing
	}

	purchasable, err := e.catalog.ResolvePurchasable(ctx, *lineItem.EditionID)
	if err != nil {
		e.recordFailure(ctx, reasonValidationFailed, err)
		return err
	}
	edition := purchasable.Edition

	var license *models.PluginLicense
	path := pathUpgrade
	if lineItem.Options.WantsNewLicense() {
		path = pathNew
		license = e.buildNewLicense(ctx, order, lineItem, edition)
	} else {
		license, err = e.resolveExistingLicense(ctx, lineItem.Options.LicenseKey)
		if err != nil {
			return err
		}
	}

	license.EditionID = edition.ID
	license.Expired = false
	e.applyExpirability(ctx, order, license)

	ctx = e.logg.WithLicenseKey(ctx, license.Key)
	if err := e.persist(ctx, license, lineItem.ID, path); err != nil {
		return err
	}

	e.logg.Info(e.logg.WithField(ctx, "path", path), "license provisioned")
	e.metrics.IncProvisioned(path)
	return nil
}

func (e *Engine) buildNewLicense(ctx context.Context, order models.Order, lineItem models.OrderLineItem, edition models.PluginEdition) *models.PluginLicense {
	license := &models.PluginLicense{
		PluginID:  edition.PluginID,
		Email:     order.Email,
		Key:       lineItem.Options.BareLicenseKey(),
		Expirable: true,
	}

	// Best-effort enrichment; a failed lookup degrades to a nil reference.
	if cmsKey := strings.TrimSpace(lineItem.Options.CmsLicenseKey); cmsKey != "" {
		cmsLicense, err := e.cmsLicenses.FindByKey(ctx, cmsKey)
		if err != nil {
			e.logg.Warn(e.logg.WithField(ctx, "cms_license_key", cmsKey), "cms license lookup failed, continuing without linkage")
		} else {
			license.CmsLicenseID = &cmsLicense.ID
		}
	}
	return license
}

func (e *Engine) resolveExistingLicense(ctx context.Context, key string) (*models.PluginLicense, error) {
	license, err := e.licenses.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound := pkgerrors.New(pkgerrors.CodeNotFound, "license not found for upgrade")
			e.recordFailure(e.logg.WithLicenseKey(ctx, key), reasonLicenseNotFound, notFound)
			return nil, notFound
		}
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
		e.recordFailure(ctx, reasonLookupFailed, wrapped)
		return nil, wrapped
	}
	return license, nil
}

// applyExpirability evaluates the grandfathering rules in priority order:
// pre-cutoff clock wins outright, then a coupon created before the cutoff.
func (e *Engine) applyExpirability(ctx context.Context, order models.Order, license *models.PluginLicense) {
	if e.now().Before(GrandfatherCutoff) {
		license.Expirable = false
		return
	}
	if order.CouponCode == nil || strings.TrimSpace(*order.CouponCode) == "" {
		return
	}
	discount, err := e.discounts.FindByCode(ctx, *order.CouponCode)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			e.logg.Warn(e.logg.WithField(ctx, "coupon_code", *order.CouponCode), "discount lookup failed, leaving expirability unchanged")
		}
		return
	}
	if discount.CreatedAt.Before(GrandfatherCutoff) {
		license.Expirable = false
	}
}

func (e *Engine) persist(ctx context.Context, license *models.PluginLicense, lineItemID int64, path string) error {
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := e.licenses.Save(ctx, tx, license); err != nil {
			e.recordFailure(ctx, reasonValidationFailed, err)
			return err
		}
		if err := e.licenses.AttachLineItem(tx, license.ID, lineItemID); err != nil {
			wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write license association")
			e.recordFailure(ctx, reasonAssociationFailed, wrapped)
			return wrapped
		}
		return e.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLicenseProvisioned,
			AggregateType: enums.AggregateLicense,
			AggregateID:   license.ID,
			Version:       1,
			Data: payloads.LicenseProvisionedEvent{
				LicenseID:  license.ID,
				LineItemID: lineItemID,
				EditionID:  license.EditionID,
				Path:       path,
			},
		})
	})
	return err
}

func (e *Engine) recordFailure(ctx context.Context, reason string, err error) {
	e.logg.Error(e.logg.WithField(ctx, "reason", reason), "license provisioning failed", err)
	e.metrics.IncFailure(reason)
}
