package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/enums"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/outbox"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/outbox/payloads"
)

const expiryBatchSize = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type licensesRepository interface {
	FindExpirable(ctx context.Context, asOf time.Time, limit int) ([]models.PluginLicense, error)
	MarkExpired(tx *gorm.DB, id int64) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// LicenseExpiryJobParams configures the scheduled license expiry sweep.
type LicenseExpiryJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	LicenseRepo licensesRepository
	Outbox      outboxEmitter
	BatchSize   int
}

// NewLicenseExpiryJob constructs the job that flips expirable licenses past
// their expiry date to expired. Perpetual licenses never match the sweep.
func NewLicenseExpiryJob(params LicenseExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.LicenseRepo == nil {
		return nil, fmt.Errorf("license repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = expiryBatchSize
	}
	return &licenseExpiryJob{
		logg:   params.Logger,
		db:     params.DB,
		repo:   params.LicenseRepo,
		outbox: params.Outbox,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type licenseExpiryJob struct {
	logg   *logger.Logger
	db     txRunner
	repo   licensesRepository
	outbox outboxEmitter
	batch  int
	now    func() time.Time
}

func (j *licenseExpiryJob) Name() string { return "license-expiry" }

func (j *licenseExpiryJob) Run(ctx context.Context) error {
	asOf := j.now().UTC()
	due, err := j.repo.FindExpirable(ctx, asOf, j.batch)
	if err != nil {
		return fmt.Errorf("query expirable licenses: %w", err)
	}

	var errs []error
	count := 0
	for _, lic := range due {
		if err := j.expireLicense(ctx, lic, asOf); err != nil {
			licCtx := j.logg.WithLicenseKey(ctx, lic.Key)
			j.logg.Error(licCtx, "license expiry failed", err)
			errs = append(errs, err)
			continue
		}
		count++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"due":     len(due),
		"expired": count,
	})
	j.logg.Info(logCtx, "license expiry sweep complete")
	return multierr.Combine(errs...)
}

// expireLicense flips one license in its own transaction so a bad row cannot
// stall the rest of the batch.
func (j *licenseExpiryJob) expireLicense(ctx context.Context, lic models.PluginLicense, asOf time.Time) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := j.repo.MarkExpired(tx, lic.ID); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventLicenseExpired,
			AggregateType: enums.AggregateLicense,
			AggregateID:   lic.ID,
			Version:       1,
			OccurredAt:    asOf,
			Data: payloads.LicenseExpiredEvent{
				LicenseID: lic.ID,
				Key:       lic.Key,
				ExpiredAt: asOf,
			},
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}
