package licenses

import (
	"context"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/pluginbazaar/pluginbazaar-backend/internal/repo"
	dbpkg "github.com/pluginbazaar/pluginbazaar-backend/pkg/db"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	pkgerrors "github.com/pluginbazaar/pluginbazaar-backend/pkg/errors"
)

// Repository persists plugin licenses and their line-item associations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a license repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByKey returns the license with the given key, or gorm.ErrRecordNotFound.
func (r *Repository) FindByKey(ctx context.Context, key string) (*models.PluginLicense, error) {
	var license models.PluginLicense
	if err := r.DB(ctx).First(&license, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &license, nil
}

// Save validates required fields and the edition/plugin linkage, then inserts
// or updates the row. Key uniqueness is enforced by the storage layer; a
// violation surfaces as a validation failure so the caller treats the losing
// racer the same as any other invalid save.
func (r *Repository) Save(ctx context.Context, tx *gorm.DB, license *models.PluginLicense) error {
	if tx == nil {
		tx = r.DB(ctx)
	}

	if err := r.validate(tx, license); err != nil {
		return err
	}

	if err := tx.Save(license).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, "plugin_licenses") {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "license key already taken")
		}
		return err
	}
	return nil
}

func (r *Repository) validate(tx *gorm.DB, license *models.PluginLicense) error {
	var violations error
	if license.PluginID == 0 {
		violations = multierr.Append(violations, pkgerrors.New(pkgerrors.CodeValidation, "pluginId is required"))
	}
	if license.EditionID == 0 {
		violations = multierr.Append(violations, pkgerrors.New(pkgerrors.CodeValidation, "editionId is required"))
	}
	if strings.TrimSpace(license.Key) == "" {
		violations = multierr.Append(violations, pkgerrors.New(pkgerrors.CodeValidation, "key is required"))
	}
	if strings.TrimSpace(license.Email) == "" {
		violations = multierr.Append(violations, pkgerrors.New(pkgerrors.CodeValidation, "email is required"))
	}
	if violations != nil {
		return violations
	}

	var count int64
	err := tx.Model(&models.PluginEdition{}).
		Where("id = ? AND plugin_id = ?", license.EditionID, license.PluginID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "edition does not belong to plugin")
	}
	return nil
}

// AttachLineItem appends the association row linking a license to the line
// item that purchased it.
func (r *Repository) AttachLineItem(tx *gorm.DB, licenseID, lineItemID int64) error {
	row := models.LicenseLineItem{
		LicenseID:  licenseID,
		LineItemID: lineItemID,
	}
	return tx.Create(&row).Error
}

// List returns email-scoped licenses using cursor pagination.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.PluginLicense, error) {
	query := r.DB(ctx).Model(&models.PluginLicense{}).Where("email = ?", opts.email)

	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.PluginLicense
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindExpirable returns expirable, unexpired licenses whose expiry date has
// passed as of the supplied time.
func (r *Repository) FindExpirable(ctx context.Context, asOf time.Time, limit int) ([]models.PluginLicense, error) {
	var rows []models.PluginLicense
	query := r.DB(ctx).
		Where("expirable = ? AND expired = ? AND expires_on IS NOT NULL AND expires_on <= ?", true, false, asOf).
		Order("expires_on ASC").Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkExpired flips one license to expired inside the supplied transaction.
func (r *Repository) MarkExpired(tx *gorm.DB, id int64) error {
	return tx.Model(&models.PluginLicense{}).
		Where("id = ?", id).
		Update("expired", true).Error
}
