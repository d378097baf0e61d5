package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PluginEdition is a sellable tier of a plugin. The handle is unique per
// plugin; the pair drives the SKU.
type PluginEdition struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	PluginID     int64           `gorm:"column:plugin_id;not null;uniqueIndex:idx_plugin_editions_plugin_handle"`
	Name         string          `gorm:"column:name;not null"`
	Handle       string          `gorm:"column:handle;not null;uniqueIndex:idx_plugin_editions_plugin_handle"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	RenewalPrice decimal.Decimal `gorm:"column:renewal_price;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
