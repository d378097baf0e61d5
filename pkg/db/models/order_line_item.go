package models

import (
	"time"

	"github.com/shopspring/decimal"

	dbtypes "github.com/pluginbazaar/pluginbazaar-backend/pkg/db/types"
)

// OrderLineItem captures the snapshot of each item within an order. Items
// without an edition id are non-plugin products and never provision licenses.
type OrderLineItem struct {
	ID          int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     int64                   `gorm:"column:order_id;not null;index"`
	EditionID   *int64                  `gorm:"column:edition_id"`
	Description string                  `gorm:"column:description;not null"`
	Qty         int                     `gorm:"column:qty;not null;default:1"`
	Total       decimal.Decimal         `gorm:"column:total;type:numeric(12,2);not null"`
	Options     dbtypes.LineItemOptions `gorm:"column:options;type:jsonb"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
