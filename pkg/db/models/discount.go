package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Discount is coupon metadata. CreatedAt matters beyond auditing: licenses
// bought with a coupon created before the expirable cutover stay perpetual.
type Discount struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Code       string          `gorm:"column:code;not null;uniqueIndex"`
	Name       string          `gorm:"column:name;not null"`
	PercentOff decimal.Decimal `gorm:"column:percent_off;type:numeric(5,2);not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
