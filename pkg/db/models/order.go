package models

import (
	"time"

	"github.com/pluginbazaar/pluginbazaar-backend/pkg/enums"
)

// Order is a store purchase. Line items hang off it by order_id.
type Order struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	Number      string            `gorm:"column:number;not null;uniqueIndex"`
	Email       string            `gorm:"column:email;not null"`
	CouponCode  *string           `gorm:"column:coupon_code"`
	Currency    enums.Currency    `gorm:"column:currency;not null;default:'USD'"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	CompletedAt *time.Time        `gorm:"column:completed_at"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
