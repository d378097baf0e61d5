package payloads

import "time"

// OrderPaidEvent announces a paid order that is ready for completion.
type OrderPaidEvent struct {
	OrderID     int64     `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Email       string    `json:"email"`
	PaidAt      time.Time `json:"paidAt"`
}

// OrderCompletedEvent announces that an order finished its completion pass.
type OrderCompletedEvent struct {
	OrderID     int64     `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Email       string    `json:"email"`
	CompletedAt time.Time `json:"completedAt"`
}

// OrderCanceledEvent announces an order that will never complete.
type OrderCanceledEvent struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Reason      string `json:"reason,omitempty"`
}

// LicenseProvisionedEvent records a license created or upgraded from a line item.
type LicenseProvisionedEvent struct {
	LicenseID  int64  `json:"licenseId"`
	LineItemID int64  `json:"lineItemId"`
	EditionID  int64  `json:"editionId"`
	Path       string `json:"path"`
}

// LicenseExpiredEvent records an expirable license crossing its expiry date.
type LicenseExpiredEvent struct {
	LicenseID int64     `json:"licenseId"`
	Key       string    `json:"key"`
	ExpiredAt time.Time `json:"expiredAt"`
}
