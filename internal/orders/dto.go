package orders

import (
	"time"

	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	dbtypes "github.com/pluginbazaar/pluginbazaar-backend/pkg/db/types"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/enums"
)

// CreateOrderInput is the order intake payload.
type CreateOrderInput struct {
	Number     string
	Email      string
	CouponCode *string
	Currency   string
	LineItems  []CreateLineItemInput
}

// CreateLineItemInput is one purchased unit in the intake payload.
type CreateLineItemInput struct {
	EditionID     *int64
	Description   string
	Qty           int
	Total         string
	LicenseKey    string
	CmsLicenseKey string
}

func (in CreateLineItemInput) options() dbtypes.LineItemOptions {
	return dbtypes.LineItemOptions{
		LicenseKey:    in.LicenseKey,
		CmsLicenseKey: in.CmsLicenseKey,
	}
}

// OrderView is the API shape of one order.
type OrderView struct {
	ID          int64             `json:"id"`
	Number      string            `json:"number"`
	Email       string            `json:"email"`
	CouponCode  *string           `json:"couponCode,omitempty"`
	Currency    enums.Currency    `json:"currency"`
	Status      enums.OrderStatus `json:"status"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func toOrderView(order models.Order) OrderView {
	return OrderView{
		ID:          order.ID,
		Number:      order.Number,
		Email:       order.Email,
		CouponCode:  order.CouponCode,
		Currency:    order.Currency,
		Status:      order.Status,
		CompletedAt: order.CompletedAt,
		CreatedAt:   order.CreatedAt,
	}
}
