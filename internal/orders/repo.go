package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/pluginbazaar/pluginbazaar-backend/internal/repo"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/enums"
)

// Repository persists orders and their line items.
type Repository struct {
	repo.Base
}

// NewRepository constructs an order repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByNumber loads one order by its public number.
func (r *Repository) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).First(&order, "number = ?", number).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListLineItems returns an order's line items in stable id order.
func (r *Repository) ListLineItems(ctx context.Context, orderID int64) ([]models.OrderLineItem, error) {
	var rows []models.OrderLineItem
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateTx inserts the order and its line items inside the supplied
// transaction.
func (r *Repository) CreateTx(tx *gorm.DB, order *models.Order, items []models.OrderLineItem) error {
	if err := tx.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

// MarkCompleteTx transitions the order to complete and stamps completed_at.
func (r *Repository) MarkCompleteTx(tx *gorm.DB, id int64, completedAt time.Time) error {
	return tx.Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.OrderStatusComplete,
			"completed_at": completedAt,
		}).Error
}
