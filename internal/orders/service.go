package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pluginbazaar/pluginbazaar-backend/internal/catalog"
	dbpkg "github.com/pluginbazaar/pluginbazaar-backend/pkg/db"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/enums"
	pkgerrors "github.com/pluginbazaar/pluginbazaar-backend/pkg/errors"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/outbox"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ordersRepository interface {
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	ListLineItems(ctx context.Context, orderID int64) ([]models.OrderLineItem, error)
	CreateTx(tx *gorm.DB, order *models.Order, items []models.OrderLineItem) error
	MarkCompleteTx(tx *gorm.DB, id int64, completedAt time.Time) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type purchasableResolver interface {
	ResolvePurchasable(ctx context.Context, editionID int64) (*catalog.EditionPurchasable, error)
}

// LineItemHook provisions the license purchased by one completed line item.
type LineItemHook interface {
	ProvisionLineItem(ctx context.Context, order models.Order, lineItem models.OrderLineItem) error
}

// Service defines order intake and completion.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderView, error)
	Get(ctx context.Context, number string) (*OrderView, error)
	MarkPaid(ctx context.Context, number string) error
	Complete(ctx context.Context, number string) error
}

type service struct {
	repo    ordersRepository
	tx      txRunner
	outbox  outboxPublisher
	catalog purchasableResolver
	hook    LineItemHook
	logg    *logger.Logger
}

// NewService builds the order service.
func NewService(repo ordersRepository, tx txRunner, outboxSvc outboxPublisher, catalogSvc purchasableResolver, hook LineItemHook, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	if hook == nil {
		return nil, fmt.Errorf("line item hook required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outboxSvc,
		catalog: catalogSvc,
		hook:    hook,
		logg:    logg,
	}, nil
}

// Create validates and persists an order with its line items. Every plugin
// line item must pass the purchasable's line-item validation before anything
// is written.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderView, error) {
	if strings.TrimSpace(input.Number) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if len(input.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item required")
	}
	currency := enums.CurrencyUSD
	if strings.TrimSpace(input.Currency) != "" {
		parsed, err := enums.ParseCurrency(input.Currency)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		currency = parsed
	}

	items := make([]models.OrderLineItem, len(input.LineItems))
	for i, in := range input.LineItems {
		qty := in.Qty
		if qty <= 0 {
			qty = 1
		}
		total := decimal.Zero
		if strings.TrimSpace(in.Total) != "" {
			parsed, err := decimal.NewFromString(in.Total)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line item total")
			}
			total = parsed
		}
		item := models.OrderLineItem{
			EditionID:   in.EditionID,
			Description: in.Description,
			Qty:         qty,
			Total:       total,
			Options:     in.options(),
		}
		if in.EditionID != nil {
			purchasable, err := s.catalog.ResolvePurchasable(ctx, *in.EditionID)
			if err != nil {
				return nil, err
			}
			if err := purchasable.LineItemValidation(item.Options); err != nil {
				return nil, err
			}
			if item.Description == "" {
				item.Description = purchasable.Description()
			}
		}
		items[i] = item
	}

	order := &models.Order{
		Number:     input.Number,
		Email:      input.Email,
		CouponCode: input.CouponCode,
		Currency:   currency,
		Status:     enums.OrderStatusPending,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.CreateTx(tx, order, items)
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "orders") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order number already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	view := toOrderView(*order)
	return &view, nil
}

func (s *service) Get(ctx context.Context, number string) (*OrderView, error) {
	order, err := s.findOrder(ctx, number)
	if err != nil {
		return nil, err
	}
	view := toOrderView(*order)
	return &view, nil
}

// MarkPaid transitions a pending order to paid and queues the order_paid
// event that drives the completion worker.
func (s *service) MarkPaid(ctx context.Context, number string) error {
	order, err := s.findOrder(ctx, number)
	if err != nil {
		return err
	}
	if order.Status == enums.OrderStatusPaid {
		return nil
	}
	if order.Status != enums.OrderStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be paid from its current status")
	}

	paidAt := time.Now().UTC()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		err := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, enums.OrderStatusPending).
			Update("status", enums.OrderStatusPaid).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderPaidEvent{
				OrderID:     order.ID,
				OrderNumber: order.Number,
				Email:       order.Email,
				PaidAt:      paidAt,
			},
		})
	})
}

// Complete transitions the order to complete, then runs the provisioning
// hook once per plugin line item. Hook failures are logged and never abort
// the pass: the order completes even when a license fails to provision.
func (s *service) Complete(ctx context.Context, number string) error {
	ctx = s.logg.WithOrderNumber(ctx, number)

	order, err := s.findOrder(ctx, number)
	if err != nil {
		return err
	}
	switch order.Status {
	case enums.OrderStatusPending, enums.OrderStatusPaid:
	case enums.OrderStatusComplete:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order already complete")
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot complete from its current status")
	}

	completedAt := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.MarkCompleteTx(tx, order.ID, completedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order complete")
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderCompletedEvent{
				OrderID:     order.ID,
				OrderNumber: order.Number,
				Email:       order.Email,
				CompletedAt: completedAt,
			},
		})
	})
	if err != nil {
		return err
	}

	items, err := s.repo.ListLineItems(ctx, order.ID)
	if err != nil {
		// The order already completed; provisioning is operator-recoverable.
		s.logg.Error(ctx, "loading line items for provisioning failed", err)
		return nil
	}

	for _, item := range items {
		if item.EditionID == nil {
			continue
		}
		if err := s.hook.ProvisionLineItem(ctx, *order, item); err != nil {
			itemCtx := s.logg.WithLineItemID(ctx, item.ID)
			s.logg.Warn(itemCtx, "line item did not get its license")
		}
	}
	return nil
}

func (s *service) findOrder(ctx context.Context, number string) (*models.Order, error) {
	if strings.TrimSpace(number) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order")
	}
	return order, nil
}
