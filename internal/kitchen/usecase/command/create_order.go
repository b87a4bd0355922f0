package command

import (
	"context"
	"strings"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/metrics"
	"github.com/tair/central-kitchen/pkg/logger"
)

// OrderLine is one requested product line.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderCommand represents the command to submit a store order
type CreateOrderCommand struct {
	Actor        domain.Actor
	DeliveryDate string
	Items        []OrderLine
	Notes        string
}

// CreateOrderHandler handles order creation
type CreateOrderHandler struct {
	deps Deps
}

// NewCreateOrderHandler creates a new create order handler
func NewCreateOrderHandler(deps Deps) *CreateOrderHandler {
	return &CreateOrderHandler{deps: deps}
}

// Handle executes the create order command. Orders submitted at or after the
// cut-off hour are persisted as CANCELLED and returned together with an error.
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	ctx, span := startSpan(ctx, "CreateOrder")

	order, err := h.handle(ctx, cmd)
	return order, finish(ctx, span, "CreateOrder", err)
}

func (h *CreateOrderHandler) handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if len(cmd.Items) == 0 {
		return nil, domain.Validation(domain.CodeRequiredField, "order must contain at least one item")
	}
	for _, item := range cmd.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, domain.Validation(domain.CodeRequiredField, "product_id is required")
		}
		if item.Quantity <= 0 {
			return nil, domain.Validation(domain.CodeInvalidValue, "quantity for product %s must be positive", item.ProductID)
		}
	}
	if cmd.DeliveryDate == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "delivery_date is required")
	}

	policy := h.deps.Policy
	deliveryDate, err := domain.ParseDate(cmd.DeliveryDate, policy.Location)
	if err != nil {
		return nil, domain.Validation(domain.CodeInvalidFormat, "invalid delivery_date %q", cmd.DeliveryDate)
	}

	now := h.deps.now()
	if !deliveryDate.After(policy.Today(now)) {
		return nil, domain.Validation(domain.CodeInvalidValue, "delivery_date must be in the future")
	}
	if !cmd.Actor.Role.In(domain.RoleStoreStaff) {
		return nil, domain.Forbidden(domain.CodeAuthzInsufficient, "only store staff can create orders")
	}

	pastCutoff := policy.PastCutoff(now)
	order := &domain.Order{
		ID:           domain.NewID(),
		Status:       domain.OrderPending,
		DeliveryDate: deliveryDate,
		Notes:        cmd.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	historyNote := "Order created"
	if pastCutoff {
		order.Status = domain.OrderCancelled
		historyNote = "Order auto-cancelled: submitted after cut-off"
	}

	err = h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		staff, err := storeStaffOf(ctx, repos, cmd.Actor)
		if err != nil {
			return err
		}
		order.StoreStaffID = staff.ID

		order.Items = make([]domain.OrderItem, 0, len(cmd.Items))
		for _, line := range cmd.Items {
			product, err := findProduct(ctx, repos, line.ProductID)
			if err != nil {
				return err
			}
			if !product.Active {
				return domain.Validation(domain.CodeInvalidValue, "product %s is not available", product.Name)
			}
			order.Items = append(order.Items, domain.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
			})
		}

		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}
		return appendHistory(ctx, repos, order, "", cmd.Actor, historyNote, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues(order.Status.Name()).Inc()
	h.deps.publish(ctx, domain.NewEvent(domain.EventOrderCreated, order.ID, now, order))

	logger.Info(ctx).
		Str("order_id", order.ID).
		Str("store_staff_id", order.StoreStaffID).
		Str("status", order.Status.Name()).
		Int("items", len(order.Items)).
		Msg("Order created")

	if pastCutoff {
		return order, domain.BusinessRule(domain.OrderCancelled.Code(),
			"orders must be placed before %02d:00, order was created as CANCELLED", policy.CutoffHour)
	}
	return order, nil
}
