package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
)

// HistoryEntry is an order history record with resolved status names.
type HistoryEntry struct {
	domain.OrderHistory
	FromStatusName string `json:"from_status_name,omitempty"`
	ToStatusName   string `json:"to_status_name"`
}

// OrderDetails is an order with its status name and full history.
type OrderDetails struct {
	Order      domain.Order   `json:"order"`
	StatusName string         `json:"status_name"`
	History    []HistoryEntry `json:"history"`
}

// GetOrderQuery represents the query to get an order by ID
type GetOrderQuery struct {
	Actor   domain.Actor
	OrderID string
}

// GetOrderHandler handles get order query
type GetOrderHandler struct {
	store domain.Store
}

// NewGetOrderHandler creates a new get order handler
func NewGetOrderHandler(store domain.Store) *GetOrderHandler {
	return &GetOrderHandler{store: store}
}

// Handle executes the get order query. Store staff only see their own orders.
func (h *GetOrderHandler) Handle(ctx context.Context, query GetOrderQuery) (*OrderDetails, error) {
	if query.OrderID == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "order id is required")
	}
	repos := h.store.Repos()

	order, err := repos.Orders.FindByID(ctx, query.OrderID)
	if err != nil {
		return nil, notFound(err, domain.CodeNotFound, "order", query.OrderID)
	}
	if err := ownStore(ctx, repos, query.Actor, order.StoreStaffID); err != nil {
		return nil, err
	}

	history, err := repos.Orders.History(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	details := &OrderDetails{
		Order:      *order,
		StatusName: order.Status.Name(),
		History:    make([]HistoryEntry, 0, len(history)),
	}
	for _, entry := range history {
		e := HistoryEntry{OrderHistory: entry, ToStatusName: entry.ToStatus.Name()}
		if entry.FromStatus != "" {
			e.FromStatusName = entry.FromStatus.Name()
		}
		details.History = append(details.History, e)
	}
	return details, nil
}

// ListOrdersQuery lists orders. Store staff are always narrowed to their own.
type ListOrdersQuery struct {
	Actor        domain.Actor
	Status       domain.OrderStatus
	DeliveryDate *time.Time
}

// ListOrdersHandler handles list orders query
type ListOrdersHandler struct {
	store domain.Store
}

// NewListOrdersHandler creates a new list orders handler
func NewListOrdersHandler(store domain.Store) *ListOrdersHandler {
	return &ListOrdersHandler{store: store}
}

// Handle executes the list orders query
func (h *ListOrdersHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	if query.Status != "" && !query.Status.Valid() {
		return nil, domain.Validation(domain.CodeInvalidValue, "invalid status %q", query.Status)
	}
	repos := h.store.Repos()

	filter := domain.OrderFilter{Status: query.Status, DeliveryDate: query.DeliveryDate}
	if query.Actor.Role == domain.RoleStoreStaff {
		staff, err := storeStaffOf(ctx, repos, query.Actor)
		if err != nil {
			return nil, err
		}
		filter.StoreStaffID = staff.ID
	}

	orders, err := repos.Orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func storeStaffOf(ctx context.Context, repos domain.Repositories, actor domain.Actor) (*domain.StoreStaff, error) {
	staff, err := repos.StoreStaff.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.Forbidden(domain.CodeAuthzDenied, "no store staff profile for user %s", actor.UserID)
		}
		return nil, fmt.Errorf("failed to load store staff: %w", err)
	}
	return staff, nil
}

// ownStore restricts store staff to resources of their own store.
func ownStore(ctx context.Context, repos domain.Repositories, actor domain.Actor, storeStaffID string) error {
	if actor.Role != domain.RoleStoreStaff {
		return nil
	}
	staff, err := storeStaffOf(ctx, repos, actor)
	if err != nil {
		return err
	}
	if staff.ID != storeStaffID {
		return domain.Forbidden(domain.CodeAuthzDenied, "resource belongs to another store")
	}
	return nil
}

func notFound(err error, code domain.Code, what, id string) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.NotFound(code, "%s %s not found", what, id)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
