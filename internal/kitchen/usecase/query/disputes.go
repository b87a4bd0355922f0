package query

import (
	"context"
	"fmt"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
)

// GetDisputeQuery represents the query to get a dispute by ID
type GetDisputeQuery struct {
	Actor     domain.Actor
	DisputeID string
}

// GetDisputeHandler handles get dispute query
type GetDisputeHandler struct {
	store domain.Store
}

// NewGetDisputeHandler creates a new get dispute handler
func NewGetDisputeHandler(store domain.Store) *GetDisputeHandler {
	return &GetDisputeHandler{store: store}
}

// Handle executes the get dispute query
func (h *GetDisputeHandler) Handle(ctx context.Context, query GetDisputeQuery) (*domain.Dispute, error) {
	repos := h.store.Repos()
	dispute, err := repos.Disputes.FindByID(ctx, query.DisputeID)
	if err != nil {
		return nil, notFound(err, domain.CodeNotFound, "dispute", query.DisputeID)
	}
	if err := ownStore(ctx, repos, query.Actor, dispute.StoreStaffID); err != nil {
		return nil, err
	}
	return dispute, nil
}

// ListOrderDisputesQuery lists the disputes filed against one order
type ListOrderDisputesQuery struct {
	Actor   domain.Actor
	OrderID string
}

// ListOrderDisputesHandler handles list order disputes query
type ListOrderDisputesHandler struct {
	store domain.Store
}

// NewListOrderDisputesHandler creates a new list order disputes handler
func NewListOrderDisputesHandler(store domain.Store) *ListOrderDisputesHandler {
	return &ListOrderDisputesHandler{store: store}
}

// Handle executes the list order disputes query
func (h *ListOrderDisputesHandler) Handle(ctx context.Context, query ListOrderDisputesQuery) ([]domain.Dispute, error) {
	repos := h.store.Repos()
	order, err := repos.Orders.FindByID(ctx, query.OrderID)
	if err != nil {
		return nil, notFound(err, domain.CodeNotFound, "order", query.OrderID)
	}
	if err := ownStore(ctx, repos, query.Actor, order.StoreStaffID); err != nil {
		return nil, err
	}
	disputes, err := repos.Disputes.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	return disputes, nil
}

// ListDisputesQuery lists disputes. Store staff only ever see their own.
type ListDisputesQuery struct {
	Actor  domain.Actor
	Status domain.DisputeStatus
}

// ListDisputesHandler handles list disputes query
type ListDisputesHandler struct {
	store domain.Store
}

// NewListDisputesHandler creates a new list disputes handler
func NewListDisputesHandler(store domain.Store) *ListDisputesHandler {
	return &ListDisputesHandler{store: store}
}

// Handle executes the list disputes query
func (h *ListDisputesHandler) Handle(ctx context.Context, query ListDisputesQuery) ([]domain.Dispute, error) {
	repos := h.store.Repos()

	var (
		disputes []domain.Dispute
		err      error
	)
	if query.Actor.Role == domain.RoleStoreStaff {
		staff, serr := storeStaffOf(ctx, repos, query.Actor)
		if serr != nil {
			return nil, serr
		}
		disputes, err = repos.Disputes.ListByStore(ctx, staff.ID)
	} else {
		disputes, err = repos.Disputes.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}

	if query.Status == "" {
		return disputes, nil
	}
	filtered := make([]domain.Dispute, 0, len(disputes))
	for _, d := range disputes {
		if d.Status == query.Status {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}
