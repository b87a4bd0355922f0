package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
)

// ListRawBatchesQuery lists raw batches. Zero fields are ignored.
type ListRawBatchesQuery struct {
	Status     domain.QCStatus
	BatchDate  *time.Time
	SupplierID string
}

// ListRawBatchesHandler handles raw batch listings, including the pending QC queue
type ListRawBatchesHandler struct {
	store domain.Store
}

// NewListRawBatchesHandler creates a new list raw batches handler
func NewListRawBatchesHandler(store domain.Store) *ListRawBatchesHandler {
	return &ListRawBatchesHandler{store: store}
}

// Handle executes the list raw batches query
func (h *ListRawBatchesHandler) Handle(ctx context.Context, query ListRawBatchesQuery) ([]domain.RawBatch, error) {
	batches, err := h.store.Repos().RawBatches.List(ctx, domain.RawBatchFilter{
		Status:     query.Status,
		BatchDate:  query.BatchDate,
		SupplierID: query.SupplierID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list raw batches: %w", err)
	}
	return batches, nil
}

// GetRawBatchHandler handles get raw batch query
type GetRawBatchHandler struct {
	store domain.Store
}

// NewGetRawBatchHandler creates a new get raw batch handler
func NewGetRawBatchHandler(store domain.Store) *GetRawBatchHandler {
	return &GetRawBatchHandler{store: store}
}

// Handle returns the raw batch with id
func (h *GetRawBatchHandler) Handle(ctx context.Context, id string) (*domain.RawBatch, error) {
	batch, err := h.store.Repos().RawBatches.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.CodeBatchNotFound, "raw batch", id)
	}
	return batch, nil
}

// ListConsumptionHandler lists the material consumed to produce an order
type ListConsumptionHandler struct {
	store domain.Store
}

// NewListConsumptionHandler creates a new list consumption handler
func NewListConsumptionHandler(store domain.Store) *ListConsumptionHandler {
	return &ListConsumptionHandler{store: store}
}

// Handle returns the consumption records of orderID
func (h *ListConsumptionHandler) Handle(ctx context.Context, orderID string) ([]domain.BatchConsumption, error) {
	records, err := h.store.Repos().KitchenInventory.ListConsumption(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumption: %w", err)
	}
	return records, nil
}

// ListWasteHandler lists waste logged by failed raw QC
type ListWasteHandler struct {
	store domain.Store
}

// NewListWasteHandler creates a new list waste handler
func NewListWasteHandler(store domain.Store) *ListWasteHandler {
	return &ListWasteHandler{store: store}
}

// Handle returns the waste of date, or all waste when date is nil
func (h *ListWasteHandler) Handle(ctx context.Context, date *time.Time) ([]domain.WasteLog, error) {
	waste, err := h.store.Repos().RawBatches.ListWaste(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list waste: %w", err)
	}
	return waste, nil
}

// PendingCookedBatch is a cooked batch awaiting QC with its parent order.
type PendingCookedBatch struct {
	Batch domain.CookedBatch `json:"batch"`
	Order *domain.Order      `json:"order,omitempty"`
}

// ListPendingCookedQCHandler lists the cooked QC queue
type ListPendingCookedQCHandler struct {
	store domain.Store
}

// NewListPendingCookedQCHandler creates a new pending cooked QC handler
func NewListPendingCookedQCHandler(store domain.Store) *ListPendingCookedQCHandler {
	return &ListPendingCookedQCHandler{store: store}
}

// Handle returns every pending cooked batch with its order
func (h *ListPendingCookedQCHandler) Handle(ctx context.Context) ([]PendingCookedBatch, error) {
	repos := h.store.Repos()
	batches, err := repos.CookedBatches.ListByStatus(ctx, domain.QCPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending cooked batches: %w", err)
	}

	orders := make(map[string]*domain.Order)
	out := make([]PendingCookedBatch, 0, len(batches))
	for _, b := range batches {
		order, ok := orders[b.OrderID]
		if !ok {
			if order, err = repos.Orders.FindByID(ctx, b.OrderID); err != nil {
				return nil, notFound(err, domain.CodeNotFound, "order", b.OrderID)
			}
			orders[b.OrderID] = order
		}
		out = append(out, PendingCookedBatch{Batch: b, Order: order})
	}
	return out, nil
}

// ListCookedBatchesQuery lists the cooked batches of an order
type ListCookedBatchesQuery struct {
	Actor   domain.Actor
	OrderID string
}

// ListCookedBatchesHandler handles list cooked batches query
type ListCookedBatchesHandler struct {
	store domain.Store
}

// NewListCookedBatchesHandler creates a new list cooked batches handler
func NewListCookedBatchesHandler(store domain.Store) *ListCookedBatchesHandler {
	return &ListCookedBatchesHandler{store: store}
}

// Handle executes the list cooked batches query
func (h *ListCookedBatchesHandler) Handle(ctx context.Context, query ListCookedBatchesQuery) ([]domain.CookedBatch, error) {
	repos := h.store.Repos()
	order, err := repos.Orders.FindByID(ctx, query.OrderID)
	if err != nil {
		return nil, notFound(err, domain.CodeNotFound, "order", query.OrderID)
	}
	if err := ownStore(ctx, repos, query.Actor, order.StoreStaffID); err != nil {
		return nil, err
	}
	batches, err := repos.CookedBatches.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cooked batches: %w", err)
	}
	return batches, nil
}

// CookedBatchDetails is a cooked batch with its QC audit trail.
type CookedBatchDetails struct {
	Batch     domain.CookedBatch      `json:"batch"`
	QCRecords []domain.CookedQCRecord `json:"qc_records"`
}

// GetCookedBatchHandler handles get cooked batch query
type GetCookedBatchHandler struct {
	store domain.Store
}

// NewGetCookedBatchHandler creates a new get cooked batch handler
func NewGetCookedBatchHandler(store domain.Store) *GetCookedBatchHandler {
	return &GetCookedBatchHandler{store: store}
}

// Handle returns the cooked batch with id and its QC records
func (h *GetCookedBatchHandler) Handle(ctx context.Context, id string) (*CookedBatchDetails, error) {
	repos := h.store.Repos()
	batch, err := repos.CookedBatches.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.CodeBatchNotFound, "cooked batch", id)
	}
	records, err := repos.CookedBatches.ListQCRecords(ctx, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list QC records: %w", err)
	}
	return &CookedBatchDetails{Batch: *batch, QCRecords: records}, nil
}
