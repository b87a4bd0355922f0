package query

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
)

// CreditSummary is a store's credits with the spendable total.
type CreditSummary struct {
	Credits        []domain.StoreCredit `json:"credits"`
	TotalRemaining decimal.Decimal      `json:"total_remaining"`
}

// ListCreditsQuery lists a store's credits. Store staff always read their own.
type ListCreditsQuery struct {
	Actor        domain.Actor
	StoreStaffID string
}

// ListCreditsHandler handles list credits query
type ListCreditsHandler struct {
	store domain.Store
}

// NewListCreditsHandler creates a new list credits handler
func NewListCreditsHandler(store domain.Store) *ListCreditsHandler {
	return &ListCreditsHandler{store: store}
}

// Handle executes the list credits query
func (h *ListCreditsHandler) Handle(ctx context.Context, query ListCreditsQuery) (*CreditSummary, error) {
	repos := h.store.Repos()
	staffID := query.StoreStaffID
	if query.Actor.Role == domain.RoleStoreStaff {
		staff, err := storeStaffOf(ctx, repos, query.Actor)
		if err != nil {
			return nil, err
		}
		staffID = staff.ID
	}
	if staffID == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "store staff id is required")
	}

	credits, err := repos.Credits.ListByStore(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credits: %w", err)
	}
	summary := &CreditSummary{Credits: credits, TotalRemaining: decimal.Zero}
	for _, c := range credits {
		if c.Status == domain.CreditActive {
			summary.TotalRemaining = summary.TotalRemaining.Add(c.RemainingAmount)
		}
	}
	return summary, nil
}

// ListCreditUsageHandler lists the spend history of one credit
type ListCreditUsageHandler struct {
	store domain.Store
}

// NewListCreditUsageHandler creates a new list credit usage handler
func NewListCreditUsageHandler(store domain.Store) *ListCreditUsageHandler {
	return &ListCreditUsageHandler{store: store}
}

// Handle returns the usages of creditID
func (h *ListCreditUsageHandler) Handle(ctx context.Context, creditID string) ([]domain.CreditUsage, error) {
	usages, err := h.store.Repos().Credits.ListUsage(ctx, creditID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit usage: %w", err)
	}
	return usages, nil
}

// ListRiskPoolTransfersHandler lists every risk pool transfer
type ListRiskPoolTransfersHandler struct {
	store domain.Store
}

// NewListRiskPoolTransfersHandler creates a new list transfers handler
func NewListRiskPoolTransfersHandler(store domain.Store) *ListRiskPoolTransfersHandler {
	return &ListRiskPoolTransfersHandler{store: store}
}

// Handle returns all transfers
func (h *ListRiskPoolTransfersHandler) Handle(ctx context.Context) ([]domain.RiskPoolTransfer, error) {
	transfers, err := h.store.Repos().Credits.ListTransfers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk pool transfers: %w", err)
	}
	return transfers, nil
}
