package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
)

// StockLine is a store inventory line with its expiry evaluated at read time.
type StockLine struct {
	domain.StoreInventory
	Expired bool `json:"expired"`
}

// StoreInventoryQuery lists one store's stock. Store staff always read their
// own store; other roles must name one.
type StoreInventoryQuery struct {
	Actor        domain.Actor
	StoreStaffID string
}

// StoreInventoryHandler handles store inventory query
type StoreInventoryHandler struct {
	store domain.Store
	clock domain.Clock
}

// NewStoreInventoryHandler creates a new store inventory handler
func NewStoreInventoryHandler(store domain.Store, clock domain.Clock) *StoreInventoryHandler {
	return &StoreInventoryHandler{store: store, clock: clock}
}

// Handle executes the store inventory query
func (h *StoreInventoryHandler) Handle(ctx context.Context, query StoreInventoryQuery) ([]StockLine, error) {
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

	lines, err := repos.StoreInventory.ListByStore(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list store inventory: %w", err)
	}
	now := h.clock()
	out := make([]StockLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, StockLine{StoreInventory: line, Expired: line.Expired(now)})
	}
	return out, nil
}

// KitchenInventoryHandler lists the kitchen's raw material stock
type KitchenInventoryHandler struct {
	store domain.Store
}

// NewKitchenInventoryHandler creates a new kitchen inventory handler
func NewKitchenInventoryHandler(store domain.Store) *KitchenInventoryHandler {
	return &KitchenInventoryHandler{store: store}
}

// Handle returns every kitchen inventory line
func (h *KitchenInventoryHandler) Handle(ctx context.Context) ([]domain.KitchenInventory, error) {
	lines, err := h.store.Repos().KitchenInventory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list kitchen inventory: %w", err)
	}
	return lines, nil
}

// Donor is a store holding unexpired stock of the searched product.
// PotentialCredit is what the store would be credited for covering the
// whole request.
type Donor struct {
	StoreStaffID    string          `json:"store_staff_id"`
	StoreName       string          `json:"store_name"`
	InventoryID     string          `json:"inventory_id"`
	Quantity        int             `json:"quantity"`
	CanFulfill      bool            `json:"can_fulfill"`
	PotentialCredit decimal.Decimal `json:"potential_credit"`
	ExpirationDate  *time.Time      `json:"expiration_date,omitempty"`
}

// RiskPoolSearchResult lists candidate donors for a risk-pool transfer.
type RiskPoolSearchResult struct {
	ProductID      string  `json:"product_id"`
	ProductName    string  `json:"product_name"`
	Requested      int     `json:"requested"`
	TotalAvailable int     `json:"total_available"`
	Sufficient     bool    `json:"sufficient"`
	Donors         []Donor `json:"donors"`
}

// SearchRiskPoolQuery finds stores able to cover a failed batch.
type SearchRiskPoolQuery struct {
	ProductID           string
	Quantity            int
	ExcludeStoreStaffID string
}

// SearchRiskPoolHandler handles risk pool search query
type SearchRiskPoolHandler struct {
	store  domain.Store
	clock  domain.Clock
	policy domain.Policy
}

// NewSearchRiskPoolHandler creates a new risk pool search handler
func NewSearchRiskPoolHandler(store domain.Store, clock domain.Clock, policy domain.Policy) *SearchRiskPoolHandler {
	return &SearchRiskPoolHandler{store: store, clock: clock, policy: policy}
}

// Handle returns donors largest stock first
func (h *SearchRiskPoolHandler) Handle(ctx context.Context, query SearchRiskPoolQuery) (*RiskPoolSearchResult, error) {
	if query.ProductID == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "product id is required")
	}
	if query.Quantity < 0 {
		return nil, domain.Validation(domain.CodeInvalidValue, "quantity must not be negative")
	}
	repos := h.store.Repos()

	product, err := repos.Products.FindByID(ctx, query.ProductID)
	if err != nil {
		return nil, notFound(err, domain.CodeProductNotFound, "product", query.ProductID)
	}
	lines, err := repos.StoreInventory.ListAvailable(ctx, query.ProductID, h.clock())
	if err != nil {
		return nil, fmt.Errorf("failed to search risk pool: %w", err)
	}

	credit := h.policy.CreditFor(product.Price, query.Quantity)
	result := &RiskPoolSearchResult{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   query.Quantity,
		Donors:      []Donor{},
	}
	for _, line := range lines {
		if line.StoreStaffID == query.ExcludeStoreStaffID {
			continue
		}
		donor := Donor{
			StoreStaffID:    line.StoreStaffID,
			InventoryID:     line.ID,
			Quantity:        line.Quantity,
			CanFulfill:      line.Quantity >= query.Quantity,
			PotentialCredit: credit,
			ExpirationDate:  line.ExpirationDate,
		}
		staff, err := repos.StoreStaff.FindByID(ctx, line.StoreStaffID)
		switch {
		case err == nil:
			donor.StoreName = staff.StoreName
		case !errors.Is(err, domain.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to load store staff: %w", err)
		}
		result.Donors = append(result.Donors, donor)
		result.TotalAvailable += line.Quantity
	}
	result.Sufficient = result.TotalAvailable >= query.Quantity
	return result, nil
}
