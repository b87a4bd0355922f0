package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
)

// ListProductsHandler handles list products query
type ListProductsHandler struct {
	store domain.Store
}

// NewListProductsHandler creates a new list products handler
func NewListProductsHandler(store domain.Store) *ListProductsHandler {
	return &ListProductsHandler{store: store}
}

// Handle returns the catalog, optionally only active products
func (h *ListProductsHandler) Handle(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	products, err := h.store.Repos().Products.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ProductDetails is a product with its recipe, if one is defined.
type ProductDetails struct {
	Product domain.Product `json:"product"`
	Recipe  *domain.Recipe `json:"recipe,omitempty"`
}

// GetProductHandler handles get product query
type GetProductHandler struct {
	store domain.Store
}

// NewGetProductHandler creates a new get product handler
func NewGetProductHandler(store domain.Store) *GetProductHandler {
	return &GetProductHandler{store: store}
}

// Handle returns the product with id
func (h *GetProductHandler) Handle(ctx context.Context, id string) (*ProductDetails, error) {
	repos := h.store.Repos()
	product, err := repos.Products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.CodeProductNotFound, "product", id)
	}

	details := &ProductDetails{Product: *product}
	recipe, err := repos.Recipes.FindByProductID(ctx, id)
	switch {
	case err == nil:
		details.Recipe = recipe
	case !errors.Is(err, domain.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return details, nil
}

// ListMaterialsHandler handles list materials query
type ListMaterialsHandler struct {
	store domain.Store
}

// NewListMaterialsHandler creates a new list materials handler
func NewListMaterialsHandler(store domain.Store) *ListMaterialsHandler {
	return &ListMaterialsHandler{store: store}
}

// Handle returns every raw material
func (h *ListMaterialsHandler) Handle(ctx context.Context) ([]domain.RawMaterial, error) {
	materials, err := h.store.Repos().Materials.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	return materials, nil
}

// ListSuppliersHandler handles list suppliers query
type ListSuppliersHandler struct {
	store domain.Store
}

// NewListSuppliersHandler creates a new list suppliers handler
func NewListSuppliersHandler(store domain.Store) *ListSuppliersHandler {
	return &ListSuppliersHandler{store: store}
}

// Handle returns the active suppliers
func (h *ListSuppliersHandler) Handle(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := h.store.Repos().Suppliers.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}

// StatusTables is every enumeration exposed to clients.
type StatusTables struct {
	Orders     []domain.StatusInfo    `json:"order_statuses"`
	Auth       []domain.StatusInfo    `json:"auth_statuses"`
	Authz      []domain.StatusInfo    `json:"authz_statuses"`
	IssueTypes []domain.IssueTypeInfo `json:"dispute_types"`
}

// ListStatusTables returns the status registry.
func ListStatusTables() StatusTables {
	tables := StatusTables{
		Auth:       domain.AuthStatuses(),
		Authz:      domain.AuthzStatuses(),
		IssueTypes: domain.IssueTypes(),
	}
	for _, s := range domain.AllOrderStatuses() {
		info, _ := domain.LookupOrderStatus(s)
		tables.Orders = append(tables.Orders, info)
	}
	return tables
}
