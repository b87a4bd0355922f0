package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/query"
)

type ingredientRequest struct {
	MaterialID      string          `json:"material_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

type productRequest struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	WeightPerUnit decimal.Decimal     `json:"weight_per_unit"`
	ShelfLifeDays int                 `json:"shelf_life_days"`
	Ingredients   []ingredientRequest `json:"ingredients"`
}

func (p productRequest) ingredients() []command.IngredientLine {
	lines := make([]command.IngredientLine, 0, len(p.Ingredients))
	for _, in := range p.Ingredients {
		lines = append(lines, command.IngredientLine{MaterialID: in.MaterialID, QuantityPerUnit: in.QuantityPerUnit})
	}
	return lines
}

type materialRequest struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type supplierRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// Statuses handles GET /api/statuses
func (h *Handler) Statuses(w http.ResponseWriter, r *http.Request) {
	respondOK(w, http.StatusOK, "", "", query.ListStatusTables())
}

// ListProducts handles GET /api/products. ?all=true includes inactive products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	products, err := h.queries.ListProducts.Handle(r.Context(), activeOnly)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", products)
}

// GetProduct handles GET /api/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	details, err := h.queries.GetProduct.Handle(r.Context(), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", details)
}

// CreateProduct handles POST /api/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	result, err := h.commands.CreateProduct.Handle(r.Context(), command.CreateProductCommand{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		WeightPerUnit: req.WeightPerUnit,
		ShelfLifeDays: req.ShelfLifeDays,
		Ingredients:   req.ingredients(),
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	h.cache.Invalidate(r.Context())
	respondOK(w, http.StatusCreated, domain.CodeProductCreated, "Product created", result)
}

// UpdateProduct handles PUT /api/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	result, err := h.commands.UpdateProduct.Handle(r.Context(), command.UpdateProductCommand{
		ProductID:     pathVar(r, "id"),
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		WeightPerUnit: req.WeightPerUnit,
		ShelfLifeDays: req.ShelfLifeDays,
		Ingredients:   req.ingredients(),
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	h.cache.Invalidate(r.Context())
	respondOK(w, http.StatusOK, domain.CodeProductUpdated, "Product updated", result)
}

// DeactivateProduct handles DELETE /api/products/{id}
func (h *Handler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.commands.Deactivate.Handle(r.Context(), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	h.cache.Invalidate(r.Context())
	respondOK(w, http.StatusOK, domain.CodeProductDeactivated, "Product deactivated", product)
}

// ListMaterials handles GET /api/materials
func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.queries.ListMaterials.Handle(r.Context())
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", materials)
}

// CreateMaterial handles POST /api/materials
func (h *Handler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}
	material, err := h.commands.CreateMaterial.Handle(r.Context(), command.CreateMaterialCommand{Name: req.Name, Unit: req.Unit})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusCreated, "", "Material created", material)
}

// ListSuppliers handles GET /api/suppliers
func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.queries.ListSuppliers.Handle(r.Context())
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", suppliers)
}

// CreateSupplier handles POST /api/suppliers
func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}
	supplier, err := h.commands.CreateSupplier.Handle(r.Context(), command.CreateSupplierCommand{Name: req.Name, Contact: req.Contact})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusCreated, "", "Supplier created", supplier)
}
