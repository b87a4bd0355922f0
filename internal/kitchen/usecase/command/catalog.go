package command

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/pkg/logger"
)

// IngredientLine is one recipe line of a product command
type IngredientLine struct {
	MaterialID      string
	QuantityPerUnit decimal.Decimal
}

// CreateProductCommand represents the command to create a product and its recipe
type CreateProductCommand struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	WeightPerUnit decimal.Decimal
	ShelfLifeDays int
	Ingredients   []IngredientLine
}

// ProductResult is a product with its recipe.
type ProductResult struct {
	Product *domain.Product `json:"product"`
	Recipe  *domain.Recipe  `json:"recipe,omitempty"`
}

// CreateProductHandler handles product creation
type CreateProductHandler struct {
	deps Deps
}

// NewCreateProductHandler creates a new create product handler
func NewCreateProductHandler(deps Deps) *CreateProductHandler {
	return &CreateProductHandler{deps: deps}
}

// Handle executes the create product command
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*ProductResult, error) {
	ctx, span := startSpan(ctx, "CreateProduct")

	result, err := h.handle(ctx, cmd)
	return result, finish(ctx, span, "CreateProduct", err)
}

func (h *CreateProductHandler) handle(ctx context.Context, cmd CreateProductCommand) (*ProductResult, error) {
	if err := validateProduct(cmd.Name, cmd.Price, cmd.WeightPerUnit, cmd.ShelfLifeDays); err != nil {
		return nil, err
	}
	if len(cmd.Ingredients) == 0 {
		return nil, domain.Validation(domain.CodeRequiredField, "product must have at least one ingredient")
	}

	now := h.deps.now()
	result := &ProductResult{}
	err := h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		product := &domain.Product{
			ID:            domain.NewID(),
			Name:          strings.TrimSpace(cmd.Name),
			Description:   cmd.Description,
			Price:         cmd.Price,
			WeightPerUnit: cmd.WeightPerUnit,
			ShelfLifeDays: cmd.ShelfLifeDays,
			Active:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repos.Products.Create(ctx, product); err != nil {
			return err
		}

		recipe, err := buildRecipe(ctx, repos, product.ID, cmd.Ingredients, now)
		if err != nil {
			return err
		}
		if err := repos.Recipes.Save(ctx, recipe); err != nil {
			return err
		}
		result.Product = product
		result.Recipe = recipe
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("product_id", result.Product.ID).
		Str("name", result.Product.Name).
		Int("ingredients", len(result.Recipe.Ingredients)).
		Msg("Product created")

	return result, nil
}

// UpdateProductCommand replaces the editable fields of a product. A non-nil
// Ingredients replaces the recipe.
type UpdateProductCommand struct {
	ProductID     string
	Name          string
	Description   string
	Price         decimal.Decimal
	WeightPerUnit decimal.Decimal
	ShelfLifeDays int
	Ingredients   []IngredientLine
}

// UpdateProductHandler handles product updates
type UpdateProductHandler struct {
	deps Deps
}

// NewUpdateProductHandler creates a new update product handler
func NewUpdateProductHandler(deps Deps) *UpdateProductHandler {
	return &UpdateProductHandler{deps: deps}
}

// Handle executes the update product command
func (h *UpdateProductHandler) Handle(ctx context.Context, cmd UpdateProductCommand) (*ProductResult, error) {
	ctx, span := startSpan(ctx, "UpdateProduct")

	result, err := h.handle(ctx, cmd)
	return result, finish(ctx, span, "UpdateProduct", err)
}

func (h *UpdateProductHandler) handle(ctx context.Context, cmd UpdateProductCommand) (*ProductResult, error) {
	if err := validateProduct(cmd.Name, cmd.Price, cmd.WeightPerUnit, cmd.ShelfLifeDays); err != nil {
		return nil, err
	}

	now := h.deps.now()
	result := &ProductResult{}
	err := h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		product, err := findProduct(ctx, repos, cmd.ProductID)
		if err != nil {
			return err
		}
		product.Name = strings.TrimSpace(cmd.Name)
		product.Description = cmd.Description
		product.Price = cmd.Price
		product.WeightPerUnit = cmd.WeightPerUnit
		product.ShelfLifeDays = cmd.ShelfLifeDays
		product.UpdatedAt = now
		if err := repos.Products.Update(ctx, product); err != nil {
			return err
		}
		result.Product = product

		if cmd.Ingredients == nil {
			return nil
		}
		if len(cmd.Ingredients) == 0 {
			return domain.Validation(domain.CodeRequiredField, "product must have at least one ingredient")
		}
		recipe, err := buildRecipe(ctx, repos, product.ID, cmd.Ingredients, now)
		if err != nil {
			return err
		}
		if existing, err := repos.Recipes.FindByProductID(ctx, product.ID); err == nil {
			recipe.ID = existing.ID
			recipe.CreatedAt = existing.CreatedAt
		}
		result.Recipe = recipe
		return repos.Recipes.Save(ctx, recipe)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("product_id", result.Product.ID).
		Bool("recipe_replaced", result.Recipe != nil).
		Msg("Product updated")

	return result, nil
}

// DeactivateProductHandler removes a product from ordering. Existing orders
// keep referencing it.
type DeactivateProductHandler struct {
	deps Deps
}

// NewDeactivateProductHandler creates a new deactivate product handler
func NewDeactivateProductHandler(deps Deps) *DeactivateProductHandler {
	return &DeactivateProductHandler{deps: deps}
}

// Handle deactivates productID
func (h *DeactivateProductHandler) Handle(ctx context.Context, productID string) (*domain.Product, error) {
	ctx, span := startSpan(ctx, "DeactivateProduct")

	product, err := h.handle(ctx, productID)
	return product, finish(ctx, span, "DeactivateProduct", err)
}

func (h *DeactivateProductHandler) handle(ctx context.Context, productID string) (*domain.Product, error) {
	now := h.deps.now()
	var product *domain.Product
	err := h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		if product, err = findProduct(ctx, repos, productID); err != nil {
			return err
		}
		product.Active = false
		product.UpdatedAt = now
		return repos.Products.Update(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).Str("product_id", product.ID).Msg("Product deactivated")
	return product, nil
}

// CreateMaterialCommand represents the command to register a raw material
type CreateMaterialCommand struct {
	Name string
	Unit string
}

// CreateMaterialHandler handles raw material creation
type CreateMaterialHandler struct {
	deps Deps
}

// NewCreateMaterialHandler creates a new create material handler
func NewCreateMaterialHandler(deps Deps) *CreateMaterialHandler {
	return &CreateMaterialHandler{deps: deps}
}

// Handle executes the create material command
func (h *CreateMaterialHandler) Handle(ctx context.Context, cmd CreateMaterialCommand) (*domain.RawMaterial, error) {
	ctx, span := startSpan(ctx, "CreateMaterial")

	material, err := h.handle(ctx, cmd)
	return material, finish(ctx, span, "CreateMaterial", err)
}

func (h *CreateMaterialHandler) handle(ctx context.Context, cmd CreateMaterialCommand) (*domain.RawMaterial, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "material_name is required")
	}
	unit := cmd.Unit
	if unit == "" {
		unit = "kg"
	}
	material := &domain.RawMaterial{
		ID:        domain.NewID(),
		Name:      strings.TrimSpace(cmd.Name),
		Unit:      unit,
		CreatedAt: h.deps.now(),
	}
	if err := h.deps.Store.Repos().Materials.Create(ctx, material); err != nil {
		return nil, err
	}

	logger.Info(ctx).Str("material_id", material.ID).Str("name", material.Name).Msg("Raw material created")
	return material, nil
}

// CreateSupplierCommand represents the command to register a supplier
type CreateSupplierCommand struct {
	Name    string
	Contact string
}

// CreateSupplierHandler handles supplier creation
type CreateSupplierHandler struct {
	deps Deps
}

// NewCreateSupplierHandler creates a new create supplier handler
func NewCreateSupplierHandler(deps Deps) *CreateSupplierHandler {
	return &CreateSupplierHandler{deps: deps}
}

// Handle executes the create supplier command
func (h *CreateSupplierHandler) Handle(ctx context.Context, cmd CreateSupplierCommand) (*domain.Supplier, error) {
	ctx, span := startSpan(ctx, "CreateSupplier")

	supplier, err := h.handle(ctx, cmd)
	return supplier, finish(ctx, span, "CreateSupplier", err)
}

func (h *CreateSupplierHandler) handle(ctx context.Context, cmd CreateSupplierCommand) (*domain.Supplier, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "supplier_name is required")
	}
	supplier := &domain.Supplier{
		ID:        domain.NewID(),
		Name:      strings.TrimSpace(cmd.Name),
		Contact:   cmd.Contact,
		Active:    true,
		CreatedAt: h.deps.now(),
	}
	if err := h.deps.Store.Repos().Suppliers.Create(ctx, supplier); err != nil {
		return nil, err
	}

	logger.Info(ctx).Str("supplier_id", supplier.ID).Str("name", supplier.Name).Msg("Supplier created")
	return supplier, nil
}

func validateProduct(name string, price, weight decimal.Decimal, shelfLife int) error {
	switch {
	case strings.TrimSpace(name) == "":
		return domain.Validation(domain.CodeRequiredField, "product_name is required")
	case price.IsNegative():
		return domain.Validation(domain.CodeInvalidValue, "price cannot be negative")
	case weight.IsNegative():
		return domain.Validation(domain.CodeInvalidValue, "weight_per_unit cannot be negative")
	case shelfLife < 0:
		return domain.Validation(domain.CodeInvalidValue, "shelf_life_days cannot be negative")
	}
	return nil
}

func buildRecipe(ctx context.Context, repos domain.Repositories, productID string, lines []IngredientLine, now time.Time) (*domain.Recipe, error) {
	recipe := &domain.Recipe{
		ID:        domain.NewID(),
		ProductID: productID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if !line.QuantityPerUnit.IsPositive() {
			return nil, domain.Validation(domain.CodeInvalidValue, "quantity for material %s must be positive", line.MaterialID)
		}
		if seen[line.MaterialID] {
			return nil, domain.Validation(domain.CodeInvalidValue, "material %s listed twice", line.MaterialID)
		}
		seen[line.MaterialID] = true

		material, err := repos.Materials.FindByID(ctx, line.MaterialID)
		if err != nil {
			return nil, missing(err, domain.CodeNotFound, "raw material", line.MaterialID)
		}
		recipe.Ingredients = append(recipe.Ingredients, domain.RecipeIngredient{
			MaterialID:      material.ID,
			MaterialName:    material.Name,
			QuantityPerUnit: line.QuantityPerUnit,
			Unit:            material.Unit,
		})
	}
	return recipe, nil
}
