package command

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
)

// Inventory lines are adjusted with a guard on the current value: a deduction
// larger than the stock on hand is refused and nothing is written.

func addKitchenStock(ctx context.Context, repos domain.Repositories, materialID, materialName, unit string, qty decimal.Decimal, now time.Time) (*domain.KitchenInventory, error) {
	inv, err := repos.KitchenInventory.FindByMaterialForUpdate(ctx, materialID)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		inv = &domain.KitchenInventory{
			ID:           domain.NewID(),
			MaterialID:   materialID,
			MaterialName: materialName,
			Quantity:     qty,
			Unit:         unit,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return inv, repos.KitchenInventory.Create(ctx, inv)
	case err != nil:
		return nil, err
	}

	inv.Quantity = inv.Quantity.Add(qty)
	inv.UpdatedAt = now
	return inv, repos.KitchenInventory.Update(ctx, inv)
}

func deductKitchenStock(ctx context.Context, repos domain.Repositories, materialID, materialName string, qty decimal.Decimal, now time.Time) error {
	inv, err := repos.KitchenInventory.FindByMaterialForUpdate(ctx, materialID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.BusinessRule(domain.CodeInventoryNotFound, "no kitchen inventory for material %s", materialName)
		}
		return err
	}
	if inv.Quantity.LessThan(qty) {
		return domain.BusinessRule(domain.CodeInventoryInsufficient,
			"insufficient %s in kitchen inventory: need %s %s, have %s", materialName, qty, inv.Unit, inv.Quantity)
	}

	inv.Quantity = inv.Quantity.Sub(qty)
	inv.UpdatedAt = now
	return repos.KitchenInventory.Update(ctx, inv)
}

func addStoreStock(ctx context.Context, repos domain.Repositories, storeStaffID string, product *domain.Product, qty int, expires time.Time, now time.Time) error {
	inv, err := repos.StoreInventory.FindForUpdate(ctx, storeStaffID, product.ID)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return repos.StoreInventory.Create(ctx, &domain.StoreInventory{
			ID:             domain.NewID(),
			StoreStaffID:   storeStaffID,
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       qty,
			ExpirationDate: &expires,
			LastUpdated:    now,
			CreatedAt:      now,
		})
	case err != nil:
		return err
	}

	inv.Quantity += qty
	inv.ExpirationDate = &expires
	inv.LastUpdated = now
	return repos.StoreInventory.Update(ctx, inv)
}

// deductStoreStock removes qty from the store's line. A missing line is
// reported as (false, nil) so callers can decide whether that is an error.
func deductStoreStock(ctx context.Context, repos domain.Repositories, storeStaffID, productID string, qty int, now time.Time) (bool, error) {
	inv, err := repos.StoreInventory.FindForUpdate(ctx, storeStaffID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if inv.Quantity < qty {
		return true, domain.BusinessRule(domain.CodeInventoryInsufficient,
			"insufficient %s in store inventory: need %d, have %d", inv.ProductName, qty, inv.Quantity)
	}

	inv.Quantity -= qty
	inv.LastUpdated = now
	return true, repos.StoreInventory.Update(ctx, inv)
}
