package command

import (
	"context"
	"fmt"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/metrics"
	"github.com/tair/central-kitchen/pkg/logger"
)

// RiskPoolTransferCommand moves donor store stock to cover a failed cooked batch
type RiskPoolTransferCommand struct {
	Actor            domain.Actor
	BatchID          string
	ProductID        string
	Quantity         int
	FromStoreStaffID string
	Reason           string
}

// RiskPoolTransferResult is the outcome of a risk-pool transfer.
type RiskPoolTransferResult struct {
	Transfer domain.RiskPoolTransfer `json:"transfer"`
	Credit   domain.StoreCredit      `json:"credit"`
}

// RiskPoolTransferHandler handles risk-pool transfers
type RiskPoolTransferHandler struct {
	deps Deps
}

// NewRiskPoolTransferHandler creates a new risk-pool transfer handler
func NewRiskPoolTransferHandler(deps Deps) *RiskPoolTransferHandler {
	return &RiskPoolTransferHandler{deps: deps}
}

// Handle executes the transfer. The donor receives credit of unit price times
// quantity at the configured credit rate.
func (h *RiskPoolTransferHandler) Handle(ctx context.Context, cmd RiskPoolTransferCommand) (*RiskPoolTransferResult, error) {
	ctx, span := startSpan(ctx, "RiskPoolTransfer")

	result, err := h.handle(ctx, cmd)
	return result, finish(ctx, span, "RiskPoolTransfer", err)
}

func (h *RiskPoolTransferHandler) handle(ctx context.Context, cmd RiskPoolTransferCommand) (*RiskPoolTransferResult, error) {
	switch {
	case cmd.BatchID == "":
		return nil, domain.Validation(domain.CodeRequiredField, "batch_id is required")
	case cmd.ProductID == "":
		return nil, domain.Validation(domain.CodeRequiredField, "product_id is required")
	case cmd.FromStoreStaffID == "":
		return nil, domain.Validation(domain.CodeRequiredField, "from_store_id is required")
	case cmd.Quantity <= 0:
		return nil, domain.Validation(domain.CodeInvalidValue, "quantity must be positive")
	}

	now := h.deps.now()
	result := &RiskPoolTransferResult{}

	err := h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		batch, err := repos.CookedBatches.FindByIDForUpdate(ctx, cmd.BatchID)
		if err != nil {
			return missing(err, domain.CodeBatchNotFound, "cooked batch", cmd.BatchID)
		}
		if batch.QCStatus != domain.QCFail {
			return domain.Conflict(domain.CodeBatchNotFailed, "cooked batch %s has not failed QC", batch.ID)
		}
		failedQty := 0
		for _, f := range batch.FailedItems {
			if f.ProductID == cmd.ProductID {
				failedQty += f.Quantity
			}
		}
		if failedQty == 0 {
			return domain.Validation(domain.CodeInvalidValue, "product %s did not fail in this batch", cmd.ProductID)
		}
		transfers, err := repos.Credits.ListTransfers(ctx)
		if err != nil {
			return err
		}
		covered := 0
		for _, t := range transfers {
			if t.BatchID == batch.ID && t.ProductID == cmd.ProductID {
				covered += t.Quantity
			}
		}
		if covered+cmd.Quantity > failedQty {
			return domain.BusinessRule(domain.CodeInvalidValue,
				"transfer of %d exceeds uncovered failed quantity %d", cmd.Quantity, failedQty-covered)
		}

		product, err := findProduct(ctx, repos, cmd.ProductID)
		if err != nil {
			return err
		}
		if _, err := repos.StoreStaff.FindByID(ctx, cmd.FromStoreStaffID); err != nil {
			return missing(err, domain.CodeNotFound, "store", cmd.FromStoreStaffID)
		}

		donor, err := repos.StoreInventory.FindForUpdate(ctx, cmd.FromStoreStaffID, cmd.ProductID)
		if err != nil {
			return missing(err, domain.CodeInventoryNotFound, "store inventory for product", product.Name)
		}
		if donor.Expired(now) {
			return domain.BusinessRule(domain.CodeInventoryInsufficient, "donor stock of %s has expired", product.Name)
		}
		if donor.Quantity < cmd.Quantity {
			return domain.BusinessRule(domain.CodeInventoryInsufficient,
				"donor store has %d of %s, %d requested", donor.Quantity, product.Name, cmd.Quantity)
		}
		donor.Quantity -= cmd.Quantity
		donor.LastUpdated = now
		if err := repos.StoreInventory.Update(ctx, donor); err != nil {
			return err
		}

		amount := h.deps.Policy.CreditFor(product.Price, cmd.Quantity)
		credit := domain.NewStoreCredit(cmd.FromStoreStaffID, amount, domain.CreditFromRiskPool, now)
		batchID, productID := batch.ID, product.ID
		credit.OrderID = batch.OrderID
		credit.BatchID = &batchID
		credit.ProductID = &productID
		credit.Quantity = cmd.Quantity
		credit.IssuedBy = cmd.Actor.UserID
		credit.Notes = fmt.Sprintf("Risk pool transfer of %d x %s", cmd.Quantity, product.Name)
		if err := repos.Credits.Create(ctx, &credit); err != nil {
			return err
		}

		transfer := domain.RiskPoolTransfer{
			ID:               domain.NewID(),
			BatchID:          batch.ID,
			OrderID:          batch.OrderID,
			ProductID:        product.ID,
			ProductName:      product.Name,
			Quantity:         cmd.Quantity,
			FromStoreStaffID: cmd.FromStoreStaffID,
			CreditAwarded:    amount,
			CreditID:         credit.ID,
			Reason:           cmd.Reason,
			TransferredBy:    cmd.Actor.UserID,
			TransferredAt:    now,
		}
		if err := repos.Credits.CreateTransfer(ctx, &transfer); err != nil {
			return err
		}

		result.Transfer = transfer
		result.Credit = credit
		return nil
	})
	if err != nil {
		return nil, err
	}

	amount, _ := result.Credit.Amount.Float64()
	metrics.CreditsIssued.WithLabelValues(string(domain.CreditFromRiskPool)).Add(amount)
	h.deps.publish(ctx, domain.NewEvent(domain.EventRiskPoolTransferred, result.Transfer.BatchID, now, result))

	logger.Info(ctx).
		Str("batch_id", result.Transfer.BatchID).
		Str("product_id", result.Transfer.ProductID).
		Str("from_store_staff_id", result.Transfer.FromStoreStaffID).
		Int("quantity", result.Transfer.Quantity).
		Str("credit", result.Credit.Amount.String()).
		Msg("Risk pool transfer completed")

	return result, nil
}
