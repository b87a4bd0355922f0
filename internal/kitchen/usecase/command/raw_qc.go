package command

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/metrics"
	"github.com/tair/central-kitchen/pkg/logger"
)

// RawQCCommand represents a QC decision on a raw production batch
type RawQCCommand struct {
	Actor   domain.Actor
	BatchID string
	Result  domain.QCStatus
	Notes   string
	Reason  string
}

// RawQCResult is the outcome of a raw QC decision.
type RawQCResult struct {
	Code           domain.Code              `json:"code"`
	Batch          *domain.RawBatch         `json:"batch"`
	Inventory      *domain.KitchenInventory `json:"inventory,omitempty"`
	PendingToday   int                      `json:"pending_batches_today"`
	OrdersAdvanced int                      `json:"orders_advanced"`
	Waste          *domain.WasteLog         `json:"waste,omitempty"`
	Replacements   []domain.RawBatch        `json:"replacement_batches,omitempty"`

	advanced []domain.Order
}

// RawQCHandler handles raw batch QC
type RawQCHandler struct {
	deps Deps
}

// NewRawQCHandler creates a new raw QC handler
func NewRawQCHandler(deps Deps) *RawQCHandler {
	return &RawQCHandler{deps: deps}
}

// Handle executes the raw QC command
func (h *RawQCHandler) Handle(ctx context.Context, cmd RawQCCommand) (*RawQCResult, error) {
	ctx, span := startSpan(ctx, "RawQC")

	result, err := h.handle(ctx, cmd)
	return result, finish(ctx, span, "RawQC", err)
}

func (h *RawQCHandler) handle(ctx context.Context, cmd RawQCCommand) (*RawQCResult, error) {
	if cmd.BatchID == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "batch id is required")
	}
	if !cmd.Result.IsResult() {
		return nil, domain.Validation(domain.CodeQCInvalidResult, "QC result must be PASS or FAIL")
	}

	now := h.deps.now()
	today := h.deps.Policy.Today(now)
	result := &RawQCResult{}

	err := h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		// Taken before the batch row lock so concurrent decisions for the
		// same day queue here and the pending count below sees every
		// earlier decision committed.
		if err := repos.RawBatches.LockDate(ctx, today); err != nil {
			return err
		}
		batch, err := repos.RawBatches.FindByIDForUpdate(ctx, cmd.BatchID)
		if err != nil {
			return missing(err, domain.CodeBatchNotFound, "batch", cmd.BatchID)
		}
		if batch.QCStatus != domain.QCPending {
			return domain.Conflict(domain.CodeQCAlreadyProcessed, "batch %s already processed: %s", batch.BatchNumber, batch.QCStatus)
		}

		actorID := cmd.Actor.UserID
		batch.QCStatus = cmd.Result
		batch.QCBy = &actorID
		batch.QCAt = &now
		batch.Notes = cmd.Notes
		batch.UpdatedAt = now
		if err := repos.RawBatches.Update(ctx, batch); err != nil {
			return err
		}
		result.Batch = batch

		if cmd.Result == domain.QCPass {
			result.Code = domain.CodeQCPassed
			return h.pass(ctx, repos, cmd, batch, today, now, result)
		}
		result.Code = domain.CodeQCFailed
		return h.fail(ctx, repos, cmd, batch, today, now, result)
	})
	if err != nil {
		return nil, err
	}

	metrics.QCResults.WithLabelValues("raw", string(cmd.Result)).Inc()
	if n := len(result.Replacements); n > 0 {
		metrics.BatchesCreated.WithLabelValues("raw_replacement").Add(float64(n))
	}

	events := []domain.Event{domain.NewEvent(domain.EventRawBatchQCCompleted, result.Batch.ID, now, result)}
	for i := range result.advanced {
		events = append(events, statusChanged(&result.advanced[i], domain.OrderPending, cmd.Actor, domain.TransitionNone, now))
	}
	h.deps.publish(ctx, events...)

	logger.Info(ctx).
		Str("batch_id", result.Batch.ID).
		Str("batch_number", result.Batch.BatchNumber).
		Str("result", string(cmd.Result)).
		Int("pending_today", result.PendingToday).
		Int("orders_advanced", result.OrdersAdvanced).
		Int("replacements", len(result.Replacements)).
		Msg("Raw QC completed")

	return result, nil
}

// pass credits kitchen inventory, then releases today's pending orders once
// no batch dated today is still awaiting QC.
func (h *RawQCHandler) pass(ctx context.Context, repos domain.Repositories, cmd RawQCCommand, batch *domain.RawBatch, today, now time.Time, result *RawQCResult) error {
	inv, err := addKitchenStock(ctx, repos, batch.MaterialID, batch.MaterialName, batch.Unit, batch.Quantity, now)
	if err != nil {
		return err
	}
	result.Inventory = inv

	pending, err := repos.RawBatches.List(ctx, domain.RawBatchFilter{Status: domain.QCPending, BatchDate: &today})
	if err != nil {
		return err
	}
	result.PendingToday = len(pending)
	if len(pending) > 0 {
		return nil
	}

	start, end := h.deps.Policy.DayBounds(now)
	orders, err := repos.Orders.List(ctx, domain.OrderFilter{
		Status:      domain.OrderPending,
		CreatedFrom: &start,
		CreatedTo:   &end,
	})
	if err != nil {
		return err
	}
	for i := range orders {
		order := &orders[i]
		order.Status = domain.OrderInProduction
		order.UpdatedAt = now
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}
		if err := appendHistory(ctx, repos, order, domain.OrderPending, cmd.Actor, "Raw materials cleared QC, production started", now); err != nil {
			return err
		}
	}
	result.OrdersAdvanced = len(orders)
	result.advanced = orders
	return nil
}

// fail logs the batch as waste and orders a replacement of the same quantity
// from another supplier.
func (h *RawQCHandler) fail(ctx context.Context, repos domain.Repositories, cmd RawQCCommand, batch *domain.RawBatch, today, now time.Time, result *RawQCResult) error {
	reason := cmd.Reason
	if reason == "" {
		reason = cmd.Notes
	}
	if reason == "" {
		reason = "Failed raw QC"
	}
	waste := domain.WasteLog{
		ID:           domain.NewID(),
		MaterialID:   batch.MaterialID,
		MaterialName: batch.MaterialName,
		Quantity:     batch.Quantity,
		Unit:         batch.Unit,
		WasteDate:    today,
		Reason:       reason,
		LoggedBy:     cmd.Actor.UserID,
		BatchID:      batch.ID,
		CreatedAt:    now,
	}
	if err := repos.RawBatches.CreateWaste(ctx, &waste); err != nil {
		return err
	}
	result.Waste = &waste

	suppliers, err := repos.Suppliers.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(suppliers) == 0 {
		return domain.BusinessRule(domain.CodeNotFound, "no active suppliers available for replacement")
	}
	supplier := h.deps.picker().Pick(suppliers, batch.SupplierID)

	replaces := batch.ID
	supply := domain.RawMaterialSupply{
		ID:              domain.NewID(),
		MaterialID:      batch.MaterialID,
		MaterialName:    batch.MaterialName,
		SupplierID:      supplier.ID,
		SupplierName:    supplier.Name,
		BaseQuantity:    batch.Quantity,
		BufferQuantity:  decimal.Zero,
		TotalQuantity:   batch.Quantity,
		Unit:            batch.Unit,
		SupplyDate:      today,
		ReplacesBatchID: &replaces,
		Notes:           fmt.Sprintf("Replacement for failed batch %s", batch.BatchNumber),
		CreatedAt:       now,
	}
	if err := repos.RawBatches.CreateSupply(ctx, &supply); err != nil {
		return err
	}

	result.Replacements, err = createRawBatches(ctx, repos, h.deps.Policy, supply, batch, today, now)
	return err
}
