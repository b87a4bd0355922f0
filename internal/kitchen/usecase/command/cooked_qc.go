package command

import (
	"context"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/metrics"
	"github.com/tair/central-kitchen/pkg/logger"
)

// CookedQCCommand represents a QC decision on a cooked batch. FailedItems
// defaults to every item of the batch when a FAIL names none.
type CookedQCCommand struct {
	Actor       domain.Actor
	BatchID     string
	Result      domain.QCStatus
	Notes       string
	FailedItems []domain.FailedItem
}

// CookedQCResult is the outcome of a cooked QC decision.
type CookedQCResult struct {
	Code           domain.Code           `json:"code"`
	Batch          *domain.CookedBatch   `json:"batch"`
	Record         domain.CookedQCRecord `json:"record"`
	PendingBatches int                   `json:"pending_batches"`
}

// CookedQCHandler handles cooked batch QC
type CookedQCHandler struct {
	deps Deps
}

// NewCookedQCHandler creates a new cooked QC handler
func NewCookedQCHandler(deps Deps) *CookedQCHandler {
	return &CookedQCHandler{deps: deps}
}

// Handle executes the cooked QC command
func (h *CookedQCHandler) Handle(ctx context.Context, cmd CookedQCCommand) (*CookedQCResult, error) {
	ctx, span := startSpan(ctx, "CookedQC")

	result, err := h.handle(ctx, cmd)
	return result, finish(ctx, span, "CookedQC", err)
}

func (h *CookedQCHandler) handle(ctx context.Context, cmd CookedQCCommand) (*CookedQCResult, error) {
	if cmd.BatchID == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "batch id is required")
	}
	if !cmd.Result.IsResult() {
		return nil, domain.Validation(domain.CodeQCInvalidResult, "QC result must be PASS or FAIL")
	}

	now := h.deps.now()
	result := &CookedQCResult{Code: domain.CodeQCPassed}

	err := h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		batch, err := repos.CookedBatches.FindByIDForUpdate(ctx, cmd.BatchID)
		if err != nil {
			return missing(err, domain.CodeBatchNotFound, "cooked batch", cmd.BatchID)
		}
		if batch.QCStatus != domain.QCPending {
			return domain.Conflict(domain.CodeQCAlreadyProcessed, "cooked batch %d/%d already processed: %s",
				batch.BatchNumber, batch.TotalBatches, batch.QCStatus)
		}

		order, err := findOrder(ctx, repos, batch.OrderID, false)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStaged {
			return domain.Conflict(order.Status.Code(), "order must be STAGED for cooked QC, is %s", order.Status.Name())
		}

		var failed []domain.FailedItem
		if cmd.Result == domain.QCFail {
			result.Code = domain.CodeQCFailed
			if failed, err = failedItems(batch, cmd.FailedItems); err != nil {
				return err
			}
		}

		actorID := cmd.Actor.UserID
		batch.QCStatus = cmd.Result
		batch.QCBy = &actorID
		batch.QCAt = &now
		batch.QCNotes = cmd.Notes
		batch.FailedItems = failed
		batch.UpdatedAt = now
		if err := repos.CookedBatches.Update(ctx, batch); err != nil {
			return err
		}

		result.Record = domain.CookedQCRecord{
			ID:          domain.NewID(),
			BatchID:     batch.ID,
			OrderID:     batch.OrderID,
			Result:      cmd.Result,
			QCBy:        actorID,
			QCAt:        now,
			Notes:       cmd.Notes,
			FailedItems: failed,
		}
		if err := repos.CookedBatches.CreateQCRecord(ctx, &result.Record); err != nil {
			return err
		}
		result.Batch = batch

		siblings, err := repos.CookedBatches.ListByOrder(ctx, batch.OrderID)
		if err != nil {
			return err
		}
		for _, b := range siblings {
			if b.QCStatus == domain.QCPending {
				result.PendingBatches++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.QCResults.WithLabelValues("cooked", string(cmd.Result)).Inc()
	h.deps.publish(ctx, domain.NewEvent(domain.EventCookedBatchQCComplete, result.Batch.ID, now, result))

	logger.Info(ctx).
		Str("batch_id", result.Batch.ID).
		Str("order_id", result.Batch.OrderID).
		Str("result", string(cmd.Result)).
		Int("failed_items", len(result.Batch.FailedItems)).
		Int("pending_batches", result.PendingBatches).
		Msg("Cooked QC completed")

	return result, nil
}

// failedItems validates the reported failures against the batch contents.
func failedItems(batch *domain.CookedBatch, reported []domain.FailedItem) ([]domain.FailedItem, error) {
	if len(reported) == 0 {
		out := make([]domain.FailedItem, 0, len(batch.Items))
		for _, item := range batch.Items {
			out = append(out, domain.FailedItem{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		return out, nil
	}

	inBatch := make(map[string]int, len(batch.Items))
	for _, item := range batch.Items {
		inBatch[item.ProductID] += item.Quantity
	}
	claimed := make(map[string]int, len(reported))
	for _, f := range reported {
		qty, ok := inBatch[f.ProductID]
		if !ok {
			return nil, domain.Validation(domain.CodeInvalidValue, "product %s is not in this batch", f.ProductID)
		}
		claimed[f.ProductID] += f.Quantity
		if f.Quantity <= 0 || claimed[f.ProductID] > qty {
			return nil, domain.Validation(domain.CodeInvalidValue, "failed quantity for product %s must be between 1 and %d", f.ProductID, qty)
		}
	}
	return reported, nil
}
