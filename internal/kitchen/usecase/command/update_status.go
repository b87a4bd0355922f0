package command

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/metrics"
	"github.com/tair/central-kitchen/pkg/logger"
)

// UpdateStatusCommand represents the command to move an order to a new status
type UpdateStatusCommand struct {
	Actor   domain.Actor
	OrderID string
	Status  domain.OrderStatus
	Notes   string
}

// StatusResult is the outcome of a status transition.
type StatusResult struct {
	Order         *domain.Order             `json:"order"`
	Transition    string                    `json:"transition"`
	CookedBatches []domain.CookedBatch      `json:"cooked_batches,omitempty"`
	Consumption   []domain.BatchConsumption `json:"consumption,omitempty"`
}

// transition is the working state shared by a transition's side effect.
type transition struct {
	repos  domain.Repositories
	order  *domain.Order
	from   domain.OrderStatus
	actor  domain.Actor
	now    time.Time
	result *StatusResult
}

type sideEffect func(ctx context.Context, h *UpdateStatusHandler, t *transition) error

var sideEffects = map[domain.TransitionKind]sideEffect{
	domain.TransitionProduce:  produce,
	domain.TransitionDispatch: dispatch,
	domain.TransitionDeliver:  deliver,
	domain.TransitionCancel:   cancel,
	domain.TransitionOverride: func(context.Context, *UpdateStatusHandler, *transition) error { return nil },
}

// UpdateStatusHandler handles order status transitions
type UpdateStatusHandler struct {
	deps Deps
}

// NewUpdateStatusHandler creates a new update status handler
func NewUpdateStatusHandler(deps Deps) *UpdateStatusHandler {
	return &UpdateStatusHandler{deps: deps}
}

// Handle executes the update status command
func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*StatusResult, error) {
	ctx, span := startSpan(ctx, "UpdateStatus")

	result, err := h.handle(ctx, cmd)
	return result, finish(ctx, span, "UpdateStatus", err)
}

func (h *UpdateStatusHandler) handle(ctx context.Context, cmd UpdateStatusCommand) (*StatusResult, error) {
	if cmd.OrderID == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "order id is required")
	}
	if !cmd.Status.Valid() {
		return nil, domain.Validation(domain.CodeInvalidValue, "invalid status %q", cmd.Status)
	}

	now := h.deps.now()
	var t *transition
	var kind domain.TransitionKind

	err := h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		order, err := findOrder(ctx, repos, cmd.OrderID, true)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return domain.Conflict(order.Status.Code(), "order is already %s", order.Status.Name())
		}
		if !domain.IsValidTransition(order.Status, cmd.Status) {
			return domain.Conflict(order.Status.Code(), "cannot move order from %s to %s",
				order.Status.Name(), cmd.Status.Name())
		}

		kind = domain.ResolveTransition(cmd.Actor.Role, order.Status, cmd.Status)
		effect, ok := sideEffects[kind]
		if !ok {
			return domain.Forbidden(domain.CodeAuthzInsufficient, "role %s cannot move order from %s to %s",
				cmd.Actor.Role, order.Status.Name(), cmd.Status.Name())
		}

		t = &transition{
			repos:  repos,
			order:  order,
			from:   order.Status,
			actor:  cmd.Actor,
			now:    now,
			result: &StatusResult{Order: order, Transition: kind.String()},
		}
		if err := effect(ctx, h, t); err != nil {
			return err
		}

		order.Status = cmd.Status
		order.UpdatedAt = now
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}
		return appendHistory(ctx, repos, order, t.from, cmd.Actor, cmd.Notes, now)
	})
	if err != nil {
		return nil, err
	}

	if n := len(t.result.CookedBatches); n > 0 {
		metrics.BatchesCreated.WithLabelValues("cooked").Add(float64(n))
	}
	h.deps.publish(ctx, statusChanged(t.order, t.from, cmd.Actor, kind, now))

	logger.Info(ctx).
		Str("order_id", t.order.ID).
		Str("from", t.from.Name()).
		Str("to", t.order.Status.Name()).
		Str("transition", kind.String()).
		Str("actor_role", cmd.Actor.Role.String()).
		Msg("Order status updated")

	return t.result, nil
}

// produce deducts the recipe materials of every line from kitchen inventory
// and packs the order into cooked batches.
func produce(ctx context.Context, h *UpdateStatusHandler, t *transition) error {
	policy := h.deps.Policy
	needed := make(map[string]decimal.Decimal)
	var materials []domain.RecipeIngredient
	var lines []domain.PackLine

	for _, item := range t.order.Items {
		product, err := findProduct(ctx, t.repos, item.ProductID)
		if err != nil {
			return err
		}
		recipe, err := findRecipe(ctx, t.repos, product)
		if err != nil {
			return err
		}
		for _, ing := range recipe.Ingredients {
			if _, seen := needed[ing.MaterialID]; !seen {
				materials = append(materials, ing)
			}
			needed[ing.MaterialID] = needed[ing.MaterialID].Add(ing.QuantityPerUnit.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		lines = append(lines, domain.PackLine{
			ProductID:     product.ID,
			ProductName:   product.Name,
			Quantity:      item.Quantity,
			WeightPerUnit: product.UnitWeight(policy.DefaultWeightPerUnit),
		})
	}

	for _, m := range materials {
		qty := needed[m.MaterialID]
		if err := deductKitchenStock(ctx, t.repos, m.MaterialID, m.MaterialName, qty, t.now); err != nil {
			return err
		}
		consumption := domain.BatchConsumption{
			ID:           domain.NewID(),
			OrderID:      t.order.ID,
			MaterialID:   m.MaterialID,
			MaterialName: m.MaterialName,
			Quantity:     qty,
			Unit:         m.Unit,
			ConsumedBy:   t.actor.UserID,
			ConsumedAt:   t.now,
		}
		if err := t.repos.KitchenInventory.CreateConsumption(ctx, &consumption); err != nil {
			return err
		}
		t.result.Consumption = append(t.result.Consumption, consumption)
	}

	packed := domain.PackCookedBatches(lines, policy.CookedBatchCap)
	for i, p := range packed {
		batch := domain.CookedBatch{
			ID:           domain.NewID(),
			OrderID:      t.order.ID,
			StoreStaffID: t.order.StoreStaffID,
			BatchNumber:  i + 1,
			TotalBatches: len(packed),
			Items:        p.Items,
			TotalWeight:  p.TotalWeight,
			QCStatus:     domain.QCPending,
			CookedBy:     t.actor.UserID,
			CookedAt:     t.now,
			CreatedAt:    t.now,
			UpdatedAt:    t.now,
		}
		if err := t.repos.CookedBatches.Create(ctx, &batch); err != nil {
			return err
		}
		t.result.CookedBatches = append(t.result.CookedBatches, batch)
	}
	return nil
}

// dispatch requires the order to have cooked batches, all cleared by QC.
func dispatch(ctx context.Context, _ *UpdateStatusHandler, t *transition) error {
	batches, err := t.repos.CookedBatches.ListByOrder(ctx, t.order.ID)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		return domain.BusinessRule(domain.CodeBatchNotFound, "no cooked batches found for order %s", t.order.ID)
	}
	pending := 0
	for _, b := range batches {
		if b.QCStatus == domain.QCPending {
			pending++
		}
	}
	if pending > 0 {
		return domain.BusinessRule(domain.CodeBatchPendingQC, "%d cooked batches still pending QC", pending)
	}
	return nil
}

// deliver credits the owning store with every line, refreshing expiry.
func deliver(ctx context.Context, h *UpdateStatusHandler, t *transition) error {
	if err := requireOwner(ctx, t.repos, t.actor, t.order.StoreStaffID); err != nil {
		return err
	}
	for _, item := range t.order.Items {
		product, err := findProduct(ctx, t.repos, item.ProductID)
		if err != nil {
			return err
		}
		expires := t.now.AddDate(0, 0, product.ShelfLife(h.deps.Policy.DefaultShelfLifeDays))
		if err := addStoreStock(ctx, t.repos, t.order.StoreStaffID, product, item.Quantity, expires, t.now); err != nil {
			return err
		}
	}
	return nil
}

// cancel lets the owner withdraw an order; pending orders only before cut-off.
func cancel(ctx context.Context, h *UpdateStatusHandler, t *transition) error {
	if err := requireOwner(ctx, t.repos, t.actor, t.order.StoreStaffID); err != nil {
		return err
	}
	if t.from == domain.OrderPending && h.deps.Policy.PastCutoff(t.now) {
		return domain.BusinessRule(t.from.Code(), "pending orders can only be cancelled before %02d:00",
			h.deps.Policy.CutoffHour)
	}
	return nil
}
