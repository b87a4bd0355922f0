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

// Planning triggers
const (
	TriggerSchedule = "schedule"
	TriggerKafka    = "kafka"
	TriggerManual   = "manual"
)

// PlanMaterialsCommand represents the daily material planning run.
// A nil TargetDate plans for tomorrow.
type PlanMaterialsCommand struct {
	TargetDate *time.Time
	Trigger    string
	Actor      domain.Actor
}

// MaterialDemand is the buffered requirement for one material.
type MaterialDemand struct {
	MaterialID     string          `json:"material_id"`
	MaterialName   string          `json:"material_name"`
	Unit           string          `json:"unit"`
	BaseQuantity   decimal.Decimal `json:"base_quantity"`
	BufferQuantity decimal.Decimal `json:"buffer_quantity"`
	TotalQuantity  decimal.Decimal `json:"total_quantity"`
}

// PlanResult is the outcome of a planning run.
type PlanResult struct {
	TargetDate time.Time                  `json:"target_date"`
	Orders     int                        `json:"orders"`
	Materials  []MaterialDemand           `json:"materials"`
	Supplies   []domain.RawMaterialSupply `json:"supplies"`
	Batches    []domain.RawBatch          `json:"batches"`
}

// PlanMaterialsHandler handles material planning
type PlanMaterialsHandler struct {
	deps Deps
}

// NewPlanMaterialsHandler creates a new plan materials handler
func NewPlanMaterialsHandler(deps Deps) *PlanMaterialsHandler {
	return &PlanMaterialsHandler{deps: deps}
}

// Handle executes the planning run
func (h *PlanMaterialsHandler) Handle(ctx context.Context, cmd PlanMaterialsCommand) (*PlanResult, error) {
	ctx, span := startSpan(ctx, "PlanMaterials")

	if cmd.Trigger == "" {
		cmd.Trigger = TriggerManual
	}
	result, err := h.handle(ctx, cmd)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case len(result.Supplies) == 0:
		outcome = "empty"
	}
	metrics.PlanningRuns.WithLabelValues(cmd.Trigger, outcome).Inc()
	return result, finish(ctx, span, "PlanMaterials", err)
}

func (h *PlanMaterialsHandler) handle(ctx context.Context, cmd PlanMaterialsCommand) (*PlanResult, error) {
	policy := h.deps.Policy
	now := h.deps.now()
	today := policy.Today(now)

	target := today.AddDate(0, 0, 1)
	if cmd.TargetDate != nil {
		target = domain.DateOf(*cmd.TargetDate)
	}
	result := &PlanResult{TargetDate: target}

	err := h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		orders, err := repos.Orders.List(ctx, domain.OrderFilter{Status: domain.OrderPending, DeliveryDate: &target})
		if err != nil {
			return err
		}
		result.Orders = len(orders)
		if len(orders) == 0 {
			return nil
		}

		demand, err := h.demand(ctx, repos, orders)
		if err != nil {
			return err
		}
		if len(demand) == 0 {
			return nil
		}

		suppliers, err := repos.Suppliers.ListActive(ctx)
		if err != nil {
			return err
		}
		if len(suppliers) == 0 {
			return domain.BusinessRule(domain.CodeNotFound, "no active suppliers available")
		}

		picker := h.deps.picker()
		for _, d := range demand {
			supplier := picker.Pick(suppliers, "")
			supply := domain.RawMaterialSupply{
				ID:             domain.NewID(),
				MaterialID:     d.MaterialID,
				MaterialName:   d.MaterialName,
				SupplierID:     supplier.ID,
				SupplierName:   supplier.Name,
				BaseQuantity:   d.BaseQuantity,
				BufferQuantity: d.BufferQuantity,
				TotalQuantity:  d.TotalQuantity,
				Unit:           d.Unit,
				SupplyDate:     today,
				Notes:          fmt.Sprintf("Planned for delivery on %s", target.Format("2006-01-02")),
				CreatedAt:      now,
			}
			if err := repos.RawBatches.CreateSupply(ctx, &supply); err != nil {
				return err
			}
			batches, err := createRawBatches(ctx, repos, policy, supply, nil, today, now)
			if err != nil {
				return err
			}
			result.Supplies = append(result.Supplies, supply)
			result.Batches = append(result.Batches, batches...)
		}
		result.Materials = demand
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Supplies) == 0 {
		logger.Info(ctx).
			Str("target_date", target.Format("2006-01-02")).
			Str("trigger", cmd.Trigger).
			Msg("No pending orders to plan")
		return result, nil
	}

	metrics.BatchesCreated.WithLabelValues("raw").Add(float64(len(result.Batches)))
	h.deps.publish(ctx, domain.NewEvent(domain.EventPlanningCompleted, target.Format("2006-01-02"), now, result))

	logger.Info(ctx).
		Str("target_date", target.Format("2006-01-02")).
		Str("trigger", cmd.Trigger).
		Int("orders", result.Orders).
		Int("materials", len(result.Materials)).
		Int("batches", len(result.Batches)).
		Msg("Material planning completed")

	return result, nil
}

// demand expands every order line through its recipe and applies the buffer.
func (h *PlanMaterialsHandler) demand(ctx context.Context, repos domain.Repositories, orders []domain.Order) ([]MaterialDemand, error) {
	index := make(map[string]int)
	var out []MaterialDemand

	for _, order := range orders {
		for _, item := range order.Items {
			product, err := findProduct(ctx, repos, item.ProductID)
			if err != nil {
				return nil, err
			}
			recipe, err := findRecipe(ctx, repos, product)
			if err != nil {
				return nil, err
			}
			for _, ing := range recipe.Ingredients {
				qty := ing.QuantityPerUnit.Mul(decimal.NewFromInt(int64(item.Quantity)))
				i, ok := index[ing.MaterialID]
				if !ok {
					i = len(out)
					index[ing.MaterialID] = i
					out = append(out, MaterialDemand{
						MaterialID:   ing.MaterialID,
						MaterialName: ing.MaterialName,
						Unit:         ing.Unit,
					})
				}
				out[i].BaseQuantity = out[i].BaseQuantity.Add(qty)
			}
		}
	}

	for i := range out {
		out[i].BufferQuantity = out[i].BaseQuantity.Mul(h.deps.Policy.BufferRate)
		out[i].TotalQuantity = out[i].BaseQuantity.Add(out[i].BufferQuantity)
	}
	return out, nil
}

// createRawBatches splits supply into capped batches. Replacement batches
// carry a back-reference to the failed batch and an R marker in their number.
func createRawBatches(ctx context.Context, repos domain.Repositories, policy domain.Policy, supply domain.RawMaterialSupply, replaces *domain.RawBatch, batchDate, now time.Time) ([]domain.RawBatch, error) {
	chunks := domain.SplitQuantity(supply.TotalQuantity, policy.RawBatchCap)
	batches := make([]domain.RawBatch, 0, len(chunks))

	for i, qty := range chunks {
		batch := domain.RawBatch{
			ID:           domain.NewID(),
			SupplyID:     supply.ID,
			MaterialID:   supply.MaterialID,
			MaterialName: supply.MaterialName,
			BatchNumber:  batchNumber(batchDate, supply.ID, i+1, replaces != nil),
			Quantity:     qty,
			Unit:         supply.Unit,
			BatchDate:    batchDate,
			SupplierID:   supply.SupplierID,
			SupplierName: supply.SupplierName,
			QCStatus:     domain.QCPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if replaces != nil {
			id := replaces.ID
			batch.ReplacedBatchID = &id
			batch.Notes = fmt.Sprintf("Replacement for failed batch %s", replaces.BatchNumber)
		}
		if err := repos.RawBatches.Create(ctx, &batch); err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func batchNumber(date time.Time, supplyID string, seq int, replacement bool) string {
	suffix := supplyID
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	marker := ""
	if replacement {
		marker = "R"
	}
	return fmt.Sprintf("BATCH-%s-%s-%s%d", date.Format("20060102"), suffix, marker, seq)
}
