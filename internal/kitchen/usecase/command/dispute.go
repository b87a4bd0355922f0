package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/metrics"
	"github.com/tair/central-kitchen/pkg/logger"
)

// FileDisputeCommand represents a store's claim against a delivered order
type FileDisputeCommand struct {
	Actor   domain.Actor
	OrderID string
	Items   []domain.DisputeItem
	Reason  string
}

// FileDisputeHandler handles dispute filing
type FileDisputeHandler struct {
	deps Deps
}

// NewFileDisputeHandler creates a new file dispute handler
func NewFileDisputeHandler(deps Deps) *FileDisputeHandler {
	return &FileDisputeHandler{deps: deps}
}

// Handle executes the file dispute command
func (h *FileDisputeHandler) Handle(ctx context.Context, cmd FileDisputeCommand) (*domain.Dispute, error) {
	ctx, span := startSpan(ctx, "FileDispute")

	dispute, err := h.handle(ctx, cmd)
	return dispute, finish(ctx, span, "FileDispute", err)
}

func (h *FileDisputeHandler) handle(ctx context.Context, cmd FileDisputeCommand) (*domain.Dispute, error) {
	if cmd.OrderID == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "order_id is required")
	}
	if len(cmd.Items) == 0 {
		return nil, domain.Validation(domain.CodeRequiredField, "dispute must contain at least one item")
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "reason is required")
	}
	claimed := make(map[string]int)
	var products []string
	for _, item := range cmd.Items {
		if item.ProductID == "" {
			return nil, domain.Validation(domain.CodeRequiredField, "product_id is required")
		}
		if item.Quantity <= 0 {
			return nil, domain.Validation(domain.CodeInvalidValue, "disputed quantity for product %s must be positive", item.ProductID)
		}
		if !item.IssueType.Valid() {
			return nil, domain.Validation(domain.CodeInvalidValue, "invalid issue type %q", item.IssueType)
		}
		if _, seen := claimed[item.ProductID]; !seen {
			products = append(products, item.ProductID)
		}
		claimed[item.ProductID] += item.Quantity
	}

	policy := h.deps.Policy
	now := h.deps.now()
	var dispute *domain.Dispute

	err := h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		// The order row lock serializes concurrent filings against the same order.
		order, err := findOrder(ctx, repos, cmd.OrderID, true)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderDelivered {
			return domain.Conflict(order.Status.Code(), "disputes can only be filed for delivered orders, order is %s", order.Status.Name())
		}
		if err := requireOwner(ctx, repos, cmd.Actor, order.StoreStaffID); err != nil {
			return err
		}

		history, err := repos.Orders.History(ctx, order.ID)
		if err != nil {
			return err
		}
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].ToStatus != domain.OrderDelivered {
				continue
			}
			if elapsed := now.Sub(history[i].CreatedAt); elapsed > policy.FilingWindow {
				return domain.BusinessRule(domain.CodeDisputeWindowExpired,
					"disputes must be filed within %s of delivery", policy.FilingWindow)
			}
			break
		}

		existing, err := repos.Disputes.ListByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		already := domain.DisputedQuantities(existing, policy.CountRejectedDisputes)
		for _, productID := range products {
			ordered, ok := order.QuantityOf(productID)
			if !ok {
				return domain.Validation(domain.CodeInvalidValue, "product %s is not part of order %s", productID, order.ID)
			}
			if already[productID]+claimed[productID] > ordered {
				return domain.BusinessRule(domain.CodeDisputeQuantityExceeded,
					"disputed quantity for product %s would be %d, ordered %d",
					productID, already[productID]+claimed[productID], ordered)
			}
		}

		dispute = &domain.Dispute{
			ID:           domain.NewID(),
			OrderID:      order.ID,
			StoreStaffID: order.StoreStaffID,
			FiledBy:      cmd.Actor.UserID,
			Items:        append([]domain.DisputeItem(nil), cmd.Items...),
			Reason:       cmd.Reason,
			Status:       domain.DisputePending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return repos.Disputes.Create(ctx, dispute)
	})
	if err != nil {
		return nil, err
	}

	metrics.DisputesFiled.Inc()
	h.deps.publish(ctx, domain.NewEvent(domain.EventDisputeFiled, dispute.OrderID, now, dispute))

	logger.Info(ctx).
		Str("dispute_id", dispute.ID).
		Str("order_id", dispute.OrderID).
		Int("items", len(dispute.Items)).
		Msg("Dispute filed")

	return dispute, nil
}

// ResolveDisputeCommand represents a manager's decision on a dispute
type ResolveDisputeCommand struct {
	Actor      domain.Actor
	DisputeID  string
	Resolution domain.Resolution
	Notes      string
}

// ResolveDisputeResult is the outcome of a dispute resolution.
type ResolveDisputeResult struct {
	Code    domain.Code         `json:"code"`
	Dispute *domain.Dispute     `json:"dispute"`
	Credit  *domain.StoreCredit `json:"credit,omitempty"`
}

// ResolveDisputeHandler handles dispute resolution
type ResolveDisputeHandler struct {
	deps Deps
}

// NewResolveDisputeHandler creates a new resolve dispute handler
func NewResolveDisputeHandler(deps Deps) *ResolveDisputeHandler {
	return &ResolveDisputeHandler{deps: deps}
}

// Handle executes the resolve dispute command
func (h *ResolveDisputeHandler) Handle(ctx context.Context, cmd ResolveDisputeCommand) (*ResolveDisputeResult, error) {
	ctx, span := startSpan(ctx, "ResolveDispute")

	result, err := h.handle(ctx, cmd)
	return result, finish(ctx, span, "ResolveDispute", err)
}

func (h *ResolveDisputeHandler) handle(ctx context.Context, cmd ResolveDisputeCommand) (*ResolveDisputeResult, error) {
	if cmd.DisputeID == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "dispute id is required")
	}
	if !cmd.Resolution.Valid() {
		return nil, domain.Validation(domain.CodeInvalidValue, "resolution must be APPROVE or REJECT")
	}

	now := h.deps.now()
	result := &ResolveDisputeResult{Code: domain.CodeDisputeResolved}

	err := h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		dispute, err := repos.Disputes.FindByIDForUpdate(ctx, cmd.DisputeID)
		if err != nil {
			return missing(err, domain.CodeNotFound, "dispute", cmd.DisputeID)
		}
		if dispute.Status == domain.DisputeResolved {
			return domain.Conflict(domain.CodeDisputeAlreadyResolved, "dispute %s is already resolved", dispute.ID)
		}

		if cmd.Resolution == domain.ResolutionApprove {
			credit, err := h.approve(ctx, repos, cmd, dispute, now)
			if err != nil {
				return err
			}
			if credit != nil {
				creditID := credit.ID
				dispute.CreditID = &creditID
				result.Credit = credit
			}
		}

		resolver := cmd.Actor.UserID
		dispute.Status = domain.DisputeResolved
		dispute.Resolution = cmd.Resolution
		dispute.ResolutionNotes = cmd.Notes
		dispute.ResolvedBy = &resolver
		dispute.ResolvedAt = &now
		dispute.UpdatedAt = now
		if err := repos.Disputes.Update(ctx, dispute); err != nil {
			return err
		}
		result.Dispute = dispute
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.DisputesResolved.WithLabelValues(string(cmd.Resolution)).Inc()
	if result.Credit != nil {
		amount, _ := result.Credit.Amount.Float64()
		metrics.CreditsIssued.WithLabelValues(string(domain.CreditFromDispute)).Add(amount)
	}
	h.deps.publish(ctx, domain.NewEvent(domain.EventDisputeResolved, result.Dispute.OrderID, now, result))

	event := logger.Info(ctx).
		Str("dispute_id", result.Dispute.ID).
		Str("resolution", string(cmd.Resolution))
	if result.Credit != nil {
		event = event.Str("credit", result.Credit.Amount.String())
	}
	event.Msg("Dispute resolved")

	return result, nil
}

// approve deducts the disputed quantities from the filer's stock where held
// and issues one credit for the total value.
func (h *ResolveDisputeHandler) approve(ctx context.Context, repos domain.Repositories, cmd ResolveDisputeCommand, dispute *domain.Dispute, now time.Time) (*domain.StoreCredit, error) {
	total := decimal.Zero
	for _, item := range dispute.Items {
		product, err := findProduct(ctx, repos, item.ProductID)
		if err != nil {
			return nil, err
		}
		total = total.Add(h.deps.Policy.CreditFor(product.Price, item.Quantity))

		if _, err := deductStoreStock(ctx, repos, dispute.StoreStaffID, item.ProductID, item.Quantity, now); err != nil {
			return nil, err
		}
	}
	if !total.IsPositive() {
		return nil, nil
	}

	credit := domain.NewStoreCredit(dispute.StoreStaffID, total, domain.CreditFromDispute, now)
	disputeID := dispute.ID
	credit.OrderID = dispute.OrderID
	credit.DisputeID = &disputeID
	credit.IssuedBy = cmd.Actor.UserID
	credit.Notes = fmt.Sprintf("Approved dispute on order %s", dispute.OrderID)
	if err := repos.Credits.Create(ctx, &credit); err != nil {
		return nil, err
	}
	return &credit, nil
}
