package command

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/pkg/logger"
)

// UseCreditCommand represents a debit against a store credit
type UseCreditCommand struct {
	Actor    domain.Actor
	CreditID string
	Amount   decimal.Decimal
	OrderID  string
}

// UseCreditResult is the outcome of a credit debit.
type UseCreditResult struct {
	Code   domain.Code        `json:"code"`
	Credit domain.StoreCredit `json:"credit"`
	Usage  domain.CreditUsage `json:"usage"`
}

// UseCreditHandler handles credit usage
type UseCreditHandler struct {
	deps Deps
}

// NewUseCreditHandler creates a new use credit handler
func NewUseCreditHandler(deps Deps) *UseCreditHandler {
	return &UseCreditHandler{deps: deps}
}

// Handle executes the use credit command
func (h *UseCreditHandler) Handle(ctx context.Context, cmd UseCreditCommand) (*UseCreditResult, error) {
	ctx, span := startSpan(ctx, "UseCredit")

	result, err := h.handle(ctx, cmd)
	return result, finish(ctx, span, "UseCredit", err)
}

func (h *UseCreditHandler) handle(ctx context.Context, cmd UseCreditCommand) (*UseCreditResult, error) {
	if cmd.CreditID == "" {
		return nil, domain.Validation(domain.CodeRequiredField, "credit id is required")
	}
	if !cmd.Amount.IsPositive() {
		return nil, domain.Validation(domain.CodeInvalidValue, "amount must be positive")
	}

	now := h.deps.now()
	result := &UseCreditResult{Code: domain.CodeCreditOK}

	err := h.deps.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		credit, err := repos.Credits.FindByIDForUpdate(ctx, cmd.CreditID)
		if err != nil {
			return missing(err, domain.CodeNotFound, "credit", cmd.CreditID)
		}
		if err := requireOwner(ctx, repos, cmd.Actor, credit.StoreStaffID); err != nil {
			return err
		}
		if credit.Status == domain.CreditFullyUsed || !credit.RemainingAmount.IsPositive() {
			return domain.BusinessRule(domain.CodeCreditFullyUsed, "credit %s is fully used", credit.ID)
		}
		if cmd.Amount.GreaterThan(credit.RemainingAmount) {
			return domain.BusinessRule(domain.CodeCreditInsufficient,
				"credit has %s remaining, %s requested", credit.RemainingAmount, cmd.Amount)
		}

		credit.RemainingAmount = credit.RemainingAmount.Sub(cmd.Amount)
		credit.UsedAmount = credit.UsedAmount.Add(cmd.Amount)
		if credit.RemainingAmount.IsZero() {
			credit.Status = domain.CreditFullyUsed
		}
		credit.UpdatedAt = now
		if err := repos.Credits.Update(ctx, credit); err != nil {
			return err
		}

		result.Usage = domain.CreditUsage{
			ID:           domain.NewID(),
			CreditID:     credit.ID,
			StoreStaffID: credit.StoreStaffID,
			OrderID:      cmd.OrderID,
			Amount:       cmd.Amount,
			UsedBy:       cmd.Actor.UserID,
			UsedAt:       now,
		}
		result.Credit = *credit
		return repos.Credits.CreateUsage(ctx, &result.Usage)
	})
	if err != nil {
		return nil, err
	}

	h.deps.publish(ctx, domain.NewEvent(domain.EventCreditUsed, result.Credit.ID, now, result))

	logger.Info(ctx).
		Str("credit_id", result.Credit.ID).
		Str("amount", cmd.Amount.String()).
		Str("remaining", result.Credit.RemainingAmount.String()).
		Msg("Credit used")

	return result, nil
}
