package command_test

import (
	"context"
	"testing"
	"time"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
)

func TestCookedQCPass(t *testing.T) {
	f := newFixture(t)
	_, produced := f.staged(6)

	result, err := f.cookedQC(produced.CookedBatches[0].ID, domain.QCPass)
	if err != nil {
		t.Fatal(err)
	}
	if result.Code != domain.CodeQCPassed || result.PendingBatches != 1 {
		t.Errorf("code %s pending %d, want QC100 and 1", result.Code, result.PendingBatches)
	}
	if result.Batch.QCBy == nil || *result.Batch.QCBy != kitchen.UserID || len(result.Batch.FailedItems) != 0 {
		t.Errorf("unexpected batch %+v", result.Batch)
	}
	records, _ := f.repos().CookedBatches.ListQCRecords(f.ctx, result.Batch.ID)
	if len(records) != 1 || records[0].Result != domain.QCPass {
		t.Errorf("unexpected audit records %+v", records)
	}
}

func TestCookedQCFailDefaultsToWholeBatch(t *testing.T) {
	f := newFixture(t)
	_, produced := f.staged(6)

	result, err := f.cookedQC(produced.CookedBatches[0].ID, domain.QCFail)
	if err != nil {
		t.Fatal(err)
	}
	if result.Code != domain.CodeQCFailed {
		t.Errorf("code = %s, want QC101", result.Code)
	}
	failed := result.Batch.FailedItems
	if len(failed) != 1 || failed[0].ProductID != "bun" || failed[0].Quantity != 5 {
		t.Errorf("failed items = %+v, want all 5 buns", failed)
	}
	if len(result.Record.FailedItems) != 1 {
		t.Errorf("audit record lost failed items: %+v", result.Record)
	}
}

func TestCookedQCFailWithItems(t *testing.T) {
	f := newFixture(t)
	_, produced := f.staged(6)
	batchID := produced.CookedBatches[0].ID

	tests := []struct {
		name   string
		failed []domain.FailedItem
	}{
		{"product not in batch", []domain.FailedItem{{ProductID: "cake", Quantity: 1}}},
		{"more than packed", []domain.FailedItem{{ProductID: "bun", Quantity: 6}}},
		{"split lines exceed packed", []domain.FailedItem{{ProductID: "bun", Quantity: 3}, {ProductID: "bun", Quantity: 3}}},
		{"zero quantity", []domain.FailedItem{{ProductID: "bun", Quantity: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.cookedQC(batchID, domain.QCFail, tt.failed...)
			wantError(t, err, domain.ErrValidation, domain.CodeInvalidValue)
		})
	}

	result, err := f.cookedQC(batchID, domain.QCFail, domain.FailedItem{ProductID: "bun", Quantity: 2, Reason: "burnt"})
	if err != nil {
		t.Fatal(err)
	}
	if got := result.Batch.FailedItems; len(got) != 1 || got[0].Quantity != 2 {
		t.Errorf("failed items = %+v", got)
	}
}

func TestCookedQCRejects(t *testing.T) {
	f := newFixture(t)
	order, produced := f.staged(6)
	first, second := produced.CookedBatches[0].ID, produced.CookedBatches[1].ID
	if _, err := f.cookedQC(first, domain.QCPass); err != nil {
		t.Fatal(err)
	}

	_, err := f.cookedQC(first, domain.QCFail)
	wantError(t, err, domain.ErrConflict, domain.CodeQCAlreadyProcessed)

	_, err = f.cookedQC("missing", domain.QCPass)
	wantError(t, err, domain.ErrNotFound, domain.CodeBatchNotFound)

	_, err = f.cookedQC(second, "MAYBE")
	wantError(t, err, domain.ErrValidation, domain.CodeQCInvalidResult)

	f.move(admin, order.ID, domain.OrderDispatched)
	_, err = f.cookedQC(second, domain.QCPass)
	wantError(t, err, domain.ErrConflict, domain.OrderDispatched.Code())
}

// failedBatch stages an order of qty buns for storeOne and fails its first
// cooked batch.
func (f *fixture) failedBatch(qty int) *domain.CookedBatch {
	f.t.Helper()
	_, produced := f.staged(qty)
	result, err := f.cookedQC(produced.CookedBatches[0].ID, domain.QCFail)
	if err != nil {
		f.t.Fatalf("fail cooked batch: %v", err)
	}
	return result.Batch
}

func (f *fixture) stockStore(staffID, productID string, qty int, expires time.Time) {
	f.t.Helper()
	err := f.store.WithinTx(f.ctx, func(ctx context.Context, repos domain.Repositories) error {
		return repos.StoreInventory.Create(ctx, &domain.StoreInventory{
			ID: domain.NewID(), StoreStaffID: staffID, ProductID: productID,
			Quantity: qty, ExpirationDate: &expires, LastUpdated: f.now,
		})
	})
	if err != nil {
		f.t.Fatalf("stock store: %v", err)
	}
}

func (f *fixture) transfer(batchID string, qty int, from string) (*command.RiskPoolTransferResult, error) {
	return command.NewRiskPoolTransferHandler(f.deps).Handle(f.ctx, command.RiskPoolTransferCommand{
		Actor:            manager,
		BatchID:          batchID,
		ProductID:        "bun",
		Quantity:         qty,
		FromStoreStaffID: from,
		Reason:           "cover failed batch",
	})
}

func TestRiskPoolTransfer(t *testing.T) {
	f := newFixture(t)
	batch := f.failedBatch(6)
	f.stockStore(staffTwo, "bun", 10, f.now.Add(48*time.Hour))
	f.deps.Policy.CreditRate = dec("0.8")

	result, err := f.transfer(batch.ID, 3, staffTwo)
	if err != nil {
		t.Fatal(err)
	}

	// 10 per bun * 3 * 0.8
	if !result.Credit.Amount.Equal(dec("24")) || !result.Transfer.CreditAwarded.Equal(dec("24")) {
		t.Errorf("credit = %s, want 24", result.Credit.Amount)
	}
	if result.Credit.StoreStaffID != staffTwo || result.Credit.Source != domain.CreditFromRiskPool {
		t.Errorf("unexpected credit %+v", result.Credit)
	}
	if result.Credit.BatchID == nil || *result.Credit.BatchID != batch.ID {
		t.Errorf("credit not linked to batch: %+v", result.Credit)
	}
	if got := f.storeStock(staffTwo, "bun"); got != 7 {
		t.Errorf("donor stock = %d, want 7", got)
	}
	transfers, _ := f.repos().Credits.ListTransfers(f.ctx)
	if len(transfers) != 1 || transfers[0].CreditID != result.Credit.ID {
		t.Errorf("unexpected transfers %+v", transfers)
	}
	if !hasEvent(f.events, domain.EventRiskPoolTransferred) {
		t.Errorf("risk_pool.transferred not published")
	}

	// five failed, three covered
	_, err = f.transfer(batch.ID, 3, staffTwo)
	wantError(t, err, domain.ErrBusinessRule, domain.CodeInvalidValue)
	if _, err := f.transfer(batch.ID, 2, staffTwo); err != nil {
		t.Fatalf("covering the remainder: %v", err)
	}
}

func TestRiskPoolTransferRejects(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture) string
		qty   int
		from  string
		kind  error
		code  domain.Code
	}{
		{
			name: "batch passed QC",
			setup: func(f *fixture) string {
				_, produced := f.staged(2)
				id := produced.CookedBatches[0].ID
				if _, err := f.cookedQC(id, domain.QCPass); err != nil {
					f.t.Fatal(err)
				}
				f.stockStore(staffTwo, "bun", 10, f.now.Add(time.Hour))
				return id
			},
			qty: 1, from: staffTwo,
			kind: domain.ErrConflict, code: domain.CodeBatchNotFailed,
		},
		{
			name: "expired donor stock",
			setup: func(f *fixture) string {
				f.stockStore(staffTwo, "bun", 10, f.now)
				return f.failedBatch(2).ID
			},
			qty: 1, from: staffTwo,
			kind: domain.ErrBusinessRule, code: domain.CodeInventoryInsufficient,
		},
		{
			name: "donor short of stock",
			setup: func(f *fixture) string {
				f.stockStore(staffTwo, "bun", 1, f.now.Add(time.Hour))
				return f.failedBatch(6).ID
			},
			qty: 2, from: staffTwo,
			kind: domain.ErrBusinessRule, code: domain.CodeInventoryInsufficient,
		},
		{
			name: "donor holds none",
			setup: func(f *fixture) string {
				return f.failedBatch(2).ID
			},
			qty: 1, from: staffTwo,
			kind: domain.ErrNotFound, code: domain.CodeInventoryNotFound,
		},
		{
			name: "unknown donor",
			setup: func(f *fixture) string {
				return f.failedBatch(2).ID
			},
			qty: 1, from: "staff-9",
			kind: domain.ErrNotFound, code: domain.CodeNotFound,
		},
		{
			name: "unknown batch",
			setup: func(f *fixture) string {
				return "missing"
			},
			qty: 1, from: staffTwo,
			kind: domain.ErrNotFound, code: domain.CodeBatchNotFound,
		},
		{
			name: "non-positive quantity",
			setup: func(f *fixture) string {
				return f.failedBatch(2).ID
			},
			qty: 0, from: staffTwo,
			kind: domain.ErrValidation, code: domain.CodeInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			batchID := tt.setup(f)

			_, err := f.transfer(batchID, tt.qty, tt.from)
			wantError(t, err, tt.kind, tt.code)

			credits, _ := f.repos().Credits.ListByStore(f.ctx, staffTwo)
			if len(credits) != 0 {
				t.Errorf("credit issued on a rejected transfer: %+v", credits)
			}
		})
	}
}
