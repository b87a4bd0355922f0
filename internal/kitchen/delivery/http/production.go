package http

import (
	"net/http"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/query"
)

type planningRequest struct {
	TargetDate string `json:"target_date"`
}

type rawQCRequest struct {
	Result domain.QCStatus `json:"result"`
	Notes  string          `json:"notes"`
	Reason string          `json:"reason"`
}

type cookedQCRequest struct {
	Result      domain.QCStatus     `json:"result"`
	Notes       string              `json:"notes"`
	FailedItems []domain.FailedItem `json:"failed_items"`
}

type transferRequest struct {
	BatchID          string `json:"batch_id"`
	ProductID        string `json:"product_id"`
	Quantity         int    `json:"quantity"`
	FromStoreStaffID string `json:"from_store_staff_id"`
	Reason           string `json:"reason"`
}

// RunPlanning handles POST /api/planning/run. An empty body plans tomorrow.
func (h *Handler) RunPlanning(w http.ResponseWriter, r *http.Request) {
	var req planningRequest
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			respondError(w, r, err, nil)
			return
		}
	}

	cmd := command.PlanMaterialsCommand{Trigger: command.TriggerManual, Actor: actor(r)}
	if req.TargetDate != "" {
		date, err := domain.ParseDate(req.TargetDate, h.loc)
		if err != nil {
			respondError(w, r, domain.Validation(domain.CodeInvalidFormat, "invalid target_date %q", req.TargetDate), nil)
			return
		}
		cmd.TargetDate = &date
	}

	result, err := h.commands.PlanMaterials.Handle(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, domain.CodeBatchCreated, "Material planning completed", result)
}

// ListPendingRawQC handles GET /api/raw-qc/pending
func (h *Handler) ListPendingRawQC(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r, "batch_date")
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	batches, err := h.queries.ListRawBatches.Handle(r.Context(), query.ListRawBatchesQuery{
		Status:    domain.QCPending,
		BatchDate: date,
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, domain.CodeBatchPendingQC, "", batches)
}

// RawQC handles POST /api/raw-qc/{batchID}
func (h *Handler) RawQC(w http.ResponseWriter, r *http.Request) {
	var req rawQCRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	result, err := h.commands.RawQC.Handle(r.Context(), command.RawQCCommand{
		Actor:   actor(r),
		BatchID: pathVar(r, "batchID"),
		Result:  req.Result,
		Notes:   req.Notes,
		Reason:  req.Reason,
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, result.Code, "Raw QC recorded", result)
}

// ListRawBatches handles GET /api/raw-batches
func (h *Handler) ListRawBatches(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r, "batch_date")
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	params := r.URL.Query()
	batches, err := h.queries.ListRawBatches.Handle(r.Context(), query.ListRawBatchesQuery{
		Status:     domain.QCStatus(params.Get("status")),
		BatchDate:  date,
		SupplierID: params.Get("supplier_id"),
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", batches)
}

// GetRawBatch handles GET /api/raw-batches/{id}
func (h *Handler) GetRawBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := h.queries.GetRawBatch.Handle(r.Context(), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", batch)
}

// ListWaste handles GET /api/waste
func (h *Handler) ListWaste(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r, "date")
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	waste, err := h.queries.ListWaste.Handle(r.Context(), date)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", waste)
}

// ListPendingCookedQC handles GET /api/cooked-qc/pending
func (h *Handler) ListPendingCookedQC(w http.ResponseWriter, r *http.Request) {
	pending, err := h.queries.ListPendingCookedQC.Handle(r.Context())
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, domain.CodeBatchPendingQC, "", pending)
}

// CookedQC handles POST /api/cooked-qc/{batchID}
func (h *Handler) CookedQC(w http.ResponseWriter, r *http.Request) {
	var req cookedQCRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	result, err := h.commands.CookedQC.Handle(r.Context(), command.CookedQCCommand{
		Actor:       actor(r),
		BatchID:     pathVar(r, "batchID"),
		Result:      req.Result,
		Notes:       req.Notes,
		FailedItems: req.FailedItems,
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, result.Code, "Cooked QC recorded", result)
}

// GetCookedBatch handles GET /api/cooked-batches/{id}
func (h *Handler) GetCookedBatch(w http.ResponseWriter, r *http.Request) {
	details, err := h.queries.GetCookedBatch.Handle(r.Context(), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", details)
}

// SearchRiskPool handles GET /api/risk-pool/search
func (h *Handler) SearchRiskPool(w http.ResponseWriter, r *http.Request) {
	quantity, err := intParam(r, "quantity")
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	params := r.URL.Query()
	result, err := h.queries.SearchRiskPool.Handle(r.Context(), query.SearchRiskPoolQuery{
		ProductID:           params.Get("product_id"),
		Quantity:            quantity,
		ExcludeStoreStaffID: params.Get("exclude_store_staff_id"),
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", result)
}

// RiskPoolTransfer handles POST /api/risk-pool/transfer
func (h *Handler) RiskPoolTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	result, err := h.commands.RiskPool.Handle(r.Context(), command.RiskPoolTransferCommand{
		Actor:            actor(r),
		BatchID:          req.BatchID,
		ProductID:        req.ProductID,
		Quantity:         req.Quantity,
		FromStoreStaffID: req.FromStoreStaffID,
		Reason:           req.Reason,
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusCreated, domain.CodeCreditOK, "Risk pool transfer completed", result)
}

// ListTransfers handles GET /api/risk-pool/transfers
func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.queries.ListTransfers.Handle(r.Context())
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", transfers)
}

// StoreInventory handles GET /api/inventory/store
func (h *Handler) StoreInventory(w http.ResponseWriter, r *http.Request) {
	lines, err := h.queries.StoreInventory.Handle(r.Context(), query.StoreInventoryQuery{
		Actor:        actor(r),
		StoreStaffID: r.URL.Query().Get("store_staff_id"),
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", lines)
}

// KitchenInventory handles GET /api/inventory/kitchen
func (h *Handler) KitchenInventory(w http.ResponseWriter, r *http.Request) {
	lines, err := h.queries.KitchenInventory.Handle(r.Context())
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", lines)
}
