package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/query"
	"github.com/tair/central-kitchen/pkg/logger"
)

type registerRequest struct {
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FullName  string      `json:"full_name"`
	Role      domain.Role `json:"role"`
	StoreName string      `json:"store_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type fileDisputeRequest struct {
	OrderID string               `json:"order_id"`
	Items   []domain.DisputeItem `json:"items"`
	Reason  string               `json:"reason"`
}

type resolveDisputeRequest struct {
	Resolution domain.Resolution `json:"resolution"`
	Notes      string            `json:"notes"`
}

type useCreditRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	OrderID string          `json:"order_id"`
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	result, err := h.commands.Register.Handle(r.Context(), command.RegisterUserCommand{
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		Role:      req.Role,
		StoreName: req.StoreName,
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusCreated, domain.CodeAuthRegistered, "User registered", result)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	result, err := h.commands.Login.Handle(r.Context(), command.LoginUserCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		logger.Warn(r.Context()).Str("email", req.Email).Msg("Login rejected")
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, domain.CodeAuthSuccess, "Login successful", result)
}

// VerifyToken handles POST /api/auth/verify
func (h *Handler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	user, err := h.commands.VerifyToken.Handle(r.Context(), command.VerifyTokenCommand{Token: req.Token})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, domain.CodeAuthVerified, "Token is valid", user)
}

// FileDispute handles POST /api/disputes
func (h *Handler) FileDispute(w http.ResponseWriter, r *http.Request) {
	var req fileDisputeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	dispute, err := h.commands.FileDispute.Handle(r.Context(), command.FileDisputeCommand{
		Actor:   actor(r),
		OrderID: req.OrderID,
		Items:   req.Items,
		Reason:  req.Reason,
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusCreated, domain.CodeDisputeFiled, "Dispute filed", dispute)
}

// ListMyDisputes handles GET /api/disputes/my
func (h *Handler) ListMyDisputes(w http.ResponseWriter, r *http.Request) {
	h.listDisputes(w, r)
}

// ListDisputes handles GET /api/disputes
func (h *Handler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	h.listDisputes(w, r)
}

func (h *Handler) listDisputes(w http.ResponseWriter, r *http.Request) {
	disputes, err := h.queries.ListDisputes.Handle(r.Context(), query.ListDisputesQuery{
		Actor:  actor(r),
		Status: domain.DisputeStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", disputes)
}

// GetDispute handles GET /api/disputes/{id}
func (h *Handler) GetDispute(w http.ResponseWriter, r *http.Request) {
	dispute, err := h.queries.GetDispute.Handle(r.Context(), query.GetDisputeQuery{
		Actor:     actor(r),
		DisputeID: pathVar(r, "id"),
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", dispute)
}

// ResolveDispute handles POST /api/disputes/{id}/resolve
func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	var req resolveDisputeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	result, err := h.commands.ResolveDispute.Handle(r.Context(), command.ResolveDisputeCommand{
		Actor:      actor(r),
		DisputeID:  pathVar(r, "id"),
		Resolution: req.Resolution,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, result.Code, "Dispute resolved", result)
}

// ListMyCredits handles GET /api/credits/my
func (h *Handler) ListMyCredits(w http.ResponseWriter, r *http.Request) {
	h.listCredits(w, r)
}

// ListCredits handles GET /api/credits
func (h *Handler) ListCredits(w http.ResponseWriter, r *http.Request) {
	h.listCredits(w, r)
}

func (h *Handler) listCredits(w http.ResponseWriter, r *http.Request) {
	summary, err := h.queries.ListCredits.Handle(r.Context(), query.ListCreditsQuery{
		Actor:        actor(r),
		StoreStaffID: r.URL.Query().Get("store_staff_id"),
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, domain.CodeCreditOK, "", summary)
}

// UseCredit handles POST /api/credits/{id}/use
func (h *Handler) UseCredit(w http.ResponseWriter, r *http.Request) {
	var req useCreditRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	result, err := h.commands.UseCredit.Handle(r.Context(), command.UseCreditCommand{
		Actor:    actor(r),
		CreditID: pathVar(r, "id"),
		Amount:   req.Amount,
		OrderID:  req.OrderID,
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, result.Code, "Credit applied", result)
}

// ListCreditUsage handles GET /api/credits/{id}/usage
func (h *Handler) ListCreditUsage(w http.ResponseWriter, r *http.Request) {
	usages, err := h.queries.ListCreditUsage.Handle(r.Context(), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", usages)
}
