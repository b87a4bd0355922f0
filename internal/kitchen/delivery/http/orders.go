package http

import (
	"net/http"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/query"
	"github.com/tair/central-kitchen/pkg/logger"
)

type createOrderRequest struct {
	DeliveryDate string              `json:"delivery_date"`
	Items        []command.OrderLine `json:"items"`
	Notes        string              `json:"notes"`
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
	Notes  string             `json:"notes"`
}

// CreateOrder handles POST /api/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	order, err := h.commands.CreateOrder.Handle(r.Context(), command.CreateOrderCommand{
		Actor:        actor(r),
		DeliveryDate: req.DeliveryDate,
		Items:        req.Items,
		Notes:        req.Notes,
	})
	if err != nil {
		if order != nil {
			// past the cut-off the cancelled order is still returned
			respondError(w, r, err, order)
			return
		}
		respondError(w, r, err, nil)
		return
	}

	logger.Info(r.Context()).
		Str("order_id", order.ID).
		Str("store_staff_id", order.StoreStaffID).
		Msg("Order created via HTTP")
	respondOK(w, http.StatusCreated, order.Status.Code(), "Order created", order)
}

// ListMyOrders handles GET /api/orders/my
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r)
}

// ListOrders handles GET /api/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r, "delivery_date")
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	orders, err := h.queries.ListOrders.Handle(r.Context(), query.ListOrdersQuery{
		Actor:        actor(r),
		Status:       domain.OrderStatus(r.URL.Query().Get("status")),
		DeliveryDate: date,
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", orders)
}

// GetOrder handles GET /api/orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	details, err := h.queries.GetOrder.Handle(r.Context(), query.GetOrderQuery{
		Actor:   actor(r),
		OrderID: pathVar(r, "id"),
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, details.Order.Status.Code(), "", details)
}

// UpdateStatus handles PATCH /api/orders/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err, nil)
		return
	}

	result, err := h.commands.UpdateStatus.Handle(r.Context(), command.UpdateStatusCommand{
		Actor:   actor(r),
		OrderID: pathVar(r, "id"),
		Status:  req.Status,
		Notes:   req.Notes,
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, result.Order.Status.Code(), "Order status updated", result)
}

// ListConsumption handles GET /api/orders/{id}/consumption
func (h *Handler) ListConsumption(w http.ResponseWriter, r *http.Request) {
	records, err := h.queries.ListConsumption.Handle(r.Context(), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", records)
}

// ListCookedBatches handles GET /api/orders/{id}/cooked-batches
func (h *Handler) ListCookedBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.queries.ListCookedBatches.Handle(r.Context(), query.ListCookedBatchesQuery{
		Actor:   actor(r),
		OrderID: pathVar(r, "id"),
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", batches)
}

// ListOrderDisputes handles GET /api/orders/{id}/disputes
func (h *Handler) ListOrderDisputes(w http.ResponseWriter, r *http.Request) {
	disputes, err := h.queries.ListOrderDisputes.Handle(r.Context(), query.ListOrderDisputesQuery{
		Actor:   actor(r),
		OrderID: pathVar(r, "id"),
	})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	respondOK(w, http.StatusOK, "", "", disputes)
}
