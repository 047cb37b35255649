package handlers

import (
	"net/http"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
	"github.com/boutiabderrahim-hash/shisha23mm/pkg/response"
)

// Orders lists placed orders, optionally filtered by status.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	orders := h.Session.Orders()
	if status == "" {
		response.Success(w, orders)
		return
	}
	filtered := make([]pos.Order, 0, len(orders))
	for _, o := range orders {
		if string(o.Status) == status {
			filtered = append(filtered, o)
		}
	}
	response.Success(w, filtered)
}

func (h *Handler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	orderID, err := readPathInt64(r, "orderID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ORDER_ID", "Order id must be numeric")
		return
	}
	order, ok := h.Session.Order(orderID)
	if !ok {
		writeEngineError(w, pos.ErrOrderNotFound)
		return
	}
	response.Success(w, order)
}

type orderStatusPayload struct {
	Status pos.OrderStatus `json:"status"`
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := readPathInt64(r, "orderID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ORDER_ID", "Order id must be numeric")
		return
	}
	var payload orderStatusPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := h.Session.UpdateOrderStatus(r.Context(), orderID, payload.Status); err != nil {
		writeEngineError(w, err)
		return
	}
	h.Events.OrderStatusUpdated(r.Context(), orderID, payload.Status)
	h.notify()
	order, _ := h.Session.Order(orderID)
	response.Success(w, order)
}

// CancelPlacedOrder voids an unpaid order from the queue and restores its
// stock.
func (h *Handler) CancelPlacedOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := readPathInt64(r, "orderID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ORDER_ID", "Order id must be numeric")
		return
	}
	order, err := h.Session.CancelPlacedOrder(r.Context(), orderID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.Events.OrderStatusUpdated(r.Context(), orderID, order.Status)
	h.notify()
	response.Success(w, order)
}

func (h *Handler) CreditOrders(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.Session.CreditOrders())
}

type settleCreditPayload struct {
	Method pos.PaymentMethod `json:"method"`
}

// SettleCredit collects an outstanding credit order against the currently
// open shift.
func (h *Handler) SettleCredit(w http.ResponseWriter, r *http.Request) {
	orderID, err := readPathInt64(r, "orderID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ORDER_ID", "Order id must be numeric")
		return
	}
	var payload settleCreditPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	order, drawer, err := h.Session.SettleCredit(r.Context(), orderID, payload.Method)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.afterSettlement(r, order, drawer, "credit settlement")
	response.Success(w, map[string]any{
		"order":      order,
		"openDrawer": drawer,
	})
}
