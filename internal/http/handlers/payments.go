package handlers

import (
	"net/http"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/middleware"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
	"github.com/boutiabderrahim-hash/shisha23mm/pkg/response"
)

type beginPaymentPayload struct {
	OrderID  *int64  `json:"orderId,omitempty"` // nil pays the in-progress order
	Discount float64 `json:"discount"`
}

func (h *Handler) BeginPayment(w http.ResponseWriter, r *http.Request) {
	var payload beginPaymentPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	view, err := h.Session.BeginPayment(payload.OrderID, payload.Discount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	response.Success(w, view)
}

func (h *Handler) PaymentState(w http.ResponseWriter, r *http.Request) {
	view, err := h.Session.PaymentState()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	response.Success(w, view)
}

type paymentDiscountPayload struct {
	Amount float64 `json:"amount"`
}

func (h *Handler) SetPaymentDiscount(w http.ResponseWriter, r *http.Request) {
	var payload paymentDiscountPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	view, err := h.Session.SetPaymentDiscount(payload.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	response.Success(w, view)
}

type splitModePayload struct {
	Split bool `json:"split"`
}

func (h *Handler) SetSplitMode(w http.ResponseWriter, r *http.Request) {
	var payload splitModePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	view, err := h.Session.SetSplitMode(payload.Split)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	response.Success(w, view)
}

type partialPaymentPayload struct {
	Method pos.PaymentMethod `json:"method"`
	Amount float64           `json:"amount"`
}

func (h *Handler) AddPartialPayment(w http.ResponseWriter, r *http.Request) {
	var payload partialPaymentPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	view, err := h.Session.AddPartialPayment(payload.Method, payload.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	response.Success(w, view)
}

type removePartialPayload struct {
	Index int `json:"index"`
}

func (h *Handler) RemovePartialPayment(w http.ResponseWriter, r *http.Request) {
	var payload removePartialPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	view, err := h.Session.RemovePartialPayment(payload.Index)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	response.Success(w, view)
}

type quickSplitPayload struct {
	Parts int `json:"parts"`
}

func (h *Handler) QuickSplit(w http.ResponseWriter, r *http.Request) {
	var payload quickSplitPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	view, err := h.Session.QuickSplit(payload.Parts)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	response.Success(w, view)
}

type confirmFullPayload struct {
	Method   pos.PaymentMethod `json:"method"`
	Received float64           `json:"received"`
}

func (h *Handler) ConfirmFullPayment(w http.ResponseWriter, r *http.Request) {
	var payload confirmFullPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	order, change, drawer, err := h.Session.ConfirmFullPayment(r.Context(), payload.Method, payload.Received)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.afterSettlement(r, order, drawer, "sale")
	response.Success(w, map[string]any{
		"order":      order,
		"change":     change,
		"openDrawer": drawer,
	})
}

func (h *Handler) ConfirmSplitPayment(w http.ResponseWriter, r *http.Request) {
	order, drawer, err := h.Session.ConfirmSplitPayment(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.afterSettlement(r, order, drawer, "sale")
	response.Success(w, map[string]any{
		"order":      order,
		"openDrawer": drawer,
	})
}

func (h *Handler) afterSettlement(r *http.Request, order pos.Order, drawer bool, reason string) {
	ctx := r.Context()
	h.Events.OrderPaid(ctx, order)
	if drawer {
		actor := ""
		if authCtx, ok := middleware.GetAuthContext(ctx); ok {
			actor = authCtx.Name
		}
		h.Events.DrawerOpened(ctx, actor, reason)
	}
	h.notify()
}
