package handlers

import (
	"net/http"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
	"github.com/boutiabderrahim-hash/shisha23mm/pkg/response"
)

func (h *Handler) ActiveShift(w http.ResponseWriter, r *http.Request) {
	shift, ok := h.Session.ActiveShift()
	if !ok {
		response.Success(w, nil)
		return
	}
	response.Success(w, shift)
}

func (h *Handler) Shifts(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.Session.Shifts())
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.Session.Transactions())
}

type openDayPayload struct {
	OpeningBalance float64 `json:"openingBalance"`
}

func (h *Handler) OpenDay(w http.ResponseWriter, r *http.Request) {
	var payload openDayPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	shift, err := h.Session.OpenDay(r.Context(), payload.OpeningBalance)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.Events.ShiftOpened(r.Context(), shift)
	h.notify()
	response.Success(w, shift)
}

// CloseDay finalizes the shift. When open orders remain the engine refuses
// with the list; the client then retries through CreditAndClose.
func (h *Handler) CloseDay(w http.ResponseWriter, r *http.Request) {
	shift, err := h.Session.CloseDay(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.Events.ShiftClosed(r.Context(), shift)
	h.notify()
	response.Success(w, shift)
}

type creditAndClosePayload struct {
	Assignments []pos.CreditAssignment `json:"assignments"`
}

func (h *Handler) CreditAndClose(w http.ResponseWriter, r *http.Request) {
	var payload creditAndClosePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	shift, err := h.Session.CreditAndClose(r.Context(), payload.Assignments)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	for _, a := range payload.Assignments {
		if order, ok := h.Session.Order(a.OrderID); ok {
			h.Events.OrderCredited(r.Context(), order)
		}
	}
	h.Events.ShiftClosed(r.Context(), shift)
	h.notify()
	response.Success(w, shift)
}

// DeferCredit marks open orders as owed without closing the shift, for
// customers who leave mid-day and settle later.
func (h *Handler) DeferCredit(w http.ResponseWriter, r *http.Request) {
	var payload creditAndClosePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := h.Session.DeferToCredit(r.Context(), payload.Assignments); err != nil {
		writeEngineError(w, err)
		return
	}
	for _, a := range payload.Assignments {
		if order, ok := h.Session.Order(a.OrderID); ok {
			h.Events.OrderCredited(r.Context(), order)
		}
	}
	h.notify()
	response.Success(w, h.Session.CreditOrders())
}

type manualIncomePayload struct {
	Amount      float64           `json:"amount"`
	Description string            `json:"description"`
	Method      pos.PaymentMethod `json:"method"`
}

func (h *Handler) RecordManualIncome(w http.ResponseWriter, r *http.Request) {
	var payload manualIncomePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	tx, err := h.Session.RecordManualIncome(r.Context(), payload.Amount, payload.Description, payload.Method)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.notify()
	response.Success(w, tx)
}
