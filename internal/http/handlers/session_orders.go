package handlers

import (
	"net/http"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/auth"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/middleware"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
	"github.com/boutiabderrahim-hash/shisha23mm/pkg/response"
)

type startOrderPayload struct {
	TableNumber int    `json:"tableNumber"`
	Area        string `json:"area"`
}

func (h *Handler) StartOrder(w http.ResponseWriter, r *http.Request) {
	authCtx, _ := middleware.GetAuthContext(r.Context())
	var payload startOrderPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := h.Session.StartOrder(authCtx.WaiterID, payload.TableNumber, payload.Area); err != nil {
		writeEngineError(w, err)
		return
	}
	view, _ := h.Session.CurrentOrder()
	response.Success(w, view)
}

func (h *Handler) CurrentOrder(w http.ResponseWriter, r *http.Request) {
	view, ok := h.Session.CurrentOrder()
	if !ok {
		writeEngineError(w, pos.ErrNoActiveOrder)
		return
	}
	response.Success(w, view)
}

func (h *Handler) EditOrder(w http.ResponseWriter, r *http.Request) {
	authCtx, _ := middleware.GetAuthContext(r.Context())
	orderID, err := readPathInt64(r, "orderID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ORDER_ID", "Order id must be numeric")
		return
	}
	if err := h.Session.EditOrder(authCtx.WaiterID, orderID); err != nil {
		writeEngineError(w, err)
		return
	}
	view, _ := h.Session.CurrentOrder()
	response.Success(w, view)
}

type addItemPayload struct {
	MenuItemID    string                 `json:"menuItemId"`
	Customization *pos.LineCustomization `json:"customization,omitempty"`
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload addItemPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	line, err := h.Session.AddItem(r.Context(), payload.MenuItemID, payload.Customization)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.notify()
	view, _ := h.Session.CurrentOrder()
	response.Success(w, map[string]any{"line": line, "order": view})
}

type quantityPayload struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	lineID := readPathString(r, "lineID")
	var payload quantityPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := h.Session.UpdateQuantity(r.Context(), lineID, payload.Quantity); err != nil {
		writeEngineError(w, err)
		return
	}
	h.notify()
	view, _ := h.Session.CurrentOrder()
	response.Success(w, view)
}

func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	lineID := readPathString(r, "lineID")
	if err := h.Session.RemoveLine(r.Context(), lineID); err != nil {
		writeEngineError(w, err)
		return
	}
	h.notify()
	view, _ := h.Session.CurrentOrder()
	response.Success(w, view)
}

type discountPayload struct {
	Percent float64 `json:"percent"`
}

func (h *Handler) SetLineDiscount(w http.ResponseWriter, r *http.Request) {
	lineID := readPathString(r, "lineID")
	var payload discountPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := h.Session.SetLineDiscount(lineID, payload.Percent); err != nil {
		writeEngineError(w, err)
		return
	}
	view, _ := h.Session.CurrentOrder()
	response.Success(w, view)
}

type pricePayload struct {
	Price float64 `json:"price"`
	PIN   string  `json:"pin"`
}

// SetLinePrice overrides a unit price. The override must be countersigned
// with a manager or admin PIN, whoever is logged in.
func (h *Handler) SetLinePrice(w http.ResponseWriter, r *http.Request) {
	lineID := readPathString(r, "lineID")
	var payload pricePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if _, ok := auth.AuthorizePIN(h.Session.Waiters(), payload.PIN, pos.RoleManager); !ok {
		response.Error(w, http.StatusForbidden, "PIN_REQUIRED", "A manager PIN is required to change prices")
		return
	}
	if err := h.Session.SetLinePrice(lineID, payload.Price); err != nil {
		writeEngineError(w, err)
		return
	}
	view, _ := h.Session.CurrentOrder()
	response.Success(w, view)
}

type notesPayload struct {
	Notes string `json:"notes"`
}

func (h *Handler) SetOrderNotes(w http.ResponseWriter, r *http.Request) {
	var payload notesPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := h.Session.SetOrderNotes(payload.Notes); err != nil {
		writeEngineError(w, err)
		return
	}
	view, _ := h.Session.CurrentOrder()
	response.Success(w, view)
}

// HoldOrder places the in-progress order into the kitchen queue.
func (h *Handler) HoldOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Session.HoldOrder(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.Events.OrderPlaced(r.Context(), order)
	h.notify()
	response.Success(w, order)
}

func (h *Handler) CancelCurrentOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.CancelOrder(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}
	h.notify()
	response.Success(w, map[string]any{"cancelled": true})
}

// SaveDraft parks the in-progress order without sending it to the kitchen.
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	held, err := h.Session.SaveDraft(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	response.Success(w, held)
}

func (h *Handler) HeldOrders(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.Session.HeldOrders())
}

func (h *Handler) ResumeHeld(w http.ResponseWriter, r *http.Request) {
	authCtx, _ := middleware.GetAuthContext(r.Context())
	heldID := readPathString(r, "heldID")
	if err := h.Session.ResumeHeld(r.Context(), authCtx.WaiterID, heldID); err != nil {
		writeEngineError(w, err)
		return
	}
	view, _ := h.Session.CurrentOrder()
	response.Success(w, view)
}

func (h *Handler) DiscardHeld(w http.ResponseWriter, r *http.Request) {
	heldID := readPathString(r, "heldID")
	if err := h.Session.DiscardHeld(r.Context(), heldID); err != nil {
		writeEngineError(w, err)
		return
	}
	h.notify()
	response.Success(w, map[string]any{"discarded": true})
}
