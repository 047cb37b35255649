package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/receipt"
	"github.com/boutiabderrahim-hash/shisha23mm/pkg/response"
)

// OrderReceiptPDF renders the printable receipt for an order. Works for open
// orders too (pro-forma bill).
func (h *Handler) OrderReceiptPDF(w http.ResponseWriter, r *http.Request) {
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

	waiterName := ""
	if waiter, ok := h.Session.Waiter(order.WaiterID); ok {
		waiterName = waiter.Name
	}

	buf, err := receipt.Render(order, h.Session.Profile(), waiterName)
	if err != nil {
		h.Logger.Error("receipt render failed", zap.Int64("orderId", orderID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=receipt-%d.pdf", orderID))
	_, _ = w.Write(buf.Bytes())
}
