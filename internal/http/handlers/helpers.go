package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
	"github.com/boutiabderrahim-hash/shisha23mm/pkg/response"
)

var errMissingParam = errors.New("missing param")

func readPathString(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	return strconv.ParseInt(value, 10, 64)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Request body is not valid JSON")
		return false
	}
	return true
}

// writeEngineError maps engine sentinels onto the response envelope. Anything
// unrecognized is a 500.
func writeEngineError(w http.ResponseWriter, err error) {
	var insufficient *pos.InsufficientStockError
	if errors.As(err, &insufficient) {
		response.JSON(w, http.StatusConflict, map[string]any{
			"success":   false,
			"error":     "INSUFFICIENT_STOCK",
			"message":   insufficient.Error(),
			"itemName":  insufficient.ItemName,
			"available": insufficient.Available,
			"unit":      insufficient.Unit,
		})
		return
	}
	var openOrders *pos.OpenOrdersError
	if errors.As(err, &openOrders) {
		response.JSON(w, http.StatusConflict, map[string]any{
			"success":    false,
			"error":      "OPEN_ORDERS",
			"message":    openOrders.Error(),
			"openOrders": openOrders.Orders,
		})
		return
	}

	code, status := engineErrorCode(err)
	if code == "" {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	response.Error(w, status, code, err.Error())
}

func engineErrorCode(err error) (string, int) {
	switch {
	case errors.Is(err, pos.ErrNoActiveOrder):
		return "NO_ACTIVE_ORDER", http.StatusConflict
	case errors.Is(err, pos.ErrOrderInProgress):
		return "ORDER_IN_PROGRESS", http.StatusConflict
	case errors.Is(err, pos.ErrLineNotFound):
		return "LINE_NOT_FOUND", http.StatusNotFound
	case errors.Is(err, pos.ErrMenuItemNotFound):
		return "MENU_ITEM_NOT_FOUND", http.StatusNotFound
	case errors.Is(err, pos.ErrOrderNotFound):
		return "ORDER_NOT_FOUND", http.StatusNotFound
	case errors.Is(err, pos.ErrHeldOrderNotFound):
		return "HELD_ORDER_NOT_FOUND", http.StatusNotFound
	case errors.Is(err, pos.ErrEmptyOrder):
		return "EMPTY_ORDER", http.StatusBadRequest
	case errors.Is(err, pos.ErrQuantityTooLow):
		return "QUANTITY_TOO_LOW", http.StatusBadRequest
	case errors.Is(err, pos.ErrInvalidPrice):
		return "INVALID_PRICE", http.StatusBadRequest
	case errors.Is(err, pos.ErrInvalidAmount):
		return "INVALID_AMOUNT", http.StatusBadRequest
	case errors.Is(err, pos.ErrOrderFinalized):
		return "ORDER_FINALIZED", http.StatusConflict
	case errors.Is(err, pos.ErrOrderNotOnCredit):
		return "ORDER_NOT_ON_CREDIT", http.StatusConflict
	case errors.Is(err, pos.ErrCustomerNameRequired):
		return "CUSTOMER_NAME_REQUIRED", http.StatusBadRequest
	case errors.Is(err, pos.ErrNoPaymentInProgress):
		return "NO_PAYMENT_IN_PROGRESS", http.StatusConflict
	case errors.Is(err, pos.ErrNotSplitPayment):
		return "NOT_SPLIT_PAYMENT", http.StatusConflict
	case errors.Is(err, pos.ErrPartialTooLarge):
		return "PARTIAL_TOO_LARGE", http.StatusBadRequest
	case errors.Is(err, pos.ErrPaymentIncomplete):
		return "PAYMENT_INCOMPLETE", http.StatusConflict
	case errors.Is(err, pos.ErrShiftAlreadyOpen):
		return "SHIFT_ALREADY_OPEN", http.StatusConflict
	case errors.Is(err, pos.ErrNoOpenShift):
		return "NO_OPEN_SHIFT", http.StatusConflict
	}
	return "", 0
}
