package pos

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoActiveOrder     = errors.New("no order in progress")
	ErrOrderInProgress   = errors.New("an order is already in progress")
	ErrLineNotFound      = errors.New("order line not found")
	ErrMenuItemNotFound  = errors.New("menu item not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrHeldOrderNotFound = errors.New("held order not found")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrQuantityTooLow    = errors.New("quantity must be at least 1")
	ErrInvalidPrice      = errors.New("price must not be negative")
	ErrInvalidAmount     = errors.New("amount must be positive")

	ErrOrderFinalized       = errors.New("order is in a terminal state")
	ErrOrderNotOnCredit     = errors.New("order is not on credit")
	ErrCustomerNameRequired = errors.New("customer name is required for credit")

	ErrNoPaymentInProgress = errors.New("no payment in progress")
	ErrNotSplitPayment     = errors.New("payment is not in split mode")
	ErrPartialTooLarge     = errors.New("partial payment exceeds remaining balance")
	ErrPaymentIncomplete   = errors.New("split payment has a remaining balance")

	ErrShiftAlreadyOpen = errors.New("a shift is already open")
	ErrNoOpenShift      = errors.New("no shift is open")
)

// InsufficientStockError aborts the triggering operation with no partial
// mutation. It carries what the operator needs to see: the item and how much
// is actually left.
type InsufficientStockError struct {
	ItemName  string
	Available float64
	Unit      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: %.2f %s available", e.ItemName, e.Available, e.Unit)
}

// OpenOrdersError blocks closeDay while the active shift still has orders
// outside {paid, cancelled, on_credit}. The caller defers them to credit and
// retries.
type OpenOrdersError struct {
	Orders []Order
}

func (e *OpenOrdersError) Error() string {
	ids := make([]string, 0, len(e.Orders))
	for _, o := range e.Orders {
		ids = append(ids, fmt.Sprintf("#%d", o.ID))
	}
	return fmt.Sprintf("%d open order(s) must be settled or deferred to credit before closing: %s",
		len(e.Orders), strings.Join(ids, ", "))
}
