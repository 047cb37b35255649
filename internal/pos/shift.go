package pos

import (
	"context"
	"fmt"
	"strings"
)

// CreditAssignment names the customer owing a still-open order when the day
// is closed with unpaid orders.
type CreditAssignment struct {
	OrderID      int64  `json:"orderId"`
	CustomerName string `json:"customerName"`
}

// ActiveShift returns the currently open shift, if any.
func (s *Session) ActiveShift() (ShiftReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh := s.activeShift()
	if sh == nil {
		return ShiftReport{}, false
	}
	return *sh, true
}

// OpenDay starts a new shift with a counted opening drawer balance. Only one
// shift can be open at a time.
func (s *Session) OpenDay(ctx context.Context, openingBalance float64) (ShiftReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeShift() != nil {
		return ShiftReport{}, ErrShiftAlreadyOpen
	}
	if openingBalance < 0 {
		return ShiftReport{}, ErrInvalidAmount
	}
	now := s.clock.Now()
	shift := ShiftReport{
		ID:             fmt.Sprintf("shift-%d", now.UnixMilli()),
		DayOpened:      now,
		Status:         ShiftOpen,
		OpeningBalance: openingBalance,
	}
	s.state.Shifts = append(s.state.Shifts, shift)
	if err := s.store.SaveShifts(ctx, s.state.Shifts); err != nil {
		s.state.Shifts = s.state.Shifts[:len(s.state.Shifts)-1]
		return ShiftReport{}, err
	}
	return shift, nil
}

// CloseDay freezes the open shift's final figures. It refuses while any order
// is still open; the caller must settle or defer those first.
func (s *Session) CloseDay(ctx context.Context) (ShiftReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeDayLocked(ctx)
}

func (s *Session) closeDayLocked(ctx context.Context) (ShiftReport, error) {
	shift := s.activeShift()
	if shift == nil {
		return ShiftReport{}, ErrNoOpenShift
	}
	if open := s.openOrders(); len(open) > 0 {
		return ShiftReport{}, &OpenOrdersError{Orders: open}
	}

	now := s.clock.Now()
	revenue := shift.CashSales + shift.CardSales +
		shift.ManualIncomeCash + shift.ManualIncomeCard
	tax := shift.TotalTax
	cashSales := shift.CashSales
	manualCash := shift.ManualIncomeCash
	drawer := shift.OpeningBalance + cashSales + manualCash

	shift.Status = ShiftClosed
	shift.DayClosed = &now
	shift.FinalTotalRevenue = &revenue
	shift.FinalTotalTax = &tax
	shift.FinalCashSales = &cashSales
	shift.FinalManualInCash = &manualCash
	shift.FinalCashDrawer = &drawer

	if err := s.store.SaveShifts(ctx, s.state.Shifts); err != nil {
		return ShiftReport{}, err
	}
	return *shift, nil
}

// DeferToCredit marks still-open orders as owed by named customers. Every
// assignment needs a non-empty customer name.
func (s *Session) DeferToCredit(ctx context.Context, assignments []CreditAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deferToCreditLocked(ctx, assignments)
}

func (s *Session) deferToCreditLocked(ctx context.Context, assignments []CreditAssignment) error {
	for _, a := range assignments {
		if strings.TrimSpace(a.CustomerName) == "" {
			return ErrCustomerNameRequired
		}
		order := s.findOrder(a.OrderID)
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status.Terminal() {
			return ErrOrderFinalized
		}
	}
	for _, a := range assignments {
		order := s.findOrder(a.OrderID)
		order.Status = StatusOnCredit
		order.CustomerName = strings.TrimSpace(a.CustomerName)
	}
	return s.store.SaveOrders(ctx, s.state.Orders)
}

// CreditAndClose defers the given open orders to credit and then closes the
// day in one operation, the normal path when leftovers block a close.
func (s *Session) CreditAndClose(ctx context.Context, assignments []CreditAssignment) (ShiftReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deferToCreditLocked(ctx, assignments); err != nil {
		return ShiftReport{}, err
	}
	return s.closeDayLocked(ctx)
}

// RecordManualIncome books income that did not come from an order (bottle
// deposits, event fees). The amount is tax inclusive, same as menu prices.
func (s *Session) RecordManualIncome(ctx context.Context, amount float64, description string, method PaymentMethod) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift := s.activeShift()
	if shift == nil {
		return Transaction{}, ErrNoOpenShift
	}
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	tax := amount - amount/(1+s.taxRate)
	switch method {
	case PayCash:
		shift.ManualIncomeCash += amount
	case PayCard:
		shift.ManualIncomeCard += amount
	default:
		return Transaction{}, fmt.Errorf("unknown payment method %q", method)
	}
	shift.TotalTax += tax

	now := s.clock.Now()
	tx := Transaction{
		ID:            fmt.Sprintf("tx-manual-%d", now.UnixMilli()),
		Type:          TxManual,
		Amount:        amount,
		Tax:           tax,
		PaymentMethod: method,
		Description:   description,
		Timestamp:     now,
		ShiftID:       shift.ID,
	}
	s.state.Transactions = append(s.state.Transactions, tx)

	if err := s.store.SaveTransactions(ctx, s.state.Transactions); err != nil {
		return Transaction{}, err
	}
	if err := s.store.SaveShifts(ctx, s.state.Shifts); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// SettleCredit collects payment for an order previously deferred to credit.
// The sale lands on the shift open at settlement time, not the shift the
// order was created in. The returned bool says whether to open the drawer.
func (s *Session) SettleCredit(ctx context.Context, orderID int64, method PaymentMethod) (Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.findOrder(orderID)
	if order == nil {
		return Order{}, false, ErrOrderNotFound
	}
	if order.Status != StatusOnCredit {
		return Order{}, false, ErrOrderNotOnCredit
	}

	details := PaymentDetails{Method: PaymentKind(method), Amount: order.Total}
	order.Status = StatusPaid
	order.PaymentDetails = &details

	desc := fmt.Sprintf("Credit settled: Order #%d (%s)", order.ID, order.CustomerName)
	if err := s.recordSaleLocked(ctx, *order, details, desc, fmt.Sprintf("tx-settle-%d", order.ID)); err != nil {
		return Order{}, false, err
	}
	if err := s.store.SaveOrders(ctx, s.state.Orders); err != nil {
		return Order{}, false, err
	}
	return *order, method == PayCash, nil
}

// LogDrawerOpen books a zero-amount manual transaction as an audit trail for
// a no-sale drawer open. Outside a shift there is nothing to book against.
func (s *Session) LogDrawerOpen(ctx context.Context, actorName string) (Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift := s.activeShift()
	if shift == nil {
		return Transaction{}, false, nil
	}
	now := s.clock.Now()
	tx := Transaction{
		ID:            fmt.Sprintf("tx-drawer-%d", now.UnixMilli()),
		Type:          TxManual,
		Amount:        0,
		Tax:           0,
		PaymentMethod: PayCash,
		Description:   fmt.Sprintf("Cash Drawer Opened by %s", actorName),
		Timestamp:     now,
		ShiftID:       shift.ID,
	}
	s.state.Transactions = append(s.state.Transactions, tx)
	if err := s.store.SaveTransactions(ctx, s.state.Transactions); err != nil {
		return Transaction{}, false, err
	}
	return tx, true, nil
}

// recordSaleLocked books a sale transaction and rolls its cash/card portions
// and tax into the open shift. With no shift open the order still finalizes
// but nothing is booked. Callers hold the mutex.
func (s *Session) recordSaleLocked(ctx context.Context, order Order, details PaymentDetails, description, txID string) error {
	shift := s.activeShift()
	if shift == nil {
		return nil
	}

	cash, card := details.CashCard(order.Total)
	shift.CashSales += cash
	shift.CardSales += card
	shift.TotalTax += order.Tax

	tx := Transaction{
		ID:            txID,
		Type:          TxSale,
		OrderID:       order.ID,
		Amount:        order.Total,
		Tax:           order.Tax,
		PaymentMethod: details.LedgerMethod(),
		Description:   description,
		Timestamp:     s.clock.Now(),
		ShiftID:       shift.ID,
	}
	s.state.Transactions = append(s.state.Transactions, tx)

	if err := s.store.SaveTransactions(ctx, s.state.Transactions); err != nil {
		return err
	}
	return s.store.SaveShifts(ctx, s.state.Shifts)
}

func (s *Session) activeShift() *ShiftReport {
	for i := range s.state.Shifts {
		if s.state.Shifts[i].Status == ShiftOpen {
			return &s.state.Shifts[i]
		}
	}
	return nil
}

// openOrders lists placed orders not yet in a terminal state.
func (s *Session) openOrders() []Order {
	var out []Order
	for _, o := range s.state.Orders {
		if !o.Status.Terminal() {
			out = append(out, o)
		}
	}
	return out
}
