package pos

import (
	"context"
	"errors"
	"math"
	"testing"
)

// memStore records every collection write so tests can assert write-through
// persistence without a database.
type memStore struct {
	state State
	saves map[string]int
}

func newMemStore(state State) *memStore {
	return &memStore{state: state, saves: make(map[string]int)}
}

func (m *memStore) Load(ctx context.Context) (*State, error) {
	st := m.state
	return &st, nil
}

func (m *memStore) SaveOrders(ctx context.Context, orders []Order) error {
	m.state.Orders = append([]Order(nil), orders...)
	m.saves["orders"]++
	return nil
}

func (m *memStore) SaveHeldOrders(ctx context.Context, held []HeldOrder) error {
	m.state.HeldOrders = append([]HeldOrder(nil), held...)
	m.saves["heldOrders"]++
	return nil
}

func (m *memStore) SaveTransactions(ctx context.Context, txs []Transaction) error {
	m.state.Transactions = append([]Transaction(nil), txs...)
	m.saves["transactions"]++
	return nil
}

func (m *memStore) SaveShifts(ctx context.Context, shifts []ShiftReport) error {
	m.state.Shifts = append([]ShiftReport(nil), shifts...)
	m.saves["shifts"]++
	return nil
}

func (m *memStore) SaveInventory(ctx context.Context, items []InventoryItem) error {
	m.state.Inventory = append([]InventoryItem(nil), items...)
	m.saves["inventory"]++
	return nil
}

func testState() State {
	return State{
		Waiters: []Waiter{
			{ID: "w1", Name: "Aziz", Role: RoleWaiter},
			{ID: "w2", Name: "Karim", Role: RoleManager},
		},
		MenuItems: []MenuItem{menuShisha, menuCola},
		Inventory: testInventory(),
		Profile:   RestaurantProfile{Name: "Shisha 23mm"},
	}
}

func newTestSession(t *testing.T) (*Session, *memStore, *fakeClock) {
	t.Helper()
	store := newMemStore(testState())
	clock := newFakeClock()
	session, err := NewSession(context.Background(), store, 0.19, clock)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return session, store, clock
}

func TestSessionSingleActiveOrder(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	if err := s.StartOrder("w1", 4, "inside"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.StartOrder("w1", 5, "terrace"); !errors.Is(err, ErrOrderInProgress) {
		t.Fatalf("second start: %v", err)
	}
	if err := s.CancelOrder(ctx); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := s.StartOrder("w1", 5, "terrace"); err != nil {
		t.Fatalf("start after cancel: %v", err)
	}
}

func TestSessionAddItemPersistsInventory(t *testing.T) {
	s, store, _ := newTestSession(t)
	ctx := context.Background()

	s.StartOrder("w1", 4, "inside")
	if _, err := s.AddItem(ctx, "m-shisha", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if store.saves["inventory"] != 1 {
		t.Fatalf("inventory saves = %d, want 1", store.saves["inventory"])
	}
	var mint InventoryItem
	for _, it := range store.state.Inventory {
		if it.ID == "inv-mint" {
			mint = it
		}
	}
	if math.Abs(mint.Quantity-0.45) > 1e-9 {
		t.Fatalf("persisted mint = %v, want 0.45", mint.Quantity)
	}

	if _, err := s.AddItem(ctx, "m-ghost", nil); !errors.Is(err, ErrMenuItemNotFound) {
		t.Fatalf("unknown menu item: %v", err)
	}
}

func TestSessionHoldOrder(t *testing.T) {
	s, store, clock := newTestSession(t)
	ctx := context.Background()

	s.StartOrder("w1", 4, "inside")
	if _, err := s.HoldOrder(ctx); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("empty hold: %v", err)
	}
	s.AddItem(ctx, "m-cola", nil)
	s.SetOrderNotes("no ice")

	order, err := s.HoldOrder(ctx)
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	if order.ID != clock.Now().UnixMilli() {
		t.Fatalf("order id = %d, want clock millis", order.ID)
	}
	if order.Status != StatusPending || order.Notes != "no ice" {
		t.Fatalf("order = %+v", order)
	}
	if len(store.state.Orders) != 1 {
		t.Fatal("order not persisted")
	}
	if _, ok := s.CurrentOrder(); ok {
		t.Fatal("builder should be cleared after hold")
	}
}

func TestSessionEditOrder(t *testing.T) {
	s, _, clock := newTestSession(t)
	ctx := context.Background()

	s.StartOrder("w1", 4, "inside")
	s.AddItem(ctx, "m-shisha", nil)
	order, _ := s.HoldOrder(ctx)

	if err := s.EditOrder("w2", order.ID); err != nil {
		t.Fatalf("edit: %v", err)
	}
	clock.advance(groupingWindow)
	s.AddItem(ctx, "m-cola", nil)

	// cancelling the edit keeps the original line's stock committed
	mintBefore, _ := func() (InventoryItem, bool) {
		for _, it := range s.InventoryItems() {
			if it.ID == "inv-mint" {
				return it, true
			}
		}
		return InventoryItem{}, false
	}()
	if err := s.CancelOrder(ctx); err != nil {
		t.Fatalf("cancel edit: %v", err)
	}
	for _, it := range s.InventoryItems() {
		if it.ID == "inv-mint" && math.Abs(it.Quantity-mintBefore.Quantity) > 1e-9 {
			t.Fatalf("cancelled edit released original stock: %v -> %v", mintBefore.Quantity, it.Quantity)
		}
	}

	// re-editing and holding updates in place, not as a new order
	if err := s.EditOrder("w1", order.ID); err != nil {
		t.Fatalf("re-edit: %v", err)
	}
	updated, err := s.HoldOrder(ctx)
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	if updated.ID != order.ID {
		t.Fatalf("edit created a new order %d, want %d", updated.ID, order.ID)
	}
	if len(s.Orders()) != 1 {
		t.Fatalf("orders = %d, want 1", len(s.Orders()))
	}
}

func TestSessionHeldDrafts(t *testing.T) {
	s, store, _ := newTestSession(t)
	ctx := context.Background()

	s.StartOrder("w1", 7, "terrace")
	s.AddItem(ctx, "m-shisha", nil)
	draft, err := s.SaveDraft(ctx)
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if len(store.state.HeldOrders) != 1 {
		t.Fatal("draft not persisted")
	}

	// resume consumes the draft
	if err := s.ResumeHeld(ctx, "w1", draft.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(store.state.HeldOrders) != 0 {
		t.Fatal("resumed draft still persisted")
	}
	if err := s.ResumeHeld(ctx, "w1", draft.ID); !errors.Is(err, ErrOrderInProgress) {
		t.Fatalf("resume with builder active: %v", err)
	}

	// cancelling a resumed draft releases its stock (it was never placed)
	if err := s.CancelOrder(ctx); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	for _, it := range s.InventoryItems() {
		if it.ID == "inv-mint" && math.Abs(it.Quantity-0.5) > 1e-9 {
			t.Fatalf("mint = %v, want restored 0.5", it.Quantity)
		}
	}
}

func TestSessionDiscardHeldReleasesStock(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	s.StartOrder("w1", 7, "terrace")
	s.AddItem(ctx, "m-shisha", nil)
	draft, _ := s.SaveDraft(ctx)

	if err := s.DiscardHeld(ctx, draft.ID); err != nil {
		t.Fatalf("discard: %v", err)
	}
	for _, it := range s.InventoryItems() {
		if it.ID == "inv-mint" && math.Abs(it.Quantity-0.5) > 1e-9 {
			t.Fatalf("mint = %v, want restored 0.5", it.Quantity)
		}
	}
	if err := s.DiscardHeld(ctx, draft.ID); !errors.Is(err, ErrHeldOrderNotFound) {
		t.Fatalf("double discard: %v", err)
	}
}

func TestSessionPayNewOrderCash(t *testing.T) {
	s, store, clock := newTestSession(t)
	ctx := context.Background()

	if _, err := s.OpenDay(ctx, 100); err != nil {
		t.Fatalf("open day: %v", err)
	}
	s.StartOrder("w1", 4, "inside")
	s.AddItem(ctx, "m-shisha", nil) // 15.00

	view, err := s.BeginPayment(nil, 0)
	if err != nil {
		t.Fatalf("begin payment: %v", err)
	}
	if view.OrderID != -1 {
		t.Fatalf("unplaced order id = %d, want -1", view.OrderID)
	}

	order, change, drawer, err := s.ConfirmFullPayment(ctx, PayCash, 20)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if order.ID != clock.Now().UnixMilli() {
		t.Fatalf("order id = %d, want clock millis", order.ID)
	}
	if order.Status != StatusPaid {
		t.Fatalf("status = %v", order.Status)
	}
	if math.Abs(change-5) > 1e-9 || !drawer {
		t.Fatalf("change = %v drawer = %v", change, drawer)
	}

	shift, _ := s.ActiveShift()
	if math.Abs(shift.CashSales-15) > 1e-9 {
		t.Fatalf("cash sales = %v, want 15", shift.CashSales)
	}
	txs := s.Transactions()
	if len(txs) != 1 || txs[0].Type != TxSale || txs[0].OrderID != order.ID {
		t.Fatalf("transactions = %+v", txs)
	}
	if store.saves["orders"] == 0 || store.saves["transactions"] == 0 || store.saves["shifts"] == 0 {
		t.Fatalf("missing persistence: %v", store.saves)
	}
	if _, ok := s.CurrentOrder(); ok {
		t.Fatal("builder should be cleared after payment")
	}
}

func TestSessionPayExistingOrderWithDiscount(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	s.OpenDay(ctx, 0)
	s.StartOrder("w1", 4, "inside")
	s.AddItem(ctx, "m-shisha", nil)
	placed, _ := s.HoldOrder(ctx)

	view, err := s.BeginPayment(&placed.ID, 5)
	if err != nil {
		t.Fatalf("begin payment: %v", err)
	}
	if math.Abs(view.FinalTotal-10) > 1e-9 {
		t.Fatalf("final total = %v, want 10", view.FinalTotal)
	}

	order, _, _, err := s.ConfirmFullPayment(ctx, PayCard, 0)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if math.Abs(order.Total-10) > 1e-9 {
		t.Fatalf("persisted total = %v, want discounted 10", order.Total)
	}
	if math.Abs((order.Subtotal+order.Tax)-order.Total) > 1e-9 {
		t.Fatal("persisted totals must recompose")
	}
	shift, _ := s.ActiveShift()
	if math.Abs(shift.CardSales-10) > 1e-9 {
		t.Fatalf("card sales = %v, want 10", shift.CardSales)
	}

	// paying it again must fail
	if _, err := s.BeginPayment(&placed.ID, 0); !errors.Is(err, ErrOrderFinalized) {
		t.Fatalf("re-pay: %v", err)
	}
}

func TestSessionSplitPayment(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	s.OpenDay(ctx, 0)
	s.StartOrder("w1", 4, "inside")
	s.AddItem(ctx, "m-shisha", nil)
	line, _ := s.CurrentOrder()
	s.UpdateQuantity(ctx, line.Items[0].ID, 2) // 30.00

	if _, err := s.BeginPayment(nil, 0); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := s.SetSplitMode(true); err != nil {
		t.Fatalf("split mode: %v", err)
	}
	if _, err := s.AddPartialPayment(PayCash, 12); err != nil {
		t.Fatalf("partial: %v", err)
	}
	if _, _, err := s.ConfirmSplitPayment(ctx); !errors.Is(err, ErrPaymentIncomplete) {
		t.Fatalf("early confirm: %v", err)
	}
	if _, err := s.AddPartialPayment(PayCard, 18); err != nil {
		t.Fatalf("partial: %v", err)
	}

	order, drawer, err := s.ConfirmSplitPayment(ctx)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !drawer {
		t.Fatal("cash leg must signal the drawer")
	}
	if order.PaymentDetails == nil || order.PaymentDetails.Method != PaymentMultiple {
		t.Fatalf("payment details = %+v", order.PaymentDetails)
	}
	shift, _ := s.ActiveShift()
	if math.Abs(shift.CashSales-12) > 1e-9 || math.Abs(shift.CardSales-18) > 1e-9 {
		t.Fatalf("shift buckets = %v/%v, want 12/18", shift.CashSales, shift.CardSales)
	}
}

func TestSessionUpdateOrderStatus(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	s.StartOrder("w1", 4, "inside")
	s.AddItem(ctx, "m-cola", nil)
	placed, _ := s.HoldOrder(ctx)

	if err := s.UpdateOrderStatus(ctx, placed.ID, StatusPreparing); err != nil {
		t.Fatalf("preparing: %v", err)
	}
	if err := s.UpdateOrderStatus(ctx, placed.ID, StatusReady); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := s.UpdateOrderStatus(ctx, placed.ID, StatusPaid); err == nil {
		t.Fatal("paid is not a waitstaff progression state")
	}
	if err := s.UpdateOrderStatus(ctx, 9999, StatusReady); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("unknown order: %v", err)
	}
}

func TestSessionCancelPlacedOrderReleasesStock(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	s.StartOrder("w1", 4, "inside")
	s.AddItem(ctx, "m-shisha", nil)
	placed, _ := s.HoldOrder(ctx)

	cancelled, err := s.CancelPlacedOrder(ctx, placed.ID)
	if err != nil {
		t.Fatalf("cancel placed: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("status = %v", cancelled.Status)
	}
	for _, it := range s.InventoryItems() {
		if it.ID == "inv-mint" && math.Abs(it.Quantity-0.5) > 1e-9 {
			t.Fatalf("mint = %v, want restored 0.5", it.Quantity)
		}
	}
	if _, err := s.CancelPlacedOrder(ctx, placed.ID); !errors.Is(err, ErrOrderFinalized) {
		t.Fatalf("double cancel: %v", err)
	}
}
