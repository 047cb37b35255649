package pos

import (
	"context"
	"fmt"
	"sync"

	"github.com/lucsky/cuid"
)

// Store is the durable key-value layer behind the session. Each top-level
// collection is written as a whole on every mutation and loaded once at
// session start.
type Store interface {
	Load(ctx context.Context) (*State, error)
	SaveOrders(ctx context.Context, orders []Order) error
	SaveHeldOrders(ctx context.Context, held []HeldOrder) error
	SaveTransactions(ctx context.Context, txs []Transaction) error
	SaveShifts(ctx context.Context, shifts []ShiftReport) error
	SaveInventory(ctx context.Context, items []InventoryItem) error
}

// Session is the single-operator state machine driving the terminal. One
// logical actor issues one operation at a time; the mutex only matters if a
// second terminal is ever pointed at the same process. Every public operation
// either completes fully or leaves state exactly as it was.
type Session struct {
	mu      sync.Mutex
	store   Store
	clock   Clock
	taxRate float64

	state   *State
	stock   *Stock
	builder *Builder
	payment *Reconciler
}

func NewSession(ctx context.Context, store Store, taxRate float64, clock Clock) (*Session, error) {
	if clock == nil {
		clock = SystemClock
	}
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return &Session{
		store:   store,
		clock:   clock,
		taxRate: taxRate,
		state:   state,
		stock:   NewStock(state.Inventory),
	}, nil
}

func (s *Session) TaxRate() float64 { return s.taxRate }

// --- catalog and collection accessors ---

func (s *Session) Waiters() []Waiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Waiter, len(s.state.Waiters))
	copy(out, s.state.Waiters)
	return out
}

func (s *Session) Waiter(id string) (Waiter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.state.Waiters {
		if w.ID == id {
			return w, true
		}
	}
	return Waiter{}, false
}

func (s *Session) MenuItems() []MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MenuItem, len(s.state.MenuItems))
	copy(out, s.state.MenuItems)
	return out
}

func (s *Session) Categories() []Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Category, len(s.state.Categories))
	copy(out, s.state.Categories)
	return out
}

func (s *Session) Profile() RestaurantProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Profile
}

func (s *Session) InventoryItems() []InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.stock.Items()
	out := make([]InventoryItem, len(items))
	copy(out, items)
	return out
}

func (s *Session) LowStock() []InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock.LowStock()
}

func (s *Session) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, len(s.state.Orders))
	copy(out, s.state.Orders)
	return out
}

func (s *Session) Order(id int64) (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(id)
	if o == nil {
		return Order{}, false
	}
	return *o, true
}

// CreditOrders lists everything deferred to credit and not yet settled.
func (s *Session) CreditOrders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.state.Orders {
		if o.Status == StatusOnCredit {
			out = append(out, o)
		}
	}
	return out
}

func (s *Session) HeldOrders() []HeldOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HeldOrder, len(s.state.HeldOrders))
	copy(out, s.state.HeldOrders)
	return out
}

func (s *Session) Transactions() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Transaction, len(s.state.Transactions))
	copy(out, s.state.Transactions)
	return out
}

func (s *Session) Shifts() []ShiftReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ShiftReport, len(s.state.Shifts))
	copy(out, s.state.Shifts)
	return out
}

// ExportState returns a snapshot of the full application state for backups.
func (s *Session) ExportState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.state
}

// --- order building ---

type OrderView struct {
	OrderID     int64       `json:"orderId"`
	WaiterID    string      `json:"waiterId"`
	TableNumber int         `json:"tableNumber"`
	Area        string      `json:"area"`
	Items       []OrderLine `json:"items"`
	Notes       string      `json:"notes"`
	Totals      Totals      `json:"totals"`
	Editing     bool        `json:"editing"`
}

// StartOrder opens a fresh builder for a table. Only one order can be in
// progress at a time.
func (s *Session) StartOrder(waiterID string, tableNumber int, area string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder != nil {
		return ErrOrderInProgress
	}
	s.builder = NewBuilder(s.stock, s.clock, waiterID, tableNumber, area)
	s.payment = nil
	return nil
}

// EditOrder resumes an already placed (non-terminal) order. Its existing
// lines keep their stock commitment if the edit is later cancelled.
func (s *Session) EditOrder(waiterID string, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder != nil {
		return ErrOrderInProgress
	}
	order := s.findOrder(orderID)
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status.Terminal() {
		return ErrOrderFinalized
	}
	s.builder = resumeBuilder(s.stock, s.clock, waiterID, order.TableNumber, order.Area, order.ID, order.Items, order.Notes, true)
	s.payment = nil
	return nil
}

// ResumeHeld consumes a held draft and loads it into the builder. The draft's
// stock stays reserved; cancelling afterwards releases it (the draft was
// never a placed order).
func (s *Session) ResumeHeld(ctx context.Context, waiterID string, heldID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder != nil {
		return ErrOrderInProgress
	}
	for i, h := range s.state.HeldOrders {
		if h.ID == heldID {
			s.state.HeldOrders = append(s.state.HeldOrders[:i], s.state.HeldOrders[i+1:]...)
			if err := s.store.SaveHeldOrders(ctx, s.state.HeldOrders); err != nil {
				return err
			}
			s.builder = resumeBuilder(s.stock, s.clock, waiterID, h.TableNumber, h.Area, 0, h.Items, h.Notes, false)
			s.payment = nil
			return nil
		}
	}
	return ErrHeldOrderNotFound
}

// DiscardHeld abandons a draft, releasing the stock its lines were holding.
func (s *Session) DiscardHeld(ctx context.Context, heldID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.state.HeldOrders {
		if h.ID == heldID {
			for _, line := range h.Items {
				s.stock.Release(line.MenuItem.StockItemID, line.ReservedStock)
			}
			s.state.HeldOrders = append(s.state.HeldOrders[:i], s.state.HeldOrders[i+1:]...)
			if err := s.store.SaveHeldOrders(ctx, s.state.HeldOrders); err != nil {
				return err
			}
			return s.store.SaveInventory(ctx, s.stock.Items())
		}
	}
	return ErrHeldOrderNotFound
}

func (s *Session) CurrentOrder() (OrderView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder == nil {
		return OrderView{}, false
	}
	return s.orderView(), true
}

func (s *Session) orderView() OrderView {
	return OrderView{
		OrderID:     s.builder.OrderID(),
		WaiterID:    s.builder.WaiterID(),
		TableNumber: s.builder.TableNumber(),
		Area:        s.builder.Area(),
		Items:       s.builder.Lines(),
		Notes:       s.builder.Notes(),
		Totals:      s.builder.Totals(s.taxRate),
		Editing:     s.builder.OrderID() != 0,
	}
}

// AddItem adds one unit of a menu item to the in-progress order, reserving
// stock first. A nil custom means a plain add eligible for re-tap grouping.
func (s *Session) AddItem(ctx context.Context, menuItemID string, custom *LineCustomization) (OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder == nil {
		return OrderLine{}, ErrNoActiveOrder
	}
	item, ok := s.menuItem(menuItemID)
	if !ok {
		return OrderLine{}, ErrMenuItemNotFound
	}
	line, err := s.builder.AddItem(item, custom)
	if err != nil {
		return OrderLine{}, err
	}
	return line, s.store.SaveInventory(ctx, s.stock.Items())
}

func (s *Session) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder == nil {
		return ErrNoActiveOrder
	}
	if err := s.builder.UpdateQuantity(lineID, quantity); err != nil {
		return err
	}
	return s.store.SaveInventory(ctx, s.stock.Items())
}

func (s *Session) RemoveLine(ctx context.Context, lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder == nil {
		return ErrNoActiveOrder
	}
	if err := s.builder.RemoveLine(lineID); err != nil {
		return err
	}
	return s.store.SaveInventory(ctx, s.stock.Items())
}

func (s *Session) SetLineDiscount(lineID string, percent float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder == nil {
		return ErrNoActiveOrder
	}
	return s.builder.SetLineDiscount(lineID, percent)
}

// SetLinePrice applies a manual price override. The caller has already passed
// the manager/admin PIN gate; the session only receives the outcome.
func (s *Session) SetLinePrice(lineID string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder == nil {
		return ErrNoActiveOrder
	}
	return s.builder.SetLinePrice(lineID, price)
}

func (s *Session) SetOrderNotes(notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder == nil {
		return ErrNoActiveOrder
	}
	s.builder.SetNotes(notes)
	return nil
}

// HoldOrder persists the in-progress order as pending (new, or updating the
// order being edited) and clears the builder. Stock stays committed.
func (s *Session) HoldOrder(ctx context.Context) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder == nil {
		return Order{}, ErrNoActiveOrder
	}
	if s.builder.Empty() {
		return Order{}, ErrEmptyOrder
	}

	id := s.builder.OrderID()
	if id == 0 {
		id = s.clock.Now().UnixMilli()
	}
	order := s.builder.snapshot(id, StatusPending, s.taxRate)
	s.upsertOrder(order)
	if err := s.store.SaveOrders(ctx, s.state.Orders); err != nil {
		return Order{}, err
	}
	s.builder = nil
	s.payment = nil
	return order, nil
}

// SaveDraft stores the builder as a held order (save-for-later) and clears
// the builder. The draft keeps the stock its lines reserved.
func (s *Session) SaveDraft(ctx context.Context) (HeldOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder == nil {
		return HeldOrder{}, ErrNoActiveOrder
	}
	if s.builder.Empty() {
		return HeldOrder{}, ErrEmptyOrder
	}
	held := HeldOrder{
		ID:          cuid.New(),
		WaiterID:    s.builder.WaiterID(),
		TableNumber: s.builder.TableNumber(),
		Area:        s.builder.Area(),
		Items:       s.builder.Lines(),
		Notes:       s.builder.Notes(),
		Timestamp:   s.clock.Now(),
	}
	s.state.HeldOrders = append(s.state.HeldOrders, held)
	if err := s.store.SaveHeldOrders(ctx, s.state.HeldOrders); err != nil {
		return HeldOrder{}, err
	}
	s.builder = nil
	s.payment = nil
	return held, nil
}

// CancelOrder discards the in-progress order, releasing stock for every line
// added during this session. Cancelling twice cannot double-release.
func (s *Session) CancelOrder(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder == nil {
		return ErrNoActiveOrder
	}
	s.builder.Cancel()
	s.builder = nil
	s.payment = nil
	return s.store.SaveInventory(ctx, s.stock.Items())
}

// UpdateOrderStatus moves a placed order through the waitstaff progression
// (pending, preparing, ready). Terminal orders never change here.
func (s *Session) UpdateOrderStatus(ctx context.Context, orderID int64, status OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status != StatusPending && status != StatusPreparing && status != StatusReady {
		return fmt.Errorf("status %q is not a waitstaff progression state", status)
	}
	order := s.findOrder(orderID)
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status.Terminal() {
		return ErrOrderFinalized
	}
	order.Status = status
	return s.store.SaveOrders(ctx, s.state.Orders)
}

// CancelPlacedOrder voids a placed, unpaid order and releases its full stock
// commitment.
func (s *Session) CancelPlacedOrder(ctx context.Context, orderID int64) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.findOrder(orderID)
	if order == nil {
		return Order{}, ErrOrderNotFound
	}
	if order.Status.Terminal() {
		return Order{}, ErrOrderFinalized
	}
	for _, line := range order.Items {
		s.stock.Release(line.MenuItem.StockItemID, line.ReservedStock)
	}
	order.Status = StatusCancelled
	if err := s.store.SaveOrders(ctx, s.state.Orders); err != nil {
		return Order{}, err
	}
	if err := s.store.SaveInventory(ctx, s.stock.Items()); err != nil {
		return Order{}, err
	}
	return *order, nil
}

// --- payment ---

type PaymentView struct {
	OrderID    int64            `json:"orderId"`
	OrderTotal float64          `json:"orderTotal"`
	Discount   float64          `json:"discountAmount"`
	FinalTotal float64          `json:"finalTotal"`
	FinalTax   float64          `json:"finalTax"`
	SplitMode  bool             `json:"splitMode"`
	Parts      []PartialPayment `json:"parts"`
	TotalPaid  float64          `json:"totalPaid"`
	Remaining  float64          `json:"remaining"`
}

// BeginPayment opens a reconciler for either the in-progress order (orderID
// nil; ephemeral id -1 until confirmed) or an already placed order.
func (s *Session) BeginPayment(orderID *int64, discount float64) (PaymentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var order Order
	if orderID == nil {
		if s.builder == nil {
			return PaymentView{}, ErrNoActiveOrder
		}
		if s.builder.Empty() {
			return PaymentView{}, ErrEmptyOrder
		}
		id := s.builder.OrderID()
		if id == 0 {
			id = -1
		}
		order = s.builder.snapshot(id, StatusPending, s.taxRate)
	} else {
		existing := s.findOrder(*orderID)
		if existing == nil {
			return PaymentView{}, ErrOrderNotFound
		}
		if existing.Status == StatusPaid || existing.Status == StatusCancelled {
			return PaymentView{}, ErrOrderFinalized
		}
		order = *existing
	}

	s.payment = NewReconciler(order, s.taxRate)
	s.payment.SetDiscount(discount)
	return s.paymentView(), nil
}

func (s *Session) PaymentState() (PaymentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return PaymentView{}, ErrNoPaymentInProgress
	}
	return s.paymentView(), nil
}

func (s *Session) paymentView() PaymentView {
	r := s.payment
	return PaymentView{
		OrderID:    r.Order().ID,
		OrderTotal: r.Order().Total,
		Discount:   r.Discount(),
		FinalTotal: r.FinalTotal(),
		FinalTax:   r.FinalTax(),
		SplitMode:  r.SplitMode(),
		Parts:      r.Parts(),
		TotalPaid:  r.TotalPaid(),
		Remaining:  r.Remaining(),
	}
}

func (s *Session) SetPaymentDiscount(amount float64) (PaymentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return PaymentView{}, ErrNoPaymentInProgress
	}
	s.payment.SetDiscount(amount)
	return s.paymentView(), nil
}

func (s *Session) SetSplitMode(split bool) (PaymentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return PaymentView{}, ErrNoPaymentInProgress
	}
	s.payment.SetSplitMode(split)
	return s.paymentView(), nil
}

func (s *Session) AddPartialPayment(method PaymentMethod, amount float64) (PaymentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return PaymentView{}, ErrNoPaymentInProgress
	}
	if err := s.payment.AddPartial(method, amount); err != nil {
		return PaymentView{}, err
	}
	return s.paymentView(), nil
}

func (s *Session) RemovePartialPayment(index int) (PaymentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return PaymentView{}, ErrNoPaymentInProgress
	}
	if err := s.payment.RemovePartial(index); err != nil {
		return PaymentView{}, err
	}
	return s.paymentView(), nil
}

func (s *Session) QuickSplit(parts int) (PaymentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return PaymentView{}, ErrNoPaymentInProgress
	}
	if err := s.payment.QuickSplit(parts); err != nil {
		return PaymentView{}, err
	}
	return s.paymentView(), nil
}

// ConfirmFullPayment settles the payment with a single method, returning the
// finalized order, the change due (cash only, display only) and whether the
// drawer should open.
func (s *Session) ConfirmFullPayment(ctx context.Context, method PaymentMethod, received float64) (Order, float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return Order{}, 0, false, ErrNoPaymentInProgress
	}
	details, change, err := s.payment.ConfirmFull(method, received)
	if err != nil {
		return Order{}, 0, false, err
	}
	order, err := s.finalizePayment(ctx, details)
	if err != nil {
		return Order{}, 0, false, err
	}
	return order, change, details.HasCash(), nil
}

// ConfirmSplitPayment settles the accumulated partial payments; it is blocked
// while more than a cent remains.
func (s *Session) ConfirmSplitPayment(ctx context.Context) (Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return Order{}, false, ErrNoPaymentInProgress
	}
	details, err := s.payment.ConfirmSplit()
	if err != nil {
		return Order{}, false, err
	}
	order, err := s.finalizePayment(ctx, details)
	if err != nil {
		return Order{}, false, err
	}
	return order, details.HasCash(), nil
}

// finalizePayment persists the paid order, records the sale on the open shift
// and clears builder and reconciler. Callers hold the mutex.
func (s *Session) finalizePayment(ctx context.Context, details PaymentDetails) (Order, error) {
	finalTotal := s.payment.FinalTotal()
	finalTax := s.payment.FinalTax()
	order := s.payment.Order()

	subtotal, _ := decomposeTotal(finalTotal, s.taxRate)
	if order.ID == -1 {
		order.ID = s.clock.Now().UnixMilli()
		order.Timestamp = s.clock.Now()
	}
	order.Status = StatusPaid
	order.PaymentDetails = &details
	order.Total = finalTotal
	order.Tax = finalTax
	order.Subtotal = subtotal
	s.upsertOrder(order)

	if err := s.recordSaleLocked(ctx, order, details, fmt.Sprintf("Order #%d", order.ID), fmt.Sprintf("tx-sale-%d", order.ID)); err != nil {
		return Order{}, err
	}
	if err := s.store.SaveOrders(ctx, s.state.Orders); err != nil {
		return Order{}, err
	}

	s.builder = nil
	s.payment = nil
	return order, nil
}

// --- internals ---

func (s *Session) menuItem(id string) (MenuItem, bool) {
	for _, m := range s.state.MenuItems {
		if m.ID == id {
			return m, true
		}
	}
	return MenuItem{}, false
}

func (s *Session) findOrder(id int64) *Order {
	for i := range s.state.Orders {
		if s.state.Orders[i].ID == id {
			return &s.state.Orders[i]
		}
	}
	return nil
}

func (s *Session) upsertOrder(order Order) {
	for i := range s.state.Orders {
		if s.state.Orders[i].ID == order.ID {
			s.state.Orders[i] = order
			return
		}
	}
	s.state.Orders = append(s.state.Orders, order)
}
