package pos

import "time"

type Role string

const (
	RoleWaiter  Role = "WAITER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// Waiter is a terminal operator. The PIN is stored as a bcrypt hash and is
// only ever compared, never returned to clients.
type Waiter struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
	PINHash string `json:"pinHash,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CustomizationOption struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PriceModifier float64 `json:"priceModifier"`
}

type CustomizationCategory struct {
	ID      string                `json:"id"`
	Name    string                `json:"name"`
	Type    string                `json:"type"` // single | multiple
	Options []CustomizationOption `json:"options"`
}

// MenuItem is an immutable catalog entry. Price is tax-inclusive.
// StockItemID links the item to an InventoryItem; empty means untracked.
type MenuItem struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name"`
	Price            float64                 `json:"price"`
	CategoryID       string                  `json:"categoryId"`
	StockItemID      string                  `json:"stockItemId,omitempty"`
	StockConsumption float64                 `json:"stockConsumption,omitempty"`
	Ingredients      []string                `json:"ingredients,omitempty"`
	Customizations   []CustomizationCategory `json:"customizations,omitempty"`
}

type InventoryItem struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Quantity          float64 `json:"quantity"`
	Unit              string  `json:"unit"`
	LowStockThreshold float64 `json:"lowStockThreshold"`
	CategoryID        string  `json:"categoryId,omitempty"`
}

// LineCustomization captures the options picked in the customization dialog
// along with the resulting unit price (base price plus modifiers).
type LineCustomization struct {
	Selections         map[string][]CustomizationOption `json:"selections"`
	RemovedIngredients []string                         `json:"removedIngredients"`
	UnitPrice          float64                          `json:"unitPrice"`
}

// OrderLine is one position on an in-progress or persisted order. UnitPrice
// starts as the menu price (plus customization modifiers) and may be
// overridden through the PIN-gated price change. ReservedStock records the
// exact amount this line holds against its inventory item so release is
// always symmetric with reserve.
type OrderLine struct {
	ID                 string                           `json:"id"`
	MenuItem           MenuItem                         `json:"menuItem"`
	Quantity           int                              `json:"quantity"`
	Customizations     map[string][]CustomizationOption `json:"customizations"`
	RemovedIngredients []string                         `json:"removedIngredients"`
	UnitPrice          float64                          `json:"unitPrice"`
	Discount           float64                          `json:"discount,omitempty"` // percentage, clamped [0,100]
	ReservedStock      float64                          `json:"reservedStock,omitempty"`
	CreatedAt          time.Time                        `json:"createdAt"`
}

// Total is the line amount after the percentage discount.
func (l OrderLine) Total() float64 {
	return l.UnitPrice * float64(l.Quantity) * (1 - l.Discount/100)
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusPaid      OrderStatus = "paid"
	StatusOnCredit  OrderStatus = "on_credit"
	StatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether the status ends the order's lifecycle. Terminal
// orders never mutate items or totals, except on_credit settling to paid.
func (s OrderStatus) Terminal() bool {
	return s == StatusPaid || s == StatusOnCredit || s == StatusCancelled
}

type PaymentMethod string

const (
	PayCash PaymentMethod = "cash"
	PayCard PaymentMethod = "card"
)

type PartialPayment struct {
	Method PaymentMethod `json:"method"`
	Amount float64       `json:"amount"`
}

type PaymentKind string

const (
	PaymentSingleCash PaymentKind = "cash"
	PaymentSingleCard PaymentKind = "card"
	PaymentSplit      PaymentKind = "split"
	PaymentMultiple   PaymentKind = "multiple"
)

// PaymentDetails is a tagged union over cash | card | split | multiple.
// Method discriminates; only the fields of the active variant are set.
type PaymentDetails struct {
	Method     PaymentKind      `json:"method"`
	Amount     float64          `json:"amount,omitempty"`     // cash, card
	CashAmount float64          `json:"cashAmount,omitempty"` // split
	CardAmount float64          `json:"cardAmount,omitempty"` // split
	Payments   []PartialPayment `json:"payments,omitempty"`   // multiple
}

type Order struct {
	ID             int64           `json:"id"`
	WaiterID       string          `json:"waiterId"`
	TableNumber    int             `json:"tableNumber"`
	Area           string          `json:"area"`
	Items          []OrderLine     `json:"items"`
	Status         OrderStatus     `json:"status"`
	Timestamp      time.Time       `json:"timestamp"`
	Subtotal       float64         `json:"subtotal"`
	Tax            float64         `json:"tax"`
	Total          float64         `json:"total"`
	Notes          string          `json:"notes,omitempty"`
	CustomerName   string          `json:"customerName,omitempty"`
	PaymentDetails *PaymentDetails `json:"paymentDetails,omitempty"`
}

// HeldOrder is a saved-for-later draft, distinct from a placed kitchen order.
// It is consumed (deleted) when resumed or abandoned.
type HeldOrder struct {
	ID          string      `json:"id"`
	WaiterID    string      `json:"waiterId"`
	TableNumber int         `json:"tableNumber"`
	Area        string      `json:"area"`
	Items       []OrderLine `json:"items"`
	Notes       string      `json:"notes,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

type TransactionType string

const (
	TxSale   TransactionType = "sale"
	TxManual TransactionType = "manual"
)

// Transaction is an append-only ledger entry. The payment method is collapsed
// to cash|card even for split payments.
type Transaction struct {
	ID            string          `json:"id"`
	Type          TransactionType `json:"type"`
	OrderID       int64           `json:"orderId,omitempty"`
	Amount        float64         `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
	Description   string          `json:"description"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Tax           float64         `json:"tax"`
	ShiftID       string          `json:"shiftId,omitempty"`
}

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "OPEN"
	ShiftClosed ShiftStatus = "CLOSED"
)

type ShiftReport struct {
	ID                string      `json:"id"`
	DayOpened         time.Time   `json:"dayOpenedTimestamp"`
	DayClosed         *time.Time  `json:"dayClosedTimestamp"`
	OpeningBalance    float64     `json:"openingBalance"`
	CashSales         float64     `json:"cashSales"`
	CardSales         float64     `json:"cardSales"`
	ManualIncomeCash  float64     `json:"manualIncomeCash"`
	ManualIncomeCard  float64     `json:"manualIncomeCard"`
	TotalTax          float64     `json:"totalTax"`
	Status            ShiftStatus `json:"status"`
	FinalTotalRevenue *float64    `json:"finalTotalRevenue,omitempty"`
	FinalTotalTax     *float64    `json:"finalTotalTax,omitempty"`
	FinalCashSales    *float64    `json:"finalCashSales,omitempty"`
	FinalManualInCash *float64    `json:"finalManualIncomeCash,omitempty"`
	FinalCashDrawer   *float64    `json:"finalCashDrawer,omitempty"`
}

type RestaurantProfile struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Footer  string `json:"footer"`
}

// State is the full application state held by a Session and persisted through
// the Store as named collections. There are no ambient singletons; everything
// flows through this struct.
type State struct {
	Waiters      []Waiter          `json:"waiters"`
	Categories   []Category        `json:"categories"`
	MenuItems    []MenuItem        `json:"menuItems"`
	Inventory    []InventoryItem   `json:"inventory"`
	Orders       []Order           `json:"orders"`
	HeldOrders   []HeldOrder       `json:"heldOrders"`
	Transactions []Transaction     `json:"transactions"`
	Shifts       []ShiftReport     `json:"shifts"`
	Profile      RestaurantProfile `json:"profile"`
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}
