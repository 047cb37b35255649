package pos

import (
	"errors"
	"math"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

var (
	menuShisha = MenuItem{ID: "m-shisha", Name: "Mint Shisha", Price: 15.0, StockItemID: "inv-mint", StockConsumption: 0.05}
	menuCola   = MenuItem{ID: "m-cola", Name: "Cola", Price: 3.5}
)

func TestBuilderAddItemGroupsRetaps(t *testing.T) {
	clock := newFakeClock()
	b := NewBuilder(NewStock(testInventory()), clock, "w1", 4, "inside")

	first, err := b.AddItem(menuShisha, nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	clock.advance(10 * time.Second)
	second, err := b.AddItem(menuShisha, nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("re-tap within the window should bump the existing line")
	}
	if second.Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", second.Quantity)
	}
	if math.Abs(second.ReservedStock-0.10) > 1e-9 {
		t.Fatalf("reserved = %v, want 0.10", second.ReservedStock)
	}

	clock.advance(16 * time.Second)
	third, err := b.AddItem(menuShisha, nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if third.ID == first.ID {
		t.Fatal("tap after the window should open a new line")
	}
	if len(b.Lines()) != 2 {
		t.Fatalf("lines = %d, want 2", len(b.Lines()))
	}
}

func TestBuilderCustomizedNeverGroups(t *testing.T) {
	clock := newFakeClock()
	b := NewBuilder(NewStock(testInventory()), clock, "w1", 4, "inside")

	custom := &LineCustomization{
		Selections: map[string][]CustomizationOption{
			"flavor": {{ID: "opt-double", Name: "Double Apple", PriceModifier: 2}},
		},
		UnitPrice: 17.0,
	}
	if _, err := b.AddItem(menuShisha, custom); err != nil {
		t.Fatalf("add: %v", err)
	}
	line, err := b.AddItem(menuShisha, custom)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if line.Quantity != 1 || len(b.Lines()) != 2 {
		t.Fatal("customized taps must each open their own line")
	}
	if line.UnitPrice != 17.0 {
		t.Fatalf("unit price = %v, want customization price", line.UnitPrice)
	}
}

func TestBuilderAddItemInsufficientStock(t *testing.T) {
	stock := NewStock([]InventoryItem{
		{ID: "inv-mint", Name: "Mint Tobacco", Quantity: 0.05, Unit: "kg"},
	})
	b := NewBuilder(stock, newFakeClock(), "w1", 4, "inside")

	if _, err := b.AddItem(menuShisha, nil); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := b.AddItem(menuShisha, nil)
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	// the failed add must neither group nor append
	if len(b.Lines()) != 1 || b.Lines()[0].Quantity != 1 {
		t.Fatal("failed add mutated the order")
	}
}

func TestBuilderUpdateQuantity(t *testing.T) {
	stock := NewStock(testInventory())
	b := NewBuilder(stock, newFakeClock(), "w1", 4, "inside")
	line, err := b.AddItem(menuShisha, nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := b.UpdateQuantity(line.ID, 4); err != nil {
		t.Fatalf("increase: %v", err)
	}
	item, _ := stock.Item("inv-mint")
	if math.Abs(item.Quantity-0.30) > 1e-9 {
		t.Fatalf("stock = %v, want 0.30", item.Quantity)
	}

	if err := b.UpdateQuantity(line.ID, 1); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	item, _ = stock.Item("inv-mint")
	if math.Abs(item.Quantity-0.45) > 1e-9 {
		t.Fatalf("stock = %v, want 0.45", item.Quantity)
	}

	if err := b.UpdateQuantity(line.ID, 0); !errors.Is(err, ErrQuantityTooLow) {
		t.Fatalf("want ErrQuantityTooLow, got %v", err)
	}
	if err := b.UpdateQuantity("nope", 2); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("want ErrLineNotFound, got %v", err)
	}
}

func TestBuilderUpdateQuantityInsufficient(t *testing.T) {
	stock := NewStock([]InventoryItem{
		{ID: "inv-mint", Name: "Mint Tobacco", Quantity: 0.10, Unit: "kg"},
	})
	b := NewBuilder(stock, newFakeClock(), "w1", 4, "inside")
	line, _ := b.AddItem(menuShisha, nil)

	err := b.UpdateQuantity(line.ID, 5)
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if got := b.Lines()[0].Quantity; got != 1 {
		t.Fatalf("failed increase changed quantity to %d", got)
	}
}

func TestBuilderRemoveLineReleasesStock(t *testing.T) {
	stock := NewStock(testInventory())
	b := NewBuilder(stock, newFakeClock(), "w1", 4, "inside")
	line, _ := b.AddItem(menuShisha, nil)
	b.UpdateQuantity(line.ID, 3)

	if err := b.RemoveLine(line.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	item, _ := stock.Item("inv-mint")
	if math.Abs(item.Quantity-0.5) > 1e-9 {
		t.Fatalf("stock = %v, want fully restored 0.5", item.Quantity)
	}
	if !b.Empty() {
		t.Fatal("line still present after remove")
	}
}

func TestBuilderDiscountAndPrice(t *testing.T) {
	b := NewBuilder(NewStock(nil), newFakeClock(), "w1", 4, "inside")
	line, _ := b.AddItem(menuCola, nil)

	if err := b.SetLineDiscount(line.ID, 150); err != nil {
		t.Fatalf("discount: %v", err)
	}
	if got := b.Lines()[0].Discount; got != 100 {
		t.Fatalf("discount = %v, want clamped 100", got)
	}
	if err := b.SetLineDiscount(line.ID, -5); err != nil {
		t.Fatalf("discount: %v", err)
	}
	if got := b.Lines()[0].Discount; got != 0 {
		t.Fatalf("discount = %v, want clamped 0", got)
	}

	if err := b.SetLinePrice(line.ID, -1); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("want ErrInvalidPrice, got %v", err)
	}
	if err := b.SetLinePrice(line.ID, 2.0); err != nil {
		t.Fatalf("price: %v", err)
	}
	if got := b.Lines()[0].UnitPrice; got != 2.0 {
		t.Fatalf("price = %v, want 2.0", got)
	}
}

func TestBuilderTotals(t *testing.T) {
	b := NewBuilder(NewStock(nil), newFakeClock(), "w1", 4, "inside")
	line, _ := b.AddItem(menuCola, nil)
	b.UpdateQuantity(line.ID, 2)
	b.SetLineDiscount(line.ID, 50)

	totals := b.Totals(0.19)
	if !amountsEqual(totals.Total, 3.5) {
		t.Fatalf("total = %v, want 3.5", totals.Total)
	}
	if math.Abs((totals.Subtotal+totals.Tax)-totals.Total) > 1e-9 {
		t.Fatal("subtotal and tax must recompose the total")
	}
}

func TestBuilderCancelReleasesOnlyNewLines(t *testing.T) {
	stock := NewStock(testInventory())
	clock := newFakeClock()

	// place an order holding 0.10 kg
	placed := NewBuilder(stock, clock, "w1", 4, "inside")
	line, _ := placed.AddItem(menuShisha, nil)
	placed.UpdateQuantity(line.ID, 2)
	order := placed.snapshot(1001, StatusPending, 0.19)

	// edit it: add one more shisha, then cancel the edit
	edit := resumeBuilder(stock, clock, "w1", order.TableNumber, order.Area, order.ID, order.Items, order.Notes, true)
	clock.advance(time.Minute)
	if _, err := edit.AddItem(menuShisha, nil); err != nil {
		t.Fatalf("add during edit: %v", err)
	}
	edit.Cancel()

	// only the edit's own line is released; the placed order keeps 0.10
	item, _ := stock.Item("inv-mint")
	if math.Abs(item.Quantity-0.40) > 1e-9 {
		t.Fatalf("stock = %v, want 0.40", item.Quantity)
	}

	// cancelling again must not release anything further
	edit.Cancel()
	item, _ = stock.Item("inv-mint")
	if math.Abs(item.Quantity-0.40) > 1e-9 {
		t.Fatalf("second cancel moved stock to %v", item.Quantity)
	}
}

func TestBuilderCancelFreshOrderReleasesAll(t *testing.T) {
	stock := NewStock(testInventory())
	b := NewBuilder(stock, newFakeClock(), "w1", 4, "inside")
	line, _ := b.AddItem(menuShisha, nil)
	b.UpdateQuantity(line.ID, 4)

	b.Cancel()
	item, _ := stock.Item("inv-mint")
	if math.Abs(item.Quantity-0.5) > 1e-9 {
		t.Fatalf("stock = %v, want fully restored 0.5", item.Quantity)
	}
}
