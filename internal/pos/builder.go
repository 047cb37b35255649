package pos

import (
	"time"

	"github.com/lucsky/cuid"
)

// groupingWindow is how long a plain (non-customized, undiscounted) line keeps
// absorbing re-taps of the same menu item instead of opening a new line.
const groupingWindow = 15 * time.Second

// Builder assembles an in-progress order for one table. Every stock-tracked
// mutation goes through the shared Stock first, so a failed reservation leaves
// the order untouched. The reserved amount is recorded per line, which makes
// release exactly symmetric with reserve even across hold/edit sessions.
type Builder struct {
	waiterID    string
	tableNumber int
	area        string
	orderID     int64 // 0 until held; the persisted order id when editing
	lines       []OrderLine
	notes       string
	reserved    map[string]float64  // line id -> stock amount held
	original    map[string]struct{} // line ids that existed when editing began
	stock       *Stock
	clock       Clock
	cancelled   bool
}

func NewBuilder(stock *Stock, clock Clock, waiterID string, tableNumber int, area string) *Builder {
	return &Builder{
		waiterID:    waiterID,
		tableNumber: tableNumber,
		area:        area,
		reserved:    make(map[string]float64),
		original:    make(map[string]struct{}),
		stock:       stock,
		clock:       clock,
	}
}

// resumeBuilder seeds a builder from previously persisted lines. Stock for
// those lines is already committed, so their ids go into the original set
// (kept on cancel) unless the source was a never-placed draft.
func resumeBuilder(stock *Stock, clock Clock, waiterID string, tableNumber int, area string, orderID int64, lines []OrderLine, notes string, keepOnCancel bool) *Builder {
	b := NewBuilder(stock, clock, waiterID, tableNumber, area)
	b.orderID = orderID
	b.notes = notes
	b.lines = make([]OrderLine, len(lines))
	copy(b.lines, lines)
	for _, line := range b.lines {
		b.reserved[line.ID] = line.ReservedStock
		if keepOnCancel {
			b.original[line.ID] = struct{}{}
		}
	}
	return b
}

// AddItem reserves stock for one unit of the menu item, then either bumps the
// quantity of a recent identical plain line or appends a new line. custom is
// nil for a plain add; customized items never group.
func (b *Builder) AddItem(item MenuItem, custom *LineCustomization) (OrderLine, error) {
	if err := b.stock.Reserve(item.StockItemID, item.StockConsumption); err != nil {
		return OrderLine{}, err
	}

	now := b.clock.Now()
	if custom == nil {
		for i := range b.lines {
			line := &b.lines[i]
			if line.MenuItem.ID == item.ID &&
				len(line.Customizations) == 0 &&
				len(line.RemovedIngredients) == 0 &&
				line.Discount == 0 &&
				now.Sub(line.CreatedAt) < groupingWindow {
				line.Quantity++
				line.ReservedStock += item.StockConsumption
				b.reserved[line.ID] = line.ReservedStock
				return *line, nil
			}
		}
	}

	line := OrderLine{
		ID:            cuid.New(),
		MenuItem:      item,
		Quantity:      1,
		UnitPrice:     item.Price,
		ReservedStock: item.StockConsumption,
		CreatedAt:     now,
	}
	if custom != nil {
		line.Customizations = custom.Selections
		line.RemovedIngredients = custom.RemovedIngredients
		if custom.UnitPrice > 0 {
			line.UnitPrice = custom.UnitPrice
		}
	}
	b.lines = append(b.lines, line)
	b.reserved[line.ID] = line.ReservedStock
	return line, nil
}

// UpdateQuantity changes a line's quantity. Increases reserve the incremental
// stock first and fail without touching the line; decreases release it.
func (b *Builder) UpdateQuantity(lineID string, quantity int) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}
	line := b.line(lineID)
	if line == nil {
		return ErrLineNotFound
	}
	delta := quantity - line.Quantity
	if delta == 0 {
		return nil
	}

	consumption := line.MenuItem.StockConsumption
	if delta > 0 {
		if err := b.stock.Reserve(line.MenuItem.StockItemID, float64(delta)*consumption); err != nil {
			return err
		}
		line.ReservedStock += float64(delta) * consumption
	} else {
		released := float64(-delta) * consumption
		if released > line.ReservedStock {
			released = line.ReservedStock
		}
		b.stock.Release(line.MenuItem.StockItemID, released)
		line.ReservedStock -= released
	}
	line.Quantity = quantity
	b.reserved[line.ID] = line.ReservedStock
	return nil
}

// RemoveLine releases everything the line holds and deletes it.
func (b *Builder) RemoveLine(lineID string) error {
	for i := range b.lines {
		if b.lines[i].ID == lineID {
			b.stock.Release(b.lines[i].MenuItem.StockItemID, b.lines[i].ReservedStock)
			delete(b.reserved, lineID)
			delete(b.original, lineID)
			b.lines = append(b.lines[:i], b.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// SetLineDiscount clamps the percentage to [0,100] regardless of input.
func (b *Builder) SetLineDiscount(lineID string, percent float64) error {
	line := b.line(lineID)
	if line == nil {
		return ErrLineNotFound
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	line.Discount = percent
	return nil
}

// SetLinePrice overrides the unit price. Authorization is the caller's
// responsibility (manager/admin PIN gate); there is no stock effect.
func (b *Builder) SetLinePrice(lineID string, price float64) error {
	if price < 0 {
		return ErrInvalidPrice
	}
	line := b.line(lineID)
	if line == nil {
		return ErrLineNotFound
	}
	line.UnitPrice = price
	return nil
}

func (b *Builder) SetNotes(notes string) { b.notes = notes }

// Totals computes the running totals. Prices are tax-inclusive: the total is
// the sum of discounted line amounts and the tax component is back-calculated.
func (b *Builder) Totals(taxRate float64) Totals {
	var total float64
	for _, line := range b.lines {
		total += line.Total()
	}
	subtotal, tax := decomposeTotal(total, taxRate)
	return Totals{Subtotal: subtotal, Tax: tax, Total: total}
}

// Cancel releases reserved stock for every line added during this editing
// session. Lines that were part of the original persisted order keep their
// commitment. A second cancel releases nothing.
func (b *Builder) Cancel() {
	if b.cancelled {
		return
	}
	b.cancelled = true
	for _, line := range b.lines {
		if _, kept := b.original[line.ID]; kept {
			continue
		}
		b.stock.Release(line.MenuItem.StockItemID, b.reserved[line.ID])
	}
	b.reserved = make(map[string]float64)
}

func (b *Builder) line(id string) *OrderLine {
	for i := range b.lines {
		if b.lines[i].ID == id {
			return &b.lines[i]
		}
	}
	return nil
}

func (b *Builder) Lines() []OrderLine {
	out := make([]OrderLine, len(b.lines))
	copy(out, b.lines)
	return out
}

func (b *Builder) Notes() string     { return b.notes }
func (b *Builder) Empty() bool       { return len(b.lines) == 0 }
func (b *Builder) OrderID() int64    { return b.orderID }
func (b *Builder) TableNumber() int  { return b.tableNumber }
func (b *Builder) Area() string      { return b.area }
func (b *Builder) WaiterID() string  { return b.waiterID }

// snapshot turns the builder into a persisted order shape. id is the existing
// order id when editing, or the caller's fresh id for a new order.
func (b *Builder) snapshot(id int64, status OrderStatus, taxRate float64) Order {
	totals := b.Totals(taxRate)
	return Order{
		ID:          id,
		WaiterID:    b.waiterID,
		TableNumber: b.tableNumber,
		Area:        b.area,
		Items:       b.Lines(),
		Status:      status,
		Timestamp:   b.clock.Now(),
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Total:       totals.Total,
		Notes:       b.notes,
	}
}
