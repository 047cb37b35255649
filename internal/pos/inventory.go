package pos

// Stock tracks real-time inventory quantities. Reserve is check-and-decrement
// in a single step: a failed reservation leaves the quantity untouched.
// Items the catalog does not link to (empty id) are exempt from tracking.
type Stock struct {
	items []InventoryItem
	index map[string]int
}

func NewStock(items []InventoryItem) *Stock {
	s := &Stock{items: items, index: make(map[string]int, len(items))}
	for i, item := range items {
		s.index[item.ID] = i
	}
	return s
}

// Reserve decrements amount from the item's quantity, or fails with
// InsufficientStockError when not enough is available. An empty stockItemID
// means the item is untracked and the reservation trivially succeeds.
func (s *Stock) Reserve(stockItemID string, amount float64) error {
	if stockItemID == "" || amount <= 0 {
		return nil
	}
	i, ok := s.index[stockItemID]
	if !ok {
		return nil
	}
	if s.items[i].Quantity < amount {
		return &InsufficientStockError{
			ItemName:  s.items[i].Name,
			Available: s.items[i].Quantity,
			Unit:      s.items[i].Unit,
		}
	}
	s.items[i].Quantity -= amount
	return nil
}

// Release adds amount back. It never fails and applies no upper clamp; the
// builder keeps release symmetric with reserve by tracking the reserved
// amount per order line.
func (s *Stock) Release(stockItemID string, amount float64) {
	if stockItemID == "" || amount <= 0 {
		return
	}
	if i, ok := s.index[stockItemID]; ok {
		s.items[i].Quantity += amount
	}
}

// Items returns the live slice backing the stock. Callers treat it as
// read-only outside Reserve/Release.
func (s *Stock) Items() []InventoryItem {
	return s.items
}

func (s *Stock) Item(id string) (InventoryItem, bool) {
	if i, ok := s.index[id]; ok {
		return s.items[i], true
	}
	return InventoryItem{}, false
}

// LowStock lists items at or below their low-stock threshold.
func (s *Stock) LowStock() []InventoryItem {
	var low []InventoryItem
	for _, item := range s.items {
		if item.Quantity <= item.LowStockThreshold {
			low = append(low, item)
		}
	}
	return low
}
