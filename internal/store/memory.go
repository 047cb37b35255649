package store

import (
	"context"
	"sync"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
)

// Memory is a Store backed by process memory, used in tests and for running
// the terminal without a database.
type Memory struct {
	mu    sync.Mutex
	state pos.State
}

func NewMemory(seed pos.State) *Memory {
	return &Memory{state: seed}
}

func (m *Memory) Load(ctx context.Context) (*pos.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state
	return &st, nil
}

func (m *Memory) SaveOrders(ctx context.Context, orders []pos.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Orders = append([]pos.Order(nil), orders...)
	return nil
}

func (m *Memory) SaveHeldOrders(ctx context.Context, held []pos.HeldOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.HeldOrders = append([]pos.HeldOrder(nil), held...)
	return nil
}

func (m *Memory) SaveTransactions(ctx context.Context, txs []pos.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Transactions = append([]pos.Transaction(nil), txs...)
	return nil
}

func (m *Memory) SaveShifts(ctx context.Context, shifts []pos.ShiftReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Shifts = append([]pos.ShiftReport(nil), shifts...)
	return nil
}

func (m *Memory) SaveInventory(ctx context.Context, items []pos.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Inventory = append([]pos.InventoryItem(nil), items...)
	return nil
}
