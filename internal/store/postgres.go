// Package store persists the terminal's application state as named JSON
// collections in a single key-value table. Collections are small (one venue,
// one terminal) and written whole on every mutation, so the simple upsert
// wins over row-per-entity schemas.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
)

// Collection names, stable across versions. They double as the JSON export
// keys in state backups.
const (
	keyWaiters      = "waiters"
	keyCategories   = "categories"
	keyMenuItems    = "menuItems"
	keyInventory    = "inventory"
	keyOrders       = "orders"
	keyHeldOrders   = "heldOrders"
	keyTransactions = "transactions"
	keyShifts       = "shifts"
	keyProfile      = "restaurantProfile"
)

const schema = `
create table if not exists pos_state (
	name text primary key,
	payload jsonb not null,
	updated_at timestamptz not null default now()
)`

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure pos_state table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Load(ctx context.Context) (*pos.State, error) {
	state := &pos.State{}
	loads := []struct {
		key  string
		dest any
	}{
		{keyWaiters, &state.Waiters},
		{keyCategories, &state.Categories},
		{keyMenuItems, &state.MenuItems},
		{keyInventory, &state.Inventory},
		{keyOrders, &state.Orders},
		{keyHeldOrders, &state.HeldOrders},
		{keyTransactions, &state.Transactions},
		{keyShifts, &state.Shifts},
		{keyProfile, &state.Profile},
	}
	for _, l := range loads {
		if err := p.load(ctx, l.key, l.dest); err != nil {
			return nil, err
		}
	}
	return state, nil
}

func (p *Postgres) load(ctx context.Context, name string, dest any) error {
	var payload []byte
	err := p.pool.QueryRow(ctx, "select payload from pos_state where name = $1", name).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (p *Postgres) save(ctx context.Context, name string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	_, err = p.pool.Exec(ctx, `
		insert into pos_state (name, payload, updated_at)
		values ($1, $2, now())
		on conflict (name) do update set payload = excluded.payload, updated_at = now()
	`, name, payload)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func (p *Postgres) SaveOrders(ctx context.Context, orders []pos.Order) error {
	return p.save(ctx, keyOrders, orders)
}

func (p *Postgres) SaveHeldOrders(ctx context.Context, held []pos.HeldOrder) error {
	return p.save(ctx, keyHeldOrders, held)
}

func (p *Postgres) SaveTransactions(ctx context.Context, txs []pos.Transaction) error {
	return p.save(ctx, keyTransactions, txs)
}

func (p *Postgres) SaveShifts(ctx context.Context, shifts []pos.ShiftReport) error {
	return p.save(ctx, keyShifts, shifts)
}

func (p *Postgres) SaveInventory(ctx context.Context, items []pos.InventoryItem) error {
	return p.save(ctx, keyInventory, items)
}

// SaveCatalog writes the reference collections (waiters, categories, menu,
// profile) in one go. Used by seeding, not by the transaction flow.
func (p *Postgres) SaveCatalog(ctx context.Context, state *pos.State) error {
	saves := []struct {
		key   string
		value any
	}{
		{keyWaiters, state.Waiters},
		{keyCategories, state.Categories},
		{keyMenuItems, state.MenuItems},
		{keyProfile, state.Profile},
	}
	for _, s := range saves {
		if err := p.save(ctx, s.key, s.value); err != nil {
			return err
		}
	}
	return nil
}
