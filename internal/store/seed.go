package store

import (
	"context"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/auth"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
)

// SeedDefaults writes a minimal catalog on first boot so the terminal is
// usable before any data is imported: one admin operator and a blank venue
// profile. Existing data is never touched.
func SeedDefaults(ctx context.Context, p *Postgres, adminPIN string) error {
	state, err := p.Load(ctx)
	if err != nil {
		return err
	}
	if len(state.Waiters) > 0 {
		return nil
	}

	hash, err := auth.HashPIN(adminPIN)
	if err != nil {
		return err
	}
	state.Waiters = []pos.Waiter{
		{ID: "admin", Name: "Admin", Role: pos.RoleAdmin, PINHash: hash},
	}
	if state.Profile.Name == "" {
		state.Profile = pos.RestaurantProfile{Name: "Shisha 23mm"}
	}
	return p.SaveCatalog(ctx, state)
}
