package handlers

import (
	"net/http"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
	"github.com/boutiabderrahim-hash/shisha23mm/pkg/response"
)

func (h *Handler) MenuItems(w http.ResponseWriter, r *http.Request) {
	categoryID := r.URL.Query().Get("categoryId")
	items := h.Session.MenuItems()
	if categoryID == "" {
		response.Success(w, items)
		return
	}
	filtered := make([]pos.MenuItem, 0, len(items))
	for _, item := range items {
		if item.CategoryID == categoryID {
			filtered = append(filtered, item)
		}
	}
	response.Success(w, filtered)
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.Session.Categories())
}

// Waiters lists terminal operators for the login screen, without PIN hashes.
func (h *Handler) Waiters(w http.ResponseWriter, r *http.Request) {
	waiters := h.Session.Waiters()
	for i := range waiters {
		waiters[i].PINHash = ""
	}
	response.Success(w, waiters)
}

// Profile returns the venue profile plus the tax rate the engine prices with,
// so clients render the same inclusive-tax breakdown.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]any{
		"profile": h.Session.Profile(),
		"taxRate": h.Session.TaxRate(),
	})
}

func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.Session.InventoryItems())
}

func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.Session.LowStock())
}
