package handlers

import (
	"net/http"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/auth"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
	"github.com/boutiabderrahim-hash/shisha23mm/pkg/response"
)

type drawerOpenPayload struct {
	PIN string `json:"pin"`
}

// OpenDrawer fires a no-sale drawer open. It must be countersigned with a
// manager or admin PIN and leaves a zero-amount transaction on the open shift
// as the audit trail.
func (h *Handler) OpenDrawer(w http.ResponseWriter, r *http.Request) {
	var payload drawerOpenPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	actor, ok := auth.AuthorizePIN(h.Session.Waiters(), payload.PIN, pos.RoleManager)
	if !ok {
		response.Error(w, http.StatusForbidden, "PIN_REQUIRED", "A manager PIN is required to open the drawer")
		return
	}

	tx, booked, err := h.Session.LogDrawerOpen(r.Context(), actor.Name)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.Events.DrawerOpened(r.Context(), actor.Name, "no-sale")
	h.notify()

	result := map[string]any{"openDrawer": true, "logged": booked}
	if booked {
		result["transaction"] = tx
	}
	response.Success(w, result)
}
