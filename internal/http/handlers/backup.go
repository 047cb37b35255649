package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/utils"
	"github.com/boutiabderrahim-hash/shisha23mm/pkg/response"
)

const backupKeepCount = 30

// ExportState streams the full application state as JSON, matching the
// backup file format the admin screen downloads.
func (h *Handler) ExportState(w http.ResponseWriter, r *http.Request) {
	state := h.Session.ExportState()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=pos-state.json")
	_ = json.NewEncoder(w).Encode(state)
}

// BackupState uploads a state snapshot to the object store, keyed by
// venue-local date, and prunes old snapshots past the retention count.
func (h *Handler) BackupState(w http.ResponseWriter, r *http.Request) {
	if h.Backups == nil {
		response.Error(w, http.StatusServiceUnavailable, "BACKUPS_DISABLED", "Object store is not configured")
		return
	}

	state := h.Session.ExportState()
	payload, err := json.Marshal(state)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode state")
		return
	}

	key := fmt.Sprintf("backups/pos-state-%s.json", utils.CurrentDateInTimezone(h.Config.Timezone))
	if err := h.Backups.PutObject(r.Context(), key, payload, "application/json"); err != nil {
		h.Logger.Error("backup upload failed", zap.String("key", key), zap.Error(err))
		response.Error(w, http.StatusBadGateway, "BACKUP_FAILED", "Failed to upload backup")
		return
	}
	if err := h.Backups.PrunePrefix(r.Context(), "backups/", backupKeepCount); err != nil {
		h.Logger.Warn("backup prune failed", zap.Error(err))
	}

	response.Success(w, map[string]any{"key": key, "bytes": len(payload)})
}
