package handlers

import (
	"go.uber.org/zap"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/config"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/queue"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/storage"
)

// Notifier wakes live terminal feeds after a state change. Satisfied by the
// ws server; nil-safe through notify().
type Notifier interface {
	Notify()
}

type Handler struct {
	Session *pos.Session
	Logger  *zap.Logger
	Config  config.Config
	Events  *queue.Events
	Feed    Notifier
	Backups *storage.ObjectStore
}

func (h *Handler) notify() {
	if h.Feed != nil {
		h.Feed.Notify()
	}
}
