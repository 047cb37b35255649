package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/auth"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/middleware"
	"github.com/boutiabderrahim-hash/shisha23mm/pkg/response"
)

type loginPayload struct {
	WaiterID string `json:"waiterId"`
	PIN      string `json:"pin"`
}

// Login exchanges a waiter id and PIN for a terminal session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	waiter, ok := h.Session.Waiter(payload.WaiterID)
	if !ok || !auth.CheckPIN(waiter.PINHash, payload.PIN) {
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Waiter id or PIN is incorrect")
		return
	}

	expiry := time.Duration(h.Config.JWTExpirySeconds) * time.Second
	token, err := auth.IssueAccessToken(waiter, h.Config.JWTSecret, expiry)
	if err != nil {
		h.Logger.Error("token issue failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not create session")
		return
	}

	waiter.PINHash = ""
	response.Success(w, map[string]any{
		"token":  token,
		"waiter": waiter,
	})
}

// Me echoes the authenticated waiter from the token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}
	response.Success(w, map[string]any{
		"waiterId": authCtx.WaiterID,
		"name":     authCtx.Name,
		"role":     authCtx.Role,
	})
}
