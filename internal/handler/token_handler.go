package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hearthshare/vault-service/internal/auth"
	"github.com/hearthshare/vault-service/internal/config"
	"github.com/hearthshare/vault-service/internal/domain"
	"github.com/hearthshare/vault-service/pkg/log"
)

// TokenHandler issues vault tokens for configured household members.
// It stands in for the real login surface, which lives outside this
// service.
type TokenHandler struct {
	auth  *auth.Manager
	users map[string]domain.User
	ttl   time.Duration
}

func NewTokenHandler(am *auth.Manager, cfg config.VaultConfig) *TokenHandler {
	users := make(map[string]domain.User, len(cfg.Users))
	for _, u := range cfg.Users {
		users[u.ID] = u
	}
	return &TokenHandler{
		auth:  am,
		users: users,
		ttl:   24 * time.Hour,
	}
}

type tokenRequest struct {
	UserID  string `json:"user_id"`
	VaultID string `json:"vault_id"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *TokenHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.VaultID == "" {
		http.Error(w, "vault_id is required", http.StatusBadRequest)
		return
	}

	user, ok := h.users[req.UserID]
	if !ok {
		http.Error(w, "unknown user", http.StatusNotFound)
		return
	}

	token, err := h.auth.Issue(user, req.VaultID, h.ttl)
	if err != nil {
		l := log.Ctx(r.Context())
		l.Error().Err(err).Msg("failed to issue token")
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{Token: token})
}

func (h *TokenHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/vault/token", h.HandleToken)
}
