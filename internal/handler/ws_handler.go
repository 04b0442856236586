package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hearthshare/vault-service/internal/auth"
	"github.com/hearthshare/vault-service/internal/config"
	"github.com/hearthshare/vault-service/internal/domain"
	"github.com/hearthshare/vault-service/internal/hub"
	"github.com/hearthshare/vault-service/internal/session"
	"github.com/hearthshare/vault-service/internal/vault"
	"github.com/hearthshare/vault-service/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler terminates WebSocket connections and translates the wire
// protocol into vault coordinator commands.
type WSHandler struct {
	hub   *hub.Hub
	store *session.Store
	auth  *auth.Manager
	wsCfg config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, store *session.Store, am *auth.Manager, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:   h,
		store: store,
		auth:  am,
		wsCfg: wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.Ctx(r.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	h.hub.Register(client)

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleMessage)
		h.handleDisconnect(client)
	}()
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message format"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.MsgTypeAuth:
		var msg domain.AuthMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid auth message"))
			return
		}
		h.handleAuth(ctx, client, msg.Token)

	case domain.MsgTypeUpdateProposal:
		var msg domain.UpdateProposalMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid update-proposal message"))
			return
		}
		if c, userID, ok := h.authed(ctx, client); ok {
			c.UpdateProposal(userID, msg.CategoryID, msg.Amount)
		}

	case domain.MsgTypeResolveConflict:
		var msg domain.ResolveConflictMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid resolve-conflict message"))
			return
		}
		if c, userID, ok := h.authed(ctx, client); ok {
			c.ResolveConflict(userID, msg.CategoryID)
		}

	case domain.MsgTypeSubmitVote:
		var msg domain.SubmitVoteMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid vote message"))
			return
		}
		if c, userID, ok := h.authed(ctx, client); ok {
			c.SubmitVote(userID, domain.VoteValue(msg.Vote))
		}

	case domain.MsgTypeSendMessage:
		var msg domain.SendChatMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid chat message"))
			return
		}
		if c, userID, ok := h.authed(ctx, client); ok {
			c.SendMessage(userID, msg.Message)
		}

	case domain.MsgTypePing:
		client.SendMessage(map[string]string{"type": domain.MsgTypePong})

	default:
		// Unknown commands are logged and ignored; they never crash
		// the coordinator or affect other vaults.
		l := log.L()
		l.Warn().Str(log.FieldClientID, client.ID).Str("message_type", base.Type).Msg("unknown message type")
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Unknown message type"))
	}
}

func (h *WSHandler) handleAuth(ctx context.Context, client *hub.Client, token string) {
	claims, err := h.auth.Validate(token)
	if err != nil {
		client.SendMessage(&domain.AuthResultMessage{
			Type:    domain.MsgTypeAuthResult,
			Success: false,
			Message: "Invalid vault token",
		})
		return
	}

	client.Session.Authenticate(claims.UserID, claims.UserName, claims.Role, claims.VaultID)
	h.hub.JoinVault(client, claims.VaultID)

	client.SendMessage(&domain.AuthResultMessage{
		Type:     domain.MsgTypeAuthResult,
		Success:  true,
		UserID:   claims.UserID,
		UserName: claims.UserName,
		VaultID:  claims.VaultID,
	})

	h.store.Coordinator(ctx, claims.VaultID).Connect(claims.UserID)
}

func (h *WSHandler) handleDisconnect(client *hub.Client) {
	if !client.Session.IsAuthenticated() {
		return
	}
	vaultID := client.Session.GetVaultID()
	h.hub.LeaveVault(client, vaultID)
	h.store.Coordinator(context.Background(), vaultID).Disconnect(client.Session.GetUserID())
}

// authed resolves the client's vault coordinator, rejecting
// unauthenticated clients.
func (h *WSHandler) authed(ctx context.Context, client *hub.Client) (coordinator *vault.Coordinator, userID string, ok bool) {
	if !client.Session.IsAuthenticated() {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeUnauthorized, "Not authenticated"))
		return nil, "", false
	}
	c := h.store.Coordinator(ctx, client.Session.GetVaultID())
	return c, client.Session.GetUserID(), true
}

func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/vault/ws", h.HandleWebSocket)
}
