package hub

import (
	"encoding/json"
	"sync"

	"github.com/hearthshare/vault-service/internal/config"
	"github.com/hearthshare/vault-service/internal/domain"
	"github.com/hearthshare/vault-service/pkg/log"
)

// Hub fans coordinator broadcasts out to the WebSocket clients of each
// vault. Delivery order per vault matches the order broadcasts were
// handed to the hub.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	vaults     map[string]map[string]*Client // vaultID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *vaultMessage
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

type vaultMessage struct {
	VaultID string
	Message []byte
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		vaults:     make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *vaultMessage, 256),
		config:     cfg,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for vaultID, members := range h.vaults {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.vaults, vaultID)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			if members, ok := h.vaults[msg.VaultID]; ok {
				for _, client := range members {
					select {
					case client.Send <- msg.Message:
					default:
						go h.removeClient(client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JoinVault subscribes an authenticated client to its vault's broadcasts.
func (h *Hub) JoinVault(client *Client, vaultID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.vaults[vaultID]; !ok {
		h.vaults[vaultID] = make(map[string]*Client)
	}
	h.vaults[vaultID][client.ID] = client
	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldVaultID, vaultID).Msg("client joined vault")
}

func (h *Hub) LeaveVault(client *Client, vaultID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.vaults[vaultID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.vaults, vaultID)
		}
	}
}

// VaultClientCount reports how many clients subscribe to a vault.
func (h *Hub) VaultClientCount(vaultID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.vaults[vaultID])
}

// BroadcastSnapshot sends the full vault state to every subscriber.
func (h *Hub) BroadcastSnapshot(vaultID string, snap *domain.Snapshot) {
	h.send(vaultID, &domain.UpdateMessage{Type: domain.MsgTypeUpdate, State: snap})
}

// BroadcastNotification sends a transient, non-authoritative message.
func (h *Hub) BroadcastNotification(vaultID, message string) {
	h.send(vaultID, domain.NewNotification(message))
}

// BroadcastError surfaces a resolution or validation failure.
func (h *Hub) BroadcastError(vaultID, message string) {
	h.send(vaultID, &domain.ErrorMessage{Type: domain.MsgTypeError, Message: message})
}

func (h *Hub) send(vaultID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldVaultID, vaultID).Msg("failed to marshal broadcast")
		return
	}
	h.broadcast <- &vaultMessage{VaultID: vaultID, Message: data}
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
