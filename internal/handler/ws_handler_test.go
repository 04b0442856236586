package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthshare/vault-service/internal/auth"
	"github.com/hearthshare/vault-service/internal/config"
	"github.com/hearthshare/vault-service/internal/domain"
	"github.com/hearthshare/vault-service/internal/hub"
	"github.com/hearthshare/vault-service/internal/registry"
	"github.com/hearthshare/vault-service/internal/resolver"
	"github.com/hearthshare/vault-service/internal/session"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
	}
}

func testVaultConfig() config.VaultConfig {
	return config.VaultConfig{
		Users:         config.DefaultUsers(),
		Categories:    config.DefaultCategories(),
		VoteID:        "v1",
		VoteQuestion:  "Increase monthly Dining Out budget to $350?",
		CommandBuffer: 16,
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *auth.Manager) {
	t.Helper()

	wsHub := hub.NewHub(testWSConfig())
	go wsHub.Run()

	res := resolver.New(nil, time.Second)
	store := session.NewStore(testVaultConfig(), res, wsHub, registry.NewNoop())
	t.Cleanup(store.Stop)

	am := auth.NewManager("test-key", "vault-service")
	h := NewWSHandler(wsHub, store, am, testWSConfig())

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, am
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/vault/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func read(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var base domain.BaseMessage
	require.NoError(t, json.Unmarshal(data, &base))
	return base.Type, data
}

func authenticate(t *testing.T, conn *websocket.Conn, am *auth.Manager, user domain.User) {
	t.Helper()
	token, err := am.Issue(user, "vault-1", time.Hour)
	require.NoError(t, err)

	send(t, conn, domain.AuthMessage{Type: domain.MsgTypeAuth, Token: token})

	typ, data := read(t, conn)
	require.Equal(t, domain.MsgTypeAuthResult, typ)
	var result domain.AuthResultMessage
	require.NoError(t, json.Unmarshal(data, &result))
	require.True(t, result.Success)
	require.Equal(t, user.ID, result.UserID)
}

func readUpdate(t *testing.T, conn *websocket.Conn) *domain.Snapshot {
	t.Helper()
	for {
		typ, data := read(t, conn)
		if typ != domain.MsgTypeUpdate {
			continue // skip notifications interleaved with snapshots
		}
		var update domain.UpdateMessage
		require.NoError(t, json.Unmarshal(data, &update))
		return update.State
	}
}

func TestAuthConnectBroadcastsState(t *testing.T) {
	srv, am := newTestServer(t)
	conn := dial(t, srv)

	authenticate(t, conn, am, domain.User{ID: "u1", Name: "Dad", Role: domain.RoleAdmin})

	snap := readUpdate(t, conn)
	assert.Equal(t, "vault-1", snap.VaultID)
	assert.Equal(t, []string{"u1"}, snap.OnlineUsers)
	require.NotEmpty(t, snap.AuditLog)
	assert.Equal(t, "connected.", snap.AuditLog[0].Action)
}

func TestInvalidTokenRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, domain.AuthMessage{Type: domain.MsgTypeAuth, Token: "garbage"})

	typ, data := read(t, conn)
	require.Equal(t, domain.MsgTypeAuthResult, typ)
	var result domain.AuthResultMessage
	require.NoError(t, json.Unmarshal(data, &result))
	assert.False(t, result.Success)
}

func TestUnauthenticatedCommandRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, domain.SendChatMessage{Type: domain.MsgTypeSendMessage, Message: "hi"})

	typ, data := read(t, conn)
	require.Equal(t, domain.MsgTypeError, typ)
	var errMsg domain.ErrorMessage
	require.NoError(t, json.Unmarshal(data, &errMsg))
	assert.Equal(t, domain.ErrCodeUnauthorized, errMsg.Code)
}

func TestChatMessageRoundTrip(t *testing.T) {
	srv, am := newTestServer(t)
	conn := dial(t, srv)

	authenticate(t, conn, am, domain.User{ID: "u2", Name: "Mom", Role: domain.RoleAdmin})
	readUpdate(t, conn) // connect broadcast

	send(t, conn, domain.SendChatMessage{Type: domain.MsgTypeSendMessage, Message: "dinner plans?"})

	snap := readUpdate(t, conn)
	require.Len(t, snap.Chat, 1)
	assert.Equal(t, "dinner plans?", snap.Chat[0].Text)
	assert.Equal(t, "Mom", snap.Chat[0].UserName)
}

func TestBroadcastReachesAllVaultMembers(t *testing.T) {
	srv, am := newTestServer(t)

	dadConn := dial(t, srv)
	authenticate(t, dadConn, am, domain.User{ID: "u1", Name: "Dad", Role: domain.RoleAdmin})
	readUpdate(t, dadConn)

	momConn := dial(t, srv)
	authenticate(t, momConn, am, domain.User{ID: "u2", Name: "Mom", Role: domain.RoleAdmin})
	readUpdate(t, momConn)
	readUpdate(t, dadConn) // Mom's connect broadcast

	send(t, momConn, domain.UpdateProposalMessage{
		Type:       domain.MsgTypeUpdateProposal,
		CategoryID: "entertainment",
		Amount:     85,
	})

	for _, conn := range []*websocket.Conn{dadConn, momConn} {
		snap := readUpdate(t, conn)
		assert.Equal(t, 85.0, snap.Budget["entertainment"].Proposals["u2"])
	}
}

func TestUnknownMessageTypeIgnored(t *testing.T) {
	srv, am := newTestServer(t)
	conn := dial(t, srv)

	authenticate(t, conn, am, domain.User{ID: "u1", Name: "Dad", Role: domain.RoleAdmin})
	readUpdate(t, conn)

	send(t, conn, map[string]string{"type": "budget:explode"})

	typ, _ := read(t, conn)
	assert.Equal(t, domain.MsgTypeError, typ)

	// The coordinator is unaffected; normal commands still work.
	send(t, conn, domain.SendChatMessage{Type: domain.MsgTypeSendMessage, Message: "still here"})
	snap := readUpdate(t, conn)
	require.Len(t, snap.Chat, 1)
}

func TestPingPong(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, map[string]string{"type": domain.MsgTypePing})
	typ, _ := read(t, conn)
	assert.Equal(t, domain.MsgTypePong, typ)
}
