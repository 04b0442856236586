package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthshare/vault-service/internal/config"
	"github.com/hearthshare/vault-service/internal/domain"
	"github.com/hearthshare/vault-service/internal/registry"
	"github.com/hearthshare/vault-service/internal/resolver"
)

type collectingBroadcaster struct {
	mu    sync.Mutex
	snaps []*domain.Snapshot
	done  chan struct{}
}

func (b *collectingBroadcaster) BroadcastSnapshot(vaultID string, snap *domain.Snapshot) {
	b.mu.Lock()
	b.snaps = append(b.snaps, snap)
	b.mu.Unlock()
	select {
	case b.done <- struct{}{}:
	default:
	}
}

func (b *collectingBroadcaster) BroadcastNotification(string, string) {}
func (b *collectingBroadcaster) BroadcastError(string, string)       {}

func testConfig() config.VaultConfig {
	return config.VaultConfig{
		Users:         config.DefaultUsers(),
		Categories:    config.DefaultCategories(),
		VoteID:        "v1",
		VoteQuestion:  "Increase monthly Dining Out budget to $350?",
		CommandBuffer: 16,
	}
}

func TestCoordinatorIsProvisionedOncePerVault(t *testing.T) {
	out := &collectingBroadcaster{done: make(chan struct{}, 1)}
	store := NewStore(testConfig(), resolver.New(nil, time.Second), out, registry.NewNoop())
	defer store.Stop()

	ctx := context.Background()
	a := store.Coordinator(ctx, "vault-a")
	b := store.Coordinator(ctx, "vault-a")
	other := store.Coordinator(ctx, "vault-b")

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

func TestVaultsDoNotInterfere(t *testing.T) {
	out := &collectingBroadcaster{done: make(chan struct{}, 1)}
	store := NewStore(testConfig(), resolver.New(nil, time.Second), out, registry.NewNoop())
	defer store.Stop()

	ctx := context.Background()
	store.Coordinator(ctx, "vault-a").UpdateProposal("u1", "dining", 100)

	select {
	case <-out.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
	}

	out.mu.Lock()
	defer out.mu.Unlock()
	require.Len(t, out.snaps, 1)
	snap := out.snaps[0]
	assert.Equal(t, "vault-a", snap.VaultID)
	assert.Equal(t, 100.0, snap.Budget["dining"].Proposals["u1"])

}
