package session

import (
	"context"
	"sync"

	"github.com/hearthshare/vault-service/internal/config"
	"github.com/hearthshare/vault-service/internal/domain"
	"github.com/hearthshare/vault-service/internal/registry"
	"github.com/hearthshare/vault-service/internal/resolver"
	"github.com/hearthshare/vault-service/internal/vault"
	"github.com/hearthshare/vault-service/pkg/log"
)

// Store owns the coordinator lifecycle for every vault hosted by this
// process. Each vault is provisioned from the configured seed on first
// use and its coordinator goroutine runs until the store stops.
type Store struct {
	cfg config.VaultConfig
	res *resolver.Resolver
	out vault.Broadcaster
	reg registry.Registry

	mu           sync.Mutex
	coordinators map[string]*vault.Coordinator

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStore(cfg config.VaultConfig, res *resolver.Resolver, out vault.Broadcaster, reg registry.Registry) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		cfg:          cfg,
		res:          res,
		out:          out,
		reg:          reg,
		coordinators: make(map[string]*vault.Coordinator),
		runCtx:       ctx,
		cancel:       cancel,
	}
}

// Coordinator returns the running coordinator for a vault, provisioning
// the vault on first use.
func (s *Store) Coordinator(ctx context.Context, vaultID string) *vault.Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.coordinators[vaultID]; ok {
		return c
	}

	c := vault.NewCoordinator(vaultID, s.seed(), s.res, s.out, s.cfg.CommandBuffer)
	s.coordinators[vaultID] = c

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.Run(s.runCtx)
	}()

	if err := s.reg.Register(ctx, vaultID); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldVaultID, vaultID).Msg("failed to register vault")
	}

	l := log.L()
	l.Info().Str(log.FieldVaultID, vaultID).Msg("vault provisioned")
	return c
}

// Stop cancels every coordinator and waits for them to exit.
func (s *Store) Stop() {
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for vaultID := range s.coordinators {
		if err := s.reg.Deregister(context.Background(), vaultID); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldVaultID, vaultID).Msg("failed to deregister vault")
		}
	}
	s.coordinators = make(map[string]*vault.Coordinator)
}

func (s *Store) seed() vault.Seed {
	categories := make([]domain.BudgetCategory, 0, len(s.cfg.Categories))
	for _, c := range s.cfg.Categories {
		categories = append(categories, domain.BudgetCategory{
			ID:        c.ID,
			Name:      c.Name,
			Icon:      c.Icon,
			Color:     c.Color,
			Allocated: c.Allocated,
			Proposals: c.Proposals,
		})
	}
	return vault.Seed{
		Users:        s.cfg.Users,
		Categories:   categories,
		VoteID:       s.cfg.VoteID,
		VoteQuestion: s.cfg.VoteQuestion,
	}
}
