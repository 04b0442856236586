package vault

import (
	"errors"
	"sort"

	"github.com/hearthshare/vault-service/internal/domain"
)

var (
	ErrUnknownCategory = errors.New("vault: unknown budget category")
	ErrUnknownUser     = errors.New("vault: unknown user")
)

// Seed is the provisioning data for a new vault.
type Seed struct {
	Users        []domain.User
	Categories   []domain.BudgetCategory
	VoteID       string
	VoteQuestion string
}

// State is the aggregate root for one household vault. It is owned by
// exactly one Coordinator goroutine and carries no locking of its own.
type State struct {
	vaultID   string
	users     []domain.User
	usersByID map[string]domain.User
	online    map[string]struct{}
	budget    map[string]*domain.BudgetCategory
	vote      *VoteMachine
	chat      *ChatLedger
	audit     *AuditLedger
}

// NewState provisions a vault from seed data and writes the creation
// entry to the audit trail.
func NewState(vaultID string, seed Seed) *State {
	usersByID := make(map[string]domain.User, len(seed.Users))
	userIDs := make([]string, 0, len(seed.Users))
	for _, u := range seed.Users {
		usersByID[u.ID] = u
		userIDs = append(userIDs, u.ID)
	}

	budget := make(map[string]*domain.BudgetCategory, len(seed.Categories))
	for _, c := range seed.Categories {
		cat := c
		if cat.Proposals == nil {
			cat.Proposals = make(map[string]float64)
		} else {
			proposals := make(map[string]float64, len(cat.Proposals))
			for uid, amount := range cat.Proposals {
				proposals[uid] = amount
			}
			cat.Proposals = proposals
		}
		budget[cat.ID] = &cat
	}

	s := &State{
		vaultID:   vaultID,
		users:     append([]domain.User(nil), seed.Users...),
		usersByID: usersByID,
		online:    make(map[string]struct{}),
		budget:    budget,
		vote:      NewVoteMachine(seed.VoteID, seed.VoteQuestion, userIDs),
		chat:      NewChatLedger(),
		audit:     NewAuditLedger(),
	}
	s.audit.Append("System", "Family Vault created.")
	return s
}

func (s *State) VaultID() string {
	return s.vaultID
}

// User returns the vault member with the given id.
func (s *State) User(userID string) (domain.User, bool) {
	u, ok := s.usersByID[userID]
	return u, ok
}

// Connect adds a user to the presence set. It reports whether the user
// was newly added; connecting an already-connected user is a no-op.
func (s *State) Connect(userID string) bool {
	if _, ok := s.online[userID]; ok {
		return false
	}
	s.online[userID] = struct{}{}
	return true
}

// Disconnect removes a user from the presence set and reports whether
// the user was present.
func (s *State) Disconnect(userID string) bool {
	if _, ok := s.online[userID]; !ok {
		return false
	}
	delete(s.online, userID)
	return true
}

func (s *State) IsOnline(userID string) bool {
	_, ok := s.online[userID]
	return ok
}

// Category returns the budget category with the given id.
func (s *State) Category(categoryID string) (*domain.BudgetCategory, bool) {
	c, ok := s.budget[categoryID]
	return c, ok
}

// SetProposal overwrites one user's proposal for a category.
func (s *State) SetProposal(categoryID, userID string, amount float64) error {
	cat, ok := s.budget[categoryID]
	if !ok {
		return ErrUnknownCategory
	}
	if _, ok := s.usersByID[userID]; !ok {
		return ErrUnknownUser
	}
	cat.Proposals[userID] = amount
	return nil
}

// ProposalsByName returns a category's proposals keyed by member
// display name, the shape the advisory collaborator contract expects.
func (s *State) ProposalsByName(categoryID string) (map[string]float64, error) {
	cat, ok := s.budget[categoryID]
	if !ok {
		return nil, ErrUnknownCategory
	}
	out := make(map[string]float64, len(cat.Proposals))
	for uid, amount := range cat.Proposals {
		if u, ok := s.usersByID[uid]; ok {
			out[u.Name] = amount
		}
	}
	return out, nil
}

// ApplyResolution replaces a category's proposals with a resolved
// allocation keyed by display name.
func (s *State) ApplyResolution(categoryID string, byName map[string]float64) error {
	cat, ok := s.budget[categoryID]
	if !ok {
		return ErrUnknownCategory
	}
	resolved := make(map[string]float64, len(byName))
	for _, u := range s.users {
		if amount, ok := byName[u.Name]; ok {
			resolved[u.ID] = amount
		}
	}
	cat.Proposals = resolved
	return nil
}

// CastVote records a vote; see VoteMachine.Cast for the rejection rules.
func (s *State) CastVote(userID string, value domain.VoteValue) bool {
	return s.vote.Cast(userID, value)
}

// AppendChat adds a chat message from a vault member.
func (s *State) AppendChat(userID, text string) (domain.ChatMessage, error) {
	u, ok := s.usersByID[userID]
	if !ok {
		return domain.ChatMessage{}, ErrUnknownUser
	}
	return s.chat.Append(u.ID, u.Name, text), nil
}

// Audit appends an audit entry attributed to a vault member.
func (s *State) Audit(userID, action string) {
	u, ok := s.usersByID[userID]
	if !ok {
		return
	}
	s.audit.Append(u.Name, action)
}

// Snapshot produces a deep copy of the full vault state. Subscribers
// only ever see snapshots, never live state.
func (s *State) Snapshot() *domain.Snapshot {
	online := make([]string, 0, len(s.online))
	for uid := range s.online {
		online = append(online, uid)
	}
	sort.Strings(online)

	budget := make(map[string]domain.BudgetCategory, len(s.budget))
	for id, cat := range s.budget {
		c := *cat
		proposals := make(map[string]float64, len(cat.Proposals))
		for uid, amount := range cat.Proposals {
			proposals[uid] = amount
		}
		c.Proposals = proposals
		budget[id] = c
	}

	return &domain.Snapshot{
		VaultID:     s.vaultID,
		Users:       append([]domain.User(nil), s.users...),
		OnlineUsers: online,
		Budget:      budget,
		Vote:        s.vote.Vote(),
		Chat:        s.chat.Messages(),
		AuditLog:    s.audit.Entries(),
	}
}
