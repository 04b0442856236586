package vault

import "github.com/hearthshare/vault-service/internal/domain"

// VoteMachine tracks the vault's single yes/no decision. It is
// provisioned open with every member's vote unset; casting fills one
// entry and never changes the status. There is no closing transition.
type VoteMachine struct {
	vote domain.Vote
}

func NewVoteMachine(id, question string, userIDs []string) *VoteMachine {
	votes := make(map[string]domain.VoteValue, len(userIDs))
	for _, uid := range userIDs {
		votes[uid] = domain.VoteUnset
	}
	return &VoteMachine{
		vote: domain.Vote{
			ID:       id,
			Question: question,
			Votes:    votes,
			Status:   domain.VoteOpen,
		},
	}
}

// Cast records a member's vote. It reports false, without mutating
// anything, when the vote is closed, the member has already voted, or
// the member is not part of the vault.
func (m *VoteMachine) Cast(userID string, value domain.VoteValue) bool {
	if m.vote.Status != domain.VoteOpen {
		return false
	}
	current, ok := m.vote.Votes[userID]
	if !ok || current != domain.VoteUnset {
		return false
	}
	if value != domain.VoteYes && value != domain.VoteNo {
		return false
	}
	m.vote.Votes[userID] = value
	return true
}

// Vote returns a copy of the current vote.
func (m *VoteMachine) Vote() domain.Vote {
	votes := make(map[string]domain.VoteValue, len(m.vote.Votes))
	for k, v := range m.vote.Votes {
		votes[k] = v
	}
	out := m.vote
	out.Votes = votes
	return out
}
