package domain

import (
	"sync"
	"time"
)

// Session is the per-connection state of one WebSocket client.
type Session struct {
	ID            string
	UserID        string
	UserName      string
	Role          Role
	VaultID       string
	Authenticated bool
	CreatedAt     time.Time
	LastActiveAt  time.Time
	mu            sync.RWMutex
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// Authenticate binds the connection to a vault member.
func (s *Session) Authenticate(userID, userName string, role Role, vaultID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UserID = userID
	s.UserName = userName
	s.Role = role
	s.VaultID = vaultID
	s.Authenticated = true
	s.LastActiveAt = time.Now()
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Authenticated
}

func (s *Session) GetUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.UserID
}

func (s *Session) GetUserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.UserName
}

func (s *Session) GetVaultID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.VaultID
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}
