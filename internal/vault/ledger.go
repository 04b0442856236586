package vault

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthshare/vault-service/internal/domain"
)

// AuditLedger is the vault's append-only record of accepted mutations.
// Entries are kept newest-first for display; once inserted their
// relative order never changes.
type AuditLedger struct {
	entries []domain.AuditEntry
}

func NewAuditLedger() *AuditLedger {
	return &AuditLedger{}
}

// Append inserts a new entry at the head of the ledger.
func (l *AuditLedger) Append(userName, action string) domain.AuditEntry {
	entry := domain.AuditEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		UserName:  userName,
		Action:    action,
	}
	l.entries = append([]domain.AuditEntry{entry}, l.entries...)
	return entry
}

// Entries returns a copy of the ledger, newest first.
func (l *AuditLedger) Entries() []domain.AuditEntry {
	out := make([]domain.AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *AuditLedger) Len() int {
	return len(l.entries)
}

// ChatLedger is the vault's append-only discussion thread, ordered by
// arrival at the coordinator.
type ChatLedger struct {
	messages []domain.ChatMessage
}

func NewChatLedger() *ChatLedger {
	return &ChatLedger{}
}

// Append adds a message with a server-assigned id and timestamp.
func (l *ChatLedger) Append(userID, userName, text string) domain.ChatMessage {
	msg := domain.ChatMessage{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		UserName:  userName,
		Text:      text,
	}
	l.messages = append(l.messages, msg)
	return msg
}

// Messages returns a copy of the thread in arrival order.
func (l *ChatLedger) Messages() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *ChatLedger) Len() int {
	return len(l.messages)
}
