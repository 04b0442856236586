package domain

import "time"

// Role controls what a vault member is allowed to do.
type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleContributor Role = "Contributor"
	RoleViewer      Role = "Viewer"
)

// User is a vault member. Users are created at vault provisioning and
// immutable for the life of the process.
type User struct {
	ID     string `json:"id" mapstructure:"id"`
	Name   string `json:"name" mapstructure:"name"`
	Avatar string `json:"avatar" mapstructure:"avatar"`
	Role   Role   `json:"role" mapstructure:"role"`
}

// BudgetCategory holds the fixed allocation target for one spending
// category and the members' current proposals for splitting it.
type BudgetCategory struct {
	ID        string             `json:"category_id" mapstructure:"id"`
	Name      string             `json:"category_name" mapstructure:"name"`
	Icon      string             `json:"icon" mapstructure:"icon"`
	Color     string             `json:"color" mapstructure:"color"`
	Allocated float64            `json:"allocated" mapstructure:"allocated"`
	Proposals map[string]float64 `json:"proposals" mapstructure:"proposals"`
}

// VoteValue is a member's answer to the open vote.
type VoteValue string

const (
	VoteYes   VoteValue = "yes"
	VoteNo    VoteValue = "no"
	VoteUnset VoteValue = ""
)

// VoteStatus is the lifecycle state of a vote.
type VoteStatus string

const (
	VoteOpen   VoteStatus = "open"
	VoteClosed VoteStatus = "closed"
)

// Vote is the single yes/no decision a vault holds.
type Vote struct {
	ID       string               `json:"id" mapstructure:"id"`
	Question string               `json:"question" mapstructure:"question"`
	Votes    map[string]VoteValue `json:"votes"`
	Status   VoteStatus           `json:"status"`
}

// ChatMessage is one entry of the vault's discussion thread.
// Messages are append-only and never mutated after insertion.
type ChatMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"message"`
}

// AuditEntry records one accepted mutation of vault state.
// The audit trail is append-only; entries are held newest-first
// for display but never reordered once inserted.
type AuditEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserName  string    `json:"user_name"`
	Action    string    `json:"action"`
}

// Snapshot is the full consistent view of one vault, handed to
// subscribers after a command completes. It shares no mutable data
// with the live state.
type Snapshot struct {
	VaultID     string                    `json:"vault_id"`
	Users       []User                    `json:"users"`
	OnlineUsers []string                  `json:"online_users"`
	Budget      map[string]BudgetCategory `json:"budget"`
	Vote        Vote                      `json:"vote"`
	Chat        []ChatMessage             `json:"chat"`
	AuditLog    []AuditEntry              `json:"audit_log"`
}
