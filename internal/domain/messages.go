package domain

// WebSocket message types from client.
const (
	MsgTypeAuth            = "auth"
	MsgTypeUpdateProposal  = "budget:update-proposal"
	MsgTypeResolveConflict = "budget:resolve-conflict"
	MsgTypeSubmitVote      = "vote:submit"
	MsgTypeSendMessage     = "chat:send-message"
	MsgTypePing            = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeAuthResult   = "auth_result"
	MsgTypeUpdate       = "update"
	MsgTypeNotification = "notification"
	MsgTypeError        = "error"
	MsgTypePong         = "pong"
)

// Error codes
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type AuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type UpdateProposalMessage struct {
	Type       string  `json:"type"`
	CategoryID string  `json:"category_id"`
	Amount     float64 `json:"amount"`
}

type ResolveConflictMessage struct {
	Type       string `json:"type"`
	CategoryID string `json:"category_id"`
}

type SubmitVoteMessage struct {
	Type string `json:"type"`
	Vote string `json:"vote"`
}

type SendChatMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Server -> Client messages

type AuthResultMessage struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	UserID   string `json:"user_id,omitempty"`
	UserName string `json:"user_name,omitempty"`
	VaultID  string `json:"vault_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

type UpdateMessage struct {
	Type  string    `json:"type"`
	State *Snapshot `json:"state"`
}

type NotificationMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}

func NewNotification(message string) *NotificationMessage {
	return &NotificationMessage{
		Type:    MsgTypeNotification,
		Message: message,
	}
}
