package audit

import (
	"context"

	"github.com/hearthshare/vault-service/pkg/log"
)

// Audit actions for vault-service.
const (
	ActionConnect        = "vault.connect"
	ActionDisconnect     = "vault.disconnect"
	ActionUpdateProposal = "vault.update_proposal"
	ActionResolve        = "vault.resolve_conflict"
	ActionVote           = "vault.vote"
	ActionChat           = "vault.chat"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger. The
// in-state audit ledger stays authoritative; this line is operational
// observability only.
func Log(ctx context.Context, action, vaultID, userID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldVaultID, vaultID).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with an extra detail field.
func LogWithDetail(ctx context.Context, action, vaultID, userID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldVaultID, vaultID).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
