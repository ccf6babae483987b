package logger

import "context"

const (
	ActionRegister      = "auth.register"
	ActionLogin         = "auth.login"
	ActionLogout        = "auth.logout"
	ActionSessionCreate = "chat.session.create"
	ActionSessionRename = "chat.session.rename"
	ActionSessionDelete = "chat.session.delete"
)

// Audit emits a structured audit entry through the request logger.
func Audit(ctx context.Context, action, userID, msg string) {
	l := Ctx(ctx)
	l.Info().
		Str(FieldLogType, LogTypeAudit).
		Str(FieldAction, action).
		Str(FieldUserID, userID).
		Msg(msg)
}
