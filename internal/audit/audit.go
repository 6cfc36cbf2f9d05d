package audit

import (
	"context"

	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
)

// Audit actions for the live engagement backend.
const (
	ActionCreateStream = "stream.create"
	ActionStartStream  = "stream.start"
	ActionEndStream    = "stream.end"
	ActionCancelStream = "stream.cancel"
	ActionBanViewer    = "stream.ban"
	ActionUnbanViewer  = "stream.unban"
	ActionModerate     = "stream.moderate"
	ActionRemoveChat   = "stream.remove_chat"
	ActionCreatePoll   = "stream.create_poll"
	ActionEndPoll      = "stream.end_poll"
	ActionAnswer       = "stream.answer_question"
	ActionArchive      = "stream.archive_question"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
	FieldDetail   = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithTarget emits an audit log naming the acted-on entity.
func LogWithTarget(ctx context.Context, action string, userID string, targetID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldTargetID, targetID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
