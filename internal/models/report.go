package models

import "time"

// ModerationAction is the final action recorded on a resolved report.
type ModerationAction string

const (
	ActionNone   ModerationAction = "none"
	ActionWarn   ModerationAction = "warn"
	ActionDelete ModerationAction = "delete"
	ActionBan    ModerationAction = "ban"
)

// Message is a single chat message. Moderators soft-delete messages: the row
// stays but IsModeratorDeleted hides it from conversation views.
type Message struct {
	ID                 string
	ConversationID     string
	SenderID           string
	TextContent        string
	IsRead             bool
	IsModeratorDeleted bool
	CreatedAt          time.Time
}

// MessageReport is one user's report against one message. At most one report
// exists per (message, reporter) pair; the moderation engine resolves or
// deletes it.
type MessageReport struct {
	ID               string
	MessageID        string
	ReporterID       string
	Reason           string
	ReportedAt       time.Time
	IsResolved       bool
	ModerationAction ModerationAction
	ModeratorID      *string
	ResolutionNotes  string
	ResolvedAt       *time.Time

	// Denormalized sender of the reported message, populated on read. The
	// moderation engine needs it for warning accumulation and dedupe.
	SenderID string
}
