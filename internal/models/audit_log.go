package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Event types recorded for moderation auditing
const (
	AuditEventTypeSuspension     = "suspension_applied"
	AuditEventTypeSuspensionLift = "suspension_lifted"
	AuditEventTypeWarning        = "warning_issued"
	AuditEventTypeReportResolved = "report_resolved"
	AuditEventTypeVendorVerified = "vendor_verified"
	AuditEventTypeLogin          = "login"
	AuditEventTypeLogout         = "logout"
)

type AuditLog struct {
	ID        string        `db:"id"`
	EventType string        `db:"event_type"`
	ActorID   *string       `db:"actor_id"`  // nil for system-initiated events (e.g. expiry lift)
	TargetID  *string       `db:"target_id"` // the affected account
	Success   bool          `db:"success"`
	Metadata  AuditMetadata `db:"metadata"`
	CreatedAt time.Time     `db:"created_at"`
}

// AuditMetadata holds additional context for audit events
type AuditMetadata map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (am *AuditMetadata) Scan(value interface{}) error {
	if value == nil {
		*am = make(AuditMetadata)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*am = AuditMetadata(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (am AuditMetadata) Value() (driver.Value, error) {
	if am == nil {
		return nil, nil
	}
	return json.Marshal(am)
}
