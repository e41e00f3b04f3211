package models

import "time"

// AuditAction constants represent actions recorded on the audit trail.
const (
	AuditActionView    = "view"
	AuditActionUpload  = "upload"
	AuditActionTag     = "tag"
	AuditActionRedact  = "redact"
	AuditActionProduce = "produce"
)

// AuditLog is one append-only audit trail record, consumed by compliance
// tooling. Rows are never updated or deleted.
type AuditLog struct {
	ID         string      `db:"id" json:"id"`
	UserID     *string     `db:"user_id" json:"userId,omitempty"`
	DocumentID *string     `db:"document_id" json:"documentId,omitempty"`
	ActionType string      `db:"action_type" json:"actionType"`
	Metadata   MetadataMap `db:"metadata" json:"metadata"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
}
