package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/litigo/ediscovery-api/internal/models"
)

// AuditRepository appends to the immutable audit trail. There is no update or
// delete path on purpose.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append records one audit entry.
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Metadata == nil {
		entry.Metadata = models.MetadataMap{}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, document_id, action_type, metadata, created_at)
VALUES (:id, :user_id, :document_id, :action_type, :metadata, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListByDocument returns a document's audit trail, oldest first.
func (r *AuditRepository) ListByDocument(ctx context.Context, documentID string) ([]models.AuditLog, error) {
	const query = `SELECT id, user_id, document_id, action_type, metadata, created_at
FROM audit_logs WHERE document_id = $1 ORDER BY created_at ASC`
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, documentID); err != nil {
		return nil, fmt.Errorf("list document audit trail: %w", err)
	}
	return entries, nil
}

// ListByAction returns entries of one action type within a time window,
// oldest first. Production reporting uses this to reconstruct what a job did.
func (r *AuditRepository) ListByAction(ctx context.Context, actionType string, since time.Time, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 500
	}
	const query = `SELECT id, user_id, document_id, action_type, metadata, created_at
FROM audit_logs WHERE action_type = $1 AND created_at >= $2 ORDER BY created_at ASC LIMIT $3`
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, actionType, since, limit); err != nil {
		return nil, fmt.Errorf("list audit entries by action: %w", err)
	}
	return entries, nil
}
