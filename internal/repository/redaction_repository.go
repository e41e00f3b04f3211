package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/litigo/ediscovery-api/internal/models"
)

const redactionColumns = `id, document_id, page_number, x, y, width, height, reason_code, polygon, created_by, created_at, updated_at`

// RedactionRepository persists reviewer-authored redaction regions.
type RedactionRepository struct {
	db *sqlx.DB
}

// NewRedactionRepository constructs the repository.
func NewRedactionRepository(db *sqlx.DB) *RedactionRepository {
	return &RedactionRepository{db: db}
}

// Create inserts a new redaction row.
func (r *RedactionRepository) Create(ctx context.Context, redaction *models.Redaction) error {
	if redaction.ID == "" {
		redaction.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if redaction.CreatedAt.IsZero() {
		redaction.CreatedAt = now
	}
	redaction.UpdatedAt = now
	const query = `INSERT INTO redactions (id, document_id, page_number, x, y, width, height, reason_code, polygon, created_by, created_at, updated_at)
VALUES (:id, :document_id, :page_number, :x, :y, :width, :height, :reason_code, :polygon, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, redaction); err != nil {
		return fmt.Errorf("create redaction: %w", err)
	}
	return nil
}

// GetByID returns a redaction row by its identifier.
func (r *RedactionRepository) GetByID(ctx context.Context, id string) (*models.Redaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM redactions WHERE id = $1`, redactionColumns)
	var redaction models.Redaction
	if err := r.db.GetContext(ctx, &redaction, query, id); err != nil {
		return nil, fmt.Errorf("get redaction: %w", err)
	}
	return &redaction, nil
}

// Update rewrites the geometry and reason of an existing redaction.
func (r *RedactionRepository) Update(ctx context.Context, redaction *models.Redaction) error {
	redaction.UpdatedAt = time.Now().UTC()
	const query = `UPDATE redactions SET page_number = :page_number, x = :x, y = :y, width = :width, height = :height, reason_code = :reason_code, polygon = :polygon, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, redaction); err != nil {
		return fmt.Errorf("update redaction: %w", err)
	}
	return nil
}

// Delete removes a redaction row.
func (r *RedactionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM redactions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete redaction: %w", err)
	}
	return nil
}

// ListByDocument returns all redactions on a document, page order first.
func (r *RedactionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Redaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM redactions WHERE document_id = $1 ORDER BY page_number ASC, created_at ASC`, redactionColumns)
	var redactions []models.Redaction
	if err := r.db.SelectContext(ctx, &redactions, query, documentID); err != nil {
		return nil, fmt.Errorf("list redactions: %w", err)
	}
	return redactions, nil
}

// ListByDocumentPage returns the redactions burned onto one page.
func (r *RedactionRepository) ListByDocumentPage(ctx context.Context, documentID string, pageNumber int) ([]models.Redaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM redactions WHERE document_id = $1 AND page_number = $2 ORDER BY created_at ASC`, redactionColumns)
	var redactions []models.Redaction
	if err := r.db.SelectContext(ctx, &redactions, query, documentID, pageNumber); err != nil {
		return nil, fmt.Errorf("list page redactions: %w", err)
	}
	return redactions, nil
}
