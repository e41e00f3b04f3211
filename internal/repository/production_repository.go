package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/litigo/ediscovery-api/internal/models"
)

const productionColumns = `id, matter_id, name, bates_prefix, bates_start, folder_id, include_subfolders, status, output_path, error_message, created_at, started_at, completed_at`

// ProductionRepository persists production jobs and their document/page
// ledgers.
type ProductionRepository struct {
	db *sqlx.DB
}

// NewProductionRepository constructs the repository.
func NewProductionRepository(db *sqlx.DB) *ProductionRepository {
	return &ProductionRepository{db: db}
}

// Create inserts a new production job row.
func (r *ProductionRepository) Create(ctx context.Context, production *models.Production) error {
	if production.ID == "" {
		production.ID = uuid.NewString()
	}
	if production.Status == "" {
		production.Status = models.ProductionStatusPending
	}
	if production.CreatedAt.IsZero() {
		production.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO productions (id, matter_id, name, bates_prefix, bates_start, folder_id, include_subfolders, status, output_path, error_message, created_at, started_at, completed_at)
VALUES (:id, :matter_id, :name, :bates_prefix, :bates_start, :folder_id, :include_subfolders, :status, :output_path, :error_message, :created_at, :started_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, production); err != nil {
		return fmt.Errorf("create production: %w", err)
	}
	return nil
}

// GetByID returns a production row by its identifier.
func (r *ProductionRepository) GetByID(ctx context.Context, id string) (*models.Production, error) {
	query := fmt.Sprintf(`SELECT %s FROM productions WHERE id = $1`, productionColumns)
	var production models.Production
	if err := r.db.GetContext(ctx, &production, query, id); err != nil {
		return nil, fmt.Errorf("get production: %w", err)
	}
	return &production, nil
}

// ListByMatter returns a matter's productions, newest first.
func (r *ProductionRepository) ListByMatter(ctx context.Context, matterID string) ([]models.Production, error) {
	query := fmt.Sprintf(`SELECT %s FROM productions WHERE matter_id = $1 ORDER BY created_at DESC`, productionColumns)
	var productions []models.Production
	if err := r.db.SelectContext(ctx, &productions, query, matterID); err != nil {
		return nil, fmt.Errorf("list productions: %w", err)
	}
	return productions, nil
}

// TransitionStatus advances the job only when it still holds the expected
// status, reporting whether the row moved. The guard makes double-starts lose
// the race at the database rather than in memory.
func (r *ProductionRepository) TransitionStatus(ctx context.Context, id string, from, to models.ProductionStatus) (bool, error) {
	var query string
	switch to {
	case models.ProductionStatusProcessing:
		query = `UPDATE productions SET status = $1, started_at = $2 WHERE id = $3 AND status = $4`
	default:
		query = `UPDATE productions SET status = $1, completed_at = $2 WHERE id = $3 AND status = $4`
	}
	res, err := r.db.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("transition production status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition production status: %w", err)
	}
	return affected == 1, nil
}

// UpdateProductionParams defines the mutable result fields.
type UpdateProductionParams struct {
	OutputPath   *string
	ErrorMessage *string
}

// Update persists the provided result fields.
func (r *ProductionRepository) Update(ctx context.Context, id string, params UpdateProductionParams) error {
	set := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	argPos := 1

	if params.OutputPath != nil {
		set = append(set, fmt.Sprintf("output_path = $%d", argPos))
		args = append(args, *params.OutputPath)
		argPos++
	}
	if params.ErrorMessage != nil {
		set = append(set, fmt.Sprintf("error_message = $%d", argPos))
		args = append(args, *params.ErrorMessage)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE productions SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update production: %w", err)
	}
	return nil
}

// CreateDocumentRow appends one per-document ledger entry.
func (r *ProductionRepository) CreateDocumentRow(ctx context.Context, row *models.ProductionDocument) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO production_documents (id, production_id, document_id, bates_begin, bates_end, page_count, is_placeholder, native_filename, created_at)
VALUES (:id, :production_id, :document_id, :bates_begin, :bates_end, :page_count, :is_placeholder, :native_filename, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create production document: %w", err)
	}
	return nil
}

// CreatePageRow appends one per-page ledger entry.
func (r *ProductionRepository) CreatePageRow(ctx context.Context, row *models.ProductionPage) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO production_pages (id, production_id, document_id, page_number, bates_number, image_path, created_at)
VALUES (:id, :production_id, :document_id, :page_number, :bates_number, :image_path, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create production page: %w", err)
	}
	return nil
}

// ListDocuments returns the per-document ledger in Bates order.
func (r *ProductionRepository) ListDocuments(ctx context.Context, productionID string) ([]models.ProductionDocument, error) {
	const query = `SELECT id, production_id, document_id, bates_begin, bates_end, page_count, is_placeholder, native_filename, created_at
FROM production_documents WHERE production_id = $1 ORDER BY bates_begin ASC`
	var rows []models.ProductionDocument
	if err := r.db.SelectContext(ctx, &rows, query, productionID); err != nil {
		return nil, fmt.Errorf("list production documents: %w", err)
	}
	return rows, nil
}

// ListPages returns the per-page ledger in Bates order.
func (r *ProductionRepository) ListPages(ctx context.Context, productionID string) ([]models.ProductionPage, error) {
	const query = `SELECT id, production_id, document_id, page_number, bates_number, image_path, created_at
FROM production_pages WHERE production_id = $1 ORDER BY bates_number ASC`
	var rows []models.ProductionPage
	if err := r.db.SelectContext(ctx, &rows, query, productionID); err != nil {
		return nil, fmt.Errorf("list production pages: %w", err)
	}
	return rows, nil
}
