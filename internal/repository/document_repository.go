package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/litigo/ediscovery-api/internal/models"
)

const documentColumns = `id, matter_id, parent_id, family_id, family_index, storage_path, hash_md5, hash_sha1, content_type, original_filename, metadata, text_path, status, error_message, relevance, privilege, issue_tags, created_at, updated_at`

// DocumentRepository persists documents and their family relationships.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new document row with generated defaults. A document with
// no parent heads its own family, so FamilyID defaults to the document's own
// ID when unset.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.FamilyID == "" {
		doc.FamilyID = doc.ID
	}
	if doc.Status == "" {
		doc.Status = models.DocumentStatusUploaded
	}
	if doc.Metadata == nil {
		doc.Metadata = models.MetadataMap{}
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	const query = `INSERT INTO documents (id, matter_id, parent_id, family_id, family_index, storage_path, hash_md5, hash_sha1, content_type, original_filename, metadata, text_path, status, error_message, relevance, privilege, issue_tags, created_at, updated_at)
VALUES (:id, :matter_id, :parent_id, :family_id, :family_index, :storage_path, :hash_md5, :hash_sha1, :content_type, :original_filename, :metadata, :text_path, :status, :error_message, :relevance, :privilege, :issue_tags, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetByID returns a document row by its identifier.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1`, documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// ListFamilyRoots pages through the top-level documents of a matter.
func (r *DocumentRepository) ListFamilyRoots(ctx context.Context, matterID string, limit, offset int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE matter_id = $1 AND parent_id IS NULL ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3`, documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, matterID, limit, offset); err != nil {
		return nil, fmt.Errorf("list family roots: %w", err)
	}
	return docs, nil
}

// CountFamilyRoots returns the total top-level documents for pagination.
func (r *DocumentRepository) CountFamilyRoots(ctx context.Context, matterID string) (int, error) {
	const query = `SELECT COUNT(*) FROM documents WHERE matter_id = $1 AND parent_id IS NULL`
	var total int
	if err := r.db.GetContext(ctx, &total, query, matterID); err != nil {
		return 0, fmt.Errorf("count family roots: %w", err)
	}
	return total, nil
}

// ListFamily returns every member of a family ordered root-first by family
// index, with insertion order breaking ties.
func (r *DocumentRepository) ListFamily(ctx context.Context, familyID string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE family_id = $1 ORDER BY family_index ASC, created_at ASC`, documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, familyID); err != nil {
		return nil, fmt.Errorf("list family: %w", err)
	}
	return docs, nil
}

// ListChildren returns the direct children of a container document.
func (r *DocumentRepository) ListChildren(ctx context.Context, parentID string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE parent_id = $1 ORDER BY family_index ASC`, documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, parentID); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return docs, nil
}

// ListByFolderIDs returns the distinct documents filed in any of the given
// folders, in deterministic insertion order for stable Bates assignment.
func (r *DocumentRepository) ListByFolderIDs(ctx context.Context, folderIDs []string) ([]models.Document, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT DISTINCT d.%s FROM documents d
JOIN document_folders df ON df.document_id = d.id
WHERE df.folder_id = ANY($1)
ORDER BY d.created_at ASC, d.id ASC`, strings.ReplaceAll(documentColumns, ", ", ", d."))
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, pq.Array(folderIDs)); err != nil {
		return nil, fmt.Errorf("list documents by folders: %w", err)
	}
	return docs, nil
}

// ListByMatter returns every document in a matter in insertion order.
func (r *DocumentRepository) ListByMatter(ctx context.Context, matterID string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE matter_id = $1 ORDER BY created_at ASC, id ASC`, documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, matterID); err != nil {
		return nil, fmt.Errorf("list documents by matter: %w", err)
	}
	return docs, nil
}

// UpdateStatus transitions the ingestion state and optionally records the
// terminal error message.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus, errorMessage *string) error {
	const query = `UPDATE documents SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, status, errorMessage, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

// UpdateMetadata replaces the stored metadata map.
func (r *DocumentRepository) UpdateMetadata(ctx context.Context, id string, metadata models.MetadataMap) error {
	const query = `UPDATE documents SET metadata = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, metadata, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update document metadata: %w", err)
	}
	return nil
}

// UpdateTextPath records where the extracted text body lives.
func (r *DocumentRepository) UpdateTextPath(ctx context.Context, id, textPath string) error {
	const query = `UPDATE documents SET text_path = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, textPath, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update document text path: %w", err)
	}
	return nil
}

// UpdateCodingParams defines the mutable review coding fields.
type UpdateCodingParams struct {
	Relevance *bool
	Privilege *bool
	IssueTags *[]string
}

// UpdateCoding persists the provided coding changes.
func (r *DocumentRepository) UpdateCoding(ctx context.Context, id string, params UpdateCodingParams) error {
	set := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)
	argPos := 1

	if params.Relevance != nil {
		set = append(set, fmt.Sprintf("relevance = $%d", argPos))
		args = append(args, *params.Relevance)
		argPos++
	}
	if params.Privilege != nil {
		set = append(set, fmt.Sprintf("privilege = $%d", argPos))
		args = append(args, *params.Privilege)
		argPos++
	}
	if params.IssueTags != nil {
		set = append(set, fmt.Sprintf("issue_tags = $%d", argPos))
		args = append(args, pq.StringArray(*params.IssueTags))
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	set = append(set, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	query := fmt.Sprintf("UPDATE documents SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update document coding: %w", err)
	}
	return nil
}
