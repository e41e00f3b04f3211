package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/litigo/ediscovery-api/internal/models"
)

// FolderRepository persists review folders and document memberships.
type FolderRepository struct {
	db *sqlx.DB
}

// NewFolderRepository constructs the repository.
func NewFolderRepository(db *sqlx.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// Create inserts a new folder row.
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO folders (id, matter_id, parent_id, name, created_at)
VALUES (:id, :matter_id, :parent_id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, folder); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

// GetByID returns a folder row by its identifier.
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	const query = `SELECT id, matter_id, parent_id, name, created_at FROM folders WHERE id = $1`
	var folder models.Folder
	if err := r.db.GetContext(ctx, &folder, query, id); err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return &folder, nil
}

// ListByMatter returns all folders of a matter.
func (r *FolderRepository) ListByMatter(ctx context.Context, matterID string) ([]models.Folder, error) {
	const query = `SELECT id, matter_id, parent_id, name, created_at FROM folders WHERE matter_id = $1 ORDER BY created_at ASC`
	var folders []models.Folder
	if err := r.db.SelectContext(ctx, &folders, query, matterID); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

// ListChildren returns the direct children of the given folders. Callers
// iterate this to walk the subtree one level at a time.
func (r *FolderRepository) ListChildren(ctx context.Context, parentIDs []string) ([]models.Folder, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, matter_id, parent_id, name, created_at FROM folders WHERE parent_id = ANY($1) ORDER BY created_at ASC`
	var folders []models.Folder
	if err := r.db.SelectContext(ctx, &folders, query, pq.Array(parentIDs)); err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	return folders, nil
}

// AddDocument files a document into a folder; refiling is a no-op.
func (r *FolderRepository) AddDocument(ctx context.Context, folderID, documentID string) error {
	const query = `INSERT INTO document_folders (document_id, folder_id, added_at)
VALUES ($1, $2, $3) ON CONFLICT (document_id, folder_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, documentID, folderID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add document to folder: %w", err)
	}
	return nil
}

// RemoveDocument unfiles a document from a folder.
func (r *FolderRepository) RemoveDocument(ctx context.Context, folderID, documentID string) error {
	const query = `DELETE FROM document_folders WHERE document_id = $1 AND folder_id = $2`
	if _, err := r.db.ExecContext(ctx, query, documentID, folderID); err != nil {
		return fmt.Errorf("remove document from folder: %w", err)
	}
	return nil
}
