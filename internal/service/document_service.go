package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/litigo/ediscovery-api/internal/ingest"
	"github.com/litigo/ediscovery-api/internal/models"
	"github.com/litigo/ediscovery-api/internal/repository"
	appErrors "github.com/litigo/ediscovery-api/pkg/errors"
)

type documentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListFamilyRoots(ctx context.Context, matterID string, limit, offset int) ([]models.Document, error)
	CountFamilyRoots(ctx context.Context, matterID string) (int, error)
	ListFamily(ctx context.Context, familyID string) ([]models.Document, error)
	ListChildren(ctx context.Context, parentID string) ([]models.Document, error)
	UpdateCoding(ctx context.Context, id string, params repository.UpdateCodingParams) error
}

type folderStore interface {
	Create(ctx context.Context, folder *models.Folder) error
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	ListByMatter(ctx context.Context, matterID string) ([]models.Folder, error)
	AddDocument(ctx context.Context, folderID, documentID string) error
	RemoveDocument(ctx context.Context, folderID, documentID string) error
}

type familyCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type ingestEnqueuer interface {
	Enqueue(documentID string, forceOCR bool) error
}

const familyCacheTTL = 5 * time.Minute

// DocumentService covers the synchronous document surface: upload, retrieval,
// family projection, folder filing and review coding.
type DocumentService struct {
	docs      documentStore
	folders   folderStore
	storage   objectStore
	ingestion ingestEnqueuer
	audit     auditAppender
	cache     familyCache
	logger    *zap.Logger
}

// NewDocumentService constructs the document service.
func NewDocumentService(docs documentStore, folders folderStore, storage objectStore, ingestion ingestEnqueuer, audit auditAppender, cache familyCache, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		docs:      docs,
		folders:   folders,
		storage:   storage,
		ingestion: ingestion,
		audit:     audit,
		cache:     cache,
		logger:    logger,
	}
}

// Upload stores the original bytes, fingerprints them once, persists the
// document row and enqueues ingestion. The original bytes are never rewritten
// after this point.
func (s *DocumentService) Upload(ctx context.Context, matterID, filename, contentType string, data []byte, userID *string) (*models.Document, error) {
	if matterID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "matterId is required")
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "uploaded file is empty")
	}
	if filename == "" {
		filename = "document"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// The storage path embeds the generated ID, so the ID is assigned here
	// and the bytes land in storage before the row is inserted: the persisted
	// row must already carry the path the ingestion worker will load.
	fp := ingest.ComputeFingerprint(data)
	doc := &models.Document{
		ID:               uuid.NewString(),
		MatterID:         matterID,
		ContentType:      contentType,
		OriginalFilename: filename,
		HashMD5:          fp.MD5,
		HashSHA1:         fp.SHA1,
		Status:           models.DocumentStatusUploaded,
		Metadata:         models.MetadataMap{},
	}
	doc.StoragePath = path.Join(matterID, "originals", doc.ID+path.Ext(filename))
	if _, err := s.storage.Save(doc.StoragePath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create document")
	}

	s.appendAudit(ctx, doc.ID, userID, models.AuditActionUpload, models.MetadataMap{
		"filename": filename,
		"md5":      fp.MD5,
		"sha1":     fp.SHA1,
	})

	if err := s.ingestion.Enqueue(doc.ID, false); err != nil {
		s.logger.Sugar().Warnw("failed to enqueue ingestion", "document_id", doc.ID, "error", err)
	}
	return doc, nil
}

// Get returns one document and records a view audit entry.
func (s *DocumentService) Get(ctx context.Context, id string, userID *string) (*models.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	s.appendAudit(ctx, doc.ID, userID, models.AuditActionView, nil)
	return doc, nil
}

// ListFamilyRoots pages through a matter's top-level documents.
func (s *DocumentService) ListFamilyRoots(ctx context.Context, matterID string, limit, offset int) ([]models.Document, int, error) {
	docs, err := s.docs.ListFamilyRoots(ctx, matterID, limit, offset)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	total, err := s.docs.CountFamilyRoots(ctx, matterID)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count documents")
	}
	return docs, total, nil
}

// GetFamily returns the family projection rooted at the given document, via
// the cache when warm.
func (s *DocumentService) GetFamily(ctx context.Context, documentID string) (*models.FamilyGroup, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	cacheKey := fmt.Sprintf("family:%s", doc.FamilyID)
	if s.cache != nil {
		var cached models.FamilyGroup
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	members, err := s.docs.ListFamily(ctx, doc.FamilyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list family")
	}

	group := &models.FamilyGroup{}
	found := false
	for _, member := range members {
		if member.IsFamilyRoot() {
			group.Root = member
			found = true
			continue
		}
		group.Children = append(group.Children, member)
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "family root not found")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, group, familyCacheTTL); err != nil {
			s.logger.Sugar().Debugw("failed to cache family group", "family_id", doc.FamilyID, "error", err)
		}
	}
	return group, nil
}

// GetAttachments returns the direct children of a container document, in
// attachment order. Unlike the family projection this does not descend into
// nested containers.
func (s *DocumentService) GetAttachments(ctx context.Context, documentID string) ([]models.Document, error) {
	if _, err := s.docs.GetByID(ctx, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	children, err := s.docs.ListChildren(ctx, documentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attachments")
	}
	return children, nil
}

// InvalidateFamily drops cached projections after ingestion writes.
func (s *DocumentService) InvalidateFamily(ctx context.Context, familyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("family:%s", familyID)); err != nil {
		s.logger.Sugar().Debugw("failed to invalidate family cache", "family_id", familyID, "error", err)
	}
}

// UpdateCoding patches review coding fields and records a tag audit entry.
func (s *DocumentService) UpdateCoding(ctx context.Context, id string, params repository.UpdateCodingParams, userID *string) (*models.Document, error) {
	if _, err := s.docs.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if err := s.docs.UpdateCoding(ctx, id, params); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update coding")
	}
	s.appendAudit(ctx, id, userID, models.AuditActionTag, nil)
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload document")
	}
	// Coding fields are part of the cached family projection.
	s.InvalidateFamily(ctx, doc.FamilyID)
	return doc, nil
}

// Reingest re-runs ingestion for a document, optionally forcing OCR.
func (s *DocumentService) Reingest(ctx context.Context, id string, forceOCR bool) error {
	if _, err := s.docs.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if err := s.ingestion.Enqueue(id, forceOCR); err != nil {
		return err
	}
	return nil
}

// CreateFolder persists a new review folder, checking the parent when set.
func (s *DocumentService) CreateFolder(ctx context.Context, folder *models.Folder) error {
	if folder.Name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "folder name is required")
	}
	if folder.ParentID != nil {
		parent, err := s.folders.GetByID(ctx, *folder.ParentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "parent folder not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent folder")
		}
		if parent.MatterID != folder.MatterID {
			return appErrors.Clone(appErrors.ErrValidation, "parent folder belongs to a different matter")
		}
	}
	if err := s.folders.Create(ctx, folder); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create folder")
	}
	return nil
}

// ListFolders returns a matter's review folders.
func (s *DocumentService) ListFolders(ctx context.Context, matterID string) ([]models.Folder, error) {
	folders, err := s.folders.ListByMatter(ctx, matterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list folders")
	}
	return folders, nil
}

// FileDocument assigns a document to a folder.
func (s *DocumentService) FileDocument(ctx context.Context, folderID, documentID string) error {
	if _, err := s.folders.GetByID(ctx, folderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check folder")
	}
	if _, err := s.docs.GetByID(ctx, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check document")
	}
	if err := s.folders.AddDocument(ctx, folderID, documentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to file document")
	}
	return nil
}

// UnfileDocument removes a document from a folder. Removing a document that
// was never filed is a no-op.
func (s *DocumentService) UnfileDocument(ctx context.Context, folderID, documentID string) error {
	if _, err := s.folders.GetByID(ctx, folderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check folder")
	}
	if err := s.folders.RemoveDocument(ctx, folderID, documentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unfile document")
	}
	return nil
}

func (s *DocumentService) appendAudit(ctx context.Context, documentID string, userID *string, action string, metadata models.MetadataMap) {
	entry := &models.AuditLog{
		UserID:     userID,
		DocumentID: &documentID,
		ActionType: action,
		Metadata:   metadata,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Sugar().Warnw("failed to append audit entry", "document_id", documentID, "action", action, "error", err)
	}
}
