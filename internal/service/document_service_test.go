package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/litigo/ediscovery-api/internal/models"
	"github.com/litigo/ediscovery-api/internal/repository"
	appErrors "github.com/litigo/ediscovery-api/pkg/errors"
)

func (s *docStoreStub) ListFamilyRoots(ctx context.Context, matterID string, limit, offset int) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Document
	for _, doc := range s.docs {
		if doc.MatterID == matterID && doc.ParentID == nil {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *docStoreStub) CountFamilyRoots(ctx context.Context, matterID string) (int, error) {
	roots, _ := s.ListFamilyRoots(ctx, matterID, 0, 0)
	return len(roots), nil
}

func (s *docStoreStub) ListFamily(ctx context.Context, familyID string) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Document
	for _, doc := range s.docs {
		if doc.FamilyID == familyID {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FamilyIndex < out[j].FamilyIndex })
	return out, nil
}

func (s *docStoreStub) ListChildren(ctx context.Context, parentID string) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Document
	for _, doc := range s.docs {
		if doc.ParentID != nil && *doc.ParentID == parentID {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FamilyIndex < out[j].FamilyIndex })
	return out, nil
}

func (s *docStoreStub) UpdateCoding(ctx context.Context, id string, params repository.UpdateCodingParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Relevance != nil {
		doc.Relevance = params.Relevance
	}
	if params.Privilege != nil {
		doc.Privilege = params.Privilege
	}
	if params.IssueTags != nil {
		doc.IssueTags = pq.StringArray(*params.IssueTags)
	}
	return nil
}

type folderStoreStub struct {
	folders     map[string]*models.Folder
	memberships map[string][]string
}

func newFolderStoreStub() *folderStoreStub {
	return &folderStoreStub{folders: map[string]*models.Folder{}, memberships: map[string][]string{}}
}

func (s *folderStoreStub) Create(ctx context.Context, folder *models.Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	s.folders[folder.ID] = folder
	return nil
}

func (s *folderStoreStub) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	folder, ok := s.folders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return folder, nil
}

func (s *folderStoreStub) ListByMatter(ctx context.Context, matterID string) ([]models.Folder, error) {
	var out []models.Folder
	for _, folder := range s.folders {
		if folder.MatterID == matterID {
			out = append(out, *folder)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *folderStoreStub) AddDocument(ctx context.Context, folderID, documentID string) error {
	s.memberships[folderID] = append(s.memberships[folderID], documentID)
	return nil
}

func (s *folderStoreStub) RemoveDocument(ctx context.Context, folderID, documentID string) error {
	members := s.memberships[folderID]
	for i, id := range members {
		if id == documentID {
			s.memberships[folderID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}

type enqueuerStub struct {
	enqueued []string
	forced   []bool
}

func (e *enqueuerStub) Enqueue(documentID string, forceOCR bool) error {
	e.enqueued = append(e.enqueued, documentID)
	e.forced = append(e.forced, forceOCR)
	return nil
}

func newDocumentServiceForTest(t *testing.T) (*DocumentService, *docStoreStub, *storageStub, *enqueuerStub, *auditStub) {
	t.Helper()
	docs := newDocStoreStub()
	storage := newStorageStub()
	enqueuer := &enqueuerStub{}
	audit := &auditStub{}
	svc := NewDocumentService(docs, newFolderStoreStub(), storage, enqueuer, audit, nil, zap.NewNop())
	return svc, docs, storage, enqueuer, audit
}

func TestDocumentUploadFingerprintsAndEnqueues(t *testing.T) {
	svc, docs, storage, enqueuer, audit := newDocumentServiceForTest(t)

	data := []byte("original document bytes")
	doc, err := svc.Upload(context.Background(), "matter-1", "contract.pdf", "application/pdf", data, nil)
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)
	require.Equal(t, models.DocumentStatusUploaded, doc.Status)
	require.Len(t, doc.HashMD5, 32)
	require.Len(t, doc.HashSHA1, 40)

	stored, err := storage.Load(doc.StoragePath)
	require.NoError(t, err)
	require.Equal(t, data, stored)

	// Same bytes hash identically on re-upload.
	again, err := svc.Upload(context.Background(), "matter-1", "copy.pdf", "application/pdf", data, nil)
	require.NoError(t, err)
	require.Equal(t, doc.HashMD5, again.HashMD5)
	require.Equal(t, doc.HashSHA1, again.HashSHA1)

	require.Len(t, enqueuer.enqueued, 2)
	require.Equal(t, doc.ID, enqueuer.enqueued[0])
	require.False(t, enqueuer.forced[0])

	require.Len(t, audit.entries, 2)
	require.Equal(t, models.AuditActionUpload, audit.entries[0].ActionType)
	require.Equal(t, doc.HashMD5, audit.entries[0].Metadata["md5"])

	// The persisted row must carry the storage path the ingestion worker
	// will load, not just the in-memory struct returned to the caller.
	persisted, err := docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, persisted.StoragePath)
	require.Equal(t, doc.StoragePath, persisted.StoragePath)
}

func TestDocumentUploadRejectsEmptyFile(t *testing.T) {
	svc, _, _, _, _ := newDocumentServiceForTest(t)

	_, err := svc.Upload(context.Background(), "matter-1", "empty.pdf", "application/pdf", nil, nil)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDocumentGetRecordsViewAudit(t *testing.T) {
	svc, docs, storage, _, audit := newDocumentServiceForTest(t)
	doc := seedDocument(t, docs, storage, "application/pdf", "doc.pdf", nil)

	user := "reviewer-1"
	fetched, err := svc.Get(context.Background(), doc.ID, &user)
	require.NoError(t, err)
	require.Equal(t, doc.ID, fetched.ID)

	require.Len(t, audit.entries, 1)
	require.Equal(t, models.AuditActionView, audit.entries[0].ActionType)
	require.Equal(t, "reviewer-1", *audit.entries[0].UserID)
}

func TestDocumentGetFamilyProjectsRootAndChildren(t *testing.T) {
	svc, docs, storage, _, _ := newDocumentServiceForTest(t)

	root := seedDocument(t, docs, storage, "message/rfc822", "mail.eml", nil)
	childA := &models.Document{MatterID: "matter-1", ParentID: &root.ID, FamilyID: root.FamilyID, FamilyIndex: 1, OriginalFilename: "a.pdf"}
	childB := &models.Document{MatterID: "matter-1", ParentID: &root.ID, FamilyID: root.FamilyID, FamilyIndex: 2, OriginalFilename: "b.xlsx"}
	require.NoError(t, docs.Create(context.Background(), childA))
	require.NoError(t, docs.Create(context.Background(), childB))

	group, err := svc.GetFamily(context.Background(), childB.ID)
	require.NoError(t, err)
	require.Equal(t, root.ID, group.Root.ID)
	require.Len(t, group.Children, 2)
	require.Equal(t, "a.pdf", group.Children[0].OriginalFilename)
	require.Equal(t, "b.xlsx", group.Children[1].OriginalFilename)
}

func TestDocumentUpdateCodingRecordsTagAudit(t *testing.T) {
	svc, docs, storage, _, audit := newDocumentServiceForTest(t)
	doc := seedDocument(t, docs, storage, "application/pdf", "doc.pdf", nil)

	relevance := true
	tags := []string{"damages"}
	updated, err := svc.UpdateCoding(context.Background(), doc.ID, repository.UpdateCodingParams{
		Relevance: &relevance,
		IssueTags: &tags,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.Relevance)
	require.True(t, *updated.Relevance)
	require.Equal(t, []string{"damages"}, []string(updated.IssueTags))

	require.Len(t, audit.entries, 1)
	require.Equal(t, models.AuditActionTag, audit.entries[0].ActionType)
}

func TestDocumentAttachmentsListsDirectChildrenOnly(t *testing.T) {
	svc, docs, storage, _, _ := newDocumentServiceForTest(t)

	root := seedDocument(t, docs, storage, "message/rfc822", "mail.eml", nil)
	childA := &models.Document{MatterID: "matter-1", ParentID: &root.ID, FamilyID: root.FamilyID, FamilyIndex: 1, OriginalFilename: "nested.eml"}
	require.NoError(t, docs.Create(context.Background(), childA))
	// A grandchild belongs to the family but is not a direct attachment.
	grandchild := &models.Document{MatterID: "matter-1", ParentID: &childA.ID, FamilyID: root.FamilyID, FamilyIndex: 2, OriginalFilename: "deep.pdf"}
	require.NoError(t, docs.Create(context.Background(), grandchild))

	attachments, err := svc.GetAttachments(context.Background(), root.ID)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	require.Equal(t, "nested.eml", attachments[0].OriginalFilename)

	_, err = svc.GetAttachments(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDocumentFolderFilingLifecycle(t *testing.T) {
	docs := newDocStoreStub()
	storage := newStorageStub()
	folders := newFolderStoreStub()
	svc := NewDocumentService(docs, folders, storage, &enqueuerStub{}, &auditStub{}, nil, zap.NewNop())

	doc := seedDocument(t, docs, storage, "application/pdf", "doc.pdf", nil)
	folder := &models.Folder{MatterID: doc.MatterID, Name: "Hot Docs"}
	require.NoError(t, svc.CreateFolder(context.Background(), folder))

	listed, err := svc.ListFolders(context.Background(), doc.MatterID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "Hot Docs", listed[0].Name)

	require.NoError(t, svc.FileDocument(context.Background(), folder.ID, doc.ID))
	require.Equal(t, []string{doc.ID}, folders.memberships[folder.ID])

	require.NoError(t, svc.UnfileDocument(context.Background(), folder.ID, doc.ID))
	require.Empty(t, folders.memberships[folder.ID])

	err = svc.UnfileDocument(context.Background(), "missing", doc.ID)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDocumentReingestForcesOCR(t *testing.T) {
	svc, docs, storage, enqueuer, _ := newDocumentServiceForTest(t)
	doc := seedDocument(t, docs, storage, "image/png", "scan.png", nil)

	require.NoError(t, svc.Reingest(context.Background(), doc.ID, true))
	require.Equal(t, []string{doc.ID}, enqueuer.enqueued)
	require.True(t, enqueuer.forced[0])

	err := svc.Reingest(context.Background(), "missing", false)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
