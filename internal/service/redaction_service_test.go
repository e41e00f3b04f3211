package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/litigo/ediscovery-api/internal/models"
	appErrors "github.com/litigo/ediscovery-api/pkg/errors"
)

type redactionStoreStub struct {
	mu         sync.Mutex
	redactions map[string]*models.Redaction
}

func newRedactionStoreStub() *redactionStoreStub {
	return &redactionStoreStub{redactions: map[string]*models.Redaction{}}
}

func (s *redactionStoreStub) Create(ctx context.Context, redaction *models.Redaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if redaction.ID == "" {
		redaction.ID = uuid.NewString()
	}
	copied := *redaction
	s.redactions[redaction.ID] = &copied
	return nil
}

func (s *redactionStoreStub) GetByID(ctx context.Context, id string) (*models.Redaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	redaction, ok := s.redactions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *redaction
	return &copied, nil
}

func (s *redactionStoreStub) Update(ctx context.Context, redaction *models.Redaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.redactions[redaction.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *redaction
	s.redactions[redaction.ID] = &copied
	return nil
}

func (s *redactionStoreStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.redactions, id)
	return nil
}

func (s *redactionStoreStub) ListByDocument(ctx context.Context, documentID string) ([]models.Redaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Redaction
	for _, redaction := range s.redactions {
		if redaction.DocumentID == documentID {
			out = append(out, *redaction)
		}
	}
	return out, nil
}

func newRedactionServiceForTest(t *testing.T) (*RedactionService, *redactionStoreStub, *docStoreStub, *auditStub) {
	t.Helper()
	redactions := newRedactionStoreStub()
	docs := newDocStoreStub()
	audit := &auditStub{}
	return NewRedactionService(redactions, docs, audit, zap.NewNop()), redactions, docs, audit
}

func TestRedactionCreateRecordsAudit(t *testing.T) {
	svc, _, docs, audit := newRedactionServiceForTest(t)
	doc := seedDocument(t, docs, newStorageStub(), "application/pdf", "doc.pdf", nil)

	user := "reviewer-1"
	redaction := &models.Redaction{
		DocumentID: doc.ID,
		PageNumber: 1,
		X:          0.1,
		Y:          0.1,
		Width:      0.2,
		Height:     0.1,
		ReasonCode: "PRIV",
	}
	require.NoError(t, svc.Create(context.Background(), redaction, &user))
	require.NotEmpty(t, redaction.ID)

	require.Len(t, audit.entries, 1)
	require.Equal(t, models.AuditActionRedact, audit.entries[0].ActionType)
	require.Equal(t, doc.ID, *audit.entries[0].DocumentID)
	require.Equal(t, "created", audit.entries[0].Metadata["change"])
}

func TestRedactionCreateValidatesBounds(t *testing.T) {
	svc, _, docs, _ := newRedactionServiceForTest(t)
	doc := seedDocument(t, docs, newStorageStub(), "application/pdf", "doc.pdf", nil)

	tests := []models.Redaction{
		{DocumentID: doc.ID, PageNumber: 0, X: 0.1, Y: 0.1, Width: 0.1, Height: 0.1},
		{DocumentID: doc.ID, PageNumber: 1, X: -0.1, Y: 0.1, Width: 0.1, Height: 0.1},
		{DocumentID: doc.ID, PageNumber: 1, X: 0.1, Y: 0.1, Width: 0, Height: 0.1},
		{DocumentID: doc.ID, PageNumber: 1, X: 0.9, Y: 0.1, Width: 0.2, Height: 0.1},
		{DocumentID: doc.ID, PageNumber: 1, X: 0.1, Y: 0.95, Width: 0.1, Height: 0.1},
	}
	for _, redaction := range tests {
		redaction := redaction
		err := svc.Create(context.Background(), &redaction, nil)
		require.Error(t, err)
		require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestRedactionCreateRejectsMissingDocument(t *testing.T) {
	svc, _, _, _ := newRedactionServiceForTest(t)

	err := svc.Create(context.Background(), &models.Redaction{
		DocumentID: "missing",
		PageNumber: 1,
		X:          0.1, Y: 0.1, Width: 0.1, Height: 0.1,
	}, nil)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRedactionUpdateRewritesGeometry(t *testing.T) {
	svc, redactions, docs, audit := newRedactionServiceForTest(t)
	doc := seedDocument(t, docs, newStorageStub(), "application/pdf", "doc.pdf", nil)

	redaction := &models.Redaction{DocumentID: doc.ID, PageNumber: 1, X: 0.1, Y: 0.1, Width: 0.1, Height: 0.1, ReasonCode: "PRIV"}
	require.NoError(t, svc.Create(context.Background(), redaction, nil))

	updated, err := svc.Update(context.Background(), redaction.ID, &models.Redaction{
		PageNumber: 2, X: 0.3, Y: 0.3, Width: 0.2, Height: 0.2, ReasonCode: "PII",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, updated.PageNumber)
	require.Equal(t, "PII", updated.ReasonCode)

	stored, err := redactions.GetByID(context.Background(), redaction.ID)
	require.NoError(t, err)
	require.InDelta(t, 0.3, stored.X, 1e-9)
	require.Len(t, audit.entries, 2)
}

func TestRedactionDelete(t *testing.T) {
	svc, _, docs, audit := newRedactionServiceForTest(t)
	doc := seedDocument(t, docs, newStorageStub(), "application/pdf", "doc.pdf", nil)

	redaction := &models.Redaction{DocumentID: doc.ID, PageNumber: 1, X: 0.1, Y: 0.1, Width: 0.1, Height: 0.1}
	require.NoError(t, svc.Create(context.Background(), redaction, nil))
	require.NoError(t, svc.Delete(context.Background(), redaction.ID, nil))

	list, err := svc.ListByDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Empty(t, list)
	require.Equal(t, "deleted", audit.entries[len(audit.entries)-1].Metadata["change"])
}
