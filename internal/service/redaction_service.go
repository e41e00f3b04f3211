package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/litigo/ediscovery-api/internal/models"
	appErrors "github.com/litigo/ediscovery-api/pkg/errors"
)

type redactionStore interface {
	Create(ctx context.Context, redaction *models.Redaction) error
	GetByID(ctx context.Context, id string) (*models.Redaction, error)
	Update(ctx context.Context, redaction *models.Redaction) error
	Delete(ctx context.Context, id string) error
	ListByDocument(ctx context.Context, documentID string) ([]models.Redaction, error)
}

type documentChecker interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
}

// RedactionService manages reviewer-authored redaction regions. New regions
// must arrive in normalized coordinates; legacy pixel-scale rows are converted
// at burn-in time instead.
type RedactionService struct {
	redactions redactionStore
	documents  documentChecker
	audit      auditAppender
	logger     *zap.Logger
}

// NewRedactionService constructs the redaction service.
func NewRedactionService(redactions redactionStore, documents documentChecker, audit auditAppender, logger *zap.Logger) *RedactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedactionService{redactions: redactions, documents: documents, audit: audit, logger: logger}
}

// Create validates and stores a new redaction, recording a redact audit entry.
func (s *RedactionService) Create(ctx context.Context, redaction *models.Redaction, userID *string) error {
	if err := validateRegion(redaction); err != nil {
		return err
	}
	if _, err := s.documents.GetByID(ctx, redaction.DocumentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check document")
	}
	redaction.CreatedBy = userID
	if err := s.redactions.Create(ctx, redaction); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create redaction")
	}
	s.appendAudit(ctx, redaction, userID, "created")
	return nil
}

// Update validates and rewrites an existing redaction.
func (s *RedactionService) Update(ctx context.Context, id string, updated *models.Redaction, userID *string) (*models.Redaction, error) {
	if err := validateRegion(updated); err != nil {
		return nil, err
	}
	existing, err := s.redactions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load redaction")
	}
	existing.PageNumber = updated.PageNumber
	existing.X = updated.X
	existing.Y = updated.Y
	existing.Width = updated.Width
	existing.Height = updated.Height
	existing.ReasonCode = updated.ReasonCode
	existing.Polygon = updated.Polygon
	if err := s.redactions.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update redaction")
	}
	s.appendAudit(ctx, existing, userID, "updated")
	return existing, nil
}

// Delete removes a redaction.
func (s *RedactionService) Delete(ctx context.Context, id string, userID *string) error {
	existing, err := s.redactions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load redaction")
	}
	if err := s.redactions.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete redaction")
	}
	s.appendAudit(ctx, existing, userID, "deleted")
	return nil
}

// ListByDocument returns a document's redactions.
func (s *RedactionService) ListByDocument(ctx context.Context, documentID string) ([]models.Redaction, error) {
	redactions, err := s.redactions.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list redactions")
	}
	return redactions, nil
}

// validateRegion enforces the normalized coordinate invariant at the API
// boundary: 0 ≤ x, y and x+width ≤ 1, y+height ≤ 1.
func validateRegion(r *models.Redaction) error {
	if r.PageNumber < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "pageNumber must be at least 1")
	}
	if r.X < 0 || r.Y < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "x and y must not be negative")
	}
	if r.Width <= 0 || r.Height <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "width and height must be positive")
	}
	if r.X+r.Width > 1 || r.Y+r.Height > 1 {
		return appErrors.Clone(appErrors.ErrValidation, "redaction must stay within normalized page bounds")
	}
	return nil
}

func (s *RedactionService) appendAudit(ctx context.Context, redaction *models.Redaction, userID *string, change string) {
	entry := &models.AuditLog{
		UserID:     userID,
		DocumentID: &redaction.DocumentID,
		ActionType: models.AuditActionRedact,
		Metadata: models.MetadataMap{
			"redactionId": redaction.ID,
			"pageNumber":  fmt.Sprintf("%d", redaction.PageNumber),
			"change":      change,
		},
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Sugar().Warnw("failed to append redact audit entry", "redaction_id", redaction.ID, "error", err)
	}
}
