package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/litigo/ediscovery-api/internal/ingest"
	"github.com/litigo/ediscovery-api/internal/models"
	appErrors "github.com/litigo/ediscovery-api/pkg/errors"
	"github.com/litigo/ediscovery-api/pkg/jobs"
)

type ingestDocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListChildren(ctx context.Context, parentID string) ([]models.Document, error)
	UpdateStatus(ctx context.Context, id string, status models.DocumentStatus, errorMessage *string) error
	UpdateMetadata(ctx context.Context, id string, metadata models.MetadataMap) error
	UpdateTextPath(ctx context.Context, id, textPath string) error
}

type objectStore interface {
	Save(filename string, data []byte) (string, error)
	Load(filename string) ([]byte, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type containerParser interface {
	IsContainer(contentType, filename string) bool
	Parse(data []byte) *ingest.Envelope
}

type pipelineMetrics interface {
	RecordDocumentIngested(status string)
	RecordContainerExpanded()
	RecordOCRRun()
}

// IngestJobType labels ingestion queue jobs.
const IngestJobType = "document.ingest"

// IngestPayload is the queue-serialized input of one ingestion run.
type IngestPayload struct {
	DocumentID string `json:"documentId"`
	ForceOCR   bool   `json:"forceOcr"`
}

// IngestionService advances uploaded documents toward a terminal extraction
// state: container expansion, metadata extraction, conditional OCR, text
// persistence.
type IngestionService struct {
	docs      ingestDocumentStore
	storage   objectStore
	queue     jobDispatcher
	parser    containerParser
	extractor ingest.Extractor
	ocr       ingest.OCREngine
	metrics   pipelineMetrics
	logger    *zap.Logger
}

// NewIngestionService constructs the ingestion orchestrator.
func NewIngestionService(docs ingestDocumentStore, storage objectStore, queue jobDispatcher, parser containerParser, extractor ingest.Extractor, ocr ingest.OCREngine, metrics pipelineMetrics, logger *zap.Logger) *IngestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionService{
		docs:      docs,
		storage:   storage,
		queue:     queue,
		parser:    parser,
		extractor: extractor,
		ocr:       ocr,
		metrics:   metrics,
		logger:    logger,
	}
}

// Enqueue accepts a document for asynchronous ingestion.
func (s *IngestionService) Enqueue(documentID string, forceOCR bool) error {
	payload, err := json.Marshal(IngestPayload{DocumentID: documentID, ForceOCR: forceOCR})
	if err != nil {
		return fmt.Errorf("marshal ingest payload: %w", err)
	}
	if err := s.queue.Enqueue(jobs.Job{ID: documentID, Type: IngestJobType, Payload: payload}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue ingestion")
	}
	return nil
}

// Handle is the queue worker entry point.
func (s *IngestionService) Handle(ctx context.Context, job jobs.Job) error {
	var payload IngestPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		s.logger.Sugar().Errorw("malformed ingest payload", "job_id", job.ID, "error", err)
		return nil
	}
	return s.Process(ctx, payload.DocumentID, payload.ForceOCR)
}

// Process idempotently runs the ingestion steps for one document. Safe to
// re-run on any document; a forced run re-executes OCR even when text exists.
func (s *IngestionService) Process(ctx context.Context, documentID string, forceOCR bool) error {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Sugar().Warnw("ingest target gone", "document_id", documentID)
			return nil
		}
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	if doc.TextPath != nil && *doc.TextPath != "" && !forceOCR {
		s.logger.Sugar().Debugw("text already extracted, skipping", "document_id", doc.ID)
		return nil
	}

	if err := s.docs.UpdateStatus(ctx, doc.ID, models.DocumentStatusProcessing, nil); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	data, err := s.storage.Load(doc.StoragePath)
	if err != nil || len(data) == 0 {
		msg := "document bytes missing or empty"
		if err != nil {
			msg = fmt.Sprintf("download document: %v", err)
		}
		s.fail(ctx, doc.ID, msg)
		return nil
	}

	text := ""

	if s.parser.IsContainer(doc.ContentType, doc.OriginalFilename) && !doc.ContainerExpanded() {
		bodyText, err := s.expandContainer(ctx, doc, data)
		if err != nil {
			s.fail(ctx, doc.ID, fmt.Sprintf("expand container: %v", err))
			return nil
		}
		text = bodyText
	}

	result, err := s.extractor.Extract(ctx, data, doc.ContentType, doc.OriginalFilename)
	if err != nil {
		doc.Metadata = doc.Metadata.Merge(map[string]string{models.MetaExtractionError: err.Error()})
		if uerr := s.docs.UpdateMetadata(ctx, doc.ID, doc.Metadata); uerr != nil {
			return fmt.Errorf("record extraction error: %w", uerr)
		}
	} else {
		if len(result.Metadata) > 0 {
			doc.Metadata = doc.Metadata.Merge(result.Metadata)
			if uerr := s.docs.UpdateMetadata(ctx, doc.ID, doc.Metadata); uerr != nil {
				return fmt.Errorf("merge extracted metadata: %w", uerr)
			}
		}
		if text == "" {
			text = result.Text
		}
	}

	if (text == "" && ingest.IsImageLike(doc.ContentType)) || forceOCR {
		recognized, err := s.ocr.Recognize(ctx, data, doc.ContentType)
		switch {
		case errors.Is(err, ingest.ErrOCRDisabled):
			// No engine configured; the document completes without text.
		case err != nil:
			doc.Metadata = doc.Metadata.Merge(map[string]string{models.MetaOCRError: err.Error()})
			if uerr := s.docs.UpdateMetadata(ctx, doc.ID, doc.Metadata); uerr != nil {
				return fmt.Errorf("record ocr error: %w", uerr)
			}
		default:
			if s.metrics != nil {
				s.metrics.RecordOCRRun()
			}
			if recognized != "" {
				text = recognized
			}
		}
	}

	if text != "" {
		textPath := path.Join(doc.MatterID, "text", doc.ID+".txt")
		if _, err := s.storage.Save(textPath, []byte(text)); err != nil {
			s.fail(ctx, doc.ID, fmt.Sprintf("persist extracted text: %v", err))
			return nil
		}
		if err := s.docs.UpdateTextPath(ctx, doc.ID, textPath); err != nil {
			return fmt.Errorf("record text path: %w", err)
		}
	}

	if err := s.docs.UpdateStatus(ctx, doc.ID, models.DocumentStatusOCRComplete, nil); err != nil {
		return fmt.Errorf("mark complete: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordDocumentIngested(string(models.DocumentStatusOCRComplete))
	}
	return nil
}

// expandContainer explodes an email into child documents: one child per
// attachment in deterministic order, uploaded concurrently, each enqueued for
// its own ingestion run. Children are identified by their family index, so a
// run interrupted mid-expansion resumes where it stopped instead of
// duplicating attachments. The expansion flag is written only after every
// child row exists; until then a re-run repeats the expansion.
func (s *IngestionService) expandContainer(ctx context.Context, doc *models.Document, data []byte) (string, error) {
	env := s.parser.Parse(data)

	existing, err := s.docs.ListChildren(ctx, doc.ID)
	if err != nil {
		return "", fmt.Errorf("list existing children: %w", err)
	}
	byIndex := make(map[int]models.Document, len(existing))
	for _, child := range existing {
		byIndex[child.FamilyIndex] = child
	}

	children := make([]*models.Document, len(env.Attachments))
	g, gctx := errgroup.WithContext(ctx)
	for i, att := range env.Attachments {
		if prior, ok := byIndex[i+1]; ok {
			children[i] = &prior
			continue
		}
		i, att := i, att
		g.Go(func() error {
			fp := ingest.ComputeFingerprint(att.Content)
			child := &models.Document{
				MatterID:         doc.MatterID,
				ParentID:         &doc.ID,
				FamilyID:         doc.FamilyID,
				FamilyIndex:      i + 1,
				ContentType:      att.ContentType,
				OriginalFilename: att.Filename,
				HashMD5:          fp.MD5,
				HashSHA1:         fp.SHA1,
				Status:           models.DocumentStatusUploaded,
				Metadata:         models.MetadataMap{},
			}
			child.StoragePath = path.Join(doc.MatterID, "attachments", doc.ID, fmt.Sprintf("%d_%s", i+1, att.Filename))
			if _, err := s.storage.Save(child.StoragePath, att.Content); err != nil {
				return fmt.Errorf("upload attachment %q: %w", att.Filename, err)
			}
			if err := s.docs.Create(gctx, child); err != nil {
				return fmt.Errorf("create child document %q: %w", att.Filename, err)
			}
			children[i] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	doc.Metadata = doc.Metadata.Merge(env.Metadata())
	doc.Metadata = doc.Metadata.Merge(map[string]string{models.MetaContainerExpanded: "true"})
	if err := s.docs.UpdateMetadata(ctx, doc.ID, doc.Metadata); err != nil {
		return "", fmt.Errorf("mark container expanded: %w", err)
	}

	for _, child := range children {
		if child == nil {
			continue
		}
		if err := s.Enqueue(child.ID, false); err != nil {
			s.logger.Sugar().Warnw("failed to enqueue child ingestion", "document_id", child.ID, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordContainerExpanded()
	}
	s.logger.Sugar().Infow("container expanded", "document_id", doc.ID, "children", len(env.Attachments))
	return env.BodyText, nil
}

func (s *IngestionService) fail(ctx context.Context, documentID, message string) {
	if err := s.docs.UpdateStatus(ctx, documentID, models.DocumentStatusFailed, &message); err != nil {
		s.logger.Sugar().Errorw("failed to mark document failed", "document_id", documentID, "error", err)
	}
	if s.metrics != nil {
		s.metrics.RecordDocumentIngested(string(models.DocumentStatusFailed))
	}
}
