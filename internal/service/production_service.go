package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/litigo/ediscovery-api/internal/models"
	"github.com/litigo/ediscovery-api/internal/produce"
	"github.com/litigo/ediscovery-api/internal/repository"
	appErrors "github.com/litigo/ediscovery-api/pkg/errors"
	"github.com/litigo/ediscovery-api/pkg/jobs"
)

type productionStore interface {
	Create(ctx context.Context, production *models.Production) error
	GetByID(ctx context.Context, id string) (*models.Production, error)
	ListByMatter(ctx context.Context, matterID string) ([]models.Production, error)
	TransitionStatus(ctx context.Context, id string, from, to models.ProductionStatus) (bool, error)
	Update(ctx context.Context, id string, params repository.UpdateProductionParams) error
	CreateDocumentRow(ctx context.Context, row *models.ProductionDocument) error
	CreatePageRow(ctx context.Context, row *models.ProductionPage) error
	ListDocuments(ctx context.Context, productionID string) ([]models.ProductionDocument, error)
	ListPages(ctx context.Context, productionID string) ([]models.ProductionPage, error)
}

type scopeDocumentStore interface {
	ListByMatter(ctx context.Context, matterID string) ([]models.Document, error)
	ListByFolderIDs(ctx context.Context, folderIDs []string) ([]models.Document, error)
}

type folderTreeStore interface {
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	ListChildren(ctx context.Context, parentIDs []string) ([]models.Folder, error)
}

type pageRedactionStore interface {
	ListByDocumentPage(ctx context.Context, documentID string, pageNumber int) ([]models.Redaction, error)
}

type auditAppender interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

type productionMetrics interface {
	RecordPagesProduced(pages int)
	RecordPlaceholder()
	ObserveProductionDuration(duration time.Duration)
}

// ProduceJobType labels production queue jobs.
const ProduceJobType = "production.run"

// ProducePayload is the queue-serialized input of one production run.
type ProducePayload struct {
	ProductionID string `json:"productionId"`
}

// ProductionService owns the production job lifecycle: scope resolution,
// sequential rasterize/redact/stamp, ledger rows, load files, audit trail.
type ProductionService struct {
	productions productionStore
	documents   scopeDocumentStore
	folders     folderTreeStore
	redactions  pageRedactionStore
	audit       auditAppender
	storage     objectStore
	queue       jobDispatcher
	rasterizer  *produce.Rasterizer
	metrics     productionMetrics
	logger      *zap.Logger
}

// NewProductionService constructs the production runner.
func NewProductionService(productions productionStore, documents scopeDocumentStore, folders folderTreeStore, redactions pageRedactionStore, audit auditAppender, storage objectStore, queue jobDispatcher, metrics productionMetrics, logger *zap.Logger) *ProductionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductionService{
		productions: productions,
		documents:   documents,
		folders:     folders,
		redactions:  redactions,
		audit:       audit,
		storage:     storage,
		queue:       queue,
		rasterizer:  produce.NewRasterizer(),
		metrics:     metrics,
		logger:      logger,
	}
}

// Create validates and persists a new production in pending state.
func (s *ProductionService) Create(ctx context.Context, production *models.Production) error {
	if produce.SanitizePrefix(production.BatesPrefix) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "batesPrefix must contain at least one alphanumeric character")
	}
	if production.BatesStart < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "batesStart must be at least 1")
	}
	if production.FolderID != nil {
		if _, err := s.folders.GetByID(ctx, *production.FolderID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "source folder not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check source folder")
		}
	}
	production.Status = models.ProductionStatusPending
	if err := s.productions.Create(ctx, production); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create production")
	}
	return nil
}

// Get returns one production.
func (s *ProductionService) Get(ctx context.Context, id string) (*models.Production, error) {
	production, err := s.productions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load production")
	}
	return production, nil
}

// ListByMatter returns a matter's productions, newest first.
func (s *ProductionService) ListByMatter(ctx context.Context, matterID string) ([]models.Production, error) {
	productions, err := s.productions.ListByMatter(ctx, matterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list productions")
	}
	return productions, nil
}

// ListDocuments returns the per-document ledger of a production.
func (s *ProductionService) ListDocuments(ctx context.Context, productionID string) ([]models.ProductionDocument, error) {
	rows, err := s.productions.ListDocuments(ctx, productionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list production documents")
	}
	return rows, nil
}

// ListPages returns the per-page ledger of a production in Bates order.
func (s *ProductionService) ListPages(ctx context.Context, productionID string) ([]models.ProductionPage, error) {
	rows, err := s.productions.ListPages(ctx, productionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list production pages")
	}
	return rows, nil
}

// Start enqueues a pending production for execution. Non-pending productions
// are rejected; a failed production is terminal and must be recreated.
func (s *ProductionService) Start(ctx context.Context, id string) error {
	production, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if production.Status != models.ProductionStatusPending {
		return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("production is %s, only pending productions can start", production.Status))
	}
	payload, err := json.Marshal(ProducePayload{ProductionID: id})
	if err != nil {
		return fmt.Errorf("marshal production payload: %w", err)
	}
	if err := s.queue.Enqueue(jobs.Job{ID: id, Type: ProduceJobType, Payload: payload}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue production")
	}
	return nil
}

// Handle is the queue worker entry point.
func (s *ProductionService) Handle(ctx context.Context, job jobs.Job) error {
	var payload ProducePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		s.logger.Sugar().Errorw("malformed production payload", "job_id", job.ID, "error", err)
		return nil
	}
	return s.Run(ctx, payload.ProductionID)
}

// Run executes one production job end to end. Documents are processed
// strictly sequentially because the Bates counter is a single gapless
// sequence owned by this job.
func (s *ProductionService) Run(ctx context.Context, productionID string) error {
	started := time.Now()

	production, err := s.Get(ctx, productionID)
	if err != nil {
		return err
	}
	switch production.Status {
	case models.ProductionStatusPending, models.ProductionStatusProcessing:
	default:
		return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("production is %s and cannot run", production.Status))
	}

	if production.Status == models.ProductionStatusPending {
		moved, err := s.productions.TransitionStatus(ctx, production.ID, models.ProductionStatusPending, models.ProductionStatusProcessing)
		if err != nil {
			return err
		}
		if !moved {
			return appErrors.Clone(appErrors.ErrInvalidState, "production already claimed by another run")
		}
	}

	scope, err := s.resolveScope(ctx, production)
	if err != nil {
		return s.failRun(ctx, production.ID, err)
	}

	counter := produce.NewBatesCounter(production.BatesPrefix, production.BatesStart)
	records := make([]models.LoadFileRecord, 0, len(scope))
	for _, doc := range scope {
		record, err := s.produceDocument(ctx, production, doc, counter)
		if err != nil {
			return s.failRun(ctx, production.ID, err)
		}
		records = append(records, record)
	}

	outputDir := path.Join("productions", production.ID)
	if _, err := s.storage.Save(path.Join(outputDir, "loadfile.dat"), produce.RenderDAT(records)); err != nil {
		return s.failRun(ctx, production.ID, fmt.Errorf("write DAT load file: %w", err))
	}
	if _, err := s.storage.Save(path.Join(outputDir, "loadfile.opt"), produce.RenderOPT(records)); err != nil {
		return s.failRun(ctx, production.ID, fmt.Errorf("write OPT load file: %w", err))
	}

	if err := s.productions.Update(ctx, production.ID, repository.UpdateProductionParams{OutputPath: &outputDir}); err != nil {
		return s.failRun(ctx, production.ID, fmt.Errorf("record output path: %w", err))
	}
	if _, err := s.productions.TransitionStatus(ctx, production.ID, models.ProductionStatusProcessing, models.ProductionStatusComplete); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ObserveProductionDuration(time.Since(started))
	}
	s.logger.Sugar().Infow("production complete", "production_id", production.ID, "documents", len(records))
	return nil
}

// resolveScope returns the documents to produce, in deterministic order. A
// folder scope walks the parent-pointer tree one level at a time when
// subfolders are included, then restricts to family roots so each family is
// produced once; when the membership rows name no roots at all, the raw list
// is produced as-is rather than producing nothing.
func (s *ProductionService) resolveScope(ctx context.Context, production *models.Production) ([]models.Document, error) {
	if production.FolderID == nil {
		docs, err := s.documents.ListByMatter(ctx, production.MatterID)
		if err != nil {
			return nil, err
		}
		return familyRoots(docs), nil
	}

	folderIDs := []string{*production.FolderID}
	if production.IncludeSubfolders {
		frontier := folderIDs
		for len(frontier) > 0 {
			children, err := s.folders.ListChildren(ctx, frontier)
			if err != nil {
				return nil, err
			}
			frontier = frontier[:0]
			for _, child := range children {
				folderIDs = append(folderIDs, child.ID)
				frontier = append(frontier, child.ID)
			}
		}
	}

	docs, err := s.documents.ListByFolderIDs(ctx, folderIDs)
	if err != nil {
		return nil, err
	}
	roots := familyRoots(docs)
	if len(roots) == 0 {
		return docs, nil
	}
	return roots, nil
}

func familyRoots(docs []models.Document) []models.Document {
	roots := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.IsFamilyRoot() {
			roots = append(roots, doc)
		}
	}
	return roots
}

// produceDocument converts one document into stamped page images. Download
// and conversion failures are not fatal: the document degrades to a
// placeholder page so the Bates sequence stays continuous. Persistence
// failures abort the job.
func (s *ProductionService) produceDocument(ctx context.Context, production *models.Production, doc models.Document, counter *produce.BatesCounter) (models.LoadFileRecord, error) {
	format := produce.Classify(doc.ContentType, doc.OriginalFilename)
	data, err := s.storage.Load(doc.StoragePath)
	if err != nil {
		s.logger.Sugar().Warnw("document download failed, producing placeholder", "document_id", doc.ID, "error", err)
		format = produce.FormatPlaceholder
		data = nil
	}

	raster := s.rasterizer.Rasterize(data, format, doc.OriginalFilename)

	var batesBegin, batesEnd, firstImagePath string
	for i, page := range raster.Pages {
		pageNumber := i + 1

		redactions, err := s.redactions.ListByDocumentPage(ctx, doc.ID, pageNumber)
		if err != nil {
			return models.LoadFileRecord{}, fmt.Errorf("load redactions for %s page %d: %w", doc.ID, pageNumber, err)
		}
		produce.BurnIn(page, redactions)

		bates := counter.Next()
		if batesBegin == "" {
			batesBegin = bates
		}
		batesEnd = bates
		produce.StampBates(page, bates)

		var buf bytes.Buffer
		if err := png.Encode(&buf, page); err != nil {
			return models.LoadFileRecord{}, fmt.Errorf("encode page %s: %w", bates, err)
		}
		imagePath := path.Join("productions", production.ID, "IMAGES", bates+".png")
		if _, err := s.storage.Save(imagePath, buf.Bytes()); err != nil {
			return models.LoadFileRecord{}, fmt.Errorf("upload page %s: %w", bates, err)
		}
		if firstImagePath == "" {
			firstImagePath = imagePath
		}

		if err := s.productions.CreatePageRow(ctx, &models.ProductionPage{
			ProductionID: production.ID,
			DocumentID:   doc.ID,
			PageNumber:   pageNumber,
			BatesNumber:  bates,
			ImagePath:    imagePath,
		}); err != nil {
			return models.LoadFileRecord{}, fmt.Errorf("record page %s: %w", bates, err)
		}
	}

	if err := s.productions.CreateDocumentRow(ctx, &models.ProductionDocument{
		ProductionID:   production.ID,
		DocumentID:     doc.ID,
		BatesBegin:     batesBegin,
		BatesEnd:       batesEnd,
		PageCount:      len(raster.Pages),
		IsPlaceholder:  raster.IsPlaceholder,
		NativeFilename: doc.OriginalFilename,
	}); err != nil {
		return models.LoadFileRecord{}, fmt.Errorf("record produced document %s: %w", doc.ID, err)
	}

	if err := s.audit.Append(ctx, &models.AuditLog{
		DocumentID: &doc.ID,
		ActionType: models.AuditActionProduce,
		Metadata: models.MetadataMap{
			"productionId": production.ID,
			"batesBegin":   batesBegin,
			"batesEnd":     batesEnd,
		},
	}); err != nil {
		return models.LoadFileRecord{}, fmt.Errorf("append produce audit entry %s: %w", doc.ID, err)
	}

	if s.metrics != nil {
		s.metrics.RecordPagesProduced(len(raster.Pages))
		if raster.IsPlaceholder {
			s.metrics.RecordPlaceholder()
		}
	}

	return models.LoadFileRecord{
		BegBates:   batesBegin,
		EndBates:   batesEnd,
		ImagePath:  firstImagePath,
		NativePath: doc.StoragePath,
		PageCount:  len(raster.Pages),
	}, nil
}

// failRun marks the production failed with the causing message and returns
// the original error to the caller.
func (s *ProductionService) failRun(ctx context.Context, productionID string, cause error) error {
	msg := cause.Error()
	if err := s.productions.Update(ctx, productionID, repository.UpdateProductionParams{ErrorMessage: &msg}); err != nil {
		s.logger.Sugar().Errorw("failed to record production error", "production_id", productionID, "error", err)
	}
	if _, err := s.productions.TransitionStatus(ctx, productionID, models.ProductionStatusProcessing, models.ProductionStatusFailed); err != nil {
		s.logger.Sugar().Errorw("failed to mark production failed", "production_id", productionID, "error", err)
	}
	return cause
}
