package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/litigo/ediscovery-api/internal/models"
	appErrors "github.com/litigo/ediscovery-api/pkg/errors"
	"github.com/litigo/ediscovery-api/pkg/export"
)

// ReportFormat selects the audit report rendering.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

type reportProductionStore interface {
	GetByID(ctx context.Context, id string) (*models.Production, error)
	ListDocuments(ctx context.Context, productionID string) ([]models.ProductionDocument, error)
}

type reportDocumentStore interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
}

type reportSigner interface {
	Generate(productionID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (productionID, relPath string, expiresAt time.Time, err error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    ReportFormat
	ExpiresAt time.Time
}

var reportHeaders = []string{"BEGBATES", "ENDBATES", "DOCID", "FILENAME", "PAGES", "PLACEHOLDER", "MD5", "SHA1"}

// ReportService renders the production audit report: one row per produced
// document with its Bates range, page count, placeholder flag and the content
// hashes computed at upload, so QC can tie every Bates range back to a
// native file.
type ReportService struct {
	productions reportProductionStore
	documents   reportDocumentStore
	storage     reportStorage
	signer      reportSigner
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(productions reportProductionStore, documents reportDocumentStore, storage reportStorage, signer reportSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		productions: productions,
		documents:   documents,
		storage:     storage,
		signer:      signer,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// Generate renders the audit report for a completed production, stores it and
// returns a signed download token.
func (s *ReportService) Generate(ctx context.Context, productionID string, format ReportFormat) (string, time.Time, error) {
	if format != ReportFormatCSV && format != ReportFormatPDF {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}

	production, err := s.productions.GetByID(ctx, productionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, appErrors.ErrNotFound
		}
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load production")
	}
	if production.Status != models.ProductionStatusComplete {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInvalidState, "audit report requires a complete production")
	}

	dataset, err := s.buildDataset(ctx, production)
	if err != nil {
		return "", time.Time{}, err
	}

	var rendered []byte
	switch format {
	case ReportFormatCSV:
		rendered, err = s.csv.Render(dataset)
	case ReportFormatPDF:
		rendered, err = s.pdf.Render(dataset, "Production Audit Report",
			fmt.Sprintf("Production: %s", production.Name),
			fmt.Sprintf("Bates prefix: %s", production.BatesPrefix),
			fmt.Sprintf("Documents: %d", len(dataset.Rows)),
		)
	}
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render audit report")
	}

	relPath := path.Join("productions", production.ID, "audit_report."+string(format))
	if _, err := s.storage.Save(relPath, rendered); err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store audit report")
	}

	token, expiresAt, err := s.signer.Generate(production.ID, relPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	return token, expiresAt, nil
}

// ResolveDownload validates a token and opens the stored report file.
func (s *ReportService) ResolveDownload(token string) (*ReportDownload, error) {
	_, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report no longer available")
	}
	format := ReportFormatCSV
	if path.Ext(relPath) == ".pdf" {
		format = ReportFormatPDF
	}
	return &ReportDownload{
		File:      file,
		Filename:  path.Base(relPath),
		Format:    format,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *ReportService) buildDataset(ctx context.Context, production *models.Production) (export.Dataset, error) {
	rows, err := s.productions.ListDocuments(ctx, production.ID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list production documents")
	}

	dataset := export.Dataset{Headers: reportHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		md5Sum, sha1Sum := "", ""
		doc, err := s.documents.GetByID(ctx, row.DocumentID)
		if err != nil {
			// The ledger row outlives the source document; the report
			// still lists the Bates range with empty hash columns.
			s.logger.Sugar().Warnw("produced document missing", "document_id", row.DocumentID, "error", err)
		} else {
			md5Sum, sha1Sum = doc.HashMD5, doc.HashSHA1
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"BEGBATES":    row.BatesBegin,
			"ENDBATES":    row.BatesEnd,
			"DOCID":       row.DocumentID,
			"FILENAME":    row.NativeFilename,
			"PAGES":       strconv.Itoa(row.PageCount),
			"PLACEHOLDER": strconv.FormatBool(row.IsPlaceholder),
			"MD5":         md5Sum,
			"SHA1":        sha1Sum,
		})
	}
	return dataset, nil
}
