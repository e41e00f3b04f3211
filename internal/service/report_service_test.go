package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/litigo/ediscovery-api/internal/models"
	appErrors "github.com/litigo/ediscovery-api/pkg/errors"
	"github.com/litigo/ediscovery-api/pkg/storage"
)

func newReportServiceForTest(t *testing.T) (*ReportService, *prodStoreStub, *docStoreStub) {
	t.Helper()
	productions := newProdStoreStub()
	docs := newDocStoreStub()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewReportService(productions, docs, local, signer, zap.NewNop()), productions, docs
}

func TestReportGenerateCSVIncludesHashes(t *testing.T) {
	svc, productions, docs := newReportServiceForTest(t)

	doc := &models.Document{MatterID: "matter-1", OriginalFilename: "contract.pdf", HashMD5: "md5-value", HashSHA1: "sha1-value"}
	require.NoError(t, docs.Create(context.Background(), doc))

	production := &models.Production{MatterID: "matter-1", Name: "Wave 1", BatesPrefix: "ABC", Status: models.ProductionStatusComplete}
	require.NoError(t, productions.Create(context.Background(), production))
	require.NoError(t, productions.CreateDocumentRow(context.Background(), &models.ProductionDocument{
		ProductionID:   production.ID,
		DocumentID:     doc.ID,
		BatesBegin:     "ABC000001",
		BatesEnd:       "ABC000003",
		PageCount:      3,
		NativeFilename: "contract.pdf",
	}))

	token, expiresAt, err := svc.Generate(context.Background(), production.ID, ReportFormatCSV)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.After(time.Now()))

	download, err := svc.ResolveDownload(token)
	require.NoError(t, err)
	defer download.File.Close()
	require.Equal(t, ReportFormatCSV, download.Format)

	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	text := string(content)
	require.True(t, strings.HasPrefix(text, "BEGBATES,ENDBATES,DOCID,FILENAME,PAGES,PLACEHOLDER,MD5,SHA1"))
	require.Contains(t, text, "ABC000001,ABC000003,"+doc.ID+",contract.pdf,3,false,md5-value,sha1-value")
}

func TestReportGenerateRequiresCompleteProduction(t *testing.T) {
	svc, productions, _ := newReportServiceForTest(t)

	production := &models.Production{MatterID: "matter-1", BatesPrefix: "ABC"}
	require.NoError(t, productions.Create(context.Background(), production))

	_, _, err := svc.Generate(context.Background(), production.ID, ReportFormatCSV)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestReportGenerateRejectsUnknownFormat(t *testing.T) {
	svc, _, _ := newReportServiceForTest(t)

	_, _, err := svc.Generate(context.Background(), "prod-1", ReportFormat("xml"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportResolveDownloadRejectsBadToken(t *testing.T) {
	svc, _, _ := newReportServiceForTest(t)

	_, err := svc.ResolveDownload("not.a.real.token")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
