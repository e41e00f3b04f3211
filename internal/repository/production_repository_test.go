package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/litigo/ediscovery-api/internal/models"
)

func TestProductionRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProductionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO productions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	production := &models.Production{
		MatterID:    "matter-1",
		Name:        "First Production",
		BatesPrefix: "ABC",
		BatesStart:  1,
	}
	require.NoError(t, repo.Create(context.Background(), production))
	require.NotEmpty(t, production.ID)
	require.Equal(t, models.ProductionStatusPending, production.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductionRepositoryTransitionStatusGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProductionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE productions SET status = $1, started_at = $2 WHERE id = $3 AND status = $4")).
		WithArgs(models.ProductionStatusProcessing, sqlmock.AnyArg(), "prod-1", models.ProductionStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	moved, err := repo.TransitionStatus(context.Background(), "prod-1", models.ProductionStatusPending, models.ProductionStatusProcessing)
	require.NoError(t, err)
	require.True(t, moved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductionRepositoryTransitionStatusLosesRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProductionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE productions SET status = $1, started_at = $2 WHERE id = $3 AND status = $4")).
		WithArgs(models.ProductionStatusProcessing, sqlmock.AnyArg(), "prod-1", models.ProductionStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	moved, err := repo.TransitionStatus(context.Background(), "prod-1", models.ProductionStatusPending, models.ProductionStatusProcessing)
	require.NoError(t, err)
	require.False(t, moved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductionRepositoryTransitionToTerminalSetsCompletedAt(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProductionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE productions SET status = $1, completed_at = $2 WHERE id = $3 AND status = $4")).
		WithArgs(models.ProductionStatusComplete, sqlmock.AnyArg(), "prod-1", models.ProductionStatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	moved, err := repo.TransitionStatus(context.Background(), "prod-1", models.ProductionStatusProcessing, models.ProductionStatusComplete)
	require.NoError(t, err)
	require.True(t, moved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductionRepositoryLedgerRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProductionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO production_documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO production_pages")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	docRow := &models.ProductionDocument{
		ProductionID:   "prod-1",
		DocumentID:     "doc-1",
		BatesBegin:     "ABC000001",
		BatesEnd:       "ABC000003",
		PageCount:      3,
		NativeFilename: "contract.pdf",
	}
	require.NoError(t, repo.CreateDocumentRow(context.Background(), docRow))
	require.NotEmpty(t, docRow.ID)

	pageRow := &models.ProductionPage{
		ProductionID: "prod-1",
		DocumentID:   "doc-1",
		PageNumber:   1,
		BatesNumber:  "ABC000001",
		ImagePath:    "prod-1/IMAGES/ABC000001.png",
	}
	require.NoError(t, repo.CreatePageRow(context.Background(), pageRow))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductionRepositoryListDocuments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProductionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "production_id", "document_id", "bates_begin", "bates_end", "page_count", "is_placeholder", "native_filename", "created_at"}).
		AddRow("pd-1", "prod-1", "doc-1", "ABC000001", "ABC000003", 3, false, "contract.pdf", time.Now()).
		AddRow("pd-2", "prod-1", "doc-2", "ABC000004", "ABC000004", 1, true, "model.xlsx", time.Now())
	mock.ExpectQuery("SELECT (.+) FROM production_documents WHERE production_id = \\$1 ORDER BY bates_begin ASC").
		WithArgs("prod-1").
		WillReturnRows(rows)

	docs, err := repo.ListDocuments(context.Background(), "prod-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "ABC000001", docs[0].BatesBegin)
	require.True(t, docs[1].IsPlaceholder)
	require.NoError(t, mock.ExpectationsWereMet())
}
