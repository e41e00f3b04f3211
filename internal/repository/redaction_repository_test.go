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

func redactionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "document_id", "page_number", "x", "y", "width", "height",
		"reason_code", "polygon", "created_by", "created_at", "updated_at",
	})
}

func TestRedactionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRedactionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO redactions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	redaction := &models.Redaction{
		DocumentID: "doc-1",
		PageNumber: 2,
		X:          0.1,
		Y:          0.1,
		Width:      0.2,
		Height:     0.1,
		ReasonCode: "PRIV",
	}
	require.NoError(t, repo.Create(context.Background(), redaction))
	require.NotEmpty(t, redaction.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedactionRepositoryListByDocumentPage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRedactionRepository(db)

	rows := redactionRows().
		AddRow("red-1", "doc-1", 2, 0.1, 0.1, 0.2, 0.1, "PRIV", nil, nil, time.Now(), time.Now()).
		AddRow("red-2", "doc-1", 2, 0.5, 0.5, 0.1, 0.1, "PII", nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM redactions WHERE document_id = \\$1 AND page_number = \\$2").
		WithArgs("doc-1", 2).
		WillReturnRows(rows)

	redactions, err := repo.ListByDocumentPage(context.Background(), "doc-1", 2)
	require.NoError(t, err)
	require.Len(t, redactions, 2)
	require.Equal(t, "PRIV", redactions[0].ReasonCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedactionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRedactionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM redactions WHERE id = $1")).
		WithArgs("red-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "red-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
