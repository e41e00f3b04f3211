package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/litigo/ediscovery-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func documentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "matter_id", "parent_id", "family_id", "family_index", "storage_path",
		"hash_md5", "hash_sha1", "content_type", "original_filename", "metadata",
		"text_path", "status", "error_message", "relevance", "privilege", "issue_tags",
		"created_at", "updated_at",
	})
}

func TestDocumentRepositoryCreateDefaultsFamilyToSelf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	doc := &models.Document{
		MatterID:         "matter-1",
		StoragePath:      "matter-1/doc.pdf",
		HashMD5:          "d41d8cd98f00b204e9800998ecf8427e",
		HashSHA1:         "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		ContentType:      "application/pdf",
		OriginalFilename: "doc.pdf",
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	require.NotEmpty(t, doc.ID)
	require.Equal(t, doc.ID, doc.FamilyID)
	require.Equal(t, models.DocumentStatusUploaded, doc.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryCreateKeepsParentFamily(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	parentID := "root-1"
	doc := &models.Document{
		MatterID:    "matter-1",
		ParentID:    &parentID,
		FamilyID:    "root-1",
		FamilyIndex: 1,
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	require.Equal(t, "root-1", doc.FamilyID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	rows := documentRows().AddRow(
		"doc-1", "matter-1", nil, "doc-1", 0, "matter-1/doc.pdf",
		"md5", "sha1", "application/pdf", "doc.pdf", `{"pageCount":"3"}`,
		nil, "uploaded", nil, nil, nil, nil, time.Now(), time.Now(),
	)
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1").
		WithArgs("doc-1").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, "doc-1", doc.ID)
	require.Equal(t, "3", doc.Metadata["pageCount"])
	require.True(t, doc.IsFamilyRoot())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListFamily(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	parent := "root-1"
	rows := documentRows().
		AddRow("root-1", "matter-1", nil, "root-1", 0, "p", "m", "s", "message/rfc822", "mail.eml", `{}`, nil, "ocr_complete", nil, nil, nil, nil, time.Now(), time.Now()).
		AddRow("child-1", "matter-1", parent, "root-1", 1, "p1", "m1", "s1", "application/pdf", "a.pdf", `{}`, nil, "ocr_complete", nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE family_id = \\$1 ORDER BY family_index ASC").
		WithArgs("root-1").
		WillReturnRows(rows)

	docs, err := repo.ListFamily(context.Background(), "root-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.True(t, docs[0].IsFamilyRoot())
	require.Equal(t, "child-1", docs[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	msg := "tika unavailable"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(models.DocumentStatusFailed, &msg, sqlmock.AnyArg(), "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "doc-1", models.DocumentStatusFailed, &msg))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpdateCoding(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	relevance := true
	tags := []string{"breach", "damages"}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET relevance = $1, issue_tags = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(relevance, sqlmock.AnyArg(), sqlmock.AnyArg(), "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateCoding(context.Background(), "doc-1", UpdateCodingParams{
		Relevance: &relevance,
		IssueTags: &tags,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpdateCodingNoFieldsIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	require.NoError(t, repo.UpdateCoding(context.Background(), "doc-1", UpdateCodingParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}
