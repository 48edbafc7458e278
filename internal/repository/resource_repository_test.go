package repository

import (
	"context"
	"database/sql"
	"math"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campushub-api/internal/models"
)

var resourceRowColumns = []string{
	"id", "seq", "branch", "semester", "subject", "resource_type", "title", "description", "tags",
	"file_url", "file_id", "file_name", "file_size", "mime_type", "syllabus_text", "content_link",
	"uploaded_by", "download_count", "is_active", "last_accessed", "uploaded_at", "updated_at",
}

func newResourceRepoMock(t *testing.T) (*ResourceRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewResourceRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func notesRow(rows *sqlmock.Rows, id string, downloads int64) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(id, 1, "CSE", 3, "Data Structures", "notes", "DS Notes", "", "{trees,graphs}",
		"https://x/raw/"+id, id, "ds.pdf", 2048, "application/pdf", nil, nil,
		"admin", downloads, true, nil, now, now)
}

func TestResourceRepositoryCreate(t *testing.T) {
	repo, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO resources")).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(7))

	link := "https://youtu.be/abc"
	res := &models.Resource{Branch: "CSE", Semester: 5, Subject: "OS", ResourceType: models.ResourceTypeContent, Title: "OS videos", ContentLink: &link, UploadedBy: "admin"}
	require.NoError(t, repo.Create(context.Background(), res))
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, int64(7), res.Seq)
	assert.True(t, res.IsActive)
	assert.Equal(t, pq.StringArray{}, res.Tags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryListBuildsFilters(t *testing.T) {
	repo, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	rows := notesRow(sqlmock.NewRows(resourceRowColumns), "11111111-1111-4111-8111-111111111111", 3)
	mock.ExpectQuery(`(?s)SELECT .* FROM resources WHERE is_active AND branch = \$1 AND semester = \$2 AND subject ILIKE \$3 .* ORDER BY title COLLATE "C" ASC, seq ASC LIMIT 10 OFFSET 10`).
		WithArgs("CSE", 3, `%data\_struct%`).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM resources WHERE is_active AND branch = $1")).
		WithArgs("CSE", 3, `%data\_struct%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	items, total, err := repo.List(context.Background(), models.ResourceQuery{
		Filter: models.ResourceFilter{Branch: "cse", Semester: 3, Subject: "data_struct"},
		Sort:   models.ResourceSort{Field: models.SortTitle, Order: models.SortAsc},
		Page:   models.Page{Number: 2, Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, items, 1)
	assert.Equal(t, pq.StringArray{"trees", "graphs"}, items[0].Tags)
	assert.Equal(t, models.ResourceTypeNotes, items[0].ResourceType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositorySearchReusesPlaceholder(t *testing.T) {
	repo, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`(title ILIKE $1 ESCAPE '\' OR COALESCE(description, '') ILIKE $1 ESCAPE '\' OR subject ILIKE $1 ESCAPE '\' OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $1 ESCAPE '\'))`)).
		WithArgs("%50\\%%").
		WillReturnRows(sqlmock.NewRows(resourceRowColumns))

	items, err := repo.ListAll(context.Background(), models.ResourceFilter{Search: "50%"}, models.ResourceSort{})
	require.NoError(t, err)
	assert.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryListClampsPaging(t *testing.T) {
	repo, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(`(?s)SELECT .* FROM resources WHERE is_active ORDER BY uploaded_at DESC, seq ASC LIMIT 100 OFFSET 9223372036854775807`).
		WillReturnRows(sqlmock.NewRows(resourceRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM resources WHERE is_active")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	items, total, err := repo.List(context.Background(), models.ResourceQuery{
		Page: models.Page{Number: math.MaxInt, Limit: 500},
	})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 4, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryDefaultOrder(t *testing.T) {
	assert.Equal(t, "uploaded_at DESC, seq ASC", orderClause(models.ResourceSort{}))
	assert.Equal(t, "semester DESC, seq ASC", orderClause(models.ResourceSort{Field: models.SortSemester}))
	assert.Equal(t, "download_count ASC, seq ASC", orderClause(models.ResourceSort{Field: models.SortDownloadCount, Order: models.SortAsc}))
}

func TestResourceRepositoryFindByIDMissing(t *testing.T) {
	repo, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM resources WHERE id = $1 AND is_active")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryIncrementDownload(t *testing.T) {
	repo, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	id := "22222222-2222-4222-8222-222222222222"
	at := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE resources SET download_count = download_count + 1")).
		WithArgs(id, at).
		WillReturnRows(notesRow(sqlmock.NewRows(resourceRowColumns), id, 4))

	res, err := repo.IncrementDownload(context.Background(), id, at)
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.DownloadCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryTouchMissing(t *testing.T) {
	repo, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources SET last_accessed")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Touch(context.Background(), "x", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestResourceRepositoryDeleteAndDeactivate(t *testing.T) {
	repo, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	ids := []string{"a", "b"}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resources WHERE id = ANY($1::uuid[])")).
		WithArgs(pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := repo.Delete(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources SET is_active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err = repo.Deactivate(context.Background(), ids, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryFindByIDsEmpty(t *testing.T) {
	repo, _, cleanup := newResourceRepoMock(t)
	defer cleanup()

	items, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}
