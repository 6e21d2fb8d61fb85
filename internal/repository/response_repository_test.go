package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccc-church/evaluation-api/internal/models"
)

func newResponseMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func listColumns() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "created_at", "entered_by", "gender", "membership_code", "service_attendance", "is_member", "overall_rating"})
}

func TestResponseRepositoryListDefaults(t *testing.T) {
	db, mock, cleanup := newResponseMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	rows := listColumns().
		AddRow("r1", time.Now(), "mary", "Female", "CCC-0001", "1st Service (6:00-8:00am)", true, "Excellent")
	mock.ExpectQuery("SELECT id, created_at, entered_by, gender, membership_code, service_attendance, is_member, overall_rating").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM survey_responses WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.ResponseFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryListSearchAndService(t *testing.T) {
	db, mock, cleanup := newResponseMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectQuery("entered_by LIKE \\$1 OR membership_code LIKE \\$1 OR service_attendance LIKE \\$1").
		WithArgs("%Mary%", "%2nd%").
		WillReturnRows(listColumns())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%Mary%", "%2nd%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.ResponseFilter{
		Search:  "Mary",
		Service: "2nd Service (8:00-10:00am)",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryListAllServices(t *testing.T) {
	db, mock, cleanup := newResponseMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectQuery("service_attendance LIKE \\$1 AND service_attendance LIKE \\$2 AND service_attendance LIKE \\$3").
		WithArgs("%1st%", "%2nd%", "%3rd%").
		WillReturnRows(listColumns())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%1st%", "%2nd%", "%3rd%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.ResponseFilter{Service: "All Services"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newResponseMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectExec("INSERT INTO survey_responses").
		WillReturnResult(sqlmock.NewResult(1, 1))

	resp := &models.Response{EnteredBy: "mary", AgeGroup: "25-34", Gender: "Female"}
	err := repo.Create(context.Background(), resp)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.False(t, resp.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryExistsByMembershipCode(t *testing.T) {
	db, mock, cleanup := newResponseMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectQuery("SELECT 1 FROM survey_responses WHERE membership_code = \\$1").
		WithArgs("CCC-0001").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByMembershipCode(context.Background(), "CCC-0001")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM survey_responses WHERE membership_code = \\$1").
		WithArgs("CCC-0404").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByMembershipCode(context.Background(), "CCC-0404")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newResponseMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectExec("UPDATE survey_responses SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Response{ID: "missing"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newResponseMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM survey_responses WHERE id = $1")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "r1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryGroupCountWhitelist(t *testing.T) {
	db, mock, cleanup := newResponseMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	_, err := repo.GroupCount(context.Background(), "entered_by; DROP TABLE users")
	require.Error(t, err)

	rows := sqlmock.NewRows([]string{"name", "value"}).
		AddRow("Excellent", 7).
		AddRow("Good", 3)
	mock.ExpectQuery("SELECT overall_rating::text AS name, COUNT\\(\\*\\) AS value FROM survey_responses GROUP BY overall_rating").
		WillReturnRows(rows)

	counts, err := repo.GroupCount(context.Background(), "overall_rating")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, models.NameCount{Name: "Excellent", Value: 7}, counts[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryStatsCounts(t *testing.T) {
	db, mock, cleanup := newResponseMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM survey_responses")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	total, err := repo.CountAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	since := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM survey_responses WHERE created_at >= $1")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	recent, err := repo.CountCreatedSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 3, recent)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT entered_by) FROM survey_responses WHERE created_at >= $1")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	users, err := repo.CountDistinctEnteredBySince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 2, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryBulkInsertSkipsConflicts(t *testing.T) {
	db, mock, cleanup := newResponseMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectExec("ON CONFLICT \\(id\\) DO NOTHING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("ON CONFLICT \\(id\\) DO NOTHING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.BulkInsert(context.Background(), []models.Response{
		{ID: "r1", EnteredBy: "mary"},
		{ID: "r1", EnteredBy: "mary"},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newResponseMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM survey_responses")).
		WillReturnResult(sqlmock.NewResult(0, 42))

	deleted, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
