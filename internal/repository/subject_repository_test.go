package repository

import (
	"context"
	"net/url"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/salaedu/sala-api/internal/models"
)

func newSubjectRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

// A scoped caller supplying their own school_id must be pinned to the
// resolved school; the client value is discarded, not intersected.
func TestSubjectRepositoryListScopeOverridesClientSchool(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	schoolID := "sch-5"
	scope := &models.Scope{SchoolID: &schoolID, Restricted: true}

	params := url.Values{}
	params.Set("school_id", "sch-9")
	params.Set("code", "MATH")

	rows := sqlmock.NewRows([]string{"id", "school_id", "name", "code", "created_at", "updated_at"}).
		AddRow("sub-1", "sch-5", "Mathematics", "MATH", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT sub.id, sub.school_id, sub.name, sub.code, sub.created_at, sub.updated_at FROM subjects sub "+
			"WHERE sub.school_id = $1 AND sub.code = $2 ORDER BY sub.name ASC LIMIT $3 OFFSET $4")).
		WithArgs("sch-5", "MATH", 25, 0).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects sub WHERE sub.school_id = $1 AND sub.code = $2")).
		WithArgs("sch-5", "MATH").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	subjects, total, err := repo.List(context.Background(), params, scope)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	require.Equal(t, 1, total)
	require.Equal(t, "sch-5", subjects[0].SchoolID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListUnrestrictedHonoursClientSchool(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	params := url.Values{}
	params.Set("school_id", "sch-9")

	rows := sqlmock.NewRows([]string{"id", "school_id", "name", "code", "created_at", "updated_at"})
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT sub.id, sub.school_id, sub.name, sub.code, sub.created_at, sub.updated_at FROM subjects sub "+
			"WHERE sub.school_id = $1 ORDER BY sub.name ASC LIMIT $2 OFFSET $3")).
		WithArgs("sch-9", 25, 0).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects sub WHERE sub.school_id = $1")).
		WithArgs("sch-9").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	subjects, total, err := repo.List(context.Background(), params, &models.Scope{Restricted: false})
	require.NoError(t, err)
	require.Empty(t, subjects)
	require.Equal(t, 0, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
