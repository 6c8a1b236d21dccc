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

func newSchoolRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSchoolRepositoryListScoped(t *testing.T) {
	db, mock, cleanup := newSchoolRepoMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	schoolID := "sch-1"
	scope := &models.Scope{SchoolID: &schoolID, Restricted: true}

	rows := sqlmock.NewRows([]string{"id", "name", "address", "phone", "email", "status", "founded_date", "level", "created_at", "updated_at", "director_name", "total_teachers", "total_students", "total_classes"}).
		AddRow("sch-1", "Northside High", nil, nil, nil, "active", nil, nil, time.Now(), time.Now(), "An Nguyen", 12, 240, 8)
	mock.ExpectQuery("(?s)" + regexp.QuoteMeta(
		"SELECT s.id, s.name, s.address, s.phone, s.email, s.status, s.founded_date, s.level, s.created_at, s.updated_at,") +
		".*" + regexp.QuoteMeta("FROM schools s WHERE s.id = $1 ORDER BY s.created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs("sch-1", 25, 0).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schools s WHERE s.id = $1")).
		WithArgs("sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	schools, total, err := repo.List(context.Background(), url.Values{}, scope)
	require.NoError(t, err)
	require.Len(t, schools, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepositoryListUnrestricted(t *testing.T) {
	db, mock, cleanup := newSchoolRepoMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	params := url.Values{}
	params.Set("search", "north")
	params.Set("page", "2")
	params.Set("limit", "10")

	rows := sqlmock.NewRows([]string{"id", "name", "address", "phone", "email", "status", "founded_date", "level", "created_at", "updated_at", "director_name", "total_teachers", "total_students", "total_classes"})
	mock.ExpectQuery("(?s)" + regexp.QuoteMeta(
		"SELECT s.id, s.name, s.address, s.phone, s.email, s.status, s.founded_date, s.level, s.created_at, s.updated_at,") +
		".*" + regexp.QuoteMeta("FROM schools s WHERE (LOWER(s.name) LIKE $1 OR LOWER(s.address) LIKE $2) ORDER BY s.created_at DESC LIMIT $3 OFFSET $4")).
		WithArgs("%north%", "%north%", 10, 10).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schools s WHERE (LOWER(s.name) LIKE $1 OR LOWER(s.address) LIKE $2)")).
		WithArgs("%north%", "%north%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	schools, total, err := repo.List(context.Background(), params, nil)
	require.NoError(t, err)
	require.Empty(t, schools)
	require.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
