package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

func newBulkMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBulkUpsertBuildsSingleStatement(t *testing.T) {
	db, mock, cleanup := newBulkMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO scores (id, student_id, value) VALUES ($1, $2, $3), ($4, $5, $6) "+
			"ON CONFLICT (student_id) DO UPDATE SET value = EXCLUDED.value")).
		WithArgs("sc-1", "stu-1", 8.5, "sc-2", "stu-2", 9.0).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := BulkUpsert(context.Background(), db, "scores",
		[]string{"id", "student_id", "value"},
		[][]interface{}{
			{"sc-1", "stu-1", 8.5},
			{"sc-2", "stu-2", 9.0},
		},
		[]string{"student_id"}, []string{"value"})
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertRejectsDegenerateForms(t *testing.T) {
	db, mock, cleanup := newBulkMock(t)
	defer cleanup()

	cols := []string{"id", "value"}
	row := [][]interface{}{{"sc-1", 8.5}}

	cases := []struct {
		name string
		call func() (int64, error)
	}{
		{"empty rows", func() (int64, error) {
			return BulkUpsert(context.Background(), db, "scores", cols, nil, []string{"id"}, []string{"value"})
		}},
		{"empty table", func() (int64, error) {
			return BulkUpsert(context.Background(), db, "", cols, row, []string{"id"}, []string{"value"})
		}},
		{"empty conflict columns", func() (int64, error) {
			return BulkUpsert(context.Background(), db, "scores", cols, row, nil, []string{"value"})
		}},
		{"empty update columns", func() (int64, error) {
			return BulkUpsert(context.Background(), db, "scores", cols, row, []string{"id"}, nil)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.call()
			require.Error(t, err)
			require.True(t, appErrors.Is(err, appErrors.ErrValidation))
		})
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertArityMismatch(t *testing.T) {
	db, mock, cleanup := newBulkMock(t)
	defer cleanup()

	_, err := BulkUpsert(context.Background(), db, "scores",
		[]string{"id", "value"},
		[][]interface{}{{"sc-1"}},
		[]string{"id"}, []string{"value"})
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertEmptyRowsIsNoop(t *testing.T) {
	db, mock, cleanup := newBulkMock(t)
	defer cleanup()

	affected, err := BulkInsert(context.Background(), db, "class_students", []string{"class_id", "student_id"}, nil, nil)
	require.NoError(t, err)
	require.Zero(t, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertDoNothingOnConflict(t *testing.T) {
	db, mock, cleanup := newBulkMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO teacher_class_map (teacher_id, class_id) VALUES ($1, $2) "+
			"ON CONFLICT (teacher_id, class_id) DO NOTHING")).
		WithArgs("tch-1", "cls-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := BulkInsert(context.Background(), db, "teacher_class_map",
		[]string{"teacher_id", "class_id"},
		[][]interface{}{{"tch-1", "cls-1"}},
		[]string{"teacher_id", "class_id"})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}
