package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/salaedu/sala-api/internal/models"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRepositoryBulkRecord(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance (id, student_id, class_id, date, status, remarks, recorded_by_teacher_id, created_at, updated_at) VALUES") +
		".*" +
		regexp.QuoteMeta("ON CONFLICT (student_id, class_id, date) DO UPDATE SET status = EXCLUDED.status, remarks = EXCLUDED.remarks, recorded_by_teacher_id = EXCLUDED.recorded_by_teacher_id, updated_at = EXCLUDED.updated_at")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	affected, err := repo.BulkRecordTx(context.Background(), tx, []models.Attendance{
		{StudentID: "stu-1", ClassID: "cls-1", Date: "2026-03-02", Status: models.AttendancePresent, TeacherID: "tch-1"},
		{StudentID: "stu-2", ClassID: "cls-1", Date: "2026-03-02", Status: models.AttendanceLate, TeacherID: "tch-1"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySummaryByStatus(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("present", 18).
		AddRow("absent", 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM attendance WHERE student_id = $1 AND class_id = $2 GROUP BY status")).
		WithArgs("stu-1", "cls-1").
		WillReturnRows(rows)

	summary, err := repo.SummaryByStatus(context.Background(), "stu-1", "cls-1")
	require.NoError(t, err)
	require.Equal(t, 18, summary[models.AttendancePresent])
	require.Equal(t, 2, summary[models.AttendanceAbsent])
	require.NoError(t, mock.ExpectationsWereMet())
}
