package repository

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/query"
)

// AttendanceRepository manages persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

var attendanceFilters = query.FilterSpec{
	{Param: "class_id", Column: "a.class_id"},
	{Param: "student_id", Column: "a.student_id"},
	{Param: "status", Column: "a.status"},
	{Param: "date", Column: "a.date"},
}

// List returns attendance records with student and class names. date_from
// and date_to bound the range inclusively.
func (r *AttendanceRepository) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.AttendanceRecord, int, error) {
	qb := query.New(
		`SELECT a.id, a.date, a.status, a.remarks, a.student_id,
        u.first_name || ' ' || u.last_name AS student_name, c.name AS class_name`,
		`FROM attendance a
        JOIN students st ON st.id = a.student_id
        JOIN users u ON u.id = st.user_id
        JOIN classes c ON c.id = a.class_id`,
	)
	if scope != nil && scope.Restricted && scope.SchoolID != nil {
		qb.Where("c.school_id", *scope.SchoolID)
	}
	if from := params.Get("date_from"); from != "" {
		qb.Condition("a.date >= $%d", from)
	}
	if to := params.Get("date_to"); to != "" {
		qb.Condition("a.date <= $%d", to)
	}
	qb.ApplyFilters(params, attendanceFilters).
		ApplySort(params, "a.date DESC").
		ApplyPagination(params, 50)

	stmt, args := qb.Build()
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countStmt, countArgs := qb.BuildCount()
	var total int
	if err := r.db.GetContext(ctx, &total, countStmt, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return records, total, nil
}

// BulkRecordTx writes all attendance rows in one statement inside an open
// transaction. A row for a (student, class, date) that already exists has
// its status and remarks overwritten.
func (r *AttendanceRepository) BulkRecordTx(ctx context.Context, tx *sqlx.Tx, records []models.Attendance) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]interface{}, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rows = append(rows, []interface{}{
			rec.ID, rec.StudentID, rec.ClassID, rec.Date, rec.Status, rec.Remarks, rec.TeacherID, now, now,
		})
	}
	return BulkUpsert(ctx, tx, "attendance",
		[]string{"id", "student_id", "class_id", "date", "status", "remarks", "recorded_by_teacher_id", "created_at", "updated_at"},
		rows,
		[]string{"student_id", "class_id", "date"},
		[]string{"status", "remarks", "recorded_by_teacher_id", "updated_at"})
}

// SummaryByStatus counts a student's records per status within a class.
func (r *AttendanceRepository) SummaryByStatus(ctx context.Context, studentID, classID string) (map[models.AttendanceStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM attendance WHERE student_id = $1 AND class_id = $2 GROUP BY status`
	var rows []struct {
		Status models.AttendanceStatus `db:"status"`
		Count  int                     `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, studentID, classID); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	summary := make(map[models.AttendanceStatus]int, len(rows))
	for _, row := range rows {
		summary[row.Status] = row.Count
	}
	return summary, nil
}
