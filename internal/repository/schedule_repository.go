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

// ScheduleRepository manages persistence for class schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

var scheduleFilters = query.FilterSpec{
	{Param: "class_id", Column: "sch.class_id"},
	{Param: "teacher_id", Column: "sch.teacher_id"},
	{Param: "subject_id", Column: "sch.subject_id"},
	{Param: "day_of_week", Column: "sch.day_of_week"},
}

// List returns schedules with display names, scoped to the caller's school.
func (r *ScheduleRepository) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.ScheduleDetail, int, error) {
	qb := query.New(
		`SELECT sch.id, sch.class_id, sch.teacher_id, sch.subject_id, sch.day_of_week, sch.start_time, sch.end_time, sch.created_at, sch.updated_at,
        c.name AS class_name, u.first_name || ' ' || u.last_name AS teacher_name, sub.name AS subject_name`,
		`FROM schedules sch
        JOIN classes c ON c.id = sch.class_id
        JOIN teachers t ON t.id = sch.teacher_id
        JOIN users u ON u.id = t.user_id
        JOIN subjects sub ON sub.id = sch.subject_id`,
	)
	if scope != nil && scope.Restricted && scope.SchoolID != nil {
		qb.Where("c.school_id", *scope.SchoolID)
	}
	qb.ApplyFilters(params, scheduleFilters).
		ApplySort(params, "sch.day_of_week ASC, sch.start_time ASC").
		ApplyPagination(params, 50)

	stmt, args := qb.Build()
	var schedules []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &schedules, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countStmt, countArgs := qb.BuildCount()
	var total int
	if err := r.db.GetContext(ctx, &total, countStmt, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}
	return schedules, total, nil
}

// ListByClass returns the full schedule of one class ordered by day and
// start time.
func (r *ScheduleRepository) ListByClass(ctx context.Context, classID string) ([]models.ScheduleDetail, error) {
	const query = `SELECT sch.id, sch.class_id, sch.teacher_id, sch.subject_id, sch.day_of_week, sch.start_time, sch.end_time, sch.created_at, sch.updated_at,
        u.first_name || ' ' || u.last_name AS teacher_name, sub.name AS subject_name
        FROM schedules sch
        JOIN teachers t ON t.id = sch.teacher_id
        JOIN users u ON u.id = t.user_id
        JOIN subjects sub ON sub.id = sch.subject_id
        WHERE sch.class_id = $1
        ORDER BY sch.day_of_week, sch.start_time`
	schedules := []models.ScheduleDetail{}
	if err := r.db.SelectContext(ctx, &schedules, query, classID); err != nil {
		return nil, fmt.Errorf("list class schedules: %w", err)
	}
	return schedules, nil
}

// ReplaceForClassTx deletes all schedules of a class and inserts the given
// set in one multi-row statement, inside an open transaction.
func (r *ScheduleRepository) ReplaceForClassTx(ctx context.Context, tx *sqlx.Tx, classID string, schedules []models.Schedule) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM schedules WHERE class_id = $1", classID); err != nil {
		return fmt.Errorf("clear class schedules: %w", err)
	}
	now := time.Now().UTC()
	rows := make([][]interface{}, 0, len(schedules))
	for i := range schedules {
		sch := &schedules[i]
		if sch.ID == "" {
			sch.ID = uuid.NewString()
		}
		sch.ClassID = classID
		rows = append(rows, []interface{}{sch.ID, classID, sch.TeacherID, sch.SubjectID, sch.DayOfWeek, sch.StartTime, sch.EndTime, now, now})
	}
	if _, err := BulkInsert(ctx, tx, "schedules",
		[]string{"id", "class_id", "teacher_id", "subject_id", "day_of_week", "start_time", "end_time", "created_at", "updated_at"},
		rows, nil); err != nil {
		return err
	}
	return nil
}
