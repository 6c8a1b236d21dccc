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

// TeacherRepository manages persistence for teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

var teacherFilters = query.FilterSpec{
	{Param: "school_id", Column: "t.school_id"},
}

const teacherDetailColumns = `SELECT t.id, t.user_id, t.school_id, t.hire_date, t.created_at, t.updated_at,
        u.first_name, u.last_name, u.email, u.phone, s.name AS school_name`

const teacherDetailFrom = `FROM teachers t
        JOIN users u ON u.id = t.user_id
        LEFT JOIN schools s ON s.id = t.school_id`

// List returns teacher details matching the request parameters within the
// caller's scope.
func (r *TeacherRepository) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.TeacherDetail, int, error) {
	qb := query.New(teacherDetailColumns, teacherDetailFrom)
	if scope != nil && scope.Restricted && scope.SchoolID != nil {
		params = withoutSchoolParam(params)
		qb.Where("t.school_id", *scope.SchoolID)
	}
	qb.Condition("u.active = $%d", true)
	qb.ApplyFilters(params, teacherFilters).
		ApplySearch(params, []string{"u.first_name", "u.last_name", "u.email"}).
		ApplySort(params, "u.last_name ASC, u.first_name ASC").
		ApplyPagination(params, 25)

	stmt, args := qb.Build()
	var teachers []models.TeacherDetail
	if err := r.db.SelectContext(ctx, &teachers, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countStmt, countArgs := qb.BuildCount()
	var total int
	if err := r.db.GetContext(ctx, &total, countStmt, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID fetches one teacher detail.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.TeacherDetail, error) {
	query := teacherDetailColumns + " " + teacherDetailFrom + " WHERE t.id = $1"
	var detail models.TeacherDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateTx inserts a teacher profile inside an open transaction.
func (r *TeacherRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, user_id, school_id, hire_date, created_at, updated_at)
        VALUES (:id, :user_id, :school_id, :hire_date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// UpdateSchool moves a teacher to another school.
func (r *TeacherRepository) UpdateSchool(ctx context.Context, id string, schoolID *string) error {
	const query = `UPDATE teachers SET school_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, schoolID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update teacher school: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update teacher %s: %w", id, errNoRowsAffected)
	}
	return nil
}

// ClassIDs returns the IDs of classes a teacher is assigned to.
func (r *TeacherRepository) ClassIDs(ctx context.Context, teacherID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT class_id FROM teacher_class_map WHERE teacher_id = $1", teacherID); err != nil {
		return nil, fmt.Errorf("list teacher classes: %w", err)
	}
	return ids, nil
}
