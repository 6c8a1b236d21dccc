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

// StudentRepository manages persistence for student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

var studentFilters = query.FilterSpec{
	{Param: "school_id", Column: "st.school_id"},
}

const studentDetailColumns = `SELECT st.id, st.user_id, st.school_id, st.date_of_birth, st.enrollment_date, st.created_at, st.updated_at,
        u.first_name, u.last_name, u.email, u.phone, s.name AS school_name`

const studentDetailFrom = `FROM students st
        JOIN users u ON u.id = st.user_id
        LEFT JOIN schools s ON s.id = st.school_id`

// List returns student details matching the request parameters within the
// caller's scope. A class_id parameter narrows to one roster.
func (r *StudentRepository) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.StudentDetail, int, error) {
	qb := query.New(studentDetailColumns, studentDetailFrom)
	if scope != nil && scope.Restricted && scope.SchoolID != nil {
		params = withoutSchoolParam(params)
		qb.Where("st.school_id", *scope.SchoolID)
	}
	if classID := params.Get("class_id"); classID != "" {
		qb.Condition("st.id IN (SELECT student_id FROM class_students WHERE class_id = $%d)", classID)
	}
	qb.Condition("u.active = $%d", true)
	qb.ApplyFilters(params, studentFilters).
		ApplySearch(params, []string{"u.first_name", "u.last_name", "u.email"}).
		ApplySort(params, "u.last_name ASC, u.first_name ASC").
		ApplyPagination(params, 25)

	stmt, args := qb.Build()
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countStmt, countArgs := qb.BuildCount()
	var total int
	if err := r.db.GetContext(ctx, &total, countStmt, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches one student detail.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := studentDetailColumns + " " + studentDetailFrom + " WHERE st.id = $1"
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateTx inserts a student profile inside an open transaction.
func (r *StudentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, user_id, school_id, date_of_birth, enrollment_date, created_at, updated_at)
        VALUES (:id, :user_id, :school_id, :date_of_birth, :enrollment_date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// UserIDsTx maps student profile IDs to their account IDs, for notification
// fan-out inside the same transaction.
func (r *StudentRepository) UserIDsTx(ctx context.Context, tx *sqlx.Tx, studentIDs []string) ([]string, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	stmt, args, err := sqlx.In("SELECT user_id FROM students WHERE id IN (?)", studentIDs)
	if err != nil {
		return nil, fmt.Errorf("build student user lookup: %w", err)
	}
	stmt = tx.Rebind(stmt)
	var ids []string
	if err := tx.SelectContext(ctx, &ids, stmt, args...); err != nil {
		return nil, fmt.Errorf("list student users: %w", err)
	}
	return ids, nil
}

// UpdateSchool moves a student to another school.
func (r *StudentRepository) UpdateSchool(ctx context.Context, id string, schoolID *string) error {
	const query = `UPDATE students SET school_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, schoolID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update student school: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update student %s: %w", id, errNoRowsAffected)
	}
	return nil
}
