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

// ClassRepository manages persistence for classes, their rosters and their
// teacher assignments.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

var classFilters = query.FilterSpec{
	{Param: "school_id", Column: "c.school_id"},
	{Param: "academic_year", Column: "c.academic_year"},
}

// List returns class summaries with aggregated teacher and subject names.
func (r *ClassRepository) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.ClassSummary, int, error) {
	qb := query.New(
		`SELECT c.id, c.school_id, c.name, c.academic_year, c.start_time, c.end_time, c.start_date, c.end_date, c.created_at, c.updated_at,
        (SELECT STRING_AGG(DISTINCT u.first_name || ' ' || u.last_name, ', ') FROM schedules sch JOIN teachers t ON t.id = sch.teacher_id JOIN users u ON u.id = t.user_id WHERE sch.class_id = c.id) AS teacher_names,
        (SELECT STRING_AGG(DISTINCT sub.name, ', ') FROM schedules sch JOIN subjects sub ON sub.id = sch.subject_id WHERE sch.class_id = c.id) AS subject_names`,
		"FROM classes c",
	)
	if scope != nil && scope.Restricted && scope.SchoolID != nil {
		params = withoutSchoolParam(params)
		qb.Where("c.school_id", *scope.SchoolID)
	}
	qb.ApplyFilters(params, classFilters).
		ApplySearch(params, []string{"c.name", "c.academic_year"}).
		ApplySort(params, "c.created_at DESC").
		ApplyPagination(params, 25)

	stmt, args := qb.Build()
	var classes []models.ClassSummary
	if err := r.db.SelectContext(ctx, &classes, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countStmt, countArgs := qb.BuildCount()
	var total int
	if err := r.db.GetContext(ctx, &total, countStmt, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID fetches a bare class row.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, school_id, name, academic_year, start_time, end_time, start_date, end_date, created_at, updated_at
        FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListStudents returns the roster of a class.
func (r *ClassRepository) ListStudents(ctx context.Context, classID string) ([]models.ClassStudent, error) {
	const query = `SELECT st.id AS student_id, u.first_name, u.last_name, u.email, st.date_of_birth
        FROM class_students cs
        JOIN students st ON st.id = cs.student_id
        JOIN users u ON u.id = st.user_id
        WHERE cs.class_id = $1
        ORDER BY u.last_name, u.first_name`
	students := []models.ClassStudent{}
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}

// CreateTx inserts a class inside an open transaction.
func (r *ClassRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, school_id, name, academic_year, start_time, end_time, start_date, end_date, created_at, updated_at)
        VALUES (:id, :school_id, :name, :academic_year, :start_time, :end_time, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// UpdateTx modifies a class inside an open transaction.
func (r *ClassRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, academic_year = :academic_year, start_time = :start_time, end_time = :end_time, start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, class)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update class %s: %w", class.ID, errNoRowsAffected)
	}
	return nil
}

// DeleteTx removes a class and its dependent rows inside an open
// transaction. Children go first so foreign keys never block the delete.
func (r *ClassRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	for _, stmt := range []string{
		"DELETE FROM schedules WHERE class_id = $1",
		"DELETE FROM teacher_class_map WHERE class_id = $1",
		"DELETE FROM class_students WHERE class_id = $1",
		"DELETE FROM attendance WHERE class_id = $1",
		"DELETE FROM scores WHERE class_id = $1",
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete class children: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM classes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete class %s: %w", id, errNoRowsAffected)
	}
	return nil
}

// ReplaceTeacherAssignmentsTx rewrites the teacher-class mapping for a class
// from the given teacher profile IDs.
func (r *ClassRepository) ReplaceTeacherAssignmentsTx(ctx context.Context, tx *sqlx.Tx, classID string, teacherIDs []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM teacher_class_map WHERE class_id = $1", classID); err != nil {
		return fmt.Errorf("clear teacher assignments: %w", err)
	}
	rows := make([][]interface{}, 0, len(teacherIDs))
	for _, teacherID := range teacherIDs {
		rows = append(rows, []interface{}{teacherID, classID})
	}
	if _, err := BulkInsert(ctx, tx, "teacher_class_map",
		[]string{"teacher_id", "class_id"}, rows,
		[]string{"teacher_id", "class_id"}); err != nil {
		return err
	}
	return nil
}

// EnrollStudentsTx adds students to a class roster, ignoring students
// already enrolled.
func (r *ClassRepository) EnrollStudentsTx(ctx context.Context, tx *sqlx.Tx, classID string, studentIDs []string) error {
	rows := make([][]interface{}, 0, len(studentIDs))
	now := time.Now().UTC()
	for _, studentID := range studentIDs {
		rows = append(rows, []interface{}{classID, studentID, now})
	}
	if _, err := BulkInsert(ctx, tx, "class_students",
		[]string{"class_id", "student_id", "enrolled_at"}, rows,
		[]string{"class_id", "student_id"}); err != nil {
		return err
	}
	return nil
}

// RemoveStudent drops one student from a class roster.
func (r *ClassRepository) RemoveStudent(ctx context.Context, classID, studentID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM class_students WHERE class_id = $1 AND student_id = $2", classID, studentID)
	if err != nil {
		return fmt.Errorf("remove class student: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("remove class student: %w", errNoRowsAffected)
	}
	return nil
}

// EnrolledStudentIDs returns which of the given students are on the class
// roster.
func (r *ClassRepository) EnrolledStudentIDs(ctx context.Context, classID string, studentIDs []string) ([]string, error) {
	stmt, args, err := sqlx.In("SELECT student_id FROM class_students WHERE class_id = ? AND student_id IN (?)", classID, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("build enrollment check: %w", err)
	}
	stmt = r.db.Rebind(stmt)
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, stmt, args...); err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	return ids, nil
}

// TeacherSchoolIDsTx maps teacher profile IDs to their school inside an
// open transaction. IDs with no matching row are absent from the map.
func (r *ClassRepository) TeacherSchoolIDsTx(ctx context.Context, tx *sqlx.Tx, teacherIDs []string) (map[string]*string, error) {
	schools := make(map[string]*string, len(teacherIDs))
	if len(teacherIDs) == 0 {
		return schools, nil
	}
	stmt, args, err := sqlx.In("SELECT id, school_id FROM teachers WHERE id IN (?)", teacherIDs)
	if err != nil {
		return nil, fmt.Errorf("build teacher school lookup: %w", err)
	}
	stmt = tx.Rebind(stmt)
	var rows []struct {
		ID       string  `db:"id"`
		SchoolID *string `db:"school_id"`
	}
	if err := tx.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("lookup teacher schools: %w", err)
	}
	for _, row := range rows {
		schools[row.ID] = row.SchoolID
	}
	return schools, nil
}

// SubjectSchoolIDsTx maps subject IDs to their school inside an open
// transaction. IDs with no matching row are absent from the map.
func (r *ClassRepository) SubjectSchoolIDsTx(ctx context.Context, tx *sqlx.Tx, subjectIDs []string) (map[string]string, error) {
	schools := make(map[string]string, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return schools, nil
	}
	stmt, args, err := sqlx.In("SELECT id, school_id FROM subjects WHERE id IN (?)", subjectIDs)
	if err != nil {
		return nil, fmt.Errorf("build subject school lookup: %w", err)
	}
	stmt = tx.Rebind(stmt)
	var rows []struct {
		ID       string `db:"id"`
		SchoolID string `db:"school_id"`
	}
	if err := tx.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("lookup subject schools: %w", err)
	}
	for _, row := range rows {
		schools[row.ID] = row.SchoolID
	}
	return schools, nil
}

// TeacherUserIDsTx returns the account IDs of teachers assigned to a class,
// for notification fan-out inside the same transaction.
func (r *ClassRepository) TeacherUserIDsTx(ctx context.Context, tx *sqlx.Tx, classID string) ([]string, error) {
	const query = `SELECT t.user_id FROM teacher_class_map m JOIN teachers t ON t.id = m.teacher_id WHERE m.class_id = $1`
	var ids []string
	if err := tx.SelectContext(ctx, &ids, query, classID); err != nil {
		return nil, fmt.Errorf("list class teacher users: %w", err)
	}
	return ids, nil
}

// StudentUserIDsTx returns the account IDs of students enrolled in a class.
func (r *ClassRepository) StudentUserIDsTx(ctx context.Context, tx *sqlx.Tx, classID string) ([]string, error) {
	const query = `SELECT st.user_id FROM class_students cs JOIN students st ON st.id = cs.student_id WHERE cs.class_id = $1`
	var ids []string
	if err := tx.SelectContext(ctx, &ids, query, classID); err != nil {
		return nil, fmt.Errorf("list class student users: %w", err)
	}
	return ids, nil
}
