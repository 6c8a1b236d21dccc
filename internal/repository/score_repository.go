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

// ScoreRepository manages persistence for assessment scores.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs a ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

var scoreFilters = query.FilterSpec{
	{Param: "student_id", Column: "sc.student_id"},
	{Param: "class_id", Column: "sc.class_id"},
	{Param: "subject_id", Column: "sc.subject_id"},
	{Param: "teacher_id", Column: "sc.teacher_id"},
	{Param: "assessment_type", Column: "sc.assessment_type"},
}

// List returns score records with student and subject names.
func (r *ScoreRepository) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.ScoreRecord, int, error) {
	qb := query.New(
		`SELECT sc.id, sc.value, sc.assessment_type, sc.date_recorded, sc.remarks, sc.student_id,
        u.first_name || ' ' || u.last_name AS student_name, sc.class_id, c.name AS class_name,
        sc.subject_id, sub.name AS subject_name`,
		`FROM scores sc
        JOIN students st ON st.id = sc.student_id
        JOIN users u ON u.id = st.user_id
        JOIN classes c ON c.id = sc.class_id
        JOIN subjects sub ON sub.id = sc.subject_id`,
	)
	if scope != nil && scope.Restricted && scope.SchoolID != nil {
		qb.Where("st.school_id", *scope.SchoolID)
	}
	if from := params.Get("date_from"); from != "" {
		qb.Condition("sc.date_recorded >= $%d", from)
	}
	if to := params.Get("date_to"); to != "" {
		qb.Condition("sc.date_recorded <= $%d", to)
	}
	qb.ApplyFilters(params, scoreFilters).
		ApplySort(params, "sc.date_recorded DESC").
		ApplyPagination(params, 50)

	stmt, args := qb.Build()
	var scores []models.ScoreRecord
	if err := r.db.SelectContext(ctx, &scores, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list scores: %w", err)
	}

	countStmt, countArgs := qb.BuildCount()
	var total int
	if err := r.db.GetContext(ctx, &total, countStmt, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count scores: %w", err)
	}
	return scores, total, nil
}

// BulkRecord writes all score rows in one statement. A row colliding on
// (student, subject, assessment type, date) has its value and remarks
// overwritten.
func (r *ScoreRepository) BulkRecord(ctx context.Context, scores []models.Score) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]interface{}, 0, len(scores))
	for i := range scores {
		sc := &scores[i]
		if sc.ID == "" {
			sc.ID = uuid.NewString()
		}
		rows = append(rows, []interface{}{
			sc.ID, sc.StudentID, sc.ClassID, sc.SubjectID, sc.TeacherID, sc.Value, sc.AssessmentType, sc.DateRecorded, sc.Remarks, now, now,
		})
	}
	return BulkUpsert(ctx, r.db, "scores",
		[]string{"id", "student_id", "class_id", "subject_id", "teacher_id", "value", "assessment_type", "date_recorded", "remarks", "created_at", "updated_at"},
		rows,
		[]string{"student_id", "subject_id", "assessment_type", "date_recorded"},
		[]string{"class_id", "teacher_id", "value", "remarks", "updated_at"})
}

// FindOwner returns the student behind a score together with the school,
// so callers can check the tenant boundary before a delete.
func (r *ScoreRepository) FindOwner(ctx context.Context, id string) (*models.ScoreOwner, error) {
	const query = `SELECT sc.student_id, st.school_id
        FROM scores sc
        JOIN students st ON st.id = sc.student_id
        WHERE sc.id = $1`
	var owner models.ScoreOwner
	if err := r.db.GetContext(ctx, &owner, query, id); err != nil {
		return nil, fmt.Errorf("find score owner: %w", err)
	}
	return &owner, nil
}

// Delete removes one score and returns the owning student ID so callers
// can invalidate that student's cached report.
func (r *ScoreRepository) Delete(ctx context.Context, id string) (string, error) {
	var studentID string
	err := r.db.GetContext(ctx, &studentID, "DELETE FROM scores WHERE id = $1 RETURNING student_id", id)
	if err != nil {
		return "", fmt.Errorf("delete score: %w", err)
	}
	return studentID, nil
}

// SubjectAverages aggregates a student's scores per subject.
func (r *ScoreRepository) SubjectAverages(ctx context.Context, studentID string) ([]models.SubjectAverage, error) {
	const query = `SELECT sc.subject_id, sub.name AS subject_name, AVG(sc.value) AS average, COUNT(*) AS score_count
        FROM scores sc
        JOIN subjects sub ON sub.id = sc.subject_id
        WHERE sc.student_id = $1
        GROUP BY sc.subject_id, sub.name
        ORDER BY sub.name`
	averages := []models.SubjectAverage{}
	if err := r.db.SelectContext(ctx, &averages, query, studentID); err != nil {
		return nil, fmt.Errorf("subject averages: %w", err)
	}
	return averages, nil
}

// ClassStandings aggregates every enrolled student's scores for one class.
// Students without scores come back with a zero count so they still appear
// in the report.
func (r *ScoreRepository) ClassStandings(ctx context.Context, classID string) ([]models.StudentStanding, error) {
	const query = `SELECT st.id AS student_id, u.first_name || ' ' || u.last_name AS student_name,
        COALESCE(AVG(sc.value), 0) AS average, COUNT(sc.id) AS score_count
        FROM class_students cs
        JOIN students st ON st.id = cs.student_id
        JOIN users u ON u.id = st.user_id
        LEFT JOIN scores sc ON sc.student_id = st.id AND sc.class_id = cs.class_id
        WHERE cs.class_id = $1
        GROUP BY st.id, u.first_name, u.last_name`
	standings := []models.StudentStanding{}
	if err := r.db.SelectContext(ctx, &standings, query, classID); err != nil {
		return nil, fmt.Errorf("class standings: %w", err)
	}
	return standings, nil
}

// SchoolStandings aggregates every student of a school across all their
// recorded scores.
func (r *ScoreRepository) SchoolStandings(ctx context.Context, schoolID string) ([]models.StudentStanding, error) {
	const query = `SELECT st.id AS student_id, u.first_name || ' ' || u.last_name AS student_name,
        COALESCE(AVG(sc.value), 0) AS average, COUNT(sc.id) AS score_count
        FROM students st
        JOIN users u ON u.id = st.user_id
        LEFT JOIN scores sc ON sc.student_id = st.id
        WHERE st.school_id = $1
        GROUP BY st.id, u.first_name, u.last_name`
	standings := []models.StudentStanding{}
	if err := r.db.SelectContext(ctx, &standings, query, schoolID); err != nil {
		return nil, fmt.Errorf("school standings: %w", err)
	}
	return standings, nil
}
