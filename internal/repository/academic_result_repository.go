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

// AcademicResultRepository manages persistence for finalized period results.
type AcademicResultRepository struct {
	db *sqlx.DB
}

// NewAcademicResultRepository constructs an AcademicResultRepository.
func NewAcademicResultRepository(db *sqlx.DB) *AcademicResultRepository {
	return &AcademicResultRepository{db: db}
}

var academicResultFilters = query.FilterSpec{
	{Param: "student_id", Column: "ar.student_id"},
	{Param: "class_id", Column: "ar.class_id"},
	{Param: "subject_id", Column: "ar.subject_id"},
	{Param: "academic_period", Column: "ar.academic_period"},
	{Param: "grade", Column: "ar.grade"},
}

// List returns result details matching the request parameters.
func (r *AcademicResultRepository) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.AcademicResultDetail, int, error) {
	qb := query.New(
		`SELECT ar.id, ar.academic_period, ar.final_score, ar.grade, ar.rank, ar.student_id,
        u.first_name || ' ' || u.last_name AS student_name, c.name AS class_name, sub.name AS subject_name`,
		`FROM academic_results ar
        JOIN students st ON st.id = ar.student_id
        JOIN users u ON u.id = st.user_id
        JOIN classes c ON c.id = ar.class_id
        JOIN subjects sub ON sub.id = ar.subject_id`,
	)
	if scope != nil && scope.Restricted && scope.SchoolID != nil {
		qb.Where("c.school_id", *scope.SchoolID)
	}
	qb.ApplyFilters(params, academicResultFilters).
		ApplySort(params, "ar.academic_period DESC, ar.final_score DESC").
		ApplyPagination(params, 50)

	stmt, args := qb.Build()
	var results []models.AcademicResultDetail
	if err := r.db.SelectContext(ctx, &results, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list academic results: %w", err)
	}

	countStmt, countArgs := qb.BuildCount()
	var total int
	if err := r.db.GetContext(ctx, &total, countStmt, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count academic results: %w", err)
	}
	return results, total, nil
}

// Upsert inserts a result or overwrites the existing row for the same
// (student, class, subject, period) key.
func (r *AcademicResultRepository) Upsert(ctx context.Context, result *models.AcademicResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	result.CreatedAt = now
	result.UpdatedAt = now
	const query = `INSERT INTO academic_results (id, student_id, class_id, subject_id, academic_period, final_score, grade, rank, remarks, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :subject_id, :academic_period, :final_score, :grade, :rank, :remarks, :created_at, :updated_at)
        ON CONFLICT (student_id, class_id, subject_id, academic_period) DO UPDATE SET
        final_score = EXCLUDED.final_score, grade = EXCLUDED.grade, rank = EXCLUDED.rank, remarks = EXCLUDED.remarks, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("upsert academic result: %w", err)
	}
	return nil
}

// BulkPublish writes all result rows in one statement. A row colliding on
// (student, class, subject, period) has its score, grade, rank and remarks
// overwritten.
func (r *AcademicResultRepository) BulkPublish(ctx context.Context, results []models.AcademicResult) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]interface{}, 0, len(results))
	for i := range results {
		res := &results[i]
		if res.ID == "" {
			res.ID = uuid.NewString()
		}
		rows = append(rows, []interface{}{
			res.ID, res.StudentID, res.ClassID, res.SubjectID, res.AcademicPeriod,
			res.FinalScore, res.Grade, res.Rank, res.Remarks, now, now,
		})
	}
	return BulkUpsert(ctx, r.db, "academic_results",
		[]string{"id", "student_id", "class_id", "subject_id", "academic_period", "final_score", "grade", "rank", "remarks", "created_at", "updated_at"},
		rows,
		[]string{"student_id", "class_id", "subject_id", "academic_period"},
		[]string{"final_score", "grade", "rank", "remarks", "updated_at"})
}

// SchoolID returns the school owning a result, resolved through its class,
// so callers can check the tenant boundary before a delete.
func (r *AcademicResultRepository) SchoolID(ctx context.Context, id string) (string, error) {
	const query = `SELECT c.school_id FROM academic_results ar JOIN classes c ON c.id = ar.class_id WHERE ar.id = $1`
	var schoolID string
	if err := r.db.GetContext(ctx, &schoolID, query, id); err != nil {
		return "", fmt.Errorf("find academic result school: %w", err)
	}
	return schoolID, nil
}

// Delete removes a finalized result.
func (r *AcademicResultRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM academic_results WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete academic result: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete academic result %s: %w", id, errNoRowsAffected)
	}
	return nil
}
