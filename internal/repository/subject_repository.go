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

// SubjectRepository manages persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

var subjectFilters = query.FilterSpec{
	{Param: "school_id", Column: "sub.school_id"},
	{Param: "code", Column: "sub.code"},
}

// List returns subjects matching the request parameters within the caller's
// scope.
func (r *SubjectRepository) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.Subject, int, error) {
	qb := query.New(
		"SELECT sub.id, sub.school_id, sub.name, sub.code, sub.created_at, sub.updated_at",
		"FROM subjects sub",
	)
	if scope != nil && scope.Restricted && scope.SchoolID != nil {
		params = withoutSchoolParam(params)
		qb.Where("sub.school_id", *scope.SchoolID)
	}
	qb.ApplyFilters(params, subjectFilters).
		ApplySearch(params, []string{"sub.name", "sub.code"}).
		ApplySort(params, "sub.name ASC").
		ApplyPagination(params, 25)

	stmt, args := qb.Build()
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	countStmt, countArgs := qb.BuildCount()
	var total int
	if err := r.db.GetContext(ctx, &total, countStmt, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}
	return subjects, total, nil
}

// FindByID fetches a subject by ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, school_id, name, code, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create inserts a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, school_id, name, code, created_at, updated_at)
        VALUES (:id, :school_id, :name, :code, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies an existing subject.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET name = :name, code = :code, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, subject)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update subject %s: %w", subject.ID, errNoRowsAffected)
	}
	return nil
}

// Delete removes a subject.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM subjects WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}
