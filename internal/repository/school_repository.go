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

// SchoolRepository manages persistence for schools.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs a SchoolRepository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

var schoolFilters = query.FilterSpec{
	{Param: "name", Column: "s.name"},
}

// List returns schools with their director and aggregate counts, restricted
// to the caller's school when the scope is restricted.
func (r *SchoolRepository) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.SchoolDetail, int, error) {
	qb := query.New(
		`SELECT s.id, s.name, s.address, s.phone, s.email, s.status, s.founded_date, s.level, s.created_at, s.updated_at,
        (SELECT u.first_name || ' ' || u.last_name FROM principals p JOIN users u ON u.id = p.user_id WHERE p.school_id = s.id LIMIT 1) AS director_name,
        (SELECT COUNT(*) FROM teachers t WHERE t.school_id = s.id) AS total_teachers,
        (SELECT COUNT(*) FROM students st WHERE st.school_id = s.id) AS total_students,
        (SELECT COUNT(*) FROM classes c WHERE c.school_id = s.id) AS total_classes`,
		"FROM schools s",
	)
	if scope != nil && scope.Restricted && scope.SchoolID != nil {
		qb.Where("s.id", *scope.SchoolID)
	}
	qb.ApplyFilters(params, schoolFilters).
		ApplySearch(params, []string{"s.name", "s.address"}).
		ApplySort(params, "s.created_at DESC").
		ApplyPagination(params, 25)

	stmt, args := qb.Build()
	var schools []models.SchoolDetail
	if err := r.db.SelectContext(ctx, &schools, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list schools: %w", err)
	}

	countStmt, countArgs := qb.BuildCount()
	var total int
	if err := r.db.GetContext(ctx, &total, countStmt, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count schools: %w", err)
	}
	return schools, total, nil
}

// FindByID fetches a school with aggregate counts and its director.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.SchoolDetail, error) {
	const query = `SELECT s.id, s.name, s.address, s.phone, s.email, s.status, s.founded_date, s.level, s.created_at, s.updated_at,
        (SELECT u.first_name || ' ' || u.last_name FROM principals p JOIN users u ON u.id = p.user_id WHERE p.school_id = s.id LIMIT 1) AS director_name,
        (SELECT COUNT(*) FROM teachers t WHERE t.school_id = s.id) AS total_teachers,
        (SELECT COUNT(*) FROM students st WHERE st.school_id = s.id) AS total_students,
        (SELECT COUNT(*) FROM classes c WHERE c.school_id = s.id) AS total_classes
        FROM schools s WHERE s.id = $1`
	var detail models.SchoolDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new school.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	school.CreatedAt = now
	school.UpdatedAt = now
	const query = `INSERT INTO schools (id, name, address, phone, email, status, founded_date, level, created_at, updated_at)
        VALUES (:id, :name, :address, :phone, :email, :status, :founded_date, :level, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}

// CreateTx inserts a new school inside an open transaction.
func (r *SchoolRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	school.CreatedAt = now
	school.UpdatedAt = now
	const query = `INSERT INTO schools (id, name, address, phone, email, status, founded_date, level, created_at, updated_at)
        VALUES (:id, :name, :address, :phone, :email, :status, :founded_date, :level, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}

// Update modifies an existing school.
func (r *SchoolRepository) Update(ctx context.Context, school *models.School) error {
	school.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schools SET name = :name, address = :address, phone = :phone, email = :email, status = :status, founded_date = :founded_date, level = :level, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, school)
	if err != nil {
		return fmt.Errorf("update school: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update school %s: %w", school.ID, errNoRowsAffected)
	}
	return nil
}

// UpdateTx modifies an existing school inside an open transaction.
func (r *SchoolRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, school *models.School) error {
	school.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schools SET name = :name, address = :address, phone = :phone, email = :email, status = :status, founded_date = :founded_date, level = :level, updated_at = :updated_at WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, school)
	if err != nil {
		return fmt.Errorf("update school: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update school %s: %w", school.ID, errNoRowsAffected)
	}
	return nil
}

// Delete removes a school. Dependent rows block the delete through foreign
// key constraints.
func (r *SchoolRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM schools WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete school: %w", err)
	}
	return nil
}
