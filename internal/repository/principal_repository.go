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

// PrincipalRepository manages persistence for principal profiles.
type PrincipalRepository struct {
	db *sqlx.DB
}

// NewPrincipalRepository constructs a PrincipalRepository.
func NewPrincipalRepository(db *sqlx.DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

var principalFilters = query.FilterSpec{
	{Param: "school_id", Column: "p.school_id"},
}

const principalDetailColumns = `SELECT p.id, p.user_id, p.school_id, p.created_at, p.updated_at,
        u.first_name, u.last_name, u.email, u.phone, s.name AS school_name`

const principalDetailFrom = `FROM principals p
        JOIN users u ON u.id = p.user_id
        LEFT JOIN schools s ON s.id = p.school_id`

// List returns principal details matching the request parameters.
func (r *PrincipalRepository) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.PrincipalDetail, int, error) {
	qb := query.New(principalDetailColumns, principalDetailFrom)
	if scope != nil && scope.Restricted && scope.SchoolID != nil {
		qb.Where("p.school_id", *scope.SchoolID)
	}
	qb.Condition("u.active = $%d", true)
	qb.ApplyFilters(params, principalFilters).
		ApplySearch(params, []string{"u.first_name", "u.last_name", "u.email"}).
		ApplySort(params, "u.last_name ASC, u.first_name ASC").
		ApplyPagination(params, 25)

	stmt, args := qb.Build()
	var principals []models.PrincipalDetail
	if err := r.db.SelectContext(ctx, &principals, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list principals: %w", err)
	}

	countStmt, countArgs := qb.BuildCount()
	var total int
	if err := r.db.GetContext(ctx, &total, countStmt, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count principals: %w", err)
	}
	return principals, total, nil
}

// FindByID fetches one principal detail.
func (r *PrincipalRepository) FindByID(ctx context.Context, id string) (*models.PrincipalDetail, error) {
	query := principalDetailColumns + " " + principalDetailFrom + " WHERE p.id = $1"
	var detail models.PrincipalDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateTx inserts a principal profile inside an open transaction.
func (r *PrincipalRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, principal *models.PrincipalProfile) error {
	if principal.ID == "" {
		principal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	principal.CreatedAt = now
	principal.UpdatedAt = now
	const query = `INSERT INTO principals (id, user_id, school_id, created_at, updated_at)
        VALUES (:id, :user_id, :school_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, principal); err != nil {
		return fmt.Errorf("create principal: %w", err)
	}
	return nil
}

// AssignSchoolTx points a principal at a school inside an open transaction.
func (r *PrincipalRepository) AssignSchoolTx(ctx context.Context, tx *sqlx.Tx, id, schoolID string) error {
	const query = `UPDATE principals SET school_id = $2, updated_at = $3 WHERE id = $1`
	res, err := tx.ExecContext(ctx, query, id, schoolID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("assign principal school: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("assign principal %s: %w", id, errNoRowsAffected)
	}
	return nil
}

// UnassignSchoolTx clears whichever principal currently holds the school,
// inside an open transaction.
func (r *PrincipalRepository) UnassignSchoolTx(ctx context.Context, tx *sqlx.Tx, schoolID string) error {
	const query = `UPDATE principals SET school_id = NULL, updated_at = $2 WHERE school_id = $1`
	if _, err := tx.ExecContext(ctx, query, schoolID, time.Now().UTC()); err != nil {
		return fmt.Errorf("unassign principal school: %w", err)
	}
	return nil
}

// UpdateSchool assigns a principal to a school.
func (r *PrincipalRepository) UpdateSchool(ctx context.Context, id string, schoolID *string) error {
	const query = `UPDATE principals SET school_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, schoolID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update principal school: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update principal %s: %w", id, errNoRowsAffected)
	}
	return nil
}
