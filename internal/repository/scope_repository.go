package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ScopeRepository resolves the school a user belongs to through their role
// profile. Admins have no profile row and therefore no school binding.
type ScopeRepository struct {
	db *sqlx.DB
}

// NewScopeRepository constructs a ScopeRepository.
func NewScopeRepository(db *sqlx.DB) *ScopeRepository {
	return &ScopeRepository{db: db}
}

// SchoolIDForPrincipal returns the school bound to a principal account, or
// nil when the profile has no school yet.
func (r *ScopeRepository) SchoolIDForPrincipal(ctx context.Context, userID string) (*string, error) {
	return r.schoolID(ctx, "principals", userID)
}

// SchoolIDForTeacher returns the school bound to a teacher account.
func (r *ScopeRepository) SchoolIDForTeacher(ctx context.Context, userID string) (*string, error) {
	return r.schoolID(ctx, "teachers", userID)
}

// SchoolIDForStudent returns the school bound to a student account.
func (r *ScopeRepository) SchoolIDForStudent(ctx context.Context, userID string) (*string, error) {
	return r.schoolID(ctx, "students", userID)
}

func (r *ScopeRepository) schoolID(ctx context.Context, table, userID string) (*string, error) {
	query := fmt.Sprintf("SELECT school_id FROM %s WHERE user_id = $1", table)
	var schoolID sql.NullString
	if err := r.db.GetContext(ctx, &schoolID, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("resolve school for %s: %w", table, err)
	}
	if !schoolID.Valid {
		return nil, nil
	}
	return &schoolID.String, nil
}

// TeacherIDForUser maps a teacher account to its profile ID.
func (r *ScopeRepository) TeacherIDForUser(ctx context.Context, userID string) (string, error) {
	var id string
	if err := r.db.GetContext(ctx, &id, "SELECT id FROM teachers WHERE user_id = $1", userID); err != nil {
		return "", err
	}
	return id, nil
}

// StudentIDForUser maps a student account to its profile ID.
func (r *ScopeRepository) StudentIDForUser(ctx context.Context, userID string) (string, error) {
	var id string
	if err := r.db.GetContext(ctx, &id, "SELECT id FROM students WHERE user_id = $1", userID); err != nil {
		return "", err
	}
	return id, nil
}
