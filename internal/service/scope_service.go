package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type scopeRepository interface {
	SchoolIDForPrincipal(ctx context.Context, userID string) (*string, error)
	SchoolIDForTeacher(ctx context.Context, userID string) (*string, error)
	SchoolIDForStudent(ctx context.Context, userID string) (*string, error)
	TeacherIDForUser(ctx context.Context, userID string) (string, error)
	StudentIDForUser(ctx context.Context, userID string) (string, error)
}

// ScopeService resolves the tenant boundary for an authenticated principal.
// Admins get an unrestricted scope; every other role is confined to the
// school their profile row points at.
type ScopeService struct {
	repo   scopeRepository
	logger *zap.Logger
}

// NewScopeService constructs a ScopeService.
func NewScopeService(repo scopeRepository, logger *zap.Logger) *ScopeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScopeService{repo: repo, logger: logger}
}

// Resolve returns the scope for the principal. A missing profile row is an
// authorization failure, not a lookup failure: the account exists but has
// no tenant binding to act through.
func (s *ScopeService) Resolve(ctx context.Context, principal models.Principal) (*models.Scope, error) {
	if principal.Role == models.RoleAdmin {
		return &models.Scope{Restricted: false}, nil
	}

	var (
		schoolID *string
		err      error
	)
	switch principal.Role {
	case models.RolePrincipal:
		schoolID, err = s.repo.SchoolIDForPrincipal(ctx, principal.UserID)
	case models.RoleTeacher:
		schoolID, err = s.repo.SchoolIDForTeacher(ctx, principal.UserID)
	case models.RoleStudent:
		schoolID, err = s.repo.SchoolIDForStudent(ctx, principal.UserID)
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("principal has no role profile",
				zap.String("user_id", principal.UserID), zap.String("role", string(principal.Role)))
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no profile found for account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve scope")
	}

	return &models.Scope{SchoolID: schoolID, Restricted: true}, nil
}

// TeacherID maps the principal to their teacher profile ID.
func (s *ScopeService) TeacherID(ctx context.Context, principal models.Principal) (string, error) {
	if principal.Role != models.RoleTeacher {
		return "", appErrors.Clone(appErrors.ErrForbidden, "teacher profile required")
	}
	id, err := s.repo.TeacherIDForUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrForbidden, "no teacher profile found for account")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve teacher profile")
	}
	return id, nil
}

// StudentID maps the principal to their student profile ID.
func (s *ScopeService) StudentID(ctx context.Context, principal models.Principal) (string, error) {
	if principal.Role != models.RoleStudent {
		return "", appErrors.Clone(appErrors.ErrForbidden, "student profile required")
	}
	id, err := s.repo.StudentIDForUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrForbidden, "no student profile found for account")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student profile")
	}
	return id, nil
}
