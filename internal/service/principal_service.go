package service

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/database"
)

type principalRepository interface {
	List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.PrincipalDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.PrincipalDetail, error)
	UpdateSchool(ctx context.Context, id string, schoolID *string) error
}

// PrincipalService provides principal profile use cases. Only admins reach
// these endpoints, so no scope narrowing happens here.
type PrincipalService struct {
	repo   principalRepository
	logger *zap.Logger
}

// NewPrincipalService constructs a PrincipalService.
func NewPrincipalService(repo principalRepository, logger *zap.Logger) *PrincipalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrincipalService{repo: repo, logger: logger}
}

// List returns principal details.
func (s *PrincipalService) List(ctx context.Context, params url.Values) ([]models.PrincipalDetail, int, error) {
	principals, total, err := s.repo.List(ctx, params, nil)
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return principals, total, nil
}

// Get returns one principal detail.
func (s *PrincipalService) Get(ctx context.Context, id string) (*models.PrincipalDetail, error) {
	principal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return principal, nil
}

// AssignSchool binds a principal to the school they direct.
func (s *PrincipalService) AssignSchool(ctx context.Context, id string, schoolID *string) error {
	if err := s.repo.UpdateSchool(ctx, id, schoolID); err != nil {
		return database.TranslateError(err)
	}
	s.logger.Info("principal school assignment changed", zap.String("principal_id", id))
	return nil
}
