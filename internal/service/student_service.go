package service

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/database"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	UpdateSchool(ctx context.Context, id string, schoolID *string) error
}

// StudentService provides student profile use cases.
type StudentService struct {
	repo   studentRepository
	logger *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// List returns student details visible to the caller.
func (s *StudentService) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.StudentDetail, int, error) {
	if scope != nil && scope.Restricted && scope.SchoolID == nil {
		return []models.StudentDetail{}, 0, nil
	}
	students, total, err := s.repo.List(ctx, params, scope)
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return students, total, nil
}

// Get returns one student detail, honouring the scope.
func (s *StudentService) Get(ctx context.Context, id string, scope *models.Scope) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	if scope != nil && scope.Restricted {
		if student.SchoolID == nil || !scope.Allows(*student.SchoolID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "student is outside your scope")
		}
	}
	return student, nil
}

// AssignSchool moves a student to a school within the caller's scope.
func (s *StudentService) AssignSchool(ctx context.Context, id string, schoolID *string, scope *models.Scope) error {
	if schoolID != nil && scope != nil && !scope.Allows(*schoolID) {
		return appErrors.Clone(appErrors.ErrForbidden, "school is outside your scope")
	}
	if err := s.repo.UpdateSchool(ctx, id, schoolID); err != nil {
		return database.TranslateError(err)
	}
	return nil
}
