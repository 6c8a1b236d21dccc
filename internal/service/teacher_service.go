package service

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/database"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.TeacherDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
	UpdateSchool(ctx context.Context, id string, schoolID *string) error
	ClassIDs(ctx context.Context, teacherID string) ([]string, error)
}

// TeacherService provides teacher profile use cases. Accounts are created
// through the account service; this service covers directory reads and
// school assignment.
type TeacherService struct {
	repo   teacherRepository
	logger *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, logger: logger}
}

// List returns teacher details visible to the caller.
func (s *TeacherService) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.TeacherDetail, int, error) {
	if scope != nil && scope.Restricted && scope.SchoolID == nil {
		return []models.TeacherDetail{}, 0, nil
	}
	teachers, total, err := s.repo.List(ctx, params, scope)
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return teachers, total, nil
}

// Get returns one teacher detail, honouring the scope.
func (s *TeacherService) Get(ctx context.Context, id string, scope *models.Scope) (*models.TeacherDetail, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	if scope != nil && scope.Restricted {
		if teacher.SchoolID == nil || !scope.Allows(*teacher.SchoolID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher is outside your scope")
		}
	}
	return teacher, nil
}

// AssignSchool moves a teacher to a school within the caller's scope.
func (s *TeacherService) AssignSchool(ctx context.Context, id string, schoolID *string, scope *models.Scope) error {
	if schoolID != nil && scope != nil && !scope.Allows(*schoolID) {
		return appErrors.Clone(appErrors.ErrForbidden, "school is outside your scope")
	}
	if err := s.repo.UpdateSchool(ctx, id, schoolID); err != nil {
		return database.TranslateError(err)
	}
	return nil
}

// ClassIDs returns the classes a teacher is assigned to.
func (s *TeacherService) ClassIDs(ctx context.Context, teacherID string) ([]string, error) {
	ids, err := s.repo.ClassIDs(ctx, teacherID)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return ids, nil
}
