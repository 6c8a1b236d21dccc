package service

import (
	"context"
	"net/url"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/database"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// SubjectService provides curriculum subject use cases.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns subjects visible to the caller.
func (s *SubjectService) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.Subject, int, error) {
	if scope != nil && scope.Restricted && scope.SchoolID == nil {
		return []models.Subject{}, 0, nil
	}
	subjects, total, err := s.repo.List(ctx, params, scope)
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return subjects, total, nil
}

// Get returns one subject, honouring the scope.
func (s *SubjectService) Get(ctx context.Context, id string, scope *models.Scope) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	if scope != nil && !scope.Allows(subject.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "subject is outside your scope")
	}
	return subject, nil
}

// Create registers a subject in a school within the caller's scope.
func (s *SubjectService) Create(ctx context.Context, req models.CreateSubjectRequest, scope *models.Scope) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if scope != nil && !scope.Allows(req.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "school is outside your scope")
	}
	code := req.Code
	subject := &models.Subject{
		SchoolID: req.SchoolID,
		Name:     req.Name,
		Code:     &code,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, database.TranslateError(err)
	}
	return subject, nil
}

// Update modifies a subject within the caller's scope.
func (s *SubjectService) Update(ctx context.Context, id string, req models.UpdateSubjectRequest, scope *models.Scope) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject, err := s.Get(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	code := req.Code
	subject.Name = req.Name
	subject.Code = &code
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, database.TranslateError(err)
	}
	return subject, nil
}

// Delete removes a subject within the caller's scope.
func (s *SubjectService) Delete(ctx context.Context, id string, scope *models.Scope) error {
	if _, err := s.Get(ctx, id, scope); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return database.TranslateError(err)
	}
	return nil
}
