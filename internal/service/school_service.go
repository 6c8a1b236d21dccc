package service

import (
	"context"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/database"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type schoolRepository interface {
	List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.SchoolDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SchoolDetail, error)
	Create(ctx context.Context, school *models.School) error
	CreateTx(ctx context.Context, tx *sqlx.Tx, school *models.School) error
	Update(ctx context.Context, school *models.School) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, school *models.School) error
	Delete(ctx context.Context, id string) error
}

type schoolPrincipalRepository interface {
	AssignSchoolTx(ctx context.Context, tx *sqlx.Tx, id, schoolID string) error
	UnassignSchoolTx(ctx context.Context, tx *sqlx.Tx, schoolID string) error
}

// SchoolService provides school management use cases. A write that names a
// principal runs in one transaction with the reassignment so the school and
// its directorship never disagree.
type SchoolService struct {
	db         *sqlx.DB
	repo       schoolRepository
	principals schoolPrincipalRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSchoolService constructs a SchoolService.
func NewSchoolService(db *sqlx.DB, repo schoolRepository, principals schoolPrincipalRepository, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SchoolService{db: db, repo: repo, principals: principals, validator: validate, logger: logger}
}

// List returns schools visible to the caller, with director and counts.
func (s *SchoolService) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.SchoolDetail, int, error) {
	if scope != nil && scope.Restricted && scope.SchoolID == nil {
		return []models.SchoolDetail{}, 0, nil
	}
	schools, total, err := s.repo.List(ctx, params, scope)
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return schools, total, nil
}

// Get returns one school with aggregate details, honouring the scope.
func (s *SchoolService) Get(ctx context.Context, id string, scope *models.Scope) (*models.SchoolDetail, error) {
	if scope != nil && !scope.Allows(id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "school is outside your scope")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return detail, nil
}

// Create registers a new school.
func (s *SchoolService) Create(ctx context.Context, req models.CreateSchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}
	status := req.Status
	if status == "" {
		status = "active"
	}
	school := &models.School{
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Status:      status,
		FoundedDate: req.FoundedDate,
		Level:       req.Level,
	}
	if req.PrincipalID == nil {
		if err := s.repo.Create(ctx, school); err != nil {
			return nil, database.TranslateError(err)
		}
	} else {
		err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
			if err := s.repo.CreateTx(ctx, tx, school); err != nil {
				return err
			}
			return s.principals.AssignSchoolTx(ctx, tx, *req.PrincipalID, school.ID)
		})
		if err != nil {
			return nil, database.TranslateError(err)
		}
	}
	s.logger.Info("school created", zap.String("school_id", school.ID))
	return school, nil
}

// Update modifies a school within the caller's scope.
func (s *SchoolService) Update(ctx context.Context, id string, req models.UpdateSchoolRequest, scope *models.Scope) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}
	if scope != nil && !scope.Allows(id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "school is outside your scope")
	}
	status := req.Status
	if status == "" {
		status = "active"
	}
	school := &models.School{
		ID:          id,
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Status:      status,
		FoundedDate: req.FoundedDate,
		Level:       req.Level,
	}
	if req.PrincipalID == nil {
		if err := s.repo.Update(ctx, school); err != nil {
			return nil, database.TranslateError(err)
		}
		return school, nil
	}
	err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateTx(ctx, tx, school); err != nil {
			return err
		}
		if err := s.principals.UnassignSchoolTx(ctx, tx, school.ID); err != nil {
			return err
		}
		return s.principals.AssignSchoolTx(ctx, tx, *req.PrincipalID, school.ID)
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return school, nil
}

// Delete removes a school. Schools with dependent records are protected by
// foreign keys and surface as referential errors.
func (s *SchoolService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return database.TranslateError(err)
	}
	s.logger.Info("school deleted", zap.String("school_id", id))
	return nil
}
