package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/database"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type accountUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id string) error
}

type accountPrincipalRepository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, principal *models.PrincipalProfile) error
}

type accountTeacherRepository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error
}

type accountStudentRepository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error
}

// AccountService creates and maintains user accounts together with their
// role profiles. Account and profile are written in one transaction so a
// failed profile insert never leaves an orphaned login.
type AccountService struct {
	db         *sqlx.DB
	users      accountUserRepository
	principals accountPrincipalRepository
	teachers   accountTeacherRepository
	students   accountStudentRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *sqlx.DB, users accountUserRepository, principals accountPrincipalRepository, teachers accountTeacherRepository, students accountStudentRepository, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AccountService{
		db:         db,
		users:      users,
		principals: principals,
		teachers:   teachers,
		students:   students,
		validator:  validate,
		logger:     logger,
	}
}

// Create registers an account and its role profile atomically.
func (s *AccountService) Create(ctx context.Context, req models.CreateAccountRequest, scope *models.Scope) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid account payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported role")
	}
	if req.Role != models.RoleAdmin && req.SchoolID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school_id is required for this role")
	}
	if req.SchoolID != nil && scope != nil && !scope.Allows(*req.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "school is outside your scope")
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Phone:        req.Phone,
		Address:      req.Address,
		Active:       true,
	}

	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.users.CreateTx(ctx, tx, user); err != nil {
			return err
		}
		switch req.Role {
		case models.RolePrincipal:
			return s.principals.CreateTx(ctx, tx, &models.PrincipalProfile{UserID: user.ID, SchoolID: req.SchoolID})
		case models.RoleTeacher:
			return s.teachers.CreateTx(ctx, tx, &models.Teacher{UserID: user.ID, SchoolID: req.SchoolID})
		case models.RoleStudent:
			return s.students.CreateTx(ctx, tx, &models.Student{UserID: user.ID, SchoolID: req.SchoolID})
		}
		return nil
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}

	s.logger.Info("account created",
		zap.String("user_id", user.ID),
		zap.String("role", string(req.Role)))
	return user, nil
}

// UpdateProfile modifies the mutable fields of a user account.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, database.TranslateError(err)
	}
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Phone = req.Phone
	user.Address = req.Address
	if err := s.users.Update(ctx, user); err != nil {
		return nil, database.TranslateError(err)
	}
	return user, nil
}

// Deactivate disables an account without deleting its history.
func (s *AccountService) Deactivate(ctx context.Context, userID string) error {
	if err := s.users.Deactivate(ctx, userID); err != nil {
		return database.TranslateError(err)
	}
	s.logger.Info("account deactivated", zap.String("user_id", userID))
	return nil
}
