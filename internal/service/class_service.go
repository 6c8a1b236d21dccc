package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/database"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.ClassSummary, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListStudents(ctx context.Context, classID string) ([]models.ClassStudent, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, class *models.Class) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, class *models.Class) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error
	ReplaceTeacherAssignmentsTx(ctx context.Context, tx *sqlx.Tx, classID string, teacherIDs []string) error
	EnrollStudentsTx(ctx context.Context, tx *sqlx.Tx, classID string, studentIDs []string) error
	RemoveStudent(ctx context.Context, classID, studentID string) error
	TeacherSchoolIDsTx(ctx context.Context, tx *sqlx.Tx, teacherIDs []string) (map[string]*string, error)
	SubjectSchoolIDsTx(ctx context.Context, tx *sqlx.Tx, subjectIDs []string) (map[string]string, error)
	TeacherUserIDsTx(ctx context.Context, tx *sqlx.Tx, classID string) ([]string, error)
	StudentUserIDsTx(ctx context.Context, tx *sqlx.Tx, classID string) ([]string, error)
}

type classScheduleRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.ScheduleDetail, error)
	ReplaceForClassTx(ctx context.Context, tx *sqlx.Tx, classID string, schedules []models.Schedule) error
}

type classNotificationRepository interface {
	CreateManyTx(ctx context.Context, tx *sqlx.Tx, userIDs []string, typ models.NotificationType, title, message string) error
}

// ClassService orchestrates class writes. A class mutation touches the class
// row, its schedule set, the teacher assignment map and the notification
// fan-out; all of it commits or rolls back as one unit.
type ClassService struct {
	db            *sqlx.DB
	classes       classRepository
	schedules     classScheduleRepository
	notifications classNotificationRepository
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(db *sqlx.DB, classes classRepository, schedules classScheduleRepository, notifications classNotificationRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassService{
		db:            db,
		classes:       classes,
		schedules:     schedules,
		notifications: notifications,
		validator:     validate,
		logger:        logger,
	}
}

// List returns class summaries visible to the caller.
func (s *ClassService) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.ClassSummary, int, error) {
	if scope != nil && scope.Restricted && scope.SchoolID == nil {
		return []models.ClassSummary{}, 0, nil
	}
	classes, total, err := s.classes.List(ctx, params, scope)
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return classes, total, nil
}

// Get returns a class with its schedules and roster.
func (s *ClassService) Get(ctx context.Context, id string, scope *models.Scope) (*models.ClassDetail, error) {
	class, err := s.findScoped(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	schedules, err := s.schedules.ListByClass(ctx, id)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	students, err := s.classes.ListStudents(ctx, id)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &models.ClassDetail{Class: *class, Schedules: schedules, Students: students}, nil
}

// Create persists a class, its schedules, the derived teacher assignments
// and the assignment notifications in one transaction.
func (s *ClassService) Create(ctx context.Context, req models.CreateClassRequest, scope *models.Scope) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if scope != nil && !scope.Allows(req.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "school is outside your scope")
	}

	class := &models.Class{
		SchoolID:     req.SchoolID,
		Name:         req.Name,
		AcademicYear: req.AcademicYear,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}

	err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.classes.CreateTx(ctx, tx, class); err != nil {
			return err
		}
		return s.applySchedulesTx(ctx, tx, class, req.Schedules, models.NotificationClassAssigned,
			fmt.Sprintf("You have been assigned to class %s", class.Name))
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}

	s.logger.Info("class created",
		zap.String("class_id", class.ID),
		zap.String("school_id", class.SchoolID),
		zap.Int("schedules", len(req.Schedules)))
	return class, nil
}

// Update rewrites class fields and, when a schedule set is provided,
// replaces all schedules and teacher assignments. Affected teachers and
// students are notified within the same transaction.
func (s *ClassService) Update(ctx context.Context, id string, req models.UpdateClassRequest, scope *models.Scope) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := s.findScoped(ctx, id, scope)
	if err != nil {
		return nil, err
	}

	class.Name = req.Name
	class.AcademicYear = req.AcademicYear
	class.StartTime = req.StartTime
	class.EndTime = req.EndTime
	class.StartDate = req.StartDate
	class.EndDate = req.EndDate

	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.classes.UpdateTx(ctx, tx, class); err != nil {
			return err
		}
		if req.Schedules != nil {
			if err := s.applySchedulesTx(ctx, tx, class, req.Schedules, models.NotificationClassUpdated,
				fmt.Sprintf("Class %s has been updated", class.Name)); err != nil {
				return err
			}
		}
		studentUsers, err := s.classes.StudentUserIDsTx(ctx, tx, class.ID)
		if err != nil {
			return err
		}
		return s.notifications.CreateManyTx(ctx, tx, studentUsers, models.NotificationClassUpdated,
			"Class updated", fmt.Sprintf("Class %s has been updated", class.Name))
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return class, nil
}

// Delete removes a class and its dependent rows, notifying affected users
// before the rows disappear, all in one transaction.
func (s *ClassService) Delete(ctx context.Context, id string, scope *models.Scope) error {
	class, err := s.findScoped(ctx, id, scope)
	if err != nil {
		return err
	}

	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		teacherUsers, err := s.classes.TeacherUserIDsTx(ctx, tx, id)
		if err != nil {
			return err
		}
		studentUsers, err := s.classes.StudentUserIDsTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.classes.DeleteTx(ctx, tx, id); err != nil {
			return err
		}
		affected := append(teacherUsers, studentUsers...)
		return s.notifications.CreateManyTx(ctx, tx, affected, models.NotificationClassCancelled,
			"Class cancelled", fmt.Sprintf("Class %s has been cancelled", class.Name))
	})
	if err != nil {
		return database.TranslateError(err)
	}

	s.logger.Info("class deleted", zap.String("class_id", id))
	return nil
}

// EnrollStudents adds students to the roster and notifies them.
func (s *ClassService) EnrollStudents(ctx context.Context, classID string, req models.EnrollStudentsRequest, scope *models.Scope) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	class, err := s.findScoped(ctx, classID, scope)
	if err != nil {
		return err
	}

	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.classes.EnrollStudentsTx(ctx, tx, classID, req.StudentIDs); err != nil {
			return err
		}
		studentUsers, err := s.classes.StudentUserIDsTx(ctx, tx, classID)
		if err != nil {
			return err
		}
		return s.notifications.CreateManyTx(ctx, tx, studentUsers, models.NotificationClassAssigned,
			"Class enrollment", fmt.Sprintf("You have been enrolled in class %s", class.Name))
	})
	if err != nil {
		return database.TranslateError(err)
	}
	return nil
}

// RemoveStudent drops one student from the roster.
func (s *ClassService) RemoveStudent(ctx context.Context, classID, studentID string, scope *models.Scope) error {
	if _, err := s.findScoped(ctx, classID, scope); err != nil {
		return err
	}
	if err := s.classes.RemoveStudent(ctx, classID, studentID); err != nil {
		return database.TranslateError(err)
	}
	return nil
}

func (s *ClassService) findScoped(ctx context.Context, id string, scope *models.Scope) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	if scope != nil && !scope.Allows(class.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class is outside your scope")
	}
	return class, nil
}

// applySchedulesTx replaces the schedule set, rewrites the derived teacher
// assignments and notifies the assigned teachers. Every referenced teacher
// and subject must belong to the class school; one mismatch rejects the
// whole set before anything is written.
func (s *ClassService) applySchedulesTx(ctx context.Context, tx *sqlx.Tx, class *models.Class, inputs []models.ScheduleInput, typ models.NotificationType, message string) error {
	schedules := make([]models.Schedule, 0, len(inputs))
	teacherSet := make(map[string]struct{}, len(inputs))
	teacherIDs := make([]string, 0, len(inputs))
	subjectSet := make(map[string]struct{}, len(inputs))
	subjectIDs := make([]string, 0, len(inputs))
	for _, in := range inputs {
		schedules = append(schedules, models.Schedule{
			TeacherID: in.TeacherID,
			SubjectID: in.SubjectID,
			DayOfWeek: in.DayOfWeek,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
		})
		if _, seen := teacherSet[in.TeacherID]; !seen {
			teacherSet[in.TeacherID] = struct{}{}
			teacherIDs = append(teacherIDs, in.TeacherID)
		}
		if _, seen := subjectSet[in.SubjectID]; !seen {
			subjectSet[in.SubjectID] = struct{}{}
			subjectIDs = append(subjectIDs, in.SubjectID)
		}
	}

	if err := s.checkScheduleRefsTx(ctx, tx, class, teacherIDs, subjectIDs); err != nil {
		return err
	}

	if err := s.schedules.ReplaceForClassTx(ctx, tx, class.ID, schedules); err != nil {
		return err
	}
	if err := s.classes.ReplaceTeacherAssignmentsTx(ctx, tx, class.ID, teacherIDs); err != nil {
		return err
	}
	teacherUsers, err := s.classes.TeacherUserIDsTx(ctx, tx, class.ID)
	if err != nil {
		return err
	}
	return s.notifications.CreateManyTx(ctx, tx, teacherUsers, typ, "Class assignment", message)
}

// checkScheduleRefsTx verifies that every teacher and subject a schedule
// set references belongs to the class school. The foreign keys only prove
// the rows exist; the school match has to be checked here.
func (s *ClassService) checkScheduleRefsTx(ctx context.Context, tx *sqlx.Tx, class *models.Class, teacherIDs, subjectIDs []string) error {
	teacherSchools, err := s.classes.TeacherSchoolIDsTx(ctx, tx, teacherIDs)
	if err != nil {
		return err
	}
	subjectSchools, err := s.classes.SubjectSchoolIDsTx(ctx, tx, subjectIDs)
	if err != nil {
		return err
	}

	var violations []string
	for _, id := range teacherIDs {
		school, ok := teacherSchools[id]
		switch {
		case !ok:
			violations = append(violations, fmt.Sprintf("teacher %s does not exist", id))
		case school == nil || *school != class.SchoolID:
			violations = append(violations, fmt.Sprintf("teacher %s belongs to another school", id))
		}
	}
	for _, id := range subjectIDs {
		school, ok := subjectSchools[id]
		switch {
		case !ok:
			violations = append(violations, fmt.Sprintf("subject %s does not exist", id))
		case school != class.SchoolID:
			violations = append(violations, fmt.Sprintf("subject %s belongs to another school", id))
		}
	}
	if len(violations) > 0 {
		return appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "schedule references teachers or subjects outside the class school"),
			map[string]interface{}{"violations": violations})
	}
	return nil
}
