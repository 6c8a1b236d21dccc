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

type attendanceRepository interface {
	List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.AttendanceRecord, int, error)
	BulkRecordTx(ctx context.Context, tx *sqlx.Tx, records []models.Attendance) (int64, error)
	SummaryByStatus(ctx context.Context, studentID, classID string) (map[models.AttendanceStatus]int, error)
}

type attendanceClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	EnrolledStudentIDs(ctx context.Context, classID string, studentIDs []string) ([]string, error)
}

type attendanceStudentRepository interface {
	UserIDsTx(ctx context.Context, tx *sqlx.Tx, studentIDs []string) ([]string, error)
}

type attendanceNotificationRepository interface {
	CreateManyTx(ctx context.Context, tx *sqlx.Tx, userIDs []string, typ models.NotificationType, title, message string) error
}

// AttendanceService records and reads class attendance. Bulk submissions
// are validated in full before any row is written: one unenrolled student
// rejects the whole batch. The write and the student notifications commit
// together.
type AttendanceService struct {
	db            *sqlx.DB
	repo          attendanceRepository
	classes       attendanceClassRepository
	students      attendanceStudentRepository
	notifications attendanceNotificationRepository
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(db *sqlx.DB, repo attendanceRepository, classes attendanceClassRepository, students attendanceStudentRepository, notifications attendanceNotificationRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{db: db, repo: repo, classes: classes, students: students, notifications: notifications, validator: validate, logger: logger}
}

// List returns attendance records visible to the caller.
func (s *AttendanceService) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.AttendanceRecord, int, error) {
	if scope != nil && scope.Restricted && scope.SchoolID == nil {
		return []models.AttendanceRecord{}, 0, nil
	}
	records, total, err := s.repo.List(ctx, params, scope)
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return records, total, nil
}

// BulkRecord writes a full class roster call in one statement and notifies
// the students in the same transaction. Re-recording a (student, date) pair
// overwrites the earlier status.
func (s *AttendanceService) BulkRecord(ctx context.Context, req models.BulkAttendanceRequest, teacherID string, scope *models.Scope) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		return 0, database.TranslateError(err)
	}
	if scope != nil && !scope.Allows(class.SchoolID) {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "class is outside your scope")
	}

	studentIDs := make([]string, 0, len(req.Entries))
	for i, entry := range req.Entries {
		if !entry.Status.Valid() {
			return 0, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("entry %d has unsupported status %q", i, entry.Status))
		}
		studentIDs = append(studentIDs, entry.StudentID)
	}

	enrolled, err := s.classes.EnrolledStudentIDs(ctx, req.ClassID, studentIDs)
	if err != nil {
		return 0, database.TranslateError(err)
	}
	enrolledSet := make(map[string]struct{}, len(enrolled))
	for _, id := range enrolled {
		enrolledSet[id] = struct{}{}
	}
	var missing []string
	for _, id := range studentIDs {
		if _, ok := enrolledSet[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return 0, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "some students are not enrolled in this class"),
			map[string]interface{}{"student_ids": missing})
	}

	records := make([]models.Attendance, 0, len(req.Entries))
	for _, entry := range req.Entries {
		records = append(records, models.Attendance{
			StudentID: entry.StudentID,
			ClassID:   req.ClassID,
			Date:      req.Date,
			Status:    entry.Status,
			Remarks:   entry.Remarks,
			TeacherID: teacherID,
		})
	}

	var affected int64
	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var txErr error
		affected, txErr = s.repo.BulkRecordTx(ctx, tx, records)
		if txErr != nil {
			return txErr
		}
		userIDs, txErr := s.students.UserIDsTx(ctx, tx, studentIDs)
		if txErr != nil {
			return txErr
		}
		return s.notifications.CreateManyTx(ctx, tx, userIDs, models.NotificationAttendanceTaken,
			"Attendance recorded", fmt.Sprintf("Attendance for class %s on %s has been recorded", class.Name, req.Date))
	})
	if err != nil {
		return 0, database.TranslateError(err)
	}

	s.logger.Info("attendance recorded",
		zap.String("class_id", req.ClassID),
		zap.String("date", req.Date),
		zap.Int64("rows", affected))
	return affected, nil
}

// StudentSummary counts one student's records per status within a class.
func (s *AttendanceService) StudentSummary(ctx context.Context, studentID, classID string) (map[models.AttendanceStatus]int, error) {
	summary, err := s.repo.SummaryByStatus(ctx, studentID, classID)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return summary, nil
}
