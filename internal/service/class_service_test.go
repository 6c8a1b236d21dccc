package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type mockClassRepo struct {
	classes        map[string]models.Class
	created        *models.Class
	deleted        []string
	assignments    map[string][]string
	enrollments    map[string][]string
	teacherUsers   map[string][]string
	studentUsers   map[string][]string
	teacherSchools map[string]*string
	subjectSchools map[string]string
	failAssign     error
}

func (m *mockClassRepo) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.ClassSummary, int, error) {
	return nil, 0, nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		class := c
		return &class, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) ListStudents(ctx context.Context, classID string) ([]models.ClassStudent, error) {
	return nil, nil
}

func (m *mockClassRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, class *models.Class) error {
	if class.ID == "" {
		class.ID = "cls-new"
	}
	if m.classes == nil {
		m.classes = make(map[string]models.Class)
	}
	m.classes[class.ID] = *class
	m.created = class
	return nil
}

func (m *mockClassRepo) UpdateTx(ctx context.Context, tx *sqlx.Tx, class *models.Class) error {
	m.classes[class.ID] = *class
	return nil
}

func (m *mockClassRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	delete(m.classes, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockClassRepo) ReplaceTeacherAssignmentsTx(ctx context.Context, tx *sqlx.Tx, classID string, teacherIDs []string) error {
	if m.failAssign != nil {
		return m.failAssign
	}
	if m.assignments == nil {
		m.assignments = make(map[string][]string)
	}
	m.assignments[classID] = teacherIDs
	return nil
}

func (m *mockClassRepo) EnrollStudentsTx(ctx context.Context, tx *sqlx.Tx, classID string, studentIDs []string) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string][]string)
	}
	m.enrollments[classID] = append(m.enrollments[classID], studentIDs...)
	return nil
}

func (m *mockClassRepo) RemoveStudent(ctx context.Context, classID, studentID string) error {
	return nil
}

func (m *mockClassRepo) TeacherSchoolIDsTx(ctx context.Context, tx *sqlx.Tx, teacherIDs []string) (map[string]*string, error) {
	out := make(map[string]*string, len(teacherIDs))
	for _, id := range teacherIDs {
		if school, ok := m.teacherSchools[id]; ok {
			out[id] = school
		}
	}
	return out, nil
}

func (m *mockClassRepo) SubjectSchoolIDsTx(ctx context.Context, tx *sqlx.Tx, subjectIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(subjectIDs))
	for _, id := range subjectIDs {
		if school, ok := m.subjectSchools[id]; ok {
			out[id] = school
		}
	}
	return out, nil
}

func (m *mockClassRepo) TeacherUserIDsTx(ctx context.Context, tx *sqlx.Tx, classID string) ([]string, error) {
	return m.teacherUsers[classID], nil
}

func (m *mockClassRepo) StudentUserIDsTx(ctx context.Context, tx *sqlx.Tx, classID string) ([]string, error) {
	return m.studentUsers[classID], nil
}

type mockClassScheduleRepo struct {
	replaced map[string][]models.Schedule
}

func (m *mockClassScheduleRepo) ListByClass(ctx context.Context, classID string) ([]models.ScheduleDetail, error) {
	return nil, nil
}

func (m *mockClassScheduleRepo) ReplaceForClassTx(ctx context.Context, tx *sqlx.Tx, classID string, schedules []models.Schedule) error {
	if m.replaced == nil {
		m.replaced = make(map[string][]models.Schedule)
	}
	m.replaced[classID] = schedules
	return nil
}

type notifiedBatch struct {
	userIDs []string
	typ     models.NotificationType
}

type mockClassNotificationRepo struct {
	batches []notifiedBatch
}

func (m *mockClassNotificationRepo) CreateManyTx(ctx context.Context, tx *sqlx.Tx, userIDs []string, typ models.NotificationType, title, message string) error {
	m.batches = append(m.batches, notifiedBatch{userIDs: userIDs, typ: typ})
	return nil
}

func newClassFixture(t *testing.T) (*ClassService, *mockClassRepo, *mockClassScheduleRepo, *mockClassNotificationRepo, sqlmock.Sqlmock, func()) {
	rawDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	db := sqlx.NewDb(rawDB, "sqlmock")

	home := "sch-1"
	classes := &mockClassRepo{
		classes: map[string]models.Class{
			"cls-1": {ID: "cls-1", SchoolID: "sch-1", Name: "10A", AcademicYear: "2026-2027"},
		},
		teacherUsers:   map[string][]string{"cls-1": {"usr-t1"}, "cls-new": {"usr-t1", "usr-t2"}},
		studentUsers:   map[string][]string{"cls-1": {"usr-s1", "usr-s2"}},
		teacherSchools: map[string]*string{"tch-1": &home, "tch-2": &home},
		subjectSchools: map[string]string{"sub-1": "sch-1", "sub-2": "sch-1"},
	}
	schedules := &mockClassScheduleRepo{}
	notifications := &mockClassNotificationRepo{}
	svc := NewClassService(db, classes, schedules, notifications, validator.New(), zap.NewNop())
	return svc, classes, schedules, notifications, mock, func() { rawDB.Close() }
}

func TestClassServiceCreateOrchestration(t *testing.T) {
	svc, classes, schedules, notifications, mock, cleanup := newClassFixture(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectCommit()

	class, err := svc.Create(context.Background(), models.CreateClassRequest{
		SchoolID:     "sch-1",
		Name:         "11B",
		AcademicYear: "2026-2027",
		Schedules: []models.ScheduleInput{
			{TeacherID: "tch-1", SubjectID: "sub-1", DayOfWeek: "monday", StartTime: "08:00", EndTime: "09:00"},
			{TeacherID: "tch-1", SubjectID: "sub-2", DayOfWeek: "tuesday", StartTime: "08:00", EndTime: "09:00"},
			{TeacherID: "tch-2", SubjectID: "sub-1", DayOfWeek: "friday", StartTime: "10:00", EndTime: "11:00"},
		},
	}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, class.ID)

	require.Len(t, schedules.replaced[class.ID], 3)
	// Duplicate teachers collapse to one assignment each.
	require.Equal(t, []string{"tch-1", "tch-2"}, classes.assignments[class.ID])

	require.Len(t, notifications.batches, 1)
	require.Equal(t, models.NotificationClassAssigned, notifications.batches[0].typ)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassServiceCreateRollsBackOnAssignmentFailure(t *testing.T) {
	svc, classes, _, notifications, mock, cleanup := newClassFixture(t)
	defer cleanup()

	classes.failAssign = errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), models.CreateClassRequest{
		SchoolID:     "sch-1",
		Name:         "11B",
		AcademicYear: "2026-2027",
		Schedules: []models.ScheduleInput{
			{TeacherID: "tch-1", SubjectID: "sub-1", DayOfWeek: "monday", StartTime: "08:00", EndTime: "09:00"},
		},
	}, nil)
	require.Error(t, err)
	require.Empty(t, notifications.batches)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassServiceCreateRejectsCrossSchoolSchedule(t *testing.T) {
	svc, classes, schedules, notifications, mock, cleanup := newClassFixture(t)
	defer cleanup()

	otherSchool := "sch-2"
	classes.teacherSchools["tch-other-school"] = &otherSchool
	classes.subjectSchools["sub-other-school"] = "sch-2"

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), models.CreateClassRequest{
		SchoolID:     "sch-1",
		Name:         "11B",
		AcademicYear: "2026-2027",
		Schedules: []models.ScheduleInput{
			{TeacherID: "tch-other-school", SubjectID: "sub-other-school", DayOfWeek: "monday", StartTime: "08:00", EndTime: "09:00"},
		},
	}, nil)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	require.Len(t, details["violations"], 2)

	require.Empty(t, schedules.replaced)
	require.Empty(t, notifications.batches)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassServiceCreateRejectsUnknownScheduleRefs(t *testing.T) {
	svc, _, schedules, _, mock, cleanup := newClassFixture(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), models.CreateClassRequest{
		SchoolID:     "sch-1",
		Name:         "11B",
		AcademicYear: "2026-2027",
		Schedules: []models.ScheduleInput{
			{TeacherID: "tch-ghost", SubjectID: "sub-1", DayOfWeek: "monday", StartTime: "08:00", EndTime: "09:00"},
		},
	}, nil)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Empty(t, schedules.replaced)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassServiceCreateScopeDenied(t *testing.T) {
	svc, _, _, _, _, cleanup := newClassFixture(t)
	defer cleanup()

	otherSchool := "sch-2"
	scope := &models.Scope{SchoolID: &otherSchool, Restricted: true}
	_, err := svc.Create(context.Background(), models.CreateClassRequest{
		SchoolID:     "sch-1",
		Name:         "11B",
		AcademicYear: "2026-2027",
	}, scope)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestClassServiceDeleteNotifiesAffectedUsers(t *testing.T) {
	svc, classes, _, notifications, mock, cleanup := newClassFixture(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := svc.Delete(context.Background(), "cls-1", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"cls-1"}, classes.deleted)

	require.Len(t, notifications.batches, 1)
	require.Equal(t, models.NotificationClassCancelled, notifications.batches[0].typ)
	require.ElementsMatch(t, []string{"usr-t1", "usr-s1", "usr-s2"}, notifications.batches[0].userIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassServiceUpdateMissingClass(t *testing.T) {
	svc, _, _, _, _, cleanup := newClassFixture(t)
	defer cleanup()

	_, err := svc.Update(context.Background(), "cls-missing", models.UpdateClassRequest{
		Name:         "X",
		AcademicYear: "2026-2027",
	}, nil)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
