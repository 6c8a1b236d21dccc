package service

import (
	"context"
	"database/sql"
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

type mockAttendanceRepo struct {
	recorded []models.Attendance
	summary  map[models.AttendanceStatus]int
}

func (m *mockAttendanceRepo) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.AttendanceRecord, int, error) {
	return nil, 0, nil
}

func (m *mockAttendanceRepo) BulkRecordTx(ctx context.Context, tx *sqlx.Tx, records []models.Attendance) (int64, error) {
	m.recorded = append(m.recorded, records...)
	return int64(len(records)), nil
}

func (m *mockAttendanceRepo) SummaryByStatus(ctx context.Context, studentID, classID string) (map[models.AttendanceStatus]int, error) {
	return m.summary, nil
}

type mockAttendanceClassRepo struct {
	classes  map[string]models.Class
	enrolled map[string][]string
}

func (m *mockAttendanceClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		class := c
		return &class, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceClassRepo) EnrolledStudentIDs(ctx context.Context, classID string, studentIDs []string) ([]string, error) {
	roster := m.enrolled[classID]
	rosterSet := make(map[string]struct{}, len(roster))
	for _, id := range roster {
		rosterSet[id] = struct{}{}
	}
	var present []string
	for _, id := range studentIDs {
		if _, ok := rosterSet[id]; ok {
			present = append(present, id)
		}
	}
	return present, nil
}

type mockAttendanceStudentRepo struct {
	users map[string]string
}

func (m *mockAttendanceStudentRepo) UserIDsTx(ctx context.Context, tx *sqlx.Tx, studentIDs []string) ([]string, error) {
	var ids []string
	for _, id := range studentIDs {
		if userID, ok := m.users[id]; ok {
			ids = append(ids, userID)
		}
	}
	return ids, nil
}

type mockAttendanceNotificationRepo struct {
	batches []notifiedBatch
}

func (m *mockAttendanceNotificationRepo) CreateManyTx(ctx context.Context, tx *sqlx.Tx, userIDs []string, typ models.NotificationType, title, message string) error {
	m.batches = append(m.batches, notifiedBatch{userIDs: userIDs, typ: typ})
	return nil
}

func newAttendanceFixture(t *testing.T) (*AttendanceService, *mockAttendanceRepo, *mockAttendanceNotificationRepo, sqlmock.Sqlmock, func()) {
	rawDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	db := sqlx.NewDb(rawDB, "sqlmock")

	repo := &mockAttendanceRepo{}
	classes := &mockAttendanceClassRepo{
		classes: map[string]models.Class{
			"cls-1": {ID: "cls-1", SchoolID: "sch-1", Name: "10A"},
		},
		enrolled: map[string][]string{
			"cls-1": {"stu-1", "stu-2"},
		},
	}
	students := &mockAttendanceStudentRepo{users: map[string]string{"stu-1": "usr-s1", "stu-2": "usr-s2"}}
	notifications := &mockAttendanceNotificationRepo{}
	svc := NewAttendanceService(db, repo, classes, students, notifications, validator.New(), zap.NewNop())
	return svc, repo, notifications, mock, func() { rawDB.Close() }
}

func TestAttendanceServiceBulkRecord(t *testing.T) {
	svc, repo, notifications, mock, cleanup := newAttendanceFixture(t)
	defer cleanup()
	schoolID := "sch-1"
	scope := &models.Scope{SchoolID: &schoolID, Restricted: true}

	mock.ExpectBegin()
	mock.ExpectCommit()

	affected, err := svc.BulkRecord(context.Background(), models.BulkAttendanceRequest{
		ClassID: "cls-1",
		Date:    "2026-03-02",
		Entries: []models.AttendanceEntry{
			{StudentID: "stu-1", Status: models.AttendancePresent},
			{StudentID: "stu-2", Status: models.AttendanceLate},
		},
	}, "tch-1", scope)
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)
	require.Len(t, repo.recorded, 2)
	require.Equal(t, "tch-1", repo.recorded[0].TeacherID)
	require.Equal(t, "2026-03-02", repo.recorded[0].Date)

	require.Len(t, notifications.batches, 1)
	require.Equal(t, models.NotificationAttendanceTaken, notifications.batches[0].typ)
	require.ElementsMatch(t, []string{"usr-s1", "usr-s2"}, notifications.batches[0].userIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceServiceRejectsUnenrolledStudent(t *testing.T) {
	svc, repo, _, _, cleanup := newAttendanceFixture(t)
	defer cleanup()

	_, err := svc.BulkRecord(context.Background(), models.BulkAttendanceRequest{
		ClassID: "cls-1",
		Date:    "2026-03-02",
		Entries: []models.AttendanceEntry{
			{StudentID: "stu-1", Status: models.AttendancePresent},
			{StudentID: "stu-9", Status: models.AttendanceAbsent},
		},
	}, "tch-1", nil)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Empty(t, repo.recorded)
}

func TestAttendanceServiceRejectsForeignClass(t *testing.T) {
	svc, repo, _, _, cleanup := newAttendanceFixture(t)
	defer cleanup()
	otherSchool := "sch-2"
	scope := &models.Scope{SchoolID: &otherSchool, Restricted: true}

	_, err := svc.BulkRecord(context.Background(), models.BulkAttendanceRequest{
		ClassID: "cls-1",
		Date:    "2026-03-02",
		Entries: []models.AttendanceEntry{
			{StudentID: "stu-1", Status: models.AttendancePresent},
		},
	}, "tch-1", scope)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	require.Empty(t, repo.recorded)
}

func TestAttendanceServiceRejectsBadStatus(t *testing.T) {
	svc, repo, _, _, cleanup := newAttendanceFixture(t)
	defer cleanup()

	_, err := svc.BulkRecord(context.Background(), models.BulkAttendanceRequest{
		ClassID: "cls-1",
		Date:    "2026-03-02",
		Entries: []models.AttendanceEntry{
			{StudentID: "stu-1", Status: "vacationing"},
		},
	}, "tch-1", nil)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Empty(t, repo.recorded)
}
