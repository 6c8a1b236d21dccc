package service

import (
	"context"
	"database/sql"
	"net/url"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/config"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
	"github.com/salaedu/sala-api/pkg/jobs"
)

type mockScoreRepo struct {
	recorded  []models.Score
	averages  map[string][]models.SubjectAverage
	owners    map[string]models.ScoreOwner
	standings map[string][]models.StudentStanding
	deleted   []string
}

func (m *mockScoreRepo) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.ScoreRecord, int, error) {
	return nil, 0, nil
}

func (m *mockScoreRepo) BulkRecord(ctx context.Context, scores []models.Score) (int64, error) {
	m.recorded = append(m.recorded, scores...)
	return int64(len(scores)), nil
}

func (m *mockScoreRepo) FindOwner(ctx context.Context, id string) (*models.ScoreOwner, error) {
	owner, ok := m.owners[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &owner, nil
}

func (m *mockScoreRepo) Delete(ctx context.Context, id string) (string, error) {
	owner, ok := m.owners[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	m.deleted = append(m.deleted, id)
	return owner.StudentID, nil
}

func (m *mockScoreRepo) SubjectAverages(ctx context.Context, studentID string) ([]models.SubjectAverage, error) {
	return m.averages[studentID], nil
}

func (m *mockScoreRepo) ClassStandings(ctx context.Context, classID string) ([]models.StudentStanding, error) {
	return m.standings["class:"+classID], nil
}

func (m *mockScoreRepo) SchoolStandings(ctx context.Context, schoolID string) ([]models.StudentStanding, error) {
	return m.standings["school:"+schoolID], nil
}

type mockScoreStudentRepo struct {
	students map[string]models.StudentDetail
}

func (m *mockScoreStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		student := s
		return &student, nil
	}
	return nil, sql.ErrNoRows
}

type mockCache struct {
	store   map[string]interface{}
	deleted []string
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	if v, ok := m.store[key]; ok {
		if report, ok := v.(*models.StudentReport); ok {
			*dest.(*models.StudentReport) = *report
			return nil
		}
	}
	return appErrors.ErrCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.store == nil {
		m.store = make(map[string]interface{})
	}
	if report, ok := value.(*models.StudentReport); ok {
		copied := *report
		m.store[key] = &copied
	}
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.store, key)
	return nil
}

type mockScoreNotifications struct {
	notified [][]string
}

func (m *mockScoreNotifications) CreateMany(ctx context.Context, userIDs []string, typ models.NotificationType, title, message string) error {
	m.notified = append(m.notified, userIDs)
	return nil
}

type mockWarmQueue struct {
	jobs []jobs.Job
}

func (m *mockWarmQueue) Enqueue(job jobs.Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

func defaultGrading() config.GradingConfig {
	return config.GradingConfig{
		MaxScore:   10,
		Excellent:  0.9,
		VeryGood:   0.8,
		Good:       0.7,
		FairlyGood: 0.6,
		Average:    0.5,
	}
}

func newScoreFixture() (*ScoreService, *mockScoreRepo, *mockCache, *mockWarmQueue, *mockScoreNotifications) {
	repo := &mockScoreRepo{
		averages: map[string][]models.SubjectAverage{
			"stu-1": {
				{SubjectID: "sub-1", SubjectName: "Math", Average: 9.5, ScoreCount: 4},
				{SubjectID: "sub-2", SubjectName: "History", Average: 6.5, ScoreCount: 2},
			},
		},
	}
	schoolID := "sch-1"
	students := &mockScoreStudentRepo{students: map[string]models.StudentDetail{
		"stu-1": {
			Student:   models.Student{ID: "stu-1", UserID: "usr-1", SchoolID: &schoolID},
			FirstName: "Linh",
			LastName:  "Tran",
		},
	}}
	classes := &mockResultClassRepo{classes: map[string]models.Class{
		"cls-1": {ID: "cls-1", SchoolID: "sch-1", Name: "10A", AcademicYear: "2026-2027"},
	}}
	cache := &mockCache{}
	notifications := &mockScoreNotifications{}
	queue := &mockWarmQueue{}
	svc := NewScoreService(repo, students, classes, cache, notifications, queue,
		validator.New(), zap.NewNop(), defaultGrading(), time.Minute)
	return svc, repo, cache, queue, notifications
}

func TestScoreServiceReportGradesAndOverall(t *testing.T) {
	svc, _, _, _, _ := newScoreFixture()

	report, err := svc.Report(context.Background(), "stu-1", nil)
	require.NoError(t, err)
	require.Equal(t, "Linh Tran", report.StudentName)
	require.Len(t, report.Subjects, 2)
	require.Equal(t, GradeExcellent, report.Subjects[0].Grade)
	require.Equal(t, GradeFairlyGood, report.Subjects[1].Grade)

	// (9.5*4 + 6.5*2) / 6 = 8.5
	require.InDelta(t, 8.5, report.Overall, 0.0001)
	require.Equal(t, GradeVeryGood, report.OverallGrade)
}

func TestScoreServiceReportServedFromCache(t *testing.T) {
	svc, repo, _, _, _ := newScoreFixture()

	first, err := svc.Report(context.Background(), "stu-1", nil)
	require.NoError(t, err)

	// Change the underlying data; a cached report must not reflect it.
	repo.averages["stu-1"] = nil

	second, err := svc.Report(context.Background(), "stu-1", nil)
	require.NoError(t, err)
	require.Equal(t, first.Overall, second.Overall)
	require.Len(t, second.Subjects, 2)
}

func TestScoreServiceReportScopeDenied(t *testing.T) {
	svc, _, _, _, _ := newScoreFixture()
	otherSchool := "sch-2"
	scope := &models.Scope{SchoolID: &otherSchool, Restricted: true}

	_, err := svc.Report(context.Background(), "stu-1", scope)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestScoreServiceBulkRecordInvalidatesAndWarms(t *testing.T) {
	svc, repo, cache, queue, notifications := newScoreFixture()

	affected, err := svc.BulkRecord(context.Background(), models.BulkScoreRequest{
		ClassID:        "cls-1",
		SubjectID:      "sub-1",
		AssessmentType: models.AssessmentQuiz,
		DateRecorded:   "2026-03-02",
		Entries: []models.ScoreEntry{
			{StudentID: "stu-1", Value: 8.0},
		},
	}, "tch-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.Len(t, repo.recorded, 1)
	require.Equal(t, "tch-1", repo.recorded[0].TeacherID)
	require.Equal(t, "cls-1", repo.recorded[0].ClassID)

	require.Contains(t, cache.deleted, reportCacheKey("stu-1"))
	require.Len(t, queue.jobs, 1)
	require.Equal(t, "warm_student_report", queue.jobs[0].Type)
	require.Len(t, notifications.notified, 1)
	require.Equal(t, []string{"usr-1"}, notifications.notified[0])
}

func TestScoreServiceBulkRecordValueOutOfRange(t *testing.T) {
	svc, repo, _, _, _ := newScoreFixture()

	_, err := svc.BulkRecord(context.Background(), models.BulkScoreRequest{
		ClassID:        "cls-1",
		SubjectID:      "sub-1",
		AssessmentType: models.AssessmentQuiz,
		DateRecorded:   "2026-03-02",
		Entries: []models.ScoreEntry{
			{StudentID: "stu-1", Value: 11.0},
		},
	}, "tch-1")
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Empty(t, repo.recorded)
}

func TestScoreServiceBulkRecordRequiresClass(t *testing.T) {
	svc, repo, _, _, _ := newScoreFixture()

	_, err := svc.BulkRecord(context.Background(), models.BulkScoreRequest{
		SubjectID:      "sub-1",
		AssessmentType: models.AssessmentQuiz,
		DateRecorded:   "2026-03-02",
		Entries: []models.ScoreEntry{
			{StudentID: "stu-1", Value: 8.0},
		},
	}, "tch-1")
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Empty(t, repo.recorded)
}

func TestScoreServiceBulkRecordBadAssessmentType(t *testing.T) {
	svc, repo, _, _, _ := newScoreFixture()

	_, err := svc.BulkRecord(context.Background(), models.BulkScoreRequest{
		ClassID:        "cls-1",
		SubjectID:      "sub-1",
		AssessmentType: "vibes",
		DateRecorded:   "2026-03-02",
		Entries: []models.ScoreEntry{
			{StudentID: "stu-1", Value: 5},
		},
	}, "tch-1")
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Empty(t, repo.recorded)
}

func TestScoreServiceDeleteInvalidatesReport(t *testing.T) {
	svc, repo, cache, _, _ := newScoreFixture()
	schoolID := "sch-1"
	repo.owners = map[string]models.ScoreOwner{"score-1": {StudentID: "stu-1", SchoolID: &schoolID}}

	require.NoError(t, svc.Delete(context.Background(), "score-1", nil))
	require.Equal(t, []string{"score-1"}, repo.deleted)
	require.Contains(t, cache.deleted, reportCacheKey("stu-1"))
}

func TestScoreServiceDeleteMissing(t *testing.T) {
	svc, repo, _, _, _ := newScoreFixture()
	repo.owners = map[string]models.ScoreOwner{}

	err := svc.Delete(context.Background(), "score-404", nil)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestScoreServiceDeleteScopeDenied(t *testing.T) {
	svc, repo, _, _, _ := newScoreFixture()
	schoolID := "sch-1"
	repo.owners = map[string]models.ScoreOwner{"score-1": {StudentID: "stu-1", SchoolID: &schoolID}}

	otherSchool := "sch-2"
	scope := &models.Scope{SchoolID: &otherSchool, Restricted: true}
	err := svc.Delete(context.Background(), "score-1", scope)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	require.Empty(t, repo.deleted)
}

func TestScoreServiceStandingsRanksWithTies(t *testing.T) {
	svc, repo, _, _, _ := newScoreFixture()
	repo.standings = map[string][]models.StudentStanding{
		"class:cls-1": {
			{StudentID: "stu-c", StudentName: "Chan Dara", Average: 8.0, ScoreCount: 3},
			{StudentID: "stu-a", StudentName: "An Sok", Average: 9.0, ScoreCount: 4},
			{StudentID: "stu-e", StudentName: "Em Rith", Average: 4.0, ScoreCount: 1},
			{StudentID: "stu-d", StudentName: "Dany Pich", ScoreCount: 0},
			{StudentID: "stu-b", StudentName: "Bora Kim", Average: 9.0, ScoreCount: 2},
		},
	}

	report, err := svc.Standings(context.Background(), "cls-1", "", nil)
	require.NoError(t, err)
	require.Equal(t, "cls-1", report.ClassID)
	require.Equal(t, "10A", report.ClassName)
	require.Len(t, report.Standings, 5)

	// Tied averages share a rank; the next distinct average resumes at its
	// list position.
	require.Equal(t, 1, report.Standings[0].Rank)
	require.Equal(t, 1, report.Standings[1].Rank)
	require.Equal(t, "stu-c", report.Standings[2].StudentID)
	require.Equal(t, 3, report.Standings[2].Rank)
	require.Equal(t, "stu-e", report.Standings[3].StudentID)
	require.Equal(t, 4, report.Standings[3].Rank)

	// A student with no scores sorts last, unranked and ungraded.
	require.Equal(t, "stu-d", report.Standings[4].StudentID)
	require.Zero(t, report.Standings[4].Rank)
	require.Empty(t, report.Standings[4].Grade)

	require.Equal(t, GradeVeryGood, report.Standings[2].Grade)
	require.True(t, report.Standings[2].Passed)
	require.False(t, report.Standings[3].Passed)

	require.Equal(t, 5, report.Stats.TotalStudents)
	require.Equal(t, 4, report.Stats.Scored)
	require.Equal(t, 3, report.Stats.Passed)
	require.Equal(t, 1, report.Stats.Failed)
	require.InDelta(t, 7.5, report.Stats.AverageScore, 0.0001)
	require.Equal(t, 2, report.Stats.GradeDistribution[GradeExcellent])
}

func TestScoreServiceStandingsForSchool(t *testing.T) {
	svc, repo, _, _, _ := newScoreFixture()
	repo.standings = map[string][]models.StudentStanding{
		"school:sch-1": {
			{StudentID: "stu-1", StudentName: "Linh Tran", Average: 7.0, ScoreCount: 2},
		},
	}

	report, err := svc.Standings(context.Background(), "", "sch-1", nil)
	require.NoError(t, err)
	require.Equal(t, "sch-1", report.SchoolID)
	require.Len(t, report.Standings, 1)
	require.Equal(t, 1, report.Standings[0].Rank)
}

func TestScoreServiceStandingsScopeDenied(t *testing.T) {
	svc, _, _, _, _ := newScoreFixture()
	otherSchool := "sch-2"
	scope := &models.Scope{SchoolID: &otherSchool, Restricted: true}

	_, err := svc.Standings(context.Background(), "cls-1", "", scope)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Standings(context.Background(), "", "sch-1", scope)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestScoreServiceStandingsRequiresGroup(t *testing.T) {
	svc, _, _, _, _ := newScoreFixture()

	_, err := svc.Standings(context.Background(), "", "", nil)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestGradeBands(t *testing.T) {
	grading := defaultGrading()
	cases := []struct {
		value float64
		want  string
	}{
		{9.0, GradeExcellent},
		{8.9, GradeVeryGood},
		{8.0, GradeVeryGood},
		{7.0, GradeGood},
		{6.0, GradeFairlyGood},
		{5.0, GradeAverage},
		{4.9, GradeWeak},
		{0, GradeWeak},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, gradeFor(tc.value, grading), "value %.1f", tc.value)
	}
}
