package service

import (
	"context"
	"database/sql"
	"net/url"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type mockResultRepo struct {
	upserted  []models.AcademicResult
	published []models.AcademicResult
	schools   map[string]string
	deleted   []string
}

func (m *mockResultRepo) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.AcademicResultDetail, int, error) {
	return nil, 0, nil
}

func (m *mockResultRepo) Upsert(ctx context.Context, result *models.AcademicResult) error {
	m.upserted = append(m.upserted, *result)
	return nil
}

func (m *mockResultRepo) BulkPublish(ctx context.Context, results []models.AcademicResult) (int64, error) {
	m.published = append(m.published, results...)
	return int64(len(results)), nil
}

func (m *mockResultRepo) SchoolID(ctx context.Context, id string) (string, error) {
	schoolID, ok := m.schools[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	return schoolID, nil
}

func (m *mockResultRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockResultClassRepo struct {
	classes  map[string]models.Class
	enrolled map[string][]string
}

func (m *mockResultClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		class := c
		return &class, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockResultClassRepo) EnrolledStudentIDs(ctx context.Context, classID string, studentIDs []string) ([]string, error) {
	enrolledSet := make(map[string]struct{})
	for _, id := range m.enrolled[classID] {
		enrolledSet[id] = struct{}{}
	}
	var out []string
	for _, id := range studentIDs {
		if _, ok := enrolledSet[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func newResultFixture() (*AcademicResultService, *mockResultRepo, *mockResultClassRepo) {
	repo := &mockResultRepo{}
	classes := &mockResultClassRepo{
		classes: map[string]models.Class{
			"cls-1": {ID: "cls-1", SchoolID: "sch-1", Name: "10A", AcademicYear: "2026-2027"},
		},
		enrolled: map[string][]string{"cls-1": {"stu-1", "stu-2"}},
	}
	svc := NewAcademicResultService(repo, classes, validator.New(), zap.NewNop(), defaultGrading())
	return svc, repo, classes
}

func TestAcademicResultPublishDerivesGrades(t *testing.T) {
	svc, repo, _ := newResultFixture()

	written, err := svc.Publish(context.Background(), models.PublishResultsRequest{
		ClassID:        "cls-1",
		SubjectID:      "sub-1",
		AcademicPeriod: "2026-S1",
		Entries: []models.ResultEntry{
			{StudentID: "stu-1", FinalScore: 9.2},
			{StudentID: "stu-2", FinalScore: 6.1},
		},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), written)
	require.Len(t, repo.published, 2)
	require.Equal(t, GradeExcellent, repo.published[0].Grade)
	require.Equal(t, GradeFairlyGood, repo.published[1].Grade)
	require.Equal(t, "2026-S1", repo.published[0].AcademicPeriod)
}

func TestAcademicResultPublishRejectsOutOfRange(t *testing.T) {
	svc, repo, _ := newResultFixture()

	_, err := svc.Publish(context.Background(), models.PublishResultsRequest{
		ClassID:        "cls-1",
		SubjectID:      "sub-1",
		AcademicPeriod: "2026-S1",
		Entries: []models.ResultEntry{
			{StudentID: "stu-1", FinalScore: 12},
		},
	}, nil)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Empty(t, repo.published)
}

func TestAcademicResultPublishRejectsUnenrolledStudent(t *testing.T) {
	svc, repo, _ := newResultFixture()

	_, err := svc.Publish(context.Background(), models.PublishResultsRequest{
		ClassID:        "cls-1",
		SubjectID:      "sub-1",
		AcademicPeriod: "2026-S1",
		Entries: []models.ResultEntry{
			{StudentID: "stu-1", FinalScore: 8},
			{StudentID: "stu-9", FinalScore: 7},
		},
	}, nil)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Empty(t, repo.published)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, []string{"stu-9"}, details["student_ids"])
}

func TestAcademicResultPublishScopeDenied(t *testing.T) {
	svc, repo, _ := newResultFixture()

	otherSchool := "sch-9"
	scope := &models.Scope{SchoolID: &otherSchool, Restricted: true}
	_, err := svc.Publish(context.Background(), models.PublishResultsRequest{
		ClassID:        "cls-1",
		SubjectID:      "sub-1",
		AcademicPeriod: "2026-S1",
		Entries: []models.ResultEntry{
			{StudentID: "stu-1", FinalScore: 8},
		},
	}, scope)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	require.Empty(t, repo.published)
}

func TestAcademicResultDelete(t *testing.T) {
	svc, repo, _ := newResultFixture()
	repo.schools = map[string]string{"res-1": "sch-1"}

	ownSchool := "sch-1"
	scope := &models.Scope{SchoolID: &ownSchool, Restricted: true}
	require.NoError(t, svc.Delete(context.Background(), "res-1", scope))
	require.Equal(t, []string{"res-1"}, repo.deleted)
}

func TestAcademicResultDeleteScopeDenied(t *testing.T) {
	svc, repo, _ := newResultFixture()
	repo.schools = map[string]string{"res-1": "sch-1"}

	otherSchool := "sch-9"
	scope := &models.Scope{SchoolID: &otherSchool, Restricted: true}
	err := svc.Delete(context.Background(), "res-1", scope)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	require.Empty(t, repo.deleted)
}

func TestAcademicResultDeleteMissing(t *testing.T) {
	svc, repo, _ := newResultFixture()
	repo.schools = map[string]string{}

	err := svc.Delete(context.Background(), "res-404", nil)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAcademicResultUpsertDerivesGrade(t *testing.T) {
	svc, repo, _ := newResultFixture()

	result, err := svc.Upsert(context.Background(), models.UpsertAcademicResultRequest{
		StudentID:      "stu-1",
		ClassID:        "cls-1",
		SubjectID:      "sub-1",
		AcademicPeriod: "2026-S1",
		FinalScore:     7.4,
	})
	require.NoError(t, err)
	require.Equal(t, GradeGood, result.Grade)
	require.Len(t, repo.upserted, 1)
}
