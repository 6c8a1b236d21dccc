package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salaedu/sala-api/internal/models"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type mockEventRepo struct {
	events      map[string]*models.Event
	schoolUsers []string
	created     *models.Event
	deleted     []string
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: map[string]*models.Event{}}
}

func (m *mockEventRepo) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.Event, int, error) {
	out := []models.Event{}
	for _, e := range m.events {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = "evt-1"
	}
	m.created = event
	m.events[event.ID] = event
	return nil
}

func (m *mockEventRepo) Update(ctx context.Context, event *models.Event) error {
	m.events[event.ID] = event
	return nil
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	delete(m.events, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockEventRepo) SchoolUserIDs(ctx context.Context, schoolID string) ([]string, error) {
	return m.schoolUsers, nil
}

type mockEventNotifications struct {
	userIDs []string
	typ     models.NotificationType
}

func (m *mockEventNotifications) CreateMany(ctx context.Context, userIDs []string, typ models.NotificationType, title, message string) error {
	m.userIDs = append(m.userIDs, userIDs...)
	m.typ = typ
	return nil
}

func TestEventServiceCreateAnnouncesToSchool(t *testing.T) {
	repo := newMockEventRepo()
	repo.schoolUsers = []string{"usr-1", "usr-2", "usr-3"}
	notifications := &mockEventNotifications{}
	svc := NewEventService(repo, notifications, nil, nil)

	schoolID := "sch-1"
	event, err := svc.Create(context.Background(), models.CreateEventRequest{
		SchoolID: schoolID,
		Title:    "Parents evening",
		StartAt:  "2026-09-10T17:00:00Z",
		EndAt:    "2026-09-10T19:00:00Z",
	}, "usr-9", &models.Scope{SchoolID: &schoolID, Restricted: true})

	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "Parents evening", event.Title)
	assert.Equal(t, "usr-9", event.CreatedBy)
	assert.ElementsMatch(t, []string{"usr-1", "usr-2", "usr-3"}, notifications.userIDs)
	assert.Equal(t, models.NotificationEventCreated, notifications.typ)
}

func TestEventServiceCreateRejectsInvertedWindow(t *testing.T) {
	svc := NewEventService(newMockEventRepo(), &mockEventNotifications{}, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateEventRequest{
		SchoolID: "sch-1",
		Title:    "Sports day",
		StartAt:  "2026-09-10T19:00:00Z",
		EndAt:    "2026-09-10T17:00:00Z",
	}, "usr-9", &models.Scope{Restricted: false})

	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestEventServiceCreateDeniedOutsideScope(t *testing.T) {
	svc := NewEventService(newMockEventRepo(), &mockEventNotifications{}, nil, nil)

	other := "sch-2"
	_, err := svc.Create(context.Background(), models.CreateEventRequest{
		SchoolID: "sch-1",
		Title:    "Sports day",
		StartAt:  "2026-09-10T09:00:00Z",
		EndAt:    "2026-09-10T12:00:00Z",
	}, "usr-9", &models.Scope{SchoolID: &other, Restricted: true})

	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestEventServiceGetDeniedOutsideScope(t *testing.T) {
	repo := newMockEventRepo()
	repo.events["evt-1"] = &models.Event{ID: "evt-1", SchoolID: "sch-1", Title: "Exam week"}
	svc := NewEventService(repo, &mockEventNotifications{}, nil, nil)

	other := "sch-2"
	_, err := svc.Get(context.Background(), "evt-1", &models.Scope{SchoolID: &other, Restricted: true})

	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
