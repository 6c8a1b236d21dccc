package service

import (
	"context"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/database"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.Event, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
	SchoolUserIDs(ctx context.Context, schoolID string) ([]string, error)
}

type eventNotificationRepository interface {
	CreateMany(ctx context.Context, userIDs []string, typ models.NotificationType, title, message string) error
}

// EventService manages school events. Creating an event announces it to
// every account in the school; the announcement is best effort once the
// event row exists.
type EventService struct {
	repo          eventRepository
	notifications eventNotificationRepository
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, notifications eventNotificationRepository, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EventService{repo: repo, notifications: notifications, validator: validate, logger: logger}
}

// List returns events visible to the caller.
func (s *EventService) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.Event, int, error) {
	if scope != nil && scope.Restricted && scope.SchoolID == nil {
		return []models.Event{}, 0, nil
	}
	events, total, err := s.repo.List(ctx, params, scope)
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return events, total, nil
}

// Get returns one event, honouring the scope.
func (s *EventService) Get(ctx context.Context, id string, scope *models.Scope) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	if scope != nil && !scope.Allows(event.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "event is outside your scope")
	}
	return event, nil
}

// Create schedules an event and announces it to the school.
func (s *EventService) Create(ctx context.Context, req models.CreateEventRequest, createdBy string, scope *models.Scope) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if scope != nil && !scope.Allows(req.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "school is outside your scope")
	}
	startAt, endAt, err := parseEventWindow(req.StartAt, req.EndAt)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		SchoolID:    req.SchoolID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartAt:     startAt,
		EndAt:       endAt,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, database.TranslateError(err)
	}

	if userIDs, err := s.repo.SchoolUserIDs(ctx, req.SchoolID); err != nil {
		s.logger.Warn("failed to list school users for event announcement", zap.Error(err))
	} else if err := s.notifications.CreateMany(ctx, userIDs, models.NotificationEventCreated,
		"New event: "+event.Title, event.Title); err != nil {
		s.logger.Warn("failed to announce event", zap.String("event_id", event.ID), zap.Error(err))
	}

	return event, nil
}

// Update modifies an event within the caller's scope.
func (s *EventService) Update(ctx context.Context, id string, req models.UpdateEventRequest, scope *models.Scope) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	event, err := s.Get(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	startAt, endAt, err := parseEventWindow(req.StartAt, req.EndAt)
	if err != nil {
		return nil, err
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Location = req.Location
	event.StartAt = startAt
	event.EndAt = endAt
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, database.TranslateError(err)
	}
	return event, nil
}

// Delete removes an event within the caller's scope.
func (s *EventService) Delete(ctx context.Context, id string, scope *models.Scope) error {
	if _, err := s.Get(ctx, id, scope); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return database.TranslateError(err)
	}
	return nil
}

func parseEventWindow(start, end string) (time.Time, time.Time, error) {
	startAt, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_at must be RFC 3339")
	}
	endAt, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_at must be RFC 3339")
	}
	if !endAt.After(startAt) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_at must be after start_at")
	}
	return startAt, endAt, nil
}
