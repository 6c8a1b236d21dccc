package service

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/database"
)

type scheduleRepository interface {
	List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.ScheduleDetail, int, error)
	ListByClass(ctx context.Context, classID string) ([]models.ScheduleDetail, error)
}

// ScheduleService provides read access to class schedules. Schedule writes
// go through the class orchestrator so the schedule set never drifts from
// the teacher assignment map.
type ScheduleService struct {
	repo   scheduleRepository
	logger *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(repo scheduleRepository, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, logger: logger}
}

// List returns schedules visible to the caller.
func (s *ScheduleService) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.ScheduleDetail, int, error) {
	if scope != nil && scope.Restricted && scope.SchoolID == nil {
		return []models.ScheduleDetail{}, 0, nil
	}
	schedules, total, err := s.repo.List(ctx, params, scope)
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return schedules, total, nil
}

// ListByClass returns the timetable of one class.
func (s *ScheduleService) ListByClass(ctx context.Context, classID string) ([]models.ScheduleDetail, error) {
	schedules, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return schedules, nil
}
