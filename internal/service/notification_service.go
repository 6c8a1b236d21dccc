package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/database"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type notificationRepository interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type notificationCacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NotificationService reads the per-user notification feed. The unread
// counter is cached briefly since clients poll it on every page view.
type NotificationService struct {
	repo        notificationRepository
	cache       notificationCacheRepository
	logger      *zap.Logger
	recentLimit int
	countTTL    time.Duration
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepository, cache notificationCacheRepository, logger *zap.Logger, recentLimit int, countTTL time.Duration) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recentLimit <= 0 {
		recentLimit = 10
	}
	return &NotificationService{repo: repo, cache: cache, logger: logger, recentLimit: recentLimit, countTTL: countTTL}
}

func unreadCountKey(userID string) string {
	return "notifications:unread:" + userID
}

// Recent returns the caller's newest notifications.
func (s *NotificationService) Recent(ctx context.Context, userID string) ([]models.Notification, error) {
	notifications, err := s.repo.ListRecent(ctx, userID, s.recentLimit)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return notifications, nil
}

// UnreadCount returns the caller's unread counter, cached briefly.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	var cached models.UnreadCount
	if err := s.cache.Get(ctx, unreadCountKey(userID), &cached); err == nil {
		return cached.Count, nil
	} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("unread count cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, database.TranslateError(err)
	}
	if err := s.cache.Set(ctx, unreadCountKey(userID), models.UnreadCount{Count: count}, s.countTTL); err != nil {
		s.logger.Warn("unread count cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return count, nil
}

// MarkRead flags one notification as read and drops the cached counter.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return database.TranslateError(err)
	}
	s.invalidateCount(ctx, userID)
	return nil
}

// MarkAllRead flags every notification of the caller as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return database.TranslateError(err)
	}
	s.invalidateCount(ctx, userID)
	return nil
}

func (s *NotificationService) invalidateCount(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, unreadCountKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate unread count cache", zap.String("user_id", userID), zap.Error(err))
	}
}
