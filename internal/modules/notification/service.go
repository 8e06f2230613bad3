package notification

import (
	"context"
	"fmt"

	"healthinsure/internal/domain"
	"healthinsure/internal/repository"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

var ErrNotificationNotFound = domain.NewError(domain.ErrNotFound, "notification not found")

type Repository interface {
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.NotificationHistory, error)
	Count(ctx context.Context, userID int64) (int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id, userID int64) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Page is one slice of a user's inbox.
type Page struct {
	Notifications []domain.NotificationHistory `json:"notifications"`
	UnreadCount   int64                        `json:"unread_count"`
	Total         int64                        `json:"total"`
	Limit         int                          `json:"limit"`
	Offset        int                          `json:"offset"`
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) (*Page, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	total, err := s.repo.Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	if items == nil {
		items = []domain.NotificationHistory{}
	}

	return &Page{
		Notifications: items,
		UnreadCount:   unread,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	}, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// MarkAsRead fails with ErrNotificationNotFound when the notification is missing or
// belongs to another user.
func (s *Service) MarkAsRead(ctx context.Context, userID, id int64) error {
	if err := s.repo.MarkAsRead(ctx, id, userID); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}
