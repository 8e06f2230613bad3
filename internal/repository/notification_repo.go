package repository

import (
	"context"
	"time"

	"healthinsure/internal/domain"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.NotificationHistory) error {
	return Conn(ctx, r.db).Create(n).Error
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.NotificationHistory, error) {
	var out []domain.NotificationHistory
	q := Conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *NotificationRepository) Count(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := Conn(ctx, r.db).
		Model(&domain.NotificationHistory{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := Conn(ctx, r.db).
		Model(&domain.NotificationHistory{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID int64) error {
	res := Conn(ctx, r.db).
		Model(&domain.NotificationHistory{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_read": true, "read_at": time.Now()})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	res := Conn(ctx, r.db).
		Model(&domain.NotificationHistory{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64) error {
	res := Conn(ctx, r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.NotificationHistory{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteReadOlderThan purges read notifications created before cutoff.
func (r *NotificationRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := Conn(ctx, r.db).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&domain.NotificationHistory{})
	return res.RowsAffected, res.Error
}

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Create(ctx context.Context, rows []domain.NotificationOutbox) error {
	if len(rows) == 0 {
		return nil
	}
	return Conn(ctx, r.db).Create(&rows).Error
}

// Pending returns up to limit pending rows with id above afterID, oldest first.
func (r *OutboxRepository) Pending(ctx context.Context, afterID int64, limit int) ([]domain.NotificationOutbox, error) {
	var out []domain.NotificationOutbox
	err := Conn(ctx, r.db).
		Where("status = ? AND id > ?", domain.OutboxPending, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *OutboxRepository) Delete(ctx context.Context, id int64) error {
	return Conn(ctx, r.db).Delete(&domain.NotificationOutbox{}, id).Error
}

// RecordFailure bumps attempts and stores lastErr; the row turns dead once attempts reach maxAttempts.
func (r *OutboxRepository) RecordFailure(ctx context.Context, row *domain.NotificationOutbox, lastErr string, maxAttempts int) error {
	row.Attempts++
	row.LastError = &lastErr
	if row.Attempts >= maxAttempts {
		row.Status = domain.OutboxDead
	}
	return Conn(ctx, r.db).
		Model(&domain.NotificationOutbox{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"attempts":   row.Attempts,
			"last_error": lastErr,
			"status":     row.Status,
			"updated_at": time.Now(),
		}).Error
}

func (r *OutboxRepository) DeleteDeadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := Conn(ctx, r.db).
		Where("status = ? AND updated_at < ?", domain.OutboxDead, cutoff).
		Delete(&domain.NotificationOutbox{})
	return res.RowsAffected, res.Error
}
