package domain

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationHistory is the durable copy of a delivered notification event.
type NotificationHistory struct {
	ID        int64          `json:"id" gorm:"primaryKey"`
	UserID    int64          `json:"user_id" gorm:"not null;index:idx_notification_histories_user_read"`
	Type      string         `json:"type" gorm:"type:varchar(48);not null"`
	Title     string         `json:"title" gorm:"not null"`
	Message   string         `json:"message" gorm:"type:text"`
	PolicyID  *int64         `json:"policy_id,omitempty"`
	ClaimID   *int64         `json:"claim_id,omitempty"`
	Data      datatypes.JSON `json:"data,omitempty"`
	IsRead    bool           `json:"is_read" gorm:"not null;default:false;index:idx_notification_histories_user_read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}

func (NotificationHistory) TableName() string {
	return "notification_histories"
}

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxDead    OutboxStatus = "dead"
)

// NotificationOutbox holds one serialized notification event written in the same
// transaction as the state change that produced it.
type NotificationOutbox struct {
	ID        int64          `json:"id" gorm:"primaryKey"`
	Payload   datatypes.JSON `json:"payload" gorm:"not null"`
	Attempts  int            `json:"attempts" gorm:"not null;default:0"`
	LastError *string        `json:"last_error,omitempty" gorm:"type:text"`
	Status    OutboxStatus   `json:"status" gorm:"type:varchar(16);not null;default:pending;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"index"`
}

func (NotificationOutbox) TableName() string {
	return "notification_outbox"
}
