package domain

import "time"

type PaymentType string

const (
	PaymentPremium     PaymentType = "premium"
	PaymentClaimPayout PaymentType = "claim_payout"
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
)

type Payment struct {
	ID          int64         `json:"id" gorm:"primaryKey"`
	Reference   string        `json:"reference" gorm:"uniqueIndex;not null"`
	PolicyID    int64         `json:"policy_id" gorm:"not null;index"`
	ClaimID     *int64        `json:"claim_id,omitempty" gorm:"index"`
	UserID      int64         `json:"user_id" gorm:"not null;index"`
	Amount      float64       `json:"amount" gorm:"not null"`
	Type        PaymentType   `json:"type" gorm:"type:varchar(16);not null"`
	Status      PaymentStatus `json:"status" gorm:"type:varchar(16);not null"`
	PaymentDate time.Time     `json:"payment_date"`
	CreatedAt   time.Time     `json:"created_at"`
}
