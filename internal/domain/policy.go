package domain

import "time"

type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "active"
	PolicyExpired   PolicyStatus = "expired"
	PolicySuspended PolicyStatus = "suspended"
	PolicyCancelled PolicyStatus = "cancelled"
)

type Policy struct {
	ID                  int64        `json:"id" gorm:"primaryKey"`
	PolicyNumber        string       `json:"policy_number" gorm:"uniqueIndex;not null"`
	PlanID              int64        `json:"plan_id" gorm:"not null;index"`
	HolderID            int64        `json:"holder_id" gorm:"not null;index"`
	AgentID             *int64       `json:"agent_id,omitempty"`
	StartDate           time.Time    `json:"start_date"`
	EndDate             time.Time    `json:"end_date" gorm:"index"`
	CoverageLimit       float64      `json:"coverage_limit" gorm:"not null"`
	RemainingCoverage   float64      `json:"remaining_coverage" gorm:"not null"`
	PremiumAmount       float64      `json:"premium_amount" gorm:"not null"`
	Status              PolicyStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	PremiumPaid         bool         `json:"premium_paid" gorm:"not null;default:false"`
	LastPremiumPaidDate *time.Time   `json:"last_premium_paid_date,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`

	Plan *InsurancePlan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}

// HasLapsed reports whether the policy end date is behind now.
func (p *Policy) HasLapsed(now time.Time) bool {
	return !p.EndDate.IsZero() && now.After(p.EndDate)
}
