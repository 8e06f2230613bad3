package domain

import "time"

type ClaimStatus string

const (
	ClaimSubmitted ClaimStatus = "submitted"
	ClaimInReview  ClaimStatus = "in_review"
	ClaimApproved  ClaimStatus = "approved"
	ClaimRejected  ClaimStatus = "rejected"
	ClaimPaid      ClaimStatus = "paid"
)

// claimTransitions lists the only legal moves of the claim lifecycle.
var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimSubmitted: {ClaimInReview},
	ClaimInReview:  {ClaimApproved, ClaimRejected},
	ClaimApproved:  {ClaimPaid},
}

func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	for _, allowed := range claimTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ReviewDecision string

const (
	DecisionApproved ReviewDecision = "approved"
	DecisionRejected ReviewDecision = "rejected"
)

type Claim struct {
	ID              int64       `json:"id" gorm:"primaryKey"`
	ClaimNumber     string      `json:"claim_number" gorm:"uniqueIndex;not null"`
	PolicyID        int64       `json:"policy_id" gorm:"not null;index"`
	UserID          int64       `json:"user_id" gorm:"not null;index"`
	HospitalID      int64       `json:"hospital_id" gorm:"not null;index"`
	ClaimAmount     float64     `json:"claim_amount" gorm:"not null"`
	ApprovedAmount  *float64    `json:"approved_amount,omitempty"`
	Description     string      `json:"description,omitempty" gorm:"type:text"`
	MedicalNotes    *string     `json:"medical_notes,omitempty" gorm:"type:text"`
	Status          ClaimStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	SubmittedAt     time.Time   `json:"submitted_at"`
	ReviewedAt      *time.Time  `json:"reviewed_at,omitempty"`
	ProcessedAt     *time.Time  `json:"processed_at,omitempty"`
	ReviewerID      *int64      `json:"reviewer_id,omitempty"`
	RejectionReason *string     `json:"rejection_reason,omitempty" gorm:"type:text"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (c *Claim) HasMedicalNotes() bool {
	return c.MedicalNotes != nil && *c.MedicalNotes != ""
}

// PayableAmount is the amount paid out once approved.
func (c *Claim) PayableAmount() float64 {
	if c.ApprovedAmount != nil {
		return *c.ApprovedAmount
	}
	return c.ClaimAmount
}
