package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"healthinsure/internal/domain"

	"gorm.io/datatypes"
)

// Kind identifies what happened; it becomes NotificationHistory.Type.
type Kind string

const (
	KindClaimSubmitted      Kind = "claim.submitted"
	KindClaimAwaitingNotes  Kind = "claim.awaiting_notes"
	KindClaimReadyForReview Kind = "claim.ready_for_review"
	KindClaimApproved       Kind = "claim.approved"
	KindClaimRejected       Kind = "claim.rejected"
	KindClaimReviewRecorded Kind = "claim.review_recorded"
	KindClaimPaid           Kind = "claim.paid"
	KindPolicyIssued        Kind = "policy.issued"
	KindPolicyEnrolled      Kind = "policy.enrolled"
	KindPolicyRenewed       Kind = "policy.renewed"
	KindPolicyCancelled     Kind = "policy.cancelled"
	KindPremiumReceived     Kind = "policy.premium_received"
)

// Event is one notification waiting to be delivered to a single recipient.
type Event struct {
	UserID   int64          `json:"user_id"`
	Kind     Kind           `json:"kind"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	PolicyID *int64         `json:"policy_id,omitempty"`
	ClaimID  *int64         `json:"claim_id,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// History converts the event into the row persisted for its recipient.
func (e Event) History() (*domain.NotificationHistory, error) {
	var raw datatypes.JSON
	if len(e.Data) > 0 {
		b, err := json.Marshal(e.Data)
		if err != nil {
			return nil, fmt.Errorf("encode notification data: %w", err)
		}
		raw = b
	}

	return &domain.NotificationHistory{
		UserID:   e.UserID,
		Type:     string(e.Kind),
		Title:    e.Title,
		Message:  e.Message,
		PolicyID: e.PolicyID,
		ClaimID:  e.ClaimID,
		Data:     raw,
	}, nil
}

// Publisher accepts events for delivery without waiting for them to be persisted.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	// Transactional reports whether Publish writes through the caller's transaction.
	// Non-transactional publishers are called only after the transaction commits.
	Transactional() bool
}

// Source hands queued events to the dispatcher one at a time.
type Source interface {
	Next(ctx context.Context) (Event, error)
}

// Store persists delivered notifications.
type Store interface {
	Create(ctx context.Context, n *domain.NotificationHistory) error
}

// Pusher forwards a stored notification to live connections of its recipient.
type Pusher interface {
	Push(userID int64, payload any) bool
}

// NopPusher drops live pushes.
type NopPusher struct{}

func (NopPusher) Push(int64, any) bool { return false }
