package notification

import (
	"fmt"
	"time"
)

// Facts carries the values message templates interpolate.
type Facts struct {
	ClaimNumber  string
	PolicyNumber string
	HospitalName string
	PlanName     string
	Amount       float64
	Reason       string
	EndDate      time.Time
}

// Compose returns the title and message for kind. Unknown kinds get a generic text
// instead of failing, so a new kind can never break a request.
func Compose(kind Kind, f Facts) (title, message string) {
	switch kind {
	case KindClaimSubmitted:
		return "Claim received",
			fmt.Sprintf("Your claim %s for %.2f has been submitted and is waiting for medical notes.", f.ClaimNumber, f.Amount)
	case KindClaimAwaitingNotes:
		return "New claim needs medical notes",
			fmt.Sprintf("Claim %s for %.2f was filed at %s. Please add medical notes.", f.ClaimNumber, f.Amount, f.HospitalName)
	case KindClaimReadyForReview:
		return "Claim ready for review",
			fmt.Sprintf("Medical notes were added to claim %s. It is ready for review.", f.ClaimNumber)
	case KindClaimApproved:
		return "Claim approved",
			fmt.Sprintf("Your claim %s was approved for %.2f.", f.ClaimNumber, f.Amount)
	case KindClaimRejected:
		return "Claim rejected",
			fmt.Sprintf("Your claim %s was rejected: %s", f.ClaimNumber, f.Reason)
	case KindClaimReviewRecorded:
		return "Review recorded",
			fmt.Sprintf("Your decision on claim %s has been recorded.", f.ClaimNumber)
	case KindClaimPaid:
		return "Claim paid",
			fmt.Sprintf("Payment of %.2f for claim %s has been issued.", f.Amount, f.ClaimNumber)
	case KindPolicyIssued:
		return "Policy issued",
			fmt.Sprintf("Policy %s (%s) is active until %s.", f.PolicyNumber, f.PlanName, f.EndDate.Format("2006-01-02"))
	case KindPolicyEnrolled:
		return "Enrollment completed",
			fmt.Sprintf("Policy %s (%s) was issued to your client.", f.PolicyNumber, f.PlanName)
	case KindPolicyRenewed:
		return "Policy renewed",
			fmt.Sprintf("Policy %s now runs until %s.", f.PolicyNumber, f.EndDate.Format("2006-01-02"))
	case KindPolicyCancelled:
		return "Policy cancelled",
			fmt.Sprintf("Policy %s has been cancelled.", f.PolicyNumber)
	case KindPremiumReceived:
		return "Premium received",
			fmt.Sprintf("We received your premium of %.2f for policy %s. Coverage has been restored.", f.Amount, f.PolicyNumber)
	}
	return "Notification", string(kind)
}

// New builds an event for userID with composed text.
func New(userID int64, kind Kind, f Facts) Event {
	title, msg := Compose(kind, f)
	return Event{
		UserID:  userID,
		Kind:    kind,
		Title:   title,
		Message: msg,
	}
}

// WithClaim links the event to a claim and its policy.
func (e Event) WithClaim(claimID, policyID int64) Event {
	e.ClaimID = &claimID
	e.PolicyID = &policyID
	return e
}

// WithPolicy links the event to a policy.
func (e Event) WithPolicy(policyID int64) Event {
	e.PolicyID = &policyID
	return e
}

// WithData attaches structured data to the event.
func (e Event) WithData(data map[string]any) Event {
	e.Data = data
	return e
}
