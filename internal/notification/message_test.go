package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompose_KnownKinds(t *testing.T) {
	f := Facts{
		ClaimNumber:  "CLM-2026-0001",
		PolicyNumber: "POL-2026-0001",
		HospitalName: "City Hospital",
		PlanName:     "Gold",
		Amount:       2000,
		Reason:       "not covered",
		EndDate:      time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	kinds := []Kind{
		KindClaimSubmitted, KindClaimAwaitingNotes, KindClaimReadyForReview,
		KindClaimApproved, KindClaimRejected, KindClaimReviewRecorded, KindClaimPaid,
		KindPolicyIssued, KindPolicyEnrolled, KindPolicyRenewed, KindPolicyCancelled,
		KindPremiumReceived,
	}
	for _, k := range kinds {
		title, msg := Compose(k, f)
		assert.NotEqual(t, "Notification", title, k)
		assert.NotEmpty(t, msg, k)
	}

	_, msg := Compose(KindClaimRejected, f)
	assert.Contains(t, msg, "not covered")

	_, msg = Compose(KindClaimPaid, f)
	assert.Contains(t, msg, "2000.00")
	assert.Contains(t, msg, "CLM-2026-0001")
}

func TestCompose_UnknownKindFallsBack(t *testing.T) {
	title, msg := Compose(Kind("claim.teleported"), Facts{})
	assert.Equal(t, "Notification", title)
	assert.Equal(t, "claim.teleported", msg)
}

func TestEvent_History(t *testing.T) {
	ev := New(5, KindClaimApproved, Facts{ClaimNumber: "CLM-2026-0002", Amount: 10}).
		WithClaim(11, 3).
		WithData(map[string]any{"status": "approved"})

	h, err := ev.History()
	assert.NoError(t, err)
	assert.Equal(t, int64(5), h.UserID)
	assert.Equal(t, string(KindClaimApproved), h.Type)
	assert.Equal(t, int64(11), *h.ClaimID)
	assert.Equal(t, int64(3), *h.PolicyID)
	assert.JSONEq(t, `{"status":"approved"}`, string(h.Data))
	assert.False(t, h.IsRead)
}
