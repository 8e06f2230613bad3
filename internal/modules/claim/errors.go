package claim

import "healthinsure/internal/domain"

var (
	ErrClaimNotFound    = domain.NewError(domain.ErrNotFound, "claim not found")
	ErrPolicyNotFound   = domain.NewError(domain.ErrNotFound, "policy not found")
	ErrHospitalNotFound = domain.NewError(domain.ErrNotFound, "hospital not found")
	ErrUserNotFound     = domain.NewError(domain.ErrNotFound, "user not found")

	ErrNotPolicyHolder  = domain.NewError(domain.ErrForbidden, "only the policy holder can submit claims on this policy")
	ErrNotHospitalStaff = domain.NewError(domain.ErrForbidden, "only staff of the claim's hospital can add medical notes")
	ErrNotClaimsOfficer = domain.NewError(domain.ErrForbidden, "only claims officers can perform this action")
	ErrClaimAccess      = domain.NewError(domain.ErrForbidden, "you are not allowed to view this claim")

	ErrInvalidAmount          = domain.NewError(domain.ErrInvalidOperation, "claim amount must be greater than zero")
	ErrPolicyNotActive        = domain.NewError(domain.ErrInvalidOperation, "policy is not active")
	ErrPolicyLapsed           = domain.NewError(domain.ErrInvalidOperation, "policy end date has passed")
	ErrCoverageExceeded       = domain.NewError(domain.ErrInvalidOperation, "amount exceeds remaining coverage")
	ErrClaimNotSubmitted      = domain.NewError(domain.ErrInvalidOperation, "claim is not in submitted status")
	ErrNotesRequired          = domain.NewError(domain.ErrInvalidOperation, "medical notes are required")
	ErrClaimNotInReview       = domain.NewError(domain.ErrInvalidOperation, "claim is not in review")
	ErrMedicalNotesMissing    = domain.NewError(domain.ErrInvalidOperation, "claim has no medical notes")
	ErrInvalidDecision        = domain.NewError(domain.ErrInvalidOperation, "decision must be approved or rejected")
	ErrInvalidApprovedAmount  = domain.NewError(domain.ErrInvalidOperation, "approved amount must be positive and not exceed the claim amount")
	ErrRejectionReasonMissing = domain.NewError(domain.ErrInvalidOperation, "rejection reason is required")
	ErrClaimNotApproved       = domain.NewError(domain.ErrInvalidOperation, "claim is not approved")
)
