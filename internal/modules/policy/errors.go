package policy

import "healthinsure/internal/domain"

var (
	ErrPolicyNotFound = domain.NewError(domain.ErrNotFound, "policy not found")
	ErrPlanNotFound   = domain.NewError(domain.ErrNotFound, "insurance plan not found")
	ErrUserNotFound   = domain.NewError(domain.ErrNotFound, "user not found")

	ErrNotOwner     = domain.NewError(domain.ErrForbidden, "policy belongs to another holder")
	ErrNotPermitted = domain.NewError(domain.ErrForbidden, "role is not allowed to perform this action")

	ErrPlanInactive     = domain.NewError(domain.ErrInvalidOperation, "insurance plan is not active")
	ErrNotPolicyHolder  = domain.NewError(domain.ErrInvalidOperation, "policies can only be issued to policy holders")
	ErrPolicyCancelled  = domain.NewError(domain.ErrInvalidOperation, "policy is cancelled")
	ErrCannotCancel     = domain.NewError(domain.ErrInvalidOperation, "only active or suspended policies can be cancelled")
	ErrConcurrentChange = domain.NewError(domain.ErrInvalidOperation, "policy changed concurrently, retry")
)
