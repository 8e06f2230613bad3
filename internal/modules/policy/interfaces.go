package policy

import (
	"context"
	"time"

	"healthinsure/internal/domain"
)

type PolicyRepository interface {
	Create(ctx context.Context, p *domain.Policy) error
	GetByID(ctx context.Context, id int64) (*domain.Policy, error)
	CountByYear(ctx context.Context, year int) (int64, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	UpdateFields(ctx context.Context, policyID int64, expected domain.PolicyStatus, fields map[string]any) error
	ListByHolder(ctx context.Context, holderID int64, limit, offset int) ([]domain.Policy, int64, error)
	List(ctx context.Context, status domain.PolicyStatus, limit, offset int) ([]domain.Policy, int64, error)
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteCascade(ctx context.Context, policyID int64) error
}

type PlanRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.InsurancePlan, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	ListByPolicy(ctx context.Context, policyID int64) ([]domain.Payment, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
