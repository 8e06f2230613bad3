package claim

import (
	"context"

	"healthinsure/internal/domain"
	"healthinsure/internal/repository"
)

type ClaimRepository interface {
	Create(ctx context.Context, c *domain.Claim) error
	GetByID(ctx context.Context, id int64) (*domain.Claim, error)
	CountByYear(ctx context.Context, year int) (int64, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	Transition(ctx context.Context, id int64, from, to domain.ClaimStatus, fields map[string]any) error
	List(ctx context.Context, f repository.ClaimFilter) ([]domain.Claim, int64, error)
}

type PolicyRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Policy, error)
	DeductCoverage(ctx context.Context, policyID int64, amount float64) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error)
	ListHospitalStaff(ctx context.Context, hospitalID int64) ([]domain.User, error)
}

type HospitalRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Hospital, error)
}

type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
