package repository

import (
	"context"

	"healthinsure/internal/domain"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return Conn(ctx, r.db).Create(p).Error
}

func (r *PaymentRepository) ListByPolicy(ctx context.Context, policyID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	err := Conn(ctx, r.db).
		Where("policy_id = ?", policyID).
		Order("payment_date DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *PaymentRepository) ListByClaim(ctx context.Context, claimID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	err := Conn(ctx, r.db).
		Where("claim_id = ?", claimID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
