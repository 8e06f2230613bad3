package repository

import (
	"context"
	"fmt"
	"time"

	"healthinsure/internal/domain"

	"gorm.io/gorm"
)

type PolicyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

func (r *PolicyRepository) Create(ctx context.Context, p *domain.Policy) error {
	return Conn(ctx, r.db).Omit("Plan").Create(p).Error
}

func (r *PolicyRepository) GetByID(ctx context.Context, id int64) (*domain.Policy, error) {
	var p domain.Policy
	if err := Conn(ctx, r.db).Preload("Plan").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CountByYear counts policy numbers issued under the POL-<year>- prefix.
func (r *PolicyRepository) CountByYear(ctx context.Context, year int) (int64, error) {
	var cnt int64
	err := Conn(ctx, r.db).
		Model(&domain.Policy{}).
		Where("policy_number LIKE ?", fmt.Sprintf("POL-%d-%%", year)).
		Count(&cnt).Error
	return cnt, err
}

func (r *PolicyRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var cnt int64
	err := Conn(ctx, r.db).
		Model(&domain.Policy{}).
		Where("policy_number = ?", number).
		Count(&cnt).Error
	return cnt > 0, err
}

// DeductCoverage subtracts amount from remaining coverage only while enough is left.
// It returns ErrStaleState when the guard rejects the update.
func (r *PolicyRepository) DeductCoverage(ctx context.Context, policyID int64, amount float64) error {
	tx := Conn(ctx, r.db).
		Model(&domain.Policy{}).
		Where("id = ? AND remaining_coverage >= ?", policyID, amount).
		Updates(map[string]any{
			"remaining_coverage": gorm.Expr("remaining_coverage - ?", amount),
			"updated_at":         time.Now(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

// UpdateFields applies fields to the policy while it still has the expected status.
func (r *PolicyRepository) UpdateFields(ctx context.Context, policyID int64, expected domain.PolicyStatus, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	tx := Conn(ctx, r.db).
		Model(&domain.Policy{}).
		Where("id = ? AND status = ?", policyID, expected).
		Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *PolicyRepository) ListByHolder(ctx context.Context, holderID int64, limit, offset int) ([]domain.Policy, int64, error) {
	return r.list(ctx, Conn(ctx, r.db).Where("holder_id = ?", holderID), limit, offset)
}

func (r *PolicyRepository) List(ctx context.Context, status domain.PolicyStatus, limit, offset int) ([]domain.Policy, int64, error) {
	q := Conn(ctx, r.db)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return r.list(ctx, q, limit, offset)
}

func (r *PolicyRepository) list(_ context.Context, q *gorm.DB, limit, offset int) ([]domain.Policy, int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Model(&domain.Policy{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Policy
	err := q.Preload("Plan").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkExpired flips active policies whose end date is before now to expired.
func (r *PolicyRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	tx := Conn(ctx, r.db).
		Model(&domain.Policy{}).
		Where("status = ? AND end_date < ?", domain.PolicyActive, now).
		Updates(map[string]any{
			"status":     domain.PolicyExpired,
			"updated_at": now,
		})
	return tx.RowsAffected, tx.Error
}

// DeleteCascade removes the policy with its claims and payments. Callers run it inside a transaction.
func (r *PolicyRepository) DeleteCascade(ctx context.Context, policyID int64) error {
	db := Conn(ctx, r.db)
	if err := db.Where("policy_id = ?", policyID).Delete(&domain.Payment{}).Error; err != nil {
		return fmt.Errorf("delete payments: %w", err)
	}
	if err := db.Where("policy_id = ?", policyID).Delete(&domain.Claim{}).Error; err != nil {
		return fmt.Errorf("delete claims: %w", err)
	}
	tx := db.Delete(&domain.Policy{}, policyID)
	if tx.Error != nil {
		return fmt.Errorf("delete policy: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
