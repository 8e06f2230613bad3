package repository

import (
	"context"
	"fmt"
	"time"

	"healthinsure/internal/domain"

	"gorm.io/gorm"
)

type ClaimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// ClaimFilter narrows List. Zero values are ignored.
type ClaimFilter struct {
	UserID     int64
	HospitalID int64
	PolicyID   int64
	Status     domain.ClaimStatus
	Limit      int
	Offset     int
}

func (r *ClaimRepository) Create(ctx context.Context, c *domain.Claim) error {
	return Conn(ctx, r.db).Create(c).Error
}

func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*domain.Claim, error) {
	var c domain.Claim
	if err := Conn(ctx, r.db).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CountByYear counts claim numbers issued under the CLM-<year>- prefix.
func (r *ClaimRepository) CountByYear(ctx context.Context, year int) (int64, error) {
	var cnt int64
	err := Conn(ctx, r.db).
		Model(&domain.Claim{}).
		Where("claim_number LIKE ?", fmt.Sprintf("CLM-%d-%%", year)).
		Count(&cnt).Error
	return cnt, err
}

func (r *ClaimRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var cnt int64
	err := Conn(ctx, r.db).
		Model(&domain.Claim{}).
		Where("claim_number = ?", number).
		Count(&cnt).Error
	return cnt > 0, err
}

// Transition writes fields and the new status only if the claim is still in from.
// A concurrent writer that moved the claim first makes it return ErrStaleState; a move
// the lifecycle does not allow returns domain.ErrIllegalTransition without touching the row.
func (r *ClaimRepository) Transition(ctx context.Context, id int64, from, to domain.ClaimStatus, fields map[string]any) error {
	if !from.CanTransitionTo(to) {
		return domain.ErrIllegalTransition
	}

	updates := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		updates[k] = v
	}
	updates["status"] = to
	updates["updated_at"] = time.Now()

	tx := Conn(ctx, r.db).
		Model(&domain.Claim{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *ClaimRepository) List(ctx context.Context, f ClaimFilter) ([]domain.Claim, int64, error) {
	q := Conn(ctx, r.db).Model(&domain.Claim{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.HospitalID != 0 {
		q = q.Where("hospital_id = ?", f.HospitalID)
	}
	if f.PolicyID != 0 {
		q = q.Where("policy_id = ?", f.PolicyID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Claim
	err := q.Order("submitted_at DESC, id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
