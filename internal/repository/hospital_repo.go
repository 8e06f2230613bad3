package repository

import (
	"context"

	"healthinsure/internal/domain"

	"gorm.io/gorm"
)

type HospitalRepository struct {
	db *gorm.DB
}

func NewHospitalRepository(db *gorm.DB) *HospitalRepository {
	return &HospitalRepository{db: db}
}

func (r *HospitalRepository) Create(ctx context.Context, h *domain.Hospital) error {
	return Conn(ctx, r.db).Create(h).Error
}

func (r *HospitalRepository) GetByID(ctx context.Context, id int64) (*domain.Hospital, error) {
	var h domain.Hospital
	if err := Conn(ctx, r.db).First(&h, id).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, p *domain.InsurancePlan) error {
	return Conn(ctx, r.db).Create(p).Error
}

func (r *PlanRepository) GetByID(ctx context.Context, id int64) (*domain.InsurancePlan, error) {
	var p domain.InsurancePlan
	if err := Conn(ctx, r.db).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
