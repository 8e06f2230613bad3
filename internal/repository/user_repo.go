package repository

import (
	"context"
	"strings"
	"time"

	"healthinsure/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userModel struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	Email        string    `gorm:"column:email"`
	PasswordHash string    `gorm:"column:password_hash"`
	Name         string    `gorm:"column:name"`
	Phone        *string   `gorm:"column:phone"`
	Role         string    `gorm:"column:role"`
	HospitalID   *int64    `gorm:"column:hospital_id"`
	IsActive     bool      `gorm:"column:is_active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func toDomainUser(m userModel) *domain.User {
	var phone string
	if m.Phone != nil {
		phone = *m.Phone
	}

	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Name:         m.Name,
		Phone:        phone,
		Role:         domain.UserRole(m.Role),
		HospitalID:   m.HospitalID,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toUserModel(u *domain.User) userModel {
	email := strings.TrimSpace(strings.ToLower(u.Email))

	var phone *string
	if u.Phone != "" {
		v := u.Phone
		phone = &v
	}

	return userModel{
		ID:           u.ID,
		Email:        email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Phone:        phone,
		Role:         string(u.Role),
		HospitalID:   u.HospitalID,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	tx := Conn(ctx, r.db).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*u = *toDomainUser(m)
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	tx := Conn(ctx, r.db).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	tx := Conn(ctx, r.db).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var cnt int64
	err := Conn(ctx, r.db).
		Model(&userModel{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&cnt).Error
	return cnt > 0, err
}

// ListByRole returns active users holding role, oldest first.
func (r *UserRepository) ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	var rows []userModel
	err := Conn(ctx, r.db).
		Where("role = ? AND is_active = ?", string(role), true).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainUsers(rows), nil
}

// ListHospitalStaff returns active hospital-staff users attached to hospitalID.
func (r *UserRepository) ListHospitalStaff(ctx context.Context, hospitalID int64) ([]domain.User, error) {
	var rows []userModel
	err := Conn(ctx, r.db).
		Where("role = ? AND hospital_id = ? AND is_active = ?", string(domain.RoleHospitalStaff), hospitalID, true).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainUsers(rows), nil
}

func toDomainUsers(rows []userModel) []domain.User {
	out := make([]domain.User, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainUser(m))
	}
	return out
}
