package domain

import "time"

type UserRole string

const (
	RoleAdmin          UserRole = "admin"
	RoleInsuranceAgent UserRole = "insurance_agent"
	RoleClaimsOfficer  UserRole = "claims_officer"
	RoleHospitalStaff  UserRole = "hospital_staff"
	RolePolicyHolder   UserRole = "policy_holder"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleInsuranceAgent, RoleClaimsOfficer, RoleHospitalStaff, RolePolicyHolder:
		return true
	}
	return false
}

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null" validate:"required,email"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name" gorm:"not null"`
	Phone        string    `json:"phone,omitempty"`
	Role         UserRole  `json:"role" gorm:"type:varchar(32);not null;index"`
	HospitalID   *int64    `json:"hospital_id,omitempty" gorm:"index"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID int64
	Role   UserRole
}

func (a Actor) Is(roles ...UserRole) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
