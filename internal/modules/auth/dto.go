package auth

import "healthinsure/internal/domain"

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserPublic struct {
	ID         int64  `json:"id"`
	Role       string `json:"role"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	HospitalID *int64 `json:"hospital_id,omitempty"`
}

func toPublic(u *domain.User) UserPublic {
	return UserPublic{
		ID:         u.ID,
		Role:       string(u.Role),
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		HospitalID: u.HospitalID,
	}
}
