package domain

import "time"

type Hospital struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	City      string    `json:"city"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone,omitempty"`
	IsNetwork bool      `json:"is_network" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type InsurancePlan struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name" gorm:"not null"`
	Description    string    `json:"description,omitempty" gorm:"type:text"`
	CoverageLimit  float64   `json:"coverage_limit" gorm:"not null"`
	PremiumAmount  float64   `json:"premium_amount" gorm:"not null"`
	DurationMonths int       `json:"duration_months" gorm:"not null;default:12"`
	IsActive       bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
