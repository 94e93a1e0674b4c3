package models

import (
	"time"

	"github.com/google/uuid"
)

type Tour struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Slug         string    `gorm:"size:255;not null;unique" json:"slug"`
	Description  string    `gorm:"type:text" json:"description"`
	Location     string    `gorm:"size:255" json:"location"`
	DurationDays int       `gorm:"not null" json:"duration_days"`

	PricePerPerson float64 `gorm:"type:numeric(10,2);not null" json:"price_per_person"`
	Currency       string  `gorm:"size:3;not null;default:'USD'" json:"currency"`
	MaxGroupSize   int     `gorm:"not null" json:"max_group_size"`
	IsActive       bool    `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
