package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records every booking/payment state transition and every webhook
// verification outcome, success or failure.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ActorID    *uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	EntityType string     `gorm:"size:30;not null;index" json:"entity_type"`
	EntityID   *uuid.UUID `gorm:"type:uuid;index" json:"entity_id"`
	Action     string     `gorm:"size:50;not null" json:"action"`
	FromStatus *string    `gorm:"size:20" json:"from_status"`
	ToStatus   *string    `gorm:"size:20" json:"to_status"`
	Reason     *string    `gorm:"type:text" json:"reason"`
	Metadata   *string    `gorm:"type:text" json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
}
