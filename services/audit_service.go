package services

import (
	"log"

	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/models"
	"gorm.io/gorm"
)

// RecordTransition appends a state-transition record to the audit trail.
// Called inside the transaction that performs the transition, so the record
// and the transition commit together.
func RecordTransition(tx *gorm.DB, actorID *uuid.UUID, entityType string, entityID uuid.UUID, from, to string, reason *string) error {
	entry := models.AuditLog{
		ActorID:    actorID,
		EntityType: entityType,
		EntityID:   &entityID,
		Action:     "status_transition",
		FromStatus: &from,
		ToStatus:   &to,
		Reason:     reason,
	}
	return tx.Create(&entry).Error
}

// RecordSecurityEvent logs a webhook verification outcome. Failures here are
// only logged; a broken audit write must not change the webhook response.
func RecordSecurityEvent(db *gorm.DB, gateway, outcome string, detail string) {
	meta := gateway + ": " + detail
	entry := models.AuditLog{
		EntityType: "webhook",
		Action:     "signature_" + outcome,
		Metadata:   &meta,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("🔥 Failed to record webhook security event: %v", err)
	}
}
