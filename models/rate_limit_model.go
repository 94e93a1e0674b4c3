package models

import "time"

// RateLimitCounter lives in the shared store so limits hold across multiple
// stateless API instances. Expired rows are purged by a cron job.
type RateLimitCounter struct {
	Key       string    `gorm:"size:255;primary_key"`
	Count     int       `gorm:"not null;default:0"`
	ExpiresAt time.Time `gorm:"not null;index"`
}
