package middleware

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/mkamau77/safari_tours/database"
	"github.com/mkamau77/safari_tours/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RateLimit caps how often a user may perform an action per window. Counters
// live in the database, not in process memory, so the limit holds when the
// API runs as several stateless instances behind a load balancer.
func RateLimit(action string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Locals("user").(*jwt.Token)
		claims := token.Claims.(jwt.MapClaims)
		userID := claims["user_id"].(string)

		windowStart := time.Now().Unix() / int64(window.Seconds())
		key := fmt.Sprintf("%s:%s:%d", action, userID, windowStart)

		counter := models.RateLimitCounter{
			Key:       key,
			Count:     1,
			ExpiresAt: time.Now().Add(window * 2),
		}
		err := database.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("rate_limit_counters.count + 1")}),
		}).Create(&counter).Error
		if err == nil {
			err = database.DB.First(&counter, "key = ?", key).Error
		}
		if err != nil {
			// Fail open: a broken counter store should not take bookings down.
			log.Printf("🔥 Rate limit store error for %s: %v", key, err)
			return c.Next()
		}

		if counter.Count > limit {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please slow down and try again shortly",
			})
		}
		return c.Next()
	}
}
