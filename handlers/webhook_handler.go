package handlers

import (
	"errors"
	"log"

	config "github.com/mkamau77/safari_tours/configs"
	"github.com/mkamau77/safari_tours/database"
	"github.com/mkamau77/safari_tours/models"
	"github.com/mkamau77/safari_tours/payments"
	"github.com/mkamau77/safari_tours/services"
	"github.com/gofiber/fiber/v2"
)

// HandleStripeWebhook verifies and applies a stripe event. The raw body is
// used for signature verification before any JSON parsing.
func HandleStripeWebhook(c *fiber.Ctx) error {
	secret := config.Config("STRIPE_WEBHOOK_SECRET")
	if secret == "" {
		log.Println("🔥 STRIPE_WEBHOOK_SECRET is not configured")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Webhook not configured"})
	}

	raw := c.Body()
	if err := payments.VerifyStripeSignature(raw, c.Get("Stripe-Signature"), secret); err != nil {
		services.RecordSecurityEvent(database.DB, models.GatewayStripe, "rejected", err.Error())
		log.Printf("⚠️ Rejected stripe webhook: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid signature"})
	}
	services.RecordSecurityEvent(database.DB, models.GatewayStripe, "verified", "signature ok")

	ref, kind, err := payments.ParseStripeEvent(raw)
	if err != nil {
		// A verified but unparsable event cannot be retried into shape.
		log.Printf("Dropping malformed stripe event: %v", err)
		return c.JSON(fiber.Map{"message": "Acknowledged"})
	}

	return applyWebhookEvent(c, models.GatewayStripe, ref, kind, raw)
}

// HandleFlutterwaveWebhook verifies the verif-hash HMAC and applies the event.
func HandleFlutterwaveWebhook(c *fiber.Ctx) error {
	secret := config.Config("FLW_WEBHOOK_SECRET")
	if secret == "" {
		log.Println("🔥 FLW_WEBHOOK_SECRET is not configured")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Webhook not configured"})
	}

	raw := c.Body()
	if err := payments.VerifyFlutterwaveSignature(raw, c.Get("verif-hash"), secret); err != nil {
		services.RecordSecurityEvent(database.DB, models.GatewayFlutterwave, "rejected", err.Error())
		log.Printf("⚠️ Rejected flutterwave webhook: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid signature"})
	}
	services.RecordSecurityEvent(database.DB, models.GatewayFlutterwave, "verified", "signature ok")

	ref, kind, err := payments.ParseFlutterwaveEvent(raw)
	if err != nil {
		log.Printf("Dropping malformed flutterwave event: %v", err)
		return c.JSON(fiber.Map{"message": "Acknowledged"})
	}

	return applyWebhookEvent(c, models.GatewayFlutterwave, ref, kind, raw)
}

func applyWebhookEvent(c *fiber.Ctx, gateway, ref string, kind payments.EventKind, raw []byte) error {
	err := services.NewReconcileService(database.DB).Reconcile(gateway, ref, kind, raw)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			// Retrying cannot make an unknown reference findable, so
			// acknowledge and move on.
			log.Printf("Webhook for unknown %s reference %s, acknowledging", gateway, ref)
			return c.JSON(fiber.Map{"message": "Acknowledged"})
		}
		// Store trouble: a non-2xx makes the gateway redeliver once the
		// store is back.
		log.Printf("🔥 CRITICAL: failed to reconcile %s event for %s: %v", gateway, ref, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}
	return c.JSON(fiber.Map{"message": "Webhook processed"})
}
