package services

import (
	"context"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/events"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

// withTx runs fn inside a database transaction
func withTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// validateRequest runs struct tag validation and returns ValidationErrors on failure
func validateRequest(v *validator.Validator, req interface{}) error {
	if req == nil {
		return badRequest("request body is required")
	}
	return v.Validate(req)
}

// publishEvent publishes best-effort; a broker outage never fails the request
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, topic string, data interface{}) {
	if publisher == nil {
		return
	}
	event := events.NewEvent(topic, data)
	if err := publisher.Publish(ctx, topic, event); err != nil {
		logger.Warn("Failed to publish event", "topic", topic, "event_id", event.ID, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
