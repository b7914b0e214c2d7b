package validator

import (
	"agritrack_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// Custom rules for the messaging domain enums. Registered once in New.
func registerCustomRules(v *validator.Validate) {
	// Registration only fails for empty tag names, so errors here are
	// programmer mistakes; panic at startup.
	must(v.RegisterValidation("notification_kind", validateNotificationKind))
	must(v.RegisterValidation("notification_priority", validateNotificationPriority))
	must(v.RegisterValidation("recipient_type", validateRecipientType))
}

func must(err error) {
	if err != nil {
		panic("validator: failed to register custom rule: " + err.Error())
	}
}

func validateNotificationKind(fl validator.FieldLevel) bool {
	return models.NotificationKind(fl.Field().String()).Valid()
}

func validateNotificationPriority(fl validator.FieldLevel) bool {
	return models.NotificationPriority(fl.Field().String()).Valid()
}

func validateRecipientType(fl validator.FieldLevel) bool {
	return models.BroadcastRecipientType(fl.Field().String()).Valid()
}
