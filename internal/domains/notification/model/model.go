package model

const (
	TaskTypeSendEmail = "email:send"

	TemplateBookingCreated   = "booking_created"
	TemplateStatusChanged    = "status_changed"
	TemplateCleanerAssigned  = "cleaner_assigned"
	TemplatePaymentConfirmed = "payment_confirmed"
	TemplateContact          = "contact"
)
