package model

import (
	"slices"
	"time"

	"cleanbook/shared/constant"
	"cleanbook/shared/model"

	"github.com/shopspring/decimal"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	ExtraTableName  = "booking_extras"
	ExtraEntityName = "booking_extra"

	CacheKeyGet = "booking:get"

	FieldID            = "id"
	FieldCustomerID    = "customer_id"
	FieldServiceID     = "service_id"
	FieldCleanerID     = "cleaner_id"
	FieldScheduledDate = "scheduled_date"
	FieldScheduledTime = "scheduled_time"
	FieldLocation      = "location"
	FieldFrequency     = "frequency"
	FieldPromoID       = "promo_id"
	FieldTotal         = "total"
	FieldStatus        = "status"
	FieldPaymentStatus = "payment_status"
	FieldBookingID     = "booking_id"
	FieldCancellation  = "cancellation_reason"
)

var SortableColumns = []string{FieldScheduledDate, FieldScheduledTime, FieldTotal, FieldStatus, constant.FieldCreatedAt}

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

type Booking struct {
	ID                 string          `db:"id"`
	CustomerID         string          `db:"customer_id"`
	ServiceID          string          `db:"service_id"`
	CleanerID          *string         `db:"cleaner_id"`
	Bedrooms           int             `db:"bedrooms"`
	Bathrooms          int             `db:"bathrooms"`
	ScheduledDate      time.Time       `db:"scheduled_date"`
	ScheduledTime      string          `db:"scheduled_time"`
	Location           string          `db:"location"`
	Frequency          string          `db:"frequency"`
	PromoID            *string         `db:"promo_id"`
	ContactEmail       string          `db:"contact_email"`
	Notes              string          `db:"notes"`
	Subtotal           decimal.Decimal `db:"subtotal"`
	FrequencyDiscount  decimal.Decimal `db:"frequency_discount"`
	PromoDiscount      decimal.Decimal `db:"promo_discount"`
	ServiceFee         decimal.Decimal `db:"service_fee"`
	Total              decimal.Decimal `db:"total"`
	Status             string          `db:"status"`
	PaymentStatus      string          `db:"payment_status"`
	CancellationReason *string         `db:"cancellation_reason"`
	model.Metadata
}

// Extra is a catalog extra attached to a booking, with its price at booking time.
type Extra struct {
	ID        string          `db:"id"`
	BookingID string          `db:"booking_id"`
	ExtraID   string          `db:"extra_id"`
	Price     decimal.Decimal `db:"price"`
}

// CanTransition reports whether status may move to next.
func CanTransition(status, next string) bool {
	return slices.Contains(transitions[status], next)
}

// AllowedFor reports whether role may move a booking into next. Ownership is checked by the caller.
func AllowedFor(role, next string) bool {
	switch role {
	case constant.RoleAdmin:
		return true
	case constant.RoleCleaner:
		return next == StatusConfirmed || next == StatusCompleted
	case constant.RoleCustomer:
		return next == StatusCancelled
	default:
		return false
	}
}

// Statuses lists every booking status.
func Statuses() []string {
	return []string{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}
}

// IsOpen reports whether the booking still occupies the cleaner's slot.
func (b Booking) IsOpen() bool {
	return b.Status != StatusCancelled
}

func (b Booking) AssignedTo(cleanerID string) bool {
	return b.CleanerID != nil && *b.CleanerID == cleanerID
}
