// Package event describes the booking lifecycle messages published to Kafka.
package event

import (
	"context"
	"time"

	"cleanbook/infras/kafka"
	"cleanbook/internal/domains/booking/model"
	"cleanbook/shared/constant"
	"cleanbook/shared/timezone"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	TypeCreated          = "booking.created"
	TypeStatusChanged    = "booking.status_changed"
	TypeCleanerAssigned  = "booking.cleaner_assigned"
	TypePaymentConfirmed = "booking.payment_confirmed"
)

type Event struct {
	Type           string          `json:"type"`
	BookingID      string          `json:"booking_id"`
	CustomerID     string          `json:"customer_id"`
	CleanerID      string          `json:"cleaner_id,omitempty"`
	ContactEmail   string          `json:"contact_email"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	PaymentStatus  string          `json:"payment_status"`
	ScheduledDate  string          `json:"scheduled_date"`
	ScheduledTime  string          `json:"scheduled_time"`
	Location       string          `json:"location"`
	Total          decimal.Decimal `json:"total"`
	Reason         string          `json:"reason,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func New(eventType string, booking model.Booking) Event {
	evt := Event{
		Type:          eventType,
		BookingID:     booking.ID,
		CustomerID:    booking.CustomerID,
		ContactEmail:  booking.ContactEmail,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		ScheduledDate: booking.ScheduledDate.Format(constant.DateOnlyFormat),
		ScheduledTime: booking.ScheduledTime,
		Location:      booking.Location,
		Total:         booking.Total,
		OccurredAt:    timezone.Now(),
	}

	if booking.CleanerID != nil {
		evt.CleanerID = *booking.CleanerID
	}

	if booking.CancellationReason != nil {
		evt.Reason = *booking.CancellationReason
	}

	return evt
}

// Publish sends evt in the background keyed by booking so a booking's events stay ordered.
func Publish(ctx context.Context, client kafka.Client, topic string, evt Event) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := client.SendMessages(c, topic, kafka.Message{Key: evt.BookingID, Value: evt}); err != nil {
			log.Error().Err(err).Str("booking_id", evt.BookingID).Str("type", evt.Type).Msg("failed to publish booking event")
		}
	}()
}
