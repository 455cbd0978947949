package model

import (
	"cleanbook/shared/constant"
	"cleanbook/shared/model"

	"github.com/shopspring/decimal"
)

const (
	TableName  = "payments"
	EntityName = "payment"

	FieldID        = "id"
	FieldBookingID = "booking_id"
	FieldIntentID  = "intent_id"
	FieldStatus    = "status"
	FieldAmount    = "amount"

	MetadataBookingID = "booking_id"
)

var SortableColumns = []string{FieldAmount, FieldStatus, constant.FieldCreatedAt}

// Payment records a verified gateway payment. IntentID is unique, so a payment is recorded once.
type Payment struct {
	ID        string          `db:"id"`
	BookingID string          `db:"booking_id"`
	IntentID  string          `db:"intent_id"`
	Amount    decimal.Decimal `db:"amount"`
	Currency  string          `db:"currency"`
	Status    string          `db:"status"`
	model.Metadata
}
