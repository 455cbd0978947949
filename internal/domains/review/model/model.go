package model

import (
	"cleanbook/shared/model"
)

const (
	TableName  = "reviews"
	EntityName = "review"

	FieldID         = "id"
	FieldBookingID  = "booking_id"
	FieldCustomerID = "customer_id"
	FieldCleanerID  = "cleaner_id"
	FieldRating     = "rating"
	FieldCreatedAt  = "created_at"

	MinRating = 1
	MaxRating = 5
)

var SortableColumns = []string{FieldRating, FieldCreatedAt}

// Review is a customer's rating of the cleaner on one completed booking.
type Review struct {
	ID         string `db:"id"`
	BookingID  string `db:"booking_id"`
	CustomerID string `db:"customer_id"`
	CleanerID  string `db:"cleaner_id"`
	Rating     int    `db:"rating"`
	Comment    string `db:"comment"`
	model.Metadata
}
