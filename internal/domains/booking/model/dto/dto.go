package dto

import (
	"slices"
	"time"

	"cleanbook/internal/domains/booking/draft"
	"cleanbook/internal/domains/booking/model"
	"cleanbook/internal/pricing"
	"cleanbook/shared"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	gModel "cleanbook/shared/model"
	"cleanbook/shared/timezone"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type QuoteRequest struct {
	ServiceID string   `json:"service_id" validate:"required,uuid"`
	Bedrooms  int      `json:"bedrooms"   validate:"min=0,max=20"`
	Bathrooms int      `json:"bathrooms"  validate:"min=0,max=20"`
	ExtraIDs  []string `json:"extra_ids"  validate:"omitempty,max=20,dive,uuid"`
	Frequency string   `json:"frequency"  validate:"omitempty,oneof=one_time weekly bi_weekly monthly"`
	PromoCode string   `json:"promo_code" validate:"omitempty,max=32"`
}

// UniqueExtraIDs drops repeated extras. Each extra is charged once.
func (q *QuoteRequest) UniqueExtraIDs() []string {
	ids := slices.Clone(q.ExtraIDs)
	slices.Sort(ids)

	return slices.Compact(ids)
}

func QuoteRequestFromDraft(d draft.Draft) QuoteRequest {
	return QuoteRequest{
		ServiceID: d.ServiceID,
		Bedrooms:  d.Bedrooms,
		Bathrooms: d.Bathrooms,
		ExtraIDs:  d.ExtraIDs,
		Frequency: d.Frequency,
		PromoCode: d.PromoCode,
	}
}

type QuoteResponse struct {
	pricing.Breakdown
	ServiceName string `json:"service_name"`
	PromoCode   string `json:"promo_code,omitempty"`
}

type CreateBookingRequest struct {
	QuoteRequest
	Date         string          `json:"date"          validate:"required,date"`
	Time         string          `json:"time"          validate:"required,clock"`
	Location     string          `json:"location"      validate:"required,max=100"`
	CleanerID    string          `json:"cleaner_id"    validate:"omitempty,uuid"`
	ContactEmail string          `json:"contact_email" validate:"omitempty,email,max=100"`
	Notes        string          `json:"notes"         validate:"omitempty,max=1000"`
	Total        decimal.Decimal `json:"total"         validate:"required"`
}

// ScheduledAt combines date and time in the application timezone.
func (c *CreateBookingRequest) ScheduledAt() (time.Time, error) {
	return timezone.ParseSlot(c.Date, c.Time)
}

func (c *CreateBookingRequest) ToModel(customerID, contactEmail string, breakdown pricing.Breakdown, promoID *string) (model.Booking, error) {
	date, err := time.ParseInLocation(constant.DateOnlyFormat, c.Date, time.UTC)
	if err != nil {
		return model.Booking{}, err
	}

	var cleanerID *string
	if c.CleanerID != constant.Empty {
		cleanerID = &c.CleanerID
	}

	frequency := c.Frequency
	if frequency == constant.Empty {
		frequency = string(pricing.FrequencyOneTime)
	}

	return model.Booking{
		ID:                uuid.NewString(),
		CustomerID:        customerID,
		ServiceID:         c.ServiceID,
		CleanerID:         cleanerID,
		Bedrooms:          c.Bedrooms,
		Bathrooms:         c.Bathrooms,
		ScheduledDate:     date,
		ScheduledTime:     c.Time,
		Location:          c.Location,
		Frequency:         frequency,
		PromoID:           promoID,
		ContactEmail:      contactEmail,
		Notes:             c.Notes,
		Subtotal:          breakdown.Subtotal,
		FrequencyDiscount: breakdown.FrequencyDiscount,
		PromoDiscount:     breakdown.PromoDiscount,
		ServiceFee:        breakdown.ServiceFee,
		Total:             breakdown.Total,
		Status:            model.StatusPending,
		PaymentStatus:     model.PaymentStatusUnpaid,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  customerID,
			ModifiedBy: customerID,
		},
	}, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed completed cancelled"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type AssignCleanerRequest struct {
	CleanerID string `json:"cleaner_id" validate:"required,uuid"`
}

type ExtraResponse struct {
	ExtraID string          `json:"extra_id"`
	Price   decimal.Decimal `json:"price"`
}

type BookingResponse struct {
	ID                 string          `json:"id"`
	CustomerID         string          `json:"customer_id"`
	ServiceID          string          `json:"service_id"`
	CleanerID          *string         `json:"cleaner_id"`
	Bedrooms           int             `json:"bedrooms"`
	Bathrooms          int             `json:"bathrooms"`
	Extras             []ExtraResponse `json:"extras,omitempty"`
	Date               string          `json:"date"`
	Time               string          `json:"time"`
	Location           string          `json:"location"`
	Frequency          string          `json:"frequency"`
	PromoID            *string         `json:"promo_id"`
	ContactEmail       string          `json:"contact_email"`
	Notes              string          `json:"notes"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	FrequencyDiscount  decimal.Decimal `json:"frequency_discount"`
	PromoDiscount      decimal.Decimal `json:"promo_discount"`
	ServiceFee         decimal.Decimal `json:"service_fee"`
	Total              decimal.Decimal `json:"total"`
	Status             string          `json:"status"`
	PaymentStatus      string          `json:"payment_status"`
	CancellationReason *string         `json:"cancellation_reason"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.CustomerID = model.CustomerID
	r.ServiceID = model.ServiceID
	r.CleanerID = model.CleanerID
	r.Bedrooms = model.Bedrooms
	r.Bathrooms = model.Bathrooms
	r.Date = model.ScheduledDate.Format(constant.DateOnlyFormat)
	r.Time = model.ScheduledTime
	r.Location = model.Location
	r.Frequency = model.Frequency
	r.PromoID = model.PromoID
	r.ContactEmail = model.ContactEmail
	r.Notes = model.Notes
	r.Subtotal = model.Subtotal
	r.FrequencyDiscount = model.FrequencyDiscount
	r.PromoDiscount = model.PromoDiscount
	r.ServiceFee = model.ServiceFee
	r.Total = model.Total
	r.Status = model.Status
	r.PaymentStatus = model.PaymentStatus
	r.CancellationReason = model.CancellationReason
	r.Metadata.FromModel(model.Metadata)
}

func (r *BookingResponse) WithExtras(extras []model.Extra) {
	r.Extras = make([]ExtraResponse, len(extras))
	for i, extra := range extras {
		r.Extras[i] = ExtraResponse{ExtraID: extra.ExtraID, Price: extra.Price}
	}
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}
