package dto

import (
	"cleanbook/internal/domains/payment/model"
	"cleanbook/shared"
	gDto "cleanbook/shared/dto"

	"github.com/shopspring/decimal"
)

type CreateIntentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

type IntentResponse struct {
	IntentID     string          `json:"intent_id"`
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

type VerifyRequest struct {
	IntentID  string `json:"intent_id"  validate:"required,max=255"`
	BookingID string `json:"booking_id" validate:"omitempty,uuid"`
}

type PaymentResponse struct {
	ID        string          `json:"id"`
	BookingID string          `json:"booking_id"`
	IntentID  string          `json:"intent_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	gDto.Metadata
}

func (r *PaymentResponse) FromModel(model model.Payment) {
	r.ID = model.ID
	r.BookingID = model.BookingID
	r.IntentID = model.IntentID
	r.Amount = model.Amount
	r.Currency = model.Currency
	r.Status = model.Status
	r.Metadata.FromModel(model.Metadata)
}

type GetPaymentsResponse struct {
	Payments  []PaymentResponse `json:"payments"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetPaymentsResponse) FromModels(models []model.Payment, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Payments = make([]PaymentResponse, len(models))
	for i, mod := range models {
		r.Payments[i].FromModel(mod)
	}
}
