package dto

import (
	"time"

	"cleanbook/internal/domains/promo/model"
	"cleanbook/shared"
	gDto "cleanbook/shared/dto"
	gModel "cleanbook/shared/model"
	"cleanbook/shared/timezone"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreatePromoRequest struct {
	Code      string          `json:"code"       validate:"required,alphanum,min=3,max=32"`
	Kind      string          `json:"kind"       validate:"required,oneof=percent flat"`
	Value     decimal.Decimal `json:"value"      validate:"required"`
	ServiceID *string         `json:"service_id" validate:"omitempty,uuid"`
	StartsAt  *time.Time      `json:"starts_at"  validate:"omitempty"`
	ExpiresAt *time.Time      `json:"expires_at" validate:"omitempty"`
	MaxClaims int             `json:"max_claims" validate:"omitempty,min=0"`
	Active    *bool           `json:"active"     validate:"omitempty"`
}

func (c *CreatePromoRequest) ToModel(user string) model.Promo {
	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Promo{
		ID:        uuid.NewString(),
		Code:      model.NormalizeCode(c.Code),
		Kind:      c.Kind,
		Value:     c.Value,
		ServiceID: c.ServiceID,
		StartsAt:  c.StartsAt,
		ExpiresAt: c.ExpiresAt,
		MaxClaims: c.MaxClaims,
		Active:    active,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdatePromoRequest struct {
	Kind      string           `db:"kind"       json:"kind"       validate:"omitempty,oneof=percent flat"`
	Value     *decimal.Decimal `db:"value"      json:"value"      validate:"omitempty"`
	StartsAt  *time.Time       `db:"starts_at"  json:"starts_at"  validate:"omitempty"`
	ExpiresAt *time.Time       `db:"expires_at" json:"expires_at" validate:"omitempty"`
	MaxClaims *int             `db:"max_claims" json:"max_claims" validate:"omitempty,min=0"`
	Active    *bool            `db:"active"     json:"active"     validate:"omitempty"`
}

type ClaimRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

type PromoResponse struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	Kind       string          `json:"kind"`
	Value      decimal.Decimal `json:"value"`
	ServiceID  *string         `json:"service_id"`
	StartsAt   *time.Time      `json:"starts_at"`
	ExpiresAt  *time.Time      `json:"expires_at"`
	MaxClaims  int             `json:"max_claims"`
	ClaimCount int             `json:"claim_count"`
	Active     bool            `json:"active"`
	gDto.Metadata
}

func (r *PromoResponse) FromModel(model model.Promo) {
	r.ID = model.ID
	r.Code = model.Code
	r.Kind = model.Kind
	r.Value = model.Value
	r.ServiceID = model.ServiceID
	r.StartsAt = model.StartsAt
	r.ExpiresAt = model.ExpiresAt
	r.MaxClaims = model.MaxClaims
	r.ClaimCount = model.ClaimCount
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

type GetPromosResponse struct {
	Promos    []PromoResponse `json:"promos"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetPromosResponse) FromModels(models []model.Promo, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Promos = make([]PromoResponse, len(models))
	for i, mod := range models {
		r.Promos[i].FromModel(mod)
	}
}

type ClaimResponse struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	Kind       string          `json:"kind"`
	Value      decimal.Decimal `json:"value"`
	ServiceID  *string         `json:"service_id"`
	ExpiresAt  *time.Time      `json:"expires_at"`
	ClaimedAt  time.Time       `json:"claimed_at"`
	Redeemed   bool            `json:"redeemed"`
	BookingID  *string         `json:"booking_id,omitempty"`
	RedeemedAt *time.Time      `json:"redeemed_at,omitempty"`
}

func (r *ClaimResponse) FromModel(claim model.Claim, promo model.Promo) {
	r.ID = claim.ID
	r.Code = promo.Code
	r.Kind = promo.Kind
	r.Value = promo.Value
	r.ServiceID = promo.ServiceID
	r.ExpiresAt = promo.ExpiresAt
	r.ClaimedAt = claim.ClaimedAt
	r.Redeemed = claim.Redeemed()
	r.BookingID = claim.BookingID
	r.RedeemedAt = claim.RedeemedAt
}

type GetClaimsResponse struct {
	Claims []ClaimResponse `json:"claims"`
}
