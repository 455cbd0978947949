package model

import (
	"errors"
	"strings"
	"time"

	"cleanbook/internal/pricing"
	"cleanbook/shared/constant"
	"cleanbook/shared/model"

	"github.com/shopspring/decimal"
)

const (
	TableName  = "promos"
	EntityName = "promo"

	ClaimTableName  = "promo_claims"
	ClaimEntityName = "promo_claim"

	FieldID         = "id"
	FieldCode       = "code"
	FieldKind       = "kind"
	FieldValue      = "value"
	FieldServiceID  = "service_id"
	FieldStartsAt   = "starts_at"
	FieldExpiresAt  = "expires_at"
	FieldMaxClaims  = "max_claims"
	FieldClaimCount = "claim_count"
	FieldActive     = "active"
	FieldPromoID    = "promo_id"
	FieldUserID     = "user_id"
	FieldBookingID  = "booking_id"
	FieldRedeemedAt = "redeemed_at"
)

var SortableColumns = []string{FieldCode, FieldValue, FieldStartsAt, FieldExpiresAt, FieldClaimCount, constant.FieldCreatedAt}

var (
	ErrInactive   = errors.New("promo is not active")
	ErrNotStarted = errors.New("promo has not started yet")
	ErrExpired    = errors.New("promo has expired")
	ErrExhausted  = errors.New("promo has reached its claim limit")
)

type Promo struct {
	ID         string          `db:"id"`
	Code       string          `db:"code"`
	Kind       string          `db:"kind"`
	Value      decimal.Decimal `db:"value"`
	ServiceID  *string         `db:"service_id"`
	StartsAt   *time.Time      `db:"starts_at"`
	ExpiresAt  *time.Time      `db:"expires_at"`
	MaxClaims  int             `db:"max_claims"`
	ClaimCount int             `db:"claim_count"`
	Active     bool            `db:"active"`
	model.Metadata
}

// Claim records that a user holds a promo. BookingID is set once the promo is redeemed.
type Claim struct {
	ID         string     `db:"id"`
	PromoID    string     `db:"promo_id"`
	UserID     string     `db:"user_id"`
	BookingID  *string    `db:"booking_id"`
	ClaimedAt  time.Time  `db:"claimed_at"`
	RedeemedAt *time.Time `db:"redeemed_at"`
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Available checks the promo can be used at now. A zero MaxClaims means unlimited.
func (p Promo) Available(now time.Time) error {
	switch {
	case !p.Active:
		return ErrInactive
	case p.StartsAt != nil && now.Before(*p.StartsAt):
		return ErrNotStarted
	case p.ExpiresAt != nil && !now.Before(*p.ExpiresAt):
		return ErrExpired
	}

	return nil
}

func (p Promo) Exhausted() bool {
	return p.MaxClaims > 0 && p.ClaimCount >= p.MaxClaims
}

func (p Promo) ToPricing() *pricing.Promo {
	serviceID := ""
	if p.ServiceID != nil {
		serviceID = *p.ServiceID
	}

	return &pricing.Promo{
		Kind:      pricing.PromoKind(p.Kind),
		Value:     p.Value,
		ServiceID: serviceID,
	}
}

func (c Claim) Redeemed() bool {
	return c.BookingID != nil
}
