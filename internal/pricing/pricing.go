// Package pricing computes booking totals from catalog prices, frequency and promo discounts.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyOneTime  Frequency = "one_time"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiWeekly Frequency = "bi_weekly"
	FrequencyMonthly  Frequency = "monthly"
)

type PromoKind string

const (
	PromoKindPercent PromoKind = "percent"
	PromoKindFlat    PromoKind = "flat"
)

const centPlaces = 2

var (
	ErrNegativeQuantity   = errors.New("quantities, prices and rates must not be negative")
	ErrUnknownFrequency   = errors.New("unknown booking frequency")
	ErrInvalidPromo       = errors.New("promo value is out of range")
	ErrPromoNotApplicable = errors.New("promo does not apply to this service")
)

var (
	hundred        = decimal.NewFromInt(100)
	frequencyRates = map[Frequency]decimal.Decimal{
		FrequencyOneTime:  decimal.Zero,
		FrequencyWeekly:   decimal.RequireFromString("0.15"),
		FrequencyBiWeekly: decimal.RequireFromString("0.10"),
		FrequencyMonthly:  decimal.RequireFromString("0.05"),
	}
)

// Promo is the discount part of a promo code. An empty ServiceID applies to every service.
type Promo struct {
	Kind      PromoKind
	Value     decimal.Decimal
	ServiceID string
}

type Input struct {
	ServiceID      string
	BasePrice      decimal.Decimal
	BedroomRate    decimal.Decimal
	BathroomRate   decimal.Decimal
	Bedrooms       int
	Bathrooms      int
	Extras         []decimal.Decimal
	Frequency      Frequency
	Promo          *Promo
	ServiceFeeRate decimal.Decimal
}

type Breakdown struct {
	Subtotal          decimal.Decimal `json:"subtotal"`
	FrequencyDiscount decimal.Decimal `json:"frequency_discount"`
	PromoDiscount     decimal.Decimal `json:"promo_discount"`
	ServiceFee        decimal.Decimal `json:"service_fee"`
	Total             decimal.Decimal `json:"total"`
}

// Frequencies lists the supported frequencies, cheapest discount first.
func Frequencies() []Frequency {
	return []Frequency{FrequencyOneTime, FrequencyMonthly, FrequencyBiWeekly, FrequencyWeekly}
}

// FrequencyRate returns the discount rate of f. An empty frequency is a one-time booking.
func FrequencyRate(f Frequency) (decimal.Decimal, error) {
	if f == "" {
		f = FrequencyOneTime
	}

	rate, ok := frequencyRates[f]
	if !ok {
		return decimal.Zero, ErrUnknownFrequency
	}

	return rate, nil
}

// Calculate prices a booking. Discounts stack in a fixed order: frequency, then promo, then the
// service fee on what is left. Each component is rounded to cents and Total is their sum.
func Calculate(in Input) (Breakdown, error) {
	var res Breakdown

	if err := in.validate(); err != nil {
		return res, err
	}

	freqRate, err := FrequencyRate(in.Frequency)
	if err != nil {
		return res, err
	}

	subtotal := in.BasePrice.
		Add(in.BedroomRate.Mul(decimal.NewFromInt(int64(in.Bedrooms)))).
		Add(in.BathroomRate.Mul(decimal.NewFromInt(int64(in.Bathrooms))))

	for _, extra := range in.Extras {
		subtotal = subtotal.Add(extra)
	}

	res.Subtotal = round(subtotal)
	res.FrequencyDiscount = round(res.Subtotal.Mul(freqRate))
	afterFrequency := res.Subtotal.Sub(res.FrequencyDiscount)

	res.PromoDiscount = decimal.Zero

	if in.Promo != nil {
		switch in.Promo.Kind {
		case PromoKindPercent:
			res.PromoDiscount = round(afterFrequency.Mul(in.Promo.Value).Div(hundred))
		case PromoKindFlat:
			res.PromoDiscount = round(decimal.Min(in.Promo.Value, afterFrequency))
		}
	}

	discounted := afterFrequency.Sub(res.PromoDiscount)
	res.ServiceFee = round(discounted.Mul(in.ServiceFeeRate))
	res.Total = discounted.Add(res.ServiceFee)

	return res, nil
}

// Matches reports whether a client-computed total agrees with the server total within tolerance.
func Matches(client, server, tolerance decimal.Decimal) bool {
	return client.Sub(server).Abs().LessThanOrEqual(tolerance)
}

// ToCents converts an amount to the minor currency unit used by the payment gateway.
func ToCents(amount decimal.Decimal) int64 {
	return round(amount).Shift(centPlaces).IntPart()
}

// FromCents is the inverse of ToCents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -centPlaces)
}

func (in Input) validate() error {
	if in.Bedrooms < 0 || in.Bathrooms < 0 {
		return ErrNegativeQuantity
	}

	for _, amount := range []decimal.Decimal{in.BasePrice, in.BedroomRate, in.BathroomRate, in.ServiceFeeRate} {
		if amount.IsNegative() {
			return ErrNegativeQuantity
		}
	}

	for _, extra := range in.Extras {
		if extra.IsNegative() {
			return ErrNegativeQuantity
		}
	}

	if in.Promo == nil {
		return nil
	}

	if in.Promo.ServiceID != "" && in.Promo.ServiceID != in.ServiceID {
		return ErrPromoNotApplicable
	}

	return ValidatePromo(in.Promo.Kind, in.Promo.Value)
}

// ValidatePromo checks that a percent promo lies in (0, 100] and a flat promo is positive.
func ValidatePromo(kind PromoKind, value decimal.Decimal) error {
	switch kind {
	case PromoKindPercent:
		if !value.IsPositive() || value.GreaterThan(hundred) {
			return ErrInvalidPromo
		}
	case PromoKindFlat:
		if !value.IsPositive() {
			return ErrInvalidPromo
		}
	default:
		return ErrInvalidPromo
	}

	return nil
}

// round is half away from zero.
func round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(centPlaces)
}
