// Package draft holds the in-progress booking a customer builds step by step before submitting it.
package draft

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"cleanbook/internal/pricing"
	"cleanbook/shared/constant"
)

const (
	StepService  = "service"
	StepDetails  = "details"
	StepSchedule = "schedule"
	StepCleaner  = "cleaner"
	StepPayment  = "payment"
)

var (
	ErrUnknownStep = errors.New("unknown booking step")

	steps = []string{StepService, StepDetails, StepSchedule, StepCleaner, StepPayment}
)

// IncompleteError lists the fields a step still needs.
type IncompleteError struct {
	Step   string
	Fields []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("step %s is incomplete: %s required", e.Step, strings.Join(e.Fields, ", "))
}

type Draft struct {
	ServiceID    string             `json:"service_id"    validate:"omitempty,uuid"`
	ServiceName  string             `json:"service_name"  validate:"omitempty,max=100"`
	Bedrooms     int                `json:"bedrooms"      validate:"min=0,max=20"`
	Bathrooms    int                `json:"bathrooms"     validate:"min=0,max=20"`
	ExtraIDs     []string           `json:"extra_ids"     validate:"omitempty,max=20,dive,uuid"`
	Date         string             `json:"date"          validate:"omitempty,date"`
	Time         string             `json:"time"          validate:"omitempty,clock"`
	Location     string             `json:"location"      validate:"omitempty,max=100"`
	Frequency    string             `json:"frequency"     validate:"omitempty,oneof=one_time weekly bi_weekly monthly"`
	CleanerID    string             `json:"cleaner_id"    validate:"omitempty,uuid"`
	PromoCode    string             `json:"promo_code"    validate:"omitempty,max=32"`
	ContactEmail string             `json:"contact_email" validate:"omitempty,email"`
	Notes        string             `json:"notes"         validate:"omitempty,max=1000"`
	Quote        *pricing.Breakdown `json:"quote,omitempty"`
	Step         string             `json:"step"          validate:"omitempty,oneof=service details schedule cleaner payment"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Steps lists the wizard steps in navigation order.
func Steps() []string {
	return slices.Clone(steps)
}

// Validate checks the required fields of every step up to and including step.
func (d Draft) Validate(step string) error {
	idx := slices.Index(steps, step)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}

	for _, current := range steps[:idx+1] {
		if missing := d.missing(current); len(missing) > 0 {
			return &IncompleteError{Step: current, Fields: missing}
		}
	}

	return nil
}

func (d Draft) missing(step string) []string {
	var fields []string

	switch step {
	case StepService:
		if d.ServiceID == constant.Empty {
			fields = append(fields, "service_id")
		}
	case StepDetails:
		if d.Bedrooms < 0 {
			fields = append(fields, "bedrooms")
		}

		if d.Bathrooms < 0 {
			fields = append(fields, "bathrooms")
		}

		if _, err := pricing.FrequencyRate(pricing.Frequency(d.Frequency)); err != nil {
			fields = append(fields, "frequency")
		}
	case StepSchedule:
		if _, err := time.Parse(constant.DateOnlyFormat, d.Date); err != nil {
			fields = append(fields, "date")
		}

		if _, err := time.Parse(constant.ClockFormat, d.Time); err != nil {
			fields = append(fields, "time")
		}

		if strings.TrimSpace(d.Location) == constant.Empty {
			fields = append(fields, "location")
		}
	case StepCleaner:
		// no cleaner means any available one; an admin assigns it later
		if d.CleanerID != constant.Empty && strings.TrimSpace(d.CleanerID) == constant.Empty {
			fields = append(fields, "cleaner_id")
		}
	case StepPayment:
		if d.ContactEmail == constant.Empty {
			fields = append(fields, "contact_email")
		}
	}

	return fields
}
