package model

import (
	"cleanbook/shared/constant"
	"cleanbook/shared/model"

	"github.com/shopspring/decimal"
)

const (
	ServiceTableName  = "services"
	ServiceEntityName = "service"

	ExtraTableName  = "extras"
	ExtraEntityName = "extra"

	FieldID              = "id"
	FieldName            = "name"
	FieldDescription     = "description"
	FieldBasePrice       = "base_price"
	FieldBedroomRate     = "bedroom_rate"
	FieldBathroomRate    = "bathroom_rate"
	FieldDurationMinutes = "duration_minutes"
	FieldPrice           = "price"
	FieldImage           = "image"
	FieldActive          = "active"
)

// ServiceSortableColumns and ExtraSortableColumns may be passed as sort_by on the list endpoints.
var (
	ServiceSortableColumns = []string{FieldName, FieldBasePrice, FieldDurationMinutes, constant.FieldCreatedAt}
	ExtraSortableColumns   = []string{FieldName, FieldPrice, constant.FieldCreatedAt}
)

// Service is a bookable cleaning service. Its price is BasePrice plus per-room rates.
type Service struct {
	ID              string          `db:"id"`
	Name            string          `db:"name"`
	Description     string          `db:"description"`
	BasePrice       decimal.Decimal `db:"base_price"`
	BedroomRate     decimal.Decimal `db:"bedroom_rate"`
	BathroomRate    decimal.Decimal `db:"bathroom_rate"`
	DurationMinutes int             `db:"duration_minutes"`
	Image           string          `db:"image"`
	Active          bool            `db:"active"`
	model.Metadata
}

// Extra is an add-on priced individually on top of a service.
type Extra struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Active      bool            `db:"active"`
	model.Metadata
}
