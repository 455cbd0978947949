package dto

import (
	"mime/multipart"

	"cleanbook/internal/domains/catalog/model"
	"cleanbook/shared"
	gDto "cleanbook/shared/dto"
	gModel "cleanbook/shared/model"
	"cleanbook/shared/timezone"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateServiceRequest struct {
	Name            string                `json:"name"             validate:"required,max=100"`
	Description     string                `json:"description"      validate:"omitempty,max=2000"`
	BasePrice       decimal.Decimal       `json:"base_price"       validate:"required"`
	BedroomRate     decimal.Decimal       `json:"bedroom_rate"`
	BathroomRate    decimal.Decimal       `json:"bathroom_rate"`
	DurationMinutes int                   `json:"duration_minutes" validate:"required,min=15,max=1440"`
	Image           *multipart.FileHeader `json:"image"            validate:"omitempty,mimetypes=image/png image/jpg image/jpeg image/webp,maxfilesize=2"`
	ImageFile       multipart.File        `json:"-"`
	Active          *bool                 `json:"active"           validate:"omitempty"`
}

func (c *CreateServiceRequest) ToModel(user string, imageURL string) model.Service {
	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Service{
		ID:              uuid.NewString(),
		Name:            c.Name,
		Description:     c.Description,
		BasePrice:       c.BasePrice,
		BedroomRate:     c.BedroomRate,
		BathroomRate:    c.BathroomRate,
		DurationMinutes: c.DurationMinutes,
		Image:           imageURL,
		Active:          active,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// HasNegativePrice rejects prices the pricing function would refuse later.
func (c *CreateServiceRequest) HasNegativePrice() bool {
	return c.BasePrice.IsNegative() || c.BedroomRate.IsNegative() || c.BathroomRate.IsNegative()
}

type UpdateServiceRequest struct {
	Name            string                `db:"name"             json:"name"             validate:"omitempty,max=100"`
	Description     string                `db:"description"      json:"description"      validate:"omitempty,max=2000"`
	BasePrice       *decimal.Decimal      `db:"base_price"       json:"base_price"`
	BedroomRate     *decimal.Decimal      `db:"bedroom_rate"     json:"bedroom_rate"`
	BathroomRate    *decimal.Decimal      `db:"bathroom_rate"    json:"bathroom_rate"`
	DurationMinutes *int                  `db:"duration_minutes" json:"duration_minutes" validate:"omitempty,min=15,max=1440"`
	Image           *multipart.FileHeader `json:"image"          validate:"omitempty,mimetypes=image/png image/jpg image/jpeg image/webp,maxfilesize=2"`
	ImageFile       multipart.File        `json:"-"`
	Active          *bool                 `db:"active"           json:"active"           validate:"omitempty"`
}

func (u *UpdateServiceRequest) HasNegativePrice() bool {
	for _, price := range []*decimal.Decimal{u.BasePrice, u.BedroomRate, u.BathroomRate} {
		if price != nil && price.IsNegative() {
			return true
		}
	}

	return false
}

type ServiceResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	BasePrice       decimal.Decimal `json:"base_price"`
	BedroomRate     decimal.Decimal `json:"bedroom_rate"`
	BathroomRate    decimal.Decimal `json:"bathroom_rate"`
	DurationMinutes int             `json:"duration_minutes"`
	Image           string          `json:"image"`
	Active          bool            `json:"active"`
	gDto.Metadata
}

func (r *ServiceResponse) FromModel(model model.Service) {
	r.ID = model.ID
	r.Name = model.Name
	r.Description = model.Description
	r.BasePrice = model.BasePrice
	r.BedroomRate = model.BedroomRate
	r.BathroomRate = model.BathroomRate
	r.DurationMinutes = model.DurationMinutes
	r.Image = model.Image
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

type GetServicesResponse struct {
	Services  []ServiceResponse `json:"services"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetServicesResponse) FromModels(models []model.Service, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Services = make([]ServiceResponse, len(models))
	for i, mod := range models {
		r.Services[i].FromModel(mod)
	}
}

type CreateExtraRequest struct {
	Name        string          `json:"name"        validate:"required,max=100"`
	Description string          `json:"description" validate:"omitempty,max=1000"`
	Price       decimal.Decimal `json:"price"       validate:"required"`
	Active      *bool           `json:"active"      validate:"omitempty"`
}

func (c *CreateExtraRequest) ToModel(user string) model.Extra {
	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Extra{
		ID:          uuid.NewString(),
		Name:        c.Name,
		Description: c.Description,
		Price:       c.Price,
		Active:      active,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateExtraRequest struct {
	Name        string           `db:"name"        json:"name"        validate:"omitempty,max=100"`
	Description string           `db:"description" json:"description" validate:"omitempty,max=1000"`
	Price       *decimal.Decimal `db:"price"       json:"price"`
	Active      *bool            `db:"active"      json:"active"      validate:"omitempty"`
}

type ExtraResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
	gDto.Metadata
}

func (r *ExtraResponse) FromModel(model model.Extra) {
	r.ID = model.ID
	r.Name = model.Name
	r.Description = model.Description
	r.Price = model.Price
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

type GetExtrasResponse struct {
	Extras    []ExtraResponse `json:"extras"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetExtrasResponse) FromModels(models []model.Extra, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Extras = make([]ExtraResponse, len(models))
	for i, mod := range models {
		r.Extras[i].FromModel(mod)
	}
}
