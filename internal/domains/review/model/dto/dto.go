package dto

import (
	"cleanbook/internal/domains/review/model"
	"cleanbook/shared"
	gDto "cleanbook/shared/dto"
	gModel "cleanbook/shared/model"
	"cleanbook/shared/timezone"

	"github.com/google/uuid"
)

type CreateReviewRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Rating    int    `json:"rating"     validate:"required,min=1,max=5"`
	Comment   string `json:"comment"    validate:"omitempty,max=1000"`
}

func (c *CreateReviewRequest) ToModel(customerID, cleanerID string) model.Review {
	return model.Review{
		ID:         uuid.NewString(),
		BookingID:  c.BookingID,
		CustomerID: customerID,
		CleanerID:  cleanerID,
		Rating:     c.Rating,
		Comment:    c.Comment,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  customerID,
			ModifiedBy: customerID,
		},
	}
}

type ReviewResponse struct {
	ID         string `json:"id"`
	BookingID  string `json:"booking_id"`
	CustomerID string `json:"customer_id"`
	CleanerID  string `json:"cleaner_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	gDto.Metadata
}

func (r *ReviewResponse) FromModel(model model.Review) {
	r.ID = model.ID
	r.BookingID = model.BookingID
	r.CustomerID = model.CustomerID
	r.CleanerID = model.CleanerID
	r.Rating = model.Rating
	r.Comment = model.Comment
	r.Metadata.FromModel(model.Metadata)
}

type GetReviewsResponse struct {
	Reviews   []ReviewResponse `json:"reviews"`
	TotalPage int              `json:"total_page"`
	TotalData int              `json:"total_data"`
}

func (r *GetReviewsResponse) FromModels(models []model.Review, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Reviews = make([]ReviewResponse, len(models))
	for i, mod := range models {
		r.Reviews[i].FromModel(mod)
	}
}
