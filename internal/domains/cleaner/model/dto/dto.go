package dto

import (
	"mime/multipart"
	"time"

	"cleanbook/internal/domains/cleaner/model"
	"cleanbook/shared"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	gModel "cleanbook/shared/model"
	"cleanbook/shared/timezone"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type CreateProfileRequest struct {
	DisplayName  string   `json:"display_name"  validate:"required,min=2,max=100"`
	Bio          string   `json:"bio"           validate:"omitempty,max=2000"`
	ServiceAreas []string `json:"service_areas" validate:"required,min=1,max=20,dive,required,max=100"`
}

// ToModel creates an inactive profile. An admin activates it before the cleaner is matched.
func (c *CreateProfileRequest) ToModel(userID string) model.Cleaner {
	return model.Cleaner{
		ID:           userID,
		DisplayName:  c.DisplayName,
		Bio:          c.Bio,
		ServiceAreas: pq.StringArray(c.ServiceAreas),
		Rating:       decimal.Zero,
		Active:       false,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  userID,
			ModifiedBy: userID,
		},
	}
}

type UpdateProfileRequest struct {
	DisplayName  string         `db:"display_name"  json:"display_name"  validate:"omitempty,min=2,max=100"`
	Bio          string         `db:"bio"           json:"bio"           validate:"omitempty,max=2000"`
	ServiceAreas pq.StringArray `db:"service_areas" json:"service_areas" validate:"omitempty,min=1,max=20,dive,required,max=100"`
}

type UpdateCleanerRequest struct {
	Active *bool `db:"active" json:"active" validate:"required"`
}

type UploadAvatarRequest struct {
	Avatar     *multipart.FileHeader `json:"avatar" validate:"required,mimetypes=image/png image/jpg image/jpeg image/webp,maxfilesize=2"`
	AvatarFile multipart.File        `json:"-"`
}

type MatchRequest struct {
	ServiceID string `json:"service_id" validate:"required,uuid"`
	Date      string `json:"date"       validate:"required,date"`
	Time      string `json:"time"       validate:"required,clock"`
	Location  string `json:"location"   validate:"required,max=100"`
}

func (m *MatchRequest) ScheduledDate() (time.Time, error) {
	return time.ParseInLocation(constant.DateOnlyFormat, m.Date, time.UTC)
}

type CleanerResponse struct {
	ID            string          `json:"id"`
	DisplayName   string          `json:"display_name"`
	Bio           string          `json:"bio"`
	ServiceAreas  []string        `json:"service_areas"`
	Avatar        string          `json:"avatar"`
	Rating        decimal.Decimal `json:"rating"`
	ReviewCount   int             `json:"review_count"`
	CompletedJobs int             `json:"completed_jobs"`
	Active        bool            `json:"active"`
	gDto.Metadata
}

func (r *CleanerResponse) FromModel(model model.Cleaner) {
	r.ID = model.ID
	r.DisplayName = model.DisplayName
	r.Bio = model.Bio
	r.ServiceAreas = []string(model.ServiceAreas)
	r.Avatar = model.Avatar
	r.Rating = model.Rating
	r.ReviewCount = model.ReviewCount
	r.CompletedJobs = model.CompletedJobs
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

type GetCleanersResponse struct {
	Cleaners  []CleanerResponse `json:"cleaners"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetCleanersResponse) FromModels(models []model.Cleaner, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Cleaners = make([]CleanerResponse, len(models))
	for i, mod := range models {
		r.Cleaners[i].FromModel(mod)
	}
}

type MatchResponse struct {
	Cleaners []CleanerResponse `json:"cleaners"`
}

func (r *MatchResponse) FromModels(models []model.Cleaner) {
	r.Cleaners = make([]CleanerResponse, len(models))
	for i, mod := range models {
		r.Cleaners[i].FromModel(mod)
	}
}
