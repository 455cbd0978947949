package dto

import (
	"cleanbook/shared/constant"
	"cleanbook/shared/model"
	"cleanbook/shared/timezone"
)

// Metadata is the audit block every response carries, with times in the app timezone.
type Metadata struct {
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
	CreatedBy  string `json:"created_by,omitempty"`
	ModifiedBy string `json:"modified_by,omitempty"`
}

func (m *Metadata) FromModel(meta model.Metadata) {
	*m = Metadata{
		CreatedAt:  timezone.Format(meta.CreatedAt, constant.DateFormat),
		ModifiedAt: timezone.Format(meta.ModifiedAt, constant.DateFormat),
		CreatedBy:  meta.CreatedBy,
		ModifiedBy: meta.ModifiedBy,
	}
}
