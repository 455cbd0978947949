package validator_test

import (
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"cleanbook/shared/failure"
	"cleanbook/shared/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotRequest struct {
	Email string `json:"email" validate:"required,email"`
	Date  string `json:"date"  validate:"required,date"`
	Time  string `json:"time"  validate:"required,clock"`
	Rooms int    `json:"rooms" validate:"gte=0,lte=10"`
	Notes string `json:"notes" validate:"max=5"`
}

type uploadRequest struct {
	Image *multipart.FileHeader `json:"image" validate:"required,mimetypes=image/png image/jpeg,maxfilesize=1"`
}

func upload(contentType string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: "photo",
		Header:   textproto.MIMEHeader{"Content-Type": []string{contentType}},
		Size:     size,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"email":"ann@example.com","date":"2026-03-01","time":"09:30","rooms":2}`},
		{name: "malformed json", body: `{"email":`, wantErr: "failed to decode request body"},
		{name: "missing email", body: `{"date":"2026-03-01","time":"09:30"}`, wantErr: "email is required"},
		{name: "bad date", body: `{"email":"ann@example.com","date":"01/03/2026","time":"09:30"}`, wantErr: "date must be a date formatted as YYYY-MM-DD"},
		{name: "bad clock", body: `{"email":"ann@example.com","date":"2026-03-01","time":"9am"}`, wantErr: "time must be a time formatted as HH:MM"},
		{name: "too many rooms", body: `{"email":"ann@example.com","date":"2026-03-01","time":"09:30","rooms":11}`, wantErr: "rooms must be less than or equal to 10"},
		{name: "notes too long", body: `{"email":"ann@example.com","date":"2026-03-01","time":"09:30","notes":"ring twice"}`, wantErr: "notes must be at most 5 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req slotRequest

			err := validator.Validate(strings.NewReader(tt.body), &req)

			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateStruct_Upload(t *testing.T) {
	tests := []struct {
		name    string
		file    *multipart.FileHeader
		wantErr string
	}{
		{name: "png within limit", file: upload("image/png", 512*1024)},
		{name: "content type with parameters", file: upload("image/jpeg; charset=binary", 1024)},
		{name: "wrong type", file: upload("application/pdf", 1024), wantErr: "image must be one of image/png image/jpeg"},
		{name: "too large", file: upload("image/png", 2*1024*1024), wantErr: "image must not exceed 1 MB"},
		{name: "missing", wantErr: "image is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(&uploadRequest{Image: tt.file})

			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, validator.ValidateVar("2026-03-01", "date"))
	assert.Error(t, validator.ValidateVar("2026-13-01", "date"))
	assert.NoError(t, validator.ValidateVar("23:59", "clock"))
	assert.Error(t, validator.ValidateVar("24:00", "clock"))
	assert.ErrorContains(t, validator.ValidateVar("admin", "oneof=customer cleaner"), "must be one of customer cleaner")
}
