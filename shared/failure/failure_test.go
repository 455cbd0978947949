package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cleanbook/shared/failure"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{name: "bad request", err: failure.BadRequest(errors.New("date is required")), code: http.StatusBadRequest, msg: "date is required"},
		{name: "bad request from string", err: failure.BadRequestFromString("update request cannot be empty"), code: http.StatusBadRequest, msg: "update request cannot be empty"},
		{name: "unauthorized", err: failure.Unauthorized("Token has expired"), code: http.StatusUnauthorized, msg: "Token has expired"},
		{name: "forbidden", err: failure.Forbidden("not your booking"), code: http.StatusForbidden, msg: "not your booking"},
		{name: "not found", err: failure.NotFound("booking not found"), code: http.StatusNotFound, msg: "booking not found"},
		{name: "conflict", err: failure.Conflict("price has changed"), code: http.StatusConflict, msg: "price has changed"},
		{name: "unprocessable", err: failure.UnprocessableEntity("date is in the past"), code: http.StatusUnprocessableEntity, msg: "date is in the past"},
		{name: "too many requests", err: failure.TooManyRequests("slow down"), code: http.StatusTooManyRequests, msg: "slow down"},
		{name: "internal", err: failure.InternalError(errors.New("db down")), code: http.StatusInternalServerError, msg: "db down"},
		{name: "predefined forbidden", err: failure.ForbiddenError, code: http.StatusForbidden, msg: "You don't have the required permissions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, failure.GetCode(tt.err))
			assert.EqualError(t, tt.err, tt.msg)
			assert.True(t, failure.HasCode(tt.err, tt.code))
		})
	}
}

func TestNilErrorsStayNil(t *testing.T) {
	assert.NoError(t, failure.BadRequest(nil))
	assert.NoError(t, failure.InternalError(nil))
}

func TestGetCode(t *testing.T) {
	t.Run("plain error is internal", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, failure.GetCode(errors.New("boom")))
	})

	t.Run("wrapped failure keeps its code", func(t *testing.T) {
		err := fmt.Errorf("claiming promo: %w", failure.Conflict("already claimed"))

		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
		assert.False(t, failure.HasCode(err, http.StatusNotFound))
	})
}
