package dto_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanbook/infras/jwt"
	"cleanbook/internal/domains/auth/model/dto"
	"cleanbook/shared/constant"
	"cleanbook/shared/validator"
)

func TestLoginResponse_JSON(t *testing.T) {
	res := dto.LoginResponse{UserID: "u-1", Role: constant.RoleCleaner}
	res.FromTokenPair(&jwt.TokenPair{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", ExpiresIn: 900})

	body, err := json.Marshal(res)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"access_token": "a",
		"refresh_token": "r",
		"token_type": "Bearer",
		"expires_in": 900,
		"user_id": "u-1",
		"role": "cleaner"
	}`, string(body))
}

func TestRegisterRequest_ToUserModel(t *testing.T) {
	name := "Jane Doe"
	req := dto.RegisterRequest{Email: "  Jane.Doe@Example.com", Password: "secret-password", FullName: &name}

	user := req.ToUserModel(constant.ContextGuest, "hashed")

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "jane.doe@example.com", user.Email)
	assert.Equal(t, "hashed", user.Password)
	assert.Equal(t, constant.RoleCustomer, user.Role)
	assert.True(t, user.Active)
	assert.Equal(t, constant.ContextGuest, user.CreatedBy)
	assert.Equal(t, user.CreatedAt, user.ModifiedAt)
	assert.Equal(t, "Jane Doe", user.DisplayName())
}

func TestChangePasswordRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"current_password":"old-password","new_password":"new-password"}`},
		{name: "same as current", body: `{"current_password":"old-password","new_password":"old-password"}`, wantErr: true},
		{name: "too short", body: `{"current_password":"old-password","new_password":"short"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req dto.ChangePasswordRequest

			err := validator.Validate(strings.NewReader(tt.body), &req)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
		})
	}
}
