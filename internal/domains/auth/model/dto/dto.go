package dto

import (
	"strings"
	"time"

	"cleanbook/infras/jwt"
	userModel "cleanbook/internal/domains/user/model"
	"cleanbook/shared/constant"
	gModel "cleanbook/shared/model"
	"cleanbook/shared/timezone"

	"github.com/google/uuid"
)

// RegisterRequest always creates a customer. Cleaner and admin roles are granted later.
type RegisterRequest struct {
	Email    string  `json:"email"               validate:"required,email,max=254"`
	Password string  `json:"password"            validate:"required,min=8,max=72"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone,omitempty"     validate:"omitempty,e164"`
}

func (r *RegisterRequest) ToUserModel(actor, hashedPassword string) userModel.User {
	now := timezone.Now()

	return userModel.User{
		ID:       uuid.NewString(),
		Email:    NormalizeEmail(r.Email),
		Password: hashedPassword,
		Role:     constant.RoleCustomer,
		FullName: r.FullName,
		Phone:    r.Phone,
		Active:   true,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  actor,
			ModifiedBy: actor,
		},
	}
}

// RegisterResponse echoes the new account so the client can sign in without a lookup.
type RegisterResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type UpdateLastLoginRequest struct {
	LastLogin time.Time `db:"last_login" json:"last_login" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (t *TokenResponse) FromTokenPair(pair *jwt.TokenPair) {
	t.AccessToken = pair.AccessToken
	t.RefreshToken = pair.RefreshToken
	t.TokenType = pair.TokenType
	t.ExpiresIn = pair.ExpiresIn
}

type LoginResponse struct {
	TokenResponse
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RefreshTokenResponse = LoginResponse

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

type UpdatePasswordRequest struct {
	Password string `db:"password" json:"password"`
}
