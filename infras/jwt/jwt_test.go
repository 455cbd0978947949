package jwt

import (
	"context"
	"testing"
	"time"

	"cleanbook/config"
	"cleanbook/infras/otel/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(now *time.Time) *Service {
	cfg := &config.Config{}
	cfg.App.Name = "cleanbook"
	cfg.JWT.AccessSecret = "access-secret"
	cfg.JWT.RefreshSecret = "refresh-secret"
	cfg.JWT.AccessExpireMin = 15
	cfg.JWT.RefreshExpireMin = 60 * 24

	svc := New(cfg, mocks.NewOtel()).(*Service)
	svc.now = func() time.Time { return *now }

	return svc
}

func TestService_GenerateAndValidate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	svc := newService(&now)

	pair, err := svc.GenerateTokenPair(ctx, "u-1", "ann@example.com", "customer")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	claims, err := svc.ValidateToken(ctx, pair.AccessToken, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, claims.TokenID, claims.ID)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())

	t.Run("wrong type", func(t *testing.T) {
		_, err := svc.ValidateToken(ctx, pair.RefreshToken, AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken, "signed with the other secret")
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := svc.ValidateToken(ctx, pair.AccessToken+"x", AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := now.Add(16 * time.Minute)
		expired := newService(&later)

		_, err := expired.ValidateToken(ctx, pair.AccessToken, AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestService_RefreshTokenOutlivesAccess(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	svc := newService(&now)

	pair, err := svc.GenerateTokenPair(ctx, "u-1", "ann@example.com", "cleaner")
	require.NoError(t, err)

	now = now.Add(time.Hour)

	_, err = svc.ValidateToken(ctx, pair.AccessToken, AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)

	claims, err := svc.ValidateToken(ctx, pair.RefreshToken, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, RefreshToken, claims.Type)
	assert.Equal(t, "u-1", claims.Subject)
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "bearer abc.def", want: "abc.def"},
		{header: "  Bearer   abc.def ", want: "abc.def"},
		{header: "Basic dXNlcg==", wantErr: true},
		{header: "Bearer", wantErr: true},
		{header: "Bearer ", wantErr: true},
		{header: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := ExtractTokenFromHeader(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingBearer)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
