package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cleanbook/config"
	"cleanbook/infras/jwt"
	jwtMocks "cleanbook/infras/jwt/mocks"
	"cleanbook/infras/otel/mocks"
	userMocks "cleanbook/internal/domains/user/service/mocks"
	"cleanbook/permissions"
	"cleanbook/shared/constant"
	"cleanbook/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

type authFixture struct {
	jwt    *jwtMocks.MockJWT
	roles  *userMocks.MockUser
	otel   *mocks.Otel
	router *chi.Mux
	seen   string
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &authFixture{
		jwt:   jwtMocks.NewMockJWT(ctrl),
		roles: userMocks.NewMockUser(ctrl),
		otel:  mocks.NewOtel(),
	}

	cfg := &config.Config{}
	cfg.App.APIKey = "internal-key"

	perms := &permissions.PermissionData{
		Endpoints: []permissions.Permission{
			{Path: "/v1/services", Method: http.MethodGet, Skip: true},
			{Path: "/v1/bookings", Method: http.MethodGet, Permissions: []string{constant.RoleAdmin}},
			{Path: "/v1/bookings/{id}", Method: http.MethodGet, Permissions: []string{constant.RoleCustomer, constant.RoleAdmin}},
		},
	}

	auth := middleware.NewAuthRoleMiddleware(f.jwt, f.roles, f.otel, perms, cfg)

	record := func(w http.ResponseWriter, r *http.Request) {
		f.seen, _ = r.Context().Value(constant.ContextKeyUserRole).(string)

		w.WriteHeader(http.StatusNoContent)
	}

	f.router = chi.NewRouter()
	f.router.Route("/v1", func(r chi.Router) {
		r.Use(auth.APIKey, auth.Auth, auth.RBAC)
		r.Get("/services", record)
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", record)
			r.Get("/{id}", record)
		})
	})

	return f
}

func (f *authFixture) do(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func bearer(token string) map[string]string {
	return map[string]string{constant.RequestHeaderAuthorization: "Bearer " + token}
}

func TestAuth(t *testing.T) {
	claims := &jwt.Claims{UserID: "u-1", Email: "ann@example.com", Role: constant.RoleCustomer, TokenID: "t-1"}

	t.Run("missing header", func(t *testing.T) {
		f := newAuthFixture(t)

		rec := f.do(http.MethodGet, "/v1/bookings/b-1", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		f := newAuthFixture(t)

		f.jwt.EXPECT().ValidateToken(gomock.Any(), "tok", jwt.AccessToken).Return(nil, jwt.ErrExpiredToken)

		rec := f.do(http.MethodGet, "/v1/bookings/b-1", bearer("tok"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Token has expired")
		assert.Len(t, f.otel.Errors(), 1)
	})

	t.Run("claims without email stop the request", func(t *testing.T) {
		f := newAuthFixture(t)

		f.jwt.EXPECT().ValidateToken(gomock.Any(), "tok", jwt.AccessToken).Return(&jwt.Claims{UserID: "u-1"}, nil)

		rec := f.do(http.MethodGet, "/v1/bookings/b-1", bearer("tok"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, f.seen)
	})

	t.Run("role comes from the resolver", func(t *testing.T) {
		f := newAuthFixture(t)

		f.jwt.EXPECT().ValidateToken(gomock.Any(), "tok", jwt.AccessToken).Return(claims, nil)
		f.roles.EXPECT().ResolveRole(gomock.Any(), "u-1", constant.RoleCustomer).Return(constant.RoleAdmin)

		rec := f.do(http.MethodGet, "/v1/bookings", bearer("tok"))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, constant.RoleAdmin, f.seen)
	})

	t.Run("public route without token", func(t *testing.T) {
		f := newAuthFixture(t)

		rec := f.do(http.MethodGet, "/v1/services", nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, f.seen)
	})

	t.Run("public route with a bad token stays anonymous", func(t *testing.T) {
		f := newAuthFixture(t)

		f.jwt.EXPECT().ValidateToken(gomock.Any(), "tok", jwt.AccessToken).Return(nil, jwt.ErrInvalidToken)

		rec := f.do(http.MethodGet, "/v1/services", bearer("tok"))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, f.seen)
	})

	t.Run("public route with a valid token is identified", func(t *testing.T) {
		f := newAuthFixture(t)

		f.jwt.EXPECT().ValidateToken(gomock.Any(), "tok", jwt.AccessToken).Return(claims, nil)
		f.roles.EXPECT().ResolveRole(gomock.Any(), "u-1", constant.RoleCustomer).Return(constant.RoleAdmin)

		rec := f.do(http.MethodGet, "/v1/services", bearer("tok"))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, constant.RoleAdmin, f.seen)
	})
}

func TestRBAC(t *testing.T) {
	claims := &jwt.Claims{UserID: "u-1", Email: "ann@example.com", Role: constant.RoleCustomer}

	t.Run("role not allowed", func(t *testing.T) {
		f := newAuthFixture(t)

		f.jwt.EXPECT().ValidateToken(gomock.Any(), "tok", jwt.AccessToken).Return(claims, nil)
		f.roles.EXPECT().ResolveRole(gomock.Any(), "u-1", constant.RoleCustomer).Return(constant.RoleCustomer)

		rec := f.do(http.MethodGet, "/v1/bookings", bearer("tok"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("role allowed on path pattern", func(t *testing.T) {
		f := newAuthFixture(t)

		f.jwt.EXPECT().ValidateToken(gomock.Any(), "tok", jwt.AccessToken).Return(claims, nil)
		f.roles.EXPECT().ResolveRole(gomock.Any(), "u-1", constant.RoleCustomer).Return(constant.RoleCustomer)

		rec := f.do(http.MethodGet, "/v1/bookings/b-42", bearer("tok"))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("demoted user loses access despite token role", func(t *testing.T) {
		f := newAuthFixture(t)

		adminClaims := &jwt.Claims{UserID: "u-1", Email: "ann@example.com", Role: constant.RoleAdmin}

		f.jwt.EXPECT().ValidateToken(gomock.Any(), "tok", jwt.AccessToken).Return(adminClaims, nil)
		f.roles.EXPECT().ResolveRole(gomock.Any(), "u-1", constant.RoleAdmin).Return(constant.RoleCustomer)

		rec := f.do(http.MethodGet, "/v1/bookings", bearer("tok"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAPIKey(t *testing.T) {
	t.Run("valid key skips auth", func(t *testing.T) {
		f := newAuthFixture(t)

		rec := f.do(http.MethodGet, "/v1/bookings", map[string]string{constant.RequestHeaderAPIKey: "internal-key"})

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, constant.RoleAdmin, f.seen)
	})

	t.Run("wrong key is forbidden", func(t *testing.T) {
		f := newAuthFixture(t)

		rec := f.do(http.MethodGet, "/v1/bookings", map[string]string{constant.RequestHeaderAPIKey: "nope"})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
