package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cleanbook/config"
	"cleanbook/infras/jwt"
	"cleanbook/infras/otel"
	"cleanbook/internal/domains/auth/model/dto"
	userModel "cleanbook/internal/domains/user/model"
	userRepo "cleanbook/internal/domains/user/repository"
	"cleanbook/shared"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/failure"
	"cleanbook/shared/password"
	"cleanbook/shared/timezone"

	"github.com/rs/zerolog/log"
)

const errInvalidCredentials = "invalid email or password"

type Auth interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.RegisterResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (dto.RefreshTokenResponse, error)
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest, userID string) error
}

type serviceImpl struct {
	userRepo   userRepo.User
	cfg        *config.Config
	otel       otel.Otel
	jwtService jwt.JWT
}

func New(userRepo userRepo.User, cfg *config.Config, otel otel.Otel, jwt jwt.JWT) Auth {
	return &serviceImpl{
		userRepo:   userRepo,
		cfg:        cfg,
		otel:       otel,
		jwtService: jwt,
	}
}

// decoyHash is compared against when the email is unknown, so a miss costs as much as a
// wrong password.
var decoyHash = sync.OnceValue(func() string {
	hash, err := password.Hash("cleanbook-decoy-password")
	if err != nil {
		log.Error().Err(err).Msg("failed to prepare decoy hash")
	}

	return hash
})

func emailFilter(email string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    userModel.FieldEmail,
				Operator: gDto.FilterOperatorEq,
				Value:    dto.NormalizeEmail(email),
				Table:    userModel.TableName,
			},
		},
	}
}

func (s *serviceImpl) Register(ctx context.Context, req dto.RegisterRequest) (res dto.RegisterResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Register")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	exists, err := s.userRepo.Exist(ctx, emailFilter(req.Email))
	if err != nil {
		return res, fmt.Errorf("failed to check if user exists: %w", err)
	}

	if exists {
		return res, failure.Conflict("email already registered")
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return res, fmt.Errorf("failed to hash password: %w", err)
	}

	user := req.ToUserModel(constant.ContextGuest, hashed)

	if err = s.userRepo.Insert(ctx, user); err != nil {
		// lost a race with a concurrent sign up
		if shared.IsUniqueViolation(err) {
			return res, failure.Conflict("email already registered")
		}

		return res, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("customer registered")

	return dto.RegisterResponse{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}

func (s *serviceImpl) Login(ctx context.Context, req dto.LoginRequest) (res dto.LoginResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Login")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user, err := s.userRepo.Get(ctx, emailFilter(req.Email))
	if err != nil {
		return res, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == constant.Empty {
		_ = password.Verify(req.Password, decoyHash())

		return res, failure.Unauthorized(errInvalidCredentials)
	}

	if err = password.Verify(req.Password, user.Password); err != nil {
		if !errors.Is(err, password.ErrInvalidPassword) {
			return res, fmt.Errorf("failed to verify password: %w", err)
		}

		log.Warn().Str("user_id", user.ID).Msg("login with wrong password")

		return res, failure.Unauthorized(errInvalidCredentials)
	}

	if !user.Active {
		return res, failure.Forbidden("user account is deactivated")
	}

	pair, err := s.jwtService.GenerateTokenPair(ctx, user.ID, user.Email, user.Role)
	if err != nil {
		return res, fmt.Errorf("failed to generate tokens: %w", err)
	}

	fields := shared.TransformFields(dto.UpdateLastLoginRequest{LastLogin: timezone.Now()}, user.ID)

	// a stale last_login is not worth failing the sign in
	if updateErr := s.userRepo.Update(ctx, fields, shared.FilterByID(user.ID, userModel.FieldID, userModel.TableName)); updateErr != nil {
		log.Warn().Err(updateErr).Str("user_id", user.ID).Msg("failed to update last login")
	}

	res.FromTokenPair(pair)
	res.UserID = user.ID
	res.Role = user.Role

	return res, nil
}

// RefreshToken issues a new pair for the account behind a refresh token. The account is
// re-read so deactivation and role changes apply to refreshed tokens.
func (s *serviceImpl) RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (res dto.RefreshTokenResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RefreshToken")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	claims, err := s.jwtService.ValidateToken(ctx, req.RefreshToken, jwt.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("rejected refresh token")

		return res, failure.Unauthorized("invalid refresh token")
	}

	user, err := s.userRepo.Get(ctx, shared.FilterByID(claims.UserID, userModel.FieldID, userModel.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to get user: %w", err)
	}

	switch {
	case user.ID == constant.Empty:
		return res, failure.Unauthorized("invalid refresh token")
	case !user.Active:
		return res, failure.Forbidden("user account is deactivated")
	}

	pair, err := s.jwtService.GenerateTokenPair(ctx, user.ID, user.Email, user.Role)
	if err != nil {
		return res, fmt.Errorf("failed to generate tokens: %w", err)
	}

	res.FromTokenPair(pair)
	res.UserID = user.ID
	res.Role = user.Role

	return res, nil
}

func (s *serviceImpl) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest, userID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ChangePassword")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter := shared.FilterByID(userID, userModel.FieldID, userModel.TableName)

	user, err := s.userRepo.Get(ctx, filter, userModel.FieldID, userModel.FieldPassword)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == constant.Empty {
		return failure.NotFound("user not found")
	}

	if verifyErr := password.Verify(req.CurrentPassword, user.Password); verifyErr != nil {
		return failure.BadRequestFromString("current password is incorrect")
	}

	hashed, err := password.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	fields := shared.TransformFields(dto.UpdatePasswordRequest{Password: hashed}, userID)

	if err = s.userRepo.Update(ctx, fields, filter); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("password changed")

	return nil
}
