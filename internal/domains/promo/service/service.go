package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"cleanbook/config"
	"cleanbook/infras/otel"
	"cleanbook/internal/domains/promo/model"
	"cleanbook/internal/domains/promo/model/dto"
	"cleanbook/internal/domains/promo/repository"
	"cleanbook/internal/pricing"
	"cleanbook/shared"
	"cleanbook/shared/cache"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/failure"
	"cleanbook/shared/timezone"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetPromo    = "promo:get"
	cacheGetAllPromo = "promo:gets"
	cacheCountPromo  = "promo:count"
)

// Redemption is a promo a user has claimed and not yet used.
type Redemption struct {
	Promo model.Promo
	Claim model.Claim
}

type Promo interface {
	Create(ctx context.Context, req dto.CreatePromoRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetPromosResponse, error)
	Get(ctx context.Context, id string) (dto.PromoResponse, error)
	Update(ctx context.Context, req dto.UpdatePromoRequest, id string) error
	Delete(ctx context.Context, id string) error
	Claim(ctx context.Context, req dto.ClaimRequest) (dto.ClaimResponse, error)
	Mine(ctx context.Context) (dto.GetClaimsResponse, error)
	Redeemable(ctx context.Context, userID, code string) (Redemption, error)
	RedeemTx(ctx context.Context, sqltx *sqlx.Tx, claimID, bookingID string) error
}

type serviceImpl struct {
	repo      repository.Promo
	claimRepo repository.Claim
	cfg       *config.Config
	cache     cache.RedisCache
	otel      otel.Otel
}

func New(repo repository.Promo, claimRepo repository.Claim, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Promo {
	return &serviceImpl{
		repo:      repo,
		claimRepo: claimRepo,
		cfg:       cfg,
		cache:     cache,
		otel:      otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreatePromoRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = pricing.ValidatePromo(pricing.PromoKind(req.Kind), req.Value); err != nil {
		return failure.BadRequest(err)
	}

	if req.StartsAt != nil && req.ExpiresAt != nil && !req.ExpiresAt.After(*req.StartsAt) {
		return failure.BadRequestFromString("expires_at must be after starts_at")
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	promo := req.ToModel(user)

	exist, err := s.repo.Exist(ctx, codeFilter(promo.Code))
	if err != nil {
		return fmt.Errorf("failed to check promo code: %w", err)
	}

	if exist {
		return failure.Conflict("promo code already exists")
	}

	if err = s.repo.Insert(ctx, promo); err != nil {
		log.Error().Err(err).Msg("failed to create promo")

		return fmt.Errorf("failed to create promo: %w", err)
	}

	s.invalidate(ctx, promo.ID)

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetPromosResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllPromo, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	countKey := shared.BuildCacheKeyWithQuery(cacheCountPromo, req, filter)

	var total int
	if err = s.cache.Get(ctx, countKey, &total); err != nil {
		total, err = s.repo.Count(ctx, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to count promos")

			return res, fmt.Errorf("failed to count promos: %w", err)
		}
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get promos")

		return res, fmt.Errorf("failed to get promos: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, countKey, total, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save promo count to cache")
		}

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save promos to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.PromoResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetPromo, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	promo, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to get promo: %w", err)
	}

	if promo.ID == constant.Empty {
		return res, failure.NotFound("promo not found") // nolint:wrapcheck
	}

	res.FromModel(promo)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save promo to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdatePromoRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req == (dto.UpdatePromoRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty")
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	current, err := s.repo.Get(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to get promo: %w", err)
	}

	if current.ID == constant.Empty {
		return failure.NotFound("promo not found")
	}

	kind, value := current.Kind, current.Value
	if req.Kind != constant.Empty {
		kind = req.Kind
	}

	if req.Value != nil {
		value = *req.Value
	}

	if err = pricing.ValidatePromo(pricing.PromoKind(kind), value); err != nil {
		return failure.BadRequest(err)
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if err = s.repo.Update(ctx, shared.TransformFields(req, user), filter); err != nil {
		log.Error().Err(err).Msg("failed to update promo")

		return fmt.Errorf("failed to update promo: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

// Delete deactivates the promo. Claims and bookings keep referencing it.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to check if promo exists: %w", err)
	}

	if !exist {
		return failure.NotFound("promo not found") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	inactive := false

	if err = s.repo.Update(ctx, shared.TransformFields(dto.UpdatePromoRequest{Active: &inactive}, user), filter); err != nil {
		return fmt.Errorf("failed to deactivate promo: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) Claim(ctx context.Context, req dto.ClaimRequest) (res dto.ClaimResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Claim")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	promo, err := s.repo.Get(ctx, codeFilter(model.NormalizeCode(req.Code)))
	if err != nil {
		return res, fmt.Errorf("failed to get promo: %w", err)
	}

	if promo.ID == constant.Empty {
		return res, failure.NotFound("promo not found")
	}

	if err = promo.Available(timezone.Now()); err != nil {
		return res, failure.UnprocessableEntity(err.Error())
	}

	claimed, err := s.claimRepo.Exist(ctx, claimFilter(promo.ID, userID))
	if err != nil {
		return res, fmt.Errorf("failed to check promo claim: %w", err)
	}

	if claimed {
		return res, failure.Conflict("promo already claimed")
	}

	claim := model.Claim{
		ID:        uuid.NewString(),
		PromoID:   promo.ID,
		UserID:    userID,
		ClaimedAt: timezone.Now(),
	}

	err = s.repo.Transaction(ctx, func(tx *sqlx.Tx) error {
		reserved, err := s.repo.ReserveClaimTx(ctx, tx, promo.ID)
		if err != nil {
			return err
		}

		if !reserved {
			return failure.Conflict(model.ErrExhausted.Error())
		}

		return s.claimRepo.InsertTx(ctx, tx, claim)
	})
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return res, failure.Conflict("promo already claimed")
		}

		log.Error().Err(err).Str("promo_id", promo.ID).Msg("failed to claim promo")

		var f *failure.Failure
		if errors.As(err, &f) {
			return res, err
		}

		return res, fmt.Errorf("failed to claim promo: %w", err)
	}

	s.invalidate(ctx, promo.ID)

	res.FromModel(claim, promo)

	return res, nil
}

func (s *serviceImpl) Mine(ctx context.Context) (res dto.GetClaimsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Mine")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	claims, err := s.claimRepo.GetAll(ctx, gDto.QueryParams{}, shared.FilterByID(userID, model.FieldUserID, model.ClaimTableName))
	if err != nil {
		return res, fmt.Errorf("failed to get promo claims: %w", err)
	}

	res.Claims = make([]dto.ClaimResponse, 0, len(claims))
	if len(claims) == 0 {
		return res, nil
	}

	ids := make([]string, len(claims))
	for i, claim := range claims {
		ids[i] = claim.PromoID
	}

	promos, err := s.repo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldID, Value: ids, Operator: gDto.FilterOperatorIn, Table: model.TableName},
		},
	})
	if err != nil {
		return res, fmt.Errorf("failed to get promos: %w", err)
	}

	byID := make(map[string]model.Promo, len(promos))
	for _, promo := range promos {
		byID[promo.ID] = promo
	}

	for _, claim := range claims {
		var item dto.ClaimResponse
		item.FromModel(claim, byID[claim.PromoID])
		res.Claims = append(res.Claims, item)
	}

	return res, nil
}

// Redeemable returns the user's unredeemed claim on code, if the promo can still be used.
func (s *serviceImpl) Redeemable(ctx context.Context, userID, code string) (res Redemption, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Redeemable")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	promo, err := s.repo.Get(ctx, codeFilter(model.NormalizeCode(code)))
	if err != nil {
		return res, fmt.Errorf("failed to get promo: %w", err)
	}

	if promo.ID == constant.Empty {
		return res, failure.UnprocessableEntity("promo code is not valid")
	}

	if err = promo.Available(timezone.Now()); err != nil {
		return res, failure.UnprocessableEntity(err.Error())
	}

	claim, err := s.claimRepo.Get(ctx, claimFilter(promo.ID, userID))
	if err != nil {
		return res, fmt.Errorf("failed to get promo claim: %w", err)
	}

	if claim.ID == constant.Empty {
		return res, failure.UnprocessableEntity("promo has not been claimed")
	}

	if claim.Redeemed() {
		return res, failure.UnprocessableEntity("promo has already been redeemed")
	}

	return Redemption{Promo: promo, Claim: claim}, nil
}

func (s *serviceImpl) RedeemTx(ctx context.Context, sqltx *sqlx.Tx, claimID, bookingID string) error {
	redeemed, err := s.claimRepo.RedeemTx(ctx, sqltx, claimID, bookingID)
	if err != nil {
		return fmt.Errorf("failed to redeem promo: %w", err)
	}

	if !redeemed {
		return failure.Conflict("promo has already been redeemed")
	}

	return nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetPromo, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete promo from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllPromo)
		shared.InvalidateCaches(c, s.cache, cacheCountPromo)
	}()
}

func codeFilter(code string) gDto.FilterGroup {
	return shared.FilterByID(code, model.FieldCode, model.TableName)
}

func claimFilter(promoID, userID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldPromoID, Value: promoID, Operator: gDto.FilterOperatorEq, Table: model.ClaimTableName},
			gDto.Filter{Field: model.FieldUserID, Value: userID, Operator: gDto.FilterOperatorEq, Table: model.ClaimTableName},
		},
		Operator: gDto.FilterGroupOperatorAnd,
	}
}
