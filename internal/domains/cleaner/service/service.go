package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"cleanbook/config"
	"cleanbook/infras/otel"
	"cleanbook/infras/s3"
	bookingModel "cleanbook/internal/domains/booking/model"
	bookingRepo "cleanbook/internal/domains/booking/repository"
	catalogModel "cleanbook/internal/domains/catalog/model"
	catalogRepo "cleanbook/internal/domains/catalog/repository"
	"cleanbook/internal/domains/cleaner/model"
	"cleanbook/internal/domains/cleaner/model/dto"
	"cleanbook/internal/domains/cleaner/repository"
	userDto "cleanbook/internal/domains/user/model/dto"
	userService "cleanbook/internal/domains/user/service"
	"cleanbook/shared"
	"cleanbook/shared/cache"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/failure"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	cacheGetCleaner    = "cleaner:get"
	cacheGetAllCleaner = "cleaner:gets"
	cacheCountCleaner  = "cleaner:count"
)

type Cleaner interface {
	CreateProfile(ctx context.Context, req dto.CreateProfileRequest) error
	UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) error
	UploadAvatar(ctx context.Context, req dto.UploadAvatarRequest) (string, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetCleanersResponse, error)
	Get(ctx context.Context, id string) (dto.CleanerResponse, error)
	Update(ctx context.Context, req dto.UpdateCleanerRequest, id string) error
	Match(ctx context.Context, req dto.MatchRequest) (dto.MatchResponse, error)
	IsAvailable(ctx context.Context, cleanerID string, date time.Time, clock string) (bool, error)
	RecordRating(ctx context.Context, id string, rating decimal.Decimal, reviewCount int) error
	RecordCompletedJob(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo        repository.Cleaner
	bookingRepo bookingRepo.Booking
	serviceRepo catalogRepo.Service
	users       userService.User
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
	s3          s3.S3
}

func New(
	repo repository.Cleaner,
	bookingRepo bookingRepo.Booking,
	serviceRepo catalogRepo.Service,
	users userService.User,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
	s3 s3.S3,
) Cleaner {
	return &serviceImpl{
		repo:        repo,
		bookingRepo: bookingRepo,
		serviceRepo: serviceRepo,
		users:       users,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
		s3:          s3,
	}
}

func (s *serviceImpl) CreateProfile(ctx context.Context, req dto.CreateProfileRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CreateProfile")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	tokenRole, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	exist, err := s.repo.Exist(ctx, shared.FilterByID(userID, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check cleaner profile")

		return fmt.Errorf("failed to check cleaner profile: %w", err)
	}

	if exist {
		return failure.Conflict("cleaner profile already exists")
	}

	if err = s.repo.Insert(ctx, req.ToModel(userID)); err != nil {
		log.Error().Err(err).Msg("failed to create cleaner profile")

		return fmt.Errorf("failed to create cleaner profile: %w", err)
	}

	// admins keep their role
	if s.users.ResolveRole(ctx, userID, tokenRole) == constant.RoleCustomer {
		role := constant.RoleCleaner
		if err = s.users.Update(ctx, userDto.UpdateUserRequest{Role: &role}, userID); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("failed to grant cleaner role")

			return fmt.Errorf("failed to grant cleaner role: %w", err)
		}
	}

	s.invalidate(ctx, userID)

	return nil
}

func (s *serviceImpl) UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateProfile")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	fields := shared.TransformFields(req, userID)
	if len(fields) <= 2 {
		return failure.BadRequestFromString("update request cannot be empty")
	}

	return s.update(ctx, fields, userID)
}

func (s *serviceImpl) UploadAvatar(ctx context.Context, req dto.UploadAvatarRequest) (url string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UploadAvatar")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(userID, model.FieldID, model.TableName)

	current, err := s.repo.Get(ctx, filter, model.FieldID, model.FieldAvatar)
	if err != nil {
		return constant.Empty, fmt.Errorf("failed to get cleaner profile: %w", err)
	}

	if current.ID == constant.Empty {
		return constant.Empty, failure.NotFound("cleaner profile not found")
	}

	bucketName := s.cfg.External.S3.BucketName
	objectName := s3.ObjectName(req.Avatar.Filename)

	url, err = s.s3.UploadFile(ctx, bucketName, model.EntityName, req.AvatarFile, req.Avatar, objectName)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload avatar")

		return constant.Empty, fmt.Errorf("failed to upload avatar: %w", err)
	}

	fields := shared.TransformFields(struct{}{}, userID)
	fields[model.FieldAvatar] = url

	if err = s.repo.Update(ctx, fields, filter); err != nil {
		_ = s.s3.DeleteFile(ctx, bucketName, model.EntityName, objectName)

		return constant.Empty, fmt.Errorf("failed to update avatar: %w", err)
	}

	if current.Avatar != constant.Empty {
		if old := s.s3.GetObjectNameFromURL(bucketName, current.Avatar); old != constant.Empty {
			_ = s.s3.DeleteFile(ctx, bucketName, model.EntityName, old)
		}
	}

	s.invalidate(ctx, userID)

	return url, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetCleanersResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllCleaner, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for cleaners")

		return res, nil
	}

	countKey := shared.BuildCacheKeyWithQuery(cacheCountCleaner, req, filter)

	var total int
	if err = s.cache.Get(ctx, countKey, &total); err != nil {
		total, err = s.repo.Count(ctx, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to count cleaners")

			return res, fmt.Errorf("failed to count cleaners: %w", err)
		}
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get cleaners")

		return res, fmt.Errorf("failed to get cleaners: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, countKey, total, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save cleaner count to cache")
		}

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save cleaners to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.CleanerResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetCleaner, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	cleaner, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get cleaner")

		return res, fmt.Errorf("failed to get cleaner: %w", err)
	}

	if cleaner.ID == constant.Empty {
		return res, failure.NotFound("cleaner not found") // nolint:wrapcheck
	}

	res.FromModel(cleaner)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save cleaner to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateCleanerRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req.Active == nil {
		return failure.BadRequestFromString("update request cannot be empty")
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	return s.update(ctx, shared.TransformFields(req, user), id)
}

// Match lists the cleaners that can take a booking of the service at the given slot.
func (s *serviceImpl) Match(ctx context.Context, req dto.MatchRequest) (res dto.MatchResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Match")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	date, err := req.ScheduledDate()
	if err != nil {
		return res, failure.BadRequestFromString("invalid date")
	}

	service, err := s.serviceRepo.Get(ctx, shared.FilterByID(req.ServiceID, catalogModel.FieldID, catalogModel.ServiceTableName),
		catalogModel.FieldID, catalogModel.FieldActive)
	if err != nil {
		return res, fmt.Errorf("failed to get service: %w", err)
	}

	if service.ID == constant.Empty || !service.Active {
		return res, failure.NotFound("service not found")
	}

	candidates, err := s.repo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldActive, Value: true, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to get cleaner candidates")

		return res, fmt.Errorf("failed to get cleaners: %w", err)
	}

	busy, err := s.busyCleaners(ctx, date, req.Time)
	if err != nil {
		return res, err
	}

	matched := model.Match(candidates, req.Location, busy)
	scope.SetAttribute("cleaner.matched", len(matched))

	res.FromModels(matched)

	return res, nil
}

func (s *serviceImpl) IsAvailable(ctx context.Context, cleanerID string, date time.Time, clock string) (ok bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".IsAvailable")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cleaner, err := s.repo.Get(ctx, shared.FilterByID(cleanerID, model.FieldID, model.TableName), model.FieldID, model.FieldActive)
	if err != nil {
		return false, fmt.Errorf("failed to get cleaner: %w", err)
	}

	if cleaner.ID == constant.Empty || !cleaner.Active {
		return false, nil
	}

	busy, err := s.busyCleaners(ctx, date, clock)
	if err != nil {
		return false, err
	}

	return !busy[cleanerID], nil
}

func (s *serviceImpl) RecordRating(ctx context.Context, id string, rating decimal.Decimal, reviewCount int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RecordRating")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	fields := shared.TransformFields(struct{}{}, id)
	fields[model.FieldRating] = rating.Round(2)
	fields[model.FieldReviewCount] = reviewCount

	return s.update(ctx, fields, id)
}

// RecordCompletedJob recounts the completed bookings of the cleaner, so repeated calls are harmless.
func (s *serviceImpl) RecordCompletedJob(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RecordCompletedJob")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	completed, err := s.bookingRepo.Count(ctx, gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: bookingModel.FieldCleanerID, Value: id, Operator: gDto.FilterOperatorEq, Table: bookingModel.TableName},
			gDto.Filter{Field: bookingModel.FieldStatus, Value: bookingModel.StatusCompleted, Operator: gDto.FilterOperatorEq, Table: bookingModel.TableName},
		},
		Operator: gDto.FilterGroupOperatorAnd,
	})
	if err != nil {
		return fmt.Errorf("failed to count completed jobs: %w", err)
	}

	fields := shared.TransformFields(struct{}{}, id)
	fields[model.FieldCompletedJobs] = completed

	return s.update(ctx, fields, id)
}

func (s *serviceImpl) busyCleaners(ctx context.Context, date time.Time, clock string) (map[string]bool, error) {
	bookings, err := s.bookingRepo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: bookingModel.FieldScheduledDate, Value: date.Format(constant.DateOnlyFormat), Operator: gDto.FilterOperatorEq, Table: bookingModel.TableName},
			gDto.Filter{Field: bookingModel.FieldScheduledTime, Value: clock, Operator: gDto.FilterOperatorEq, Table: bookingModel.TableName},
			gDto.Filter{Field: bookingModel.FieldStatus, Value: bookingModel.StatusCancelled, Operator: gDto.FilterOperatorNotEq, Table: bookingModel.TableName},
			gDto.Filter{Field: bookingModel.FieldCleanerID, Operator: gDto.FilterIsNotNull, Table: bookingModel.TableName},
		},
		Operator: gDto.FilterGroupOperatorAnd,
	}, bookingModel.FieldCleanerID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings at slot")

		return nil, fmt.Errorf("failed to get bookings at slot: %w", err)
	}

	busy := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if b.CleanerID != nil {
			busy[*b.CleanerID] = true
		}
	}

	return busy, nil
}

func (s *serviceImpl) update(ctx context.Context, fields map[string]any, id string) error {
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if cleaner exists")

		return fmt.Errorf("failed to check if cleaner exists: %w", err)
	}

	if !exist {
		return failure.NotFound("cleaner not found")
	}

	if err := s.repo.Update(ctx, fields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update cleaner")

		return fmt.Errorf("failed to update cleaner: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetCleaner, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete cleaner from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllCleaner)
		shared.InvalidateCaches(c, s.cache, cacheCountCleaner)
	}()
}
