package service

import (
	"context"
	"fmt"

	"cleanbook/config"
	"cleanbook/infras/otel"
	"cleanbook/infras/s3"
	"cleanbook/internal/domains/catalog/model"
	"cleanbook/internal/domains/catalog/model/dto"
	"cleanbook/internal/domains/catalog/repository"
	"cleanbook/shared"
	"cleanbook/shared/cache"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/failure"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetService     = "service:get"
	cacheGetAllService  = "service:gets"
	cacheCountService   = "service:count"
	cacheGetExtra       = "extra:get"
	cacheGetAllExtra    = "extra:gets"
	cacheCountExtra     = "extra:count"
	errNegativePriceMsg = "prices and rates must not be negative"
)

type Catalog interface {
	CreateService(ctx context.Context, req dto.CreateServiceRequest) error
	GetServices(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetServicesResponse, error)
	GetService(ctx context.Context, id string) (dto.ServiceResponse, error)
	UpdateService(ctx context.Context, req dto.UpdateServiceRequest, id string) error
	DeleteService(ctx context.Context, id string) error

	CreateExtra(ctx context.Context, req dto.CreateExtraRequest) error
	GetExtras(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetExtrasResponse, error)
	GetExtra(ctx context.Context, id string) (dto.ExtraResponse, error)
	UpdateExtra(ctx context.Context, req dto.UpdateExtraRequest, id string) error
	DeleteExtra(ctx context.Context, id string) error
}

type serviceImpl struct {
	serviceRepo repository.Service
	extraRepo   repository.Extra
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
	s3          s3.S3
}

func New(serviceRepo repository.Service, extraRepo repository.Extra, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3) Catalog {
	return &serviceImpl{
		serviceRepo: serviceRepo,
		extraRepo:   extraRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
		s3:          s3,
	}
}

func (s *serviceImpl) CreateService(ctx context.Context, req dto.CreateServiceRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CreateService")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req.HasNegativePrice() {
		return failure.BadRequestFromString(errNegativePriceMsg)
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	bucketName := s.cfg.External.S3.BucketName

	imageURL := constant.Empty
	uploadedObjectName := constant.Empty

	if req.Image != nil {
		uploadedObjectName = s3.ObjectName(req.Image.Filename)

		imageURL, err = s.s3.UploadFile(ctx, bucketName, model.ServiceEntityName, req.ImageFile, req.Image, uploadedObjectName)
		if err != nil {
			log.Error().Err(err).Msg("failed to upload service image")

			return fmt.Errorf("failed to upload image: %w", err)
		}
	}

	if err = s.serviceRepo.Insert(ctx, req.ToModel(user, imageURL)); err != nil {
		if uploadedObjectName != constant.Empty {
			_ = s.s3.DeleteFile(ctx, bucketName, model.ServiceEntityName, uploadedObjectName)
		}

		return fmt.Errorf("failed to create service: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllService)
		shared.InvalidateCaches(c, s.cache, cacheCountService)
	}()

	return nil
}

func (s *serviceImpl) GetServices(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetServicesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetServices")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllService, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for services")

		return res, nil
	}

	total, err := s.countServices(ctx, req, filter)
	if err != nil {
		return res, err
	}

	models, err := s.serviceRepo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get services")

		return res, fmt.Errorf("failed to get services: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save services to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) countServices(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountService, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	res, err = s.serviceRepo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count services")

		return res, fmt.Errorf("failed to count services: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save service count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetService(ctx context.Context, id string) (res dto.ServiceResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetService")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetService, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for service")

		return res, nil
	}

	service, err := s.serviceRepo.Get(ctx, shared.FilterByID(id, model.FieldID, model.ServiceTableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get service")

		return res, fmt.Errorf("failed to get service: %w", err)
	}

	if service.ID == constant.Empty {
		return res, failure.NotFound("service not found") // nolint:wrapcheck
	}

	res.FromModel(service)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save service to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) UpdateService(ctx context.Context, req dto.UpdateServiceRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateService")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req.HasNegativePrice() {
		return failure.BadRequestFromString(errNegativePriceMsg)
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.ServiceTableName)

	current, err := s.serviceRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check service existence")

		return fmt.Errorf("failed to get service: %w", err)
	}

	if current.ID == constant.Empty {
		return failure.NotFound("service not found")
	}

	bucketName := s.cfg.External.S3.BucketName
	imageURL := constant.Empty
	uploadedObjectName := constant.Empty

	if req.Image != nil {
		uploadedObjectName = s3.ObjectName(req.Image.Filename)

		imageURL, err = s.s3.UploadFile(ctx, bucketName, model.ServiceEntityName, req.ImageFile, req.Image, uploadedObjectName)
		if err != nil {
			return fmt.Errorf("failed to upload image: %w", err)
		}
	}

	updatedFields := shared.TransformFields(req, user)
	if imageURL != constant.Empty {
		updatedFields[model.FieldImage] = imageURL
	}

	if err = s.serviceRepo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update service")

		if uploadedObjectName != constant.Empty {
			_ = s.s3.DeleteFile(ctx, bucketName, model.ServiceEntityName, uploadedObjectName)
		}

		return fmt.Errorf("failed to update service: %w", err)
	}

	if imageURL != constant.Empty && current.Image != constant.Empty {
		if old := s.s3.GetObjectNameFromURL(bucketName, current.Image); old != constant.Empty {
			_ = s.s3.DeleteFile(ctx, bucketName, model.ServiceEntityName, old)
		}
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetService, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete service cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllService)
		shared.InvalidateCaches(c, s.cache, cacheCountService)
	}()

	return nil
}

// DeleteService only deactivates services that bookings still reference.
func (s *serviceImpl) DeleteService(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DeleteService")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.ServiceTableName)

	exist, err := s.serviceRepo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if service exists")

		return fmt.Errorf("failed to check if service exists: %w", err)
	}

	if !exist {
		return failure.NotFound("service not found") // nolint:wrapcheck
	}

	inactive := false
	if err = s.serviceRepo.Update(ctx, shared.TransformFields(dto.UpdateServiceRequest{Active: &inactive}, user), filter); err != nil {
		log.Error().Err(err).Msg("failed to deactivate service")

		return fmt.Errorf("failed to deactivate service: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetService, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete service from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllService)
		shared.InvalidateCaches(c, s.cache, cacheCountService)
	}()

	return nil
}

func (s *serviceImpl) CreateExtra(ctx context.Context, req dto.CreateExtraRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CreateExtra")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req.Price.IsNegative() {
		return failure.BadRequestFromString(errNegativePriceMsg)
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if err = s.extraRepo.Insert(ctx, req.ToModel(user)); err != nil {
		return fmt.Errorf("failed to create extra: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllExtra)
		shared.InvalidateCaches(c, s.cache, cacheCountExtra)
	}()

	return nil
}

func (s *serviceImpl) GetExtras(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetExtrasResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetExtras")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllExtra, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for extras")

		return res, nil
	}

	countKey := shared.BuildCacheKeyWithQuery(cacheCountExtra, req, filter)

	var total int
	if err = s.cache.Get(ctx, countKey, &total); err != nil {
		total, err = s.extraRepo.Count(ctx, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to count extras")

			return res, fmt.Errorf("failed to count extras: %w", err)
		}
	}

	models, err := s.extraRepo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get extras")

		return res, fmt.Errorf("failed to get extras: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, countKey, total, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save extra count to cache")
		}

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save extras to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetExtra(ctx context.Context, id string) (res dto.ExtraResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetExtra")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetExtra, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	extra, err := s.extraRepo.Get(ctx, shared.FilterByID(id, model.FieldID, model.ExtraTableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get extra")

		return res, fmt.Errorf("failed to get extra: %w", err)
	}

	if extra.ID == constant.Empty {
		return res, failure.NotFound("extra not found") // nolint:wrapcheck
	}

	res.FromModel(extra)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save extra to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) UpdateExtra(ctx context.Context, req dto.UpdateExtraRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateExtra")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req.Price != nil && req.Price.IsNegative() {
		return failure.BadRequestFromString(errNegativePriceMsg)
	}

	return s.writeExtra(ctx, id, shared.TransformFields(req, ctxUser(ctx)))
}

func (s *serviceImpl) DeleteExtra(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DeleteExtra")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	inactive := false

	return s.writeExtra(ctx, id, shared.TransformFields(dto.UpdateExtraRequest{Active: &inactive}, ctxUser(ctx)))
}

func (s *serviceImpl) writeExtra(ctx context.Context, id string, fields map[string]any) error {
	filter := shared.FilterByID(id, model.FieldID, model.ExtraTableName)

	exist, err := s.extraRepo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if extra exists")

		return fmt.Errorf("failed to check if extra exists: %w", err)
	}

	if !exist {
		return failure.NotFound("extra not found") // nolint:wrapcheck
	}

	if err := s.extraRepo.Update(ctx, fields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update extra")

		return fmt.Errorf("failed to update extra: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetExtra, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete extra from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllExtra)
		shared.InvalidateCaches(c, s.cache, cacheCountExtra)
	}()

	return nil
}

func ctxUser(ctx context.Context) string {
	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	return user
}
