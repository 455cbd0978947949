package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"

	"cleanbook/config"
	"cleanbook/infras/otel"
	bookingModel "cleanbook/internal/domains/booking/model"
	bookingRepo "cleanbook/internal/domains/booking/repository"
	cleanerService "cleanbook/internal/domains/cleaner/service"
	"cleanbook/internal/domains/review/model"
	"cleanbook/internal/domains/review/model/dto"
	"cleanbook/internal/domains/review/repository"
	"cleanbook/shared"
	"cleanbook/shared/cache"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/failure"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const cacheGetCleanerReviews = "review:cleaner"

type Review interface {
	Create(ctx context.Context, req dto.CreateReviewRequest) (dto.ReviewResponse, error)
	ByCleaner(ctx context.Context, cleanerID string, req gDto.QueryParams) (dto.GetReviewsResponse, error)
}

type serviceImpl struct {
	repo        repository.Review
	bookingRepo bookingRepo.Booking
	cleaners    cleanerService.Cleaner
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(
	repo repository.Review,
	bookingRepo bookingRepo.Booking,
	cleaners cleanerService.Cleaner,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Review {
	return &serviceImpl{
		repo:        repo,
		bookingRepo: bookingRepo,
		cleaners:    cleaners,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

// Create stores the caller's review of a completed booking and refreshes the cleaner's rating.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateReviewRequest) (res dto.ReviewResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := s.bookingRepo.Get(ctx, shared.FilterByID(req.BookingID, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty || booking.CustomerID != userID {
		return res, failure.NotFound("booking not found")
	}

	if booking.Status != bookingModel.StatusCompleted || booking.CleanerID == nil {
		return res, failure.UnprocessableEntity("only completed bookings can be reviewed")
	}

	exist, err := s.repo.Exist(ctx, shared.FilterByID(req.BookingID, model.FieldBookingID, model.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to check review: %w", err)
	}

	if exist {
		return res, failure.Conflict("booking has already been reviewed")
	}

	review := req.ToModel(userID, *booking.CleanerID)

	if err = s.repo.Insert(ctx, review); err != nil {
		if shared.IsUniqueViolation(err) {
			return res, failure.Conflict("booking has already been reviewed")
		}

		log.Error().Err(err).Msg("failed to create review")

		return res, fmt.Errorf("failed to create review: %w", err)
	}

	if err := s.refreshRating(ctx, review.CleanerID); err != nil {
		log.Error().Err(err).Str("cleaner_id", review.CleanerID).Msg("failed to refresh cleaner rating")
	}

	go shared.InvalidateCaches(context.WithoutCancel(ctx), s.cache, shared.BuildCacheKey(cacheGetCleanerReviews, review.CleanerID))

	res.FromModel(review)

	return res, nil
}

func (s *serviceImpl) ByCleaner(ctx context.Context, cleanerID string, req gDto.QueryParams) (res dto.GetReviewsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ByCleaner")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter := shared.FilterByID(cleanerID, model.FieldCleanerID, model.TableName)
	cacheKey := shared.BuildCacheKeyWithQuery(shared.BuildCacheKey(cacheGetCleanerReviews, cleanerID), req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reviews")

		return res, fmt.Errorf("failed to count reviews: %w", err)
	}

	if req.SortBy == constant.Empty {
		req.SortBy, req.SortDir = model.FieldCreatedAt, gDto.SortDirDesc
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reviews")

		return res, fmt.Errorf("failed to get reviews: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reviews to cache")
		}
	}()

	return res, nil
}

// refreshRating recomputes the average from every review so concurrent reviews cannot drift it.
func (s *serviceImpl) refreshRating(ctx context.Context, cleanerID string) error {
	filter := shared.FilterByID(cleanerID, model.FieldCleanerID, model.TableName)

	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to count reviews: %w", err)
	}

	if count == 0 {
		return nil
	}

	sum, err := s.repo.Sum(ctx, model.FieldRating, filter)
	if err != nil {
		return fmt.Errorf("failed to sum ratings: %w", err)
	}

	return s.cleaners.RecordRating(ctx, cleanerID, sum.Div(decimal.NewFromInt(int64(count))), count)
}
