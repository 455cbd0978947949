package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"cleanbook/config"
	"cleanbook/infras/kafka"
	"cleanbook/infras/otel"
	"cleanbook/internal/domains/booking/draft"
	"cleanbook/internal/domains/booking/event"
	"cleanbook/internal/domains/booking/model"
	"cleanbook/internal/domains/booking/model/dto"
	"cleanbook/internal/domains/booking/repository"
	catalogModel "cleanbook/internal/domains/catalog/model"
	catalogRepo "cleanbook/internal/domains/catalog/repository"
	cleanerService "cleanbook/internal/domains/cleaner/service"
	promoService "cleanbook/internal/domains/promo/service"
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
	"github.com/shopspring/decimal"
)

type Booking interface {
	SaveDraft(ctx context.Context, req draft.Draft, step string) (draft.Draft, error)
	GetDraft(ctx context.Context) (draft.Draft, error)
	DiscardDraft(ctx context.Context) error
	Quote(ctx context.Context, req dto.QuoteRequest) (dto.QuoteResponse, error)

	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Mine(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Assigned(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	UpdateStatus(ctx context.Context, req dto.UpdateStatusRequest, id string) error
	AssignCleaner(ctx context.Context, req dto.AssignCleanerRequest, id string) error
}

type serviceImpl struct {
	repo        repository.Booking
	extraRepo   repository.Extra
	serviceRepo catalogRepo.Service
	catalogRepo catalogRepo.Extra
	promos      promoService.Promo
	cleaners    cleanerService.Cleaner
	drafts      draft.Store
	kafka       kafka.Client
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(
	repo repository.Booking,
	extraRepo repository.Extra,
	serviceRepo catalogRepo.Service,
	catalogExtraRepo catalogRepo.Extra,
	promos promoService.Promo,
	cleaners cleanerService.Cleaner,
	drafts draft.Store,
	kafka kafka.Client,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:        repo,
		extraRepo:   extraRepo,
		serviceRepo: serviceRepo,
		catalogRepo: catalogExtraRepo,
		promos:      promos,
		cleaners:    cleaners,
		drafts:      drafts,
		kafka:       kafka,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

type priced struct {
	service    catalogModel.Service
	extras     []catalogModel.Extra
	redemption *promoService.Redemption
	breakdown  pricing.Breakdown
}

// SaveDraft stores the draft and, when step is set, checks every step up to it first.
func (s *serviceImpl) SaveDraft(ctx context.Context, req draft.Draft, step string) (res draft.Draft, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SaveDraft")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if step != constant.Empty {
		if err = req.Validate(step); err != nil {
			return res, failure.BadRequest(err)
		}

		req.Step = step
	}

	req.Quote = nil
	if req.ServiceID != constant.Empty {
		quote, err := s.price(ctx, userID, dto.QuoteRequestFromDraft(req))
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("draft saved without quote")
		} else {
			req.ServiceName = quote.service.Name
			req.Quote = &quote.breakdown
		}
	}

	return s.drafts.Save(ctx, userID, req)
}

func (s *serviceImpl) GetDraft(ctx context.Context) (res draft.Draft, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetDraft")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	res, found, err := s.drafts.Get(ctx, userID)
	if err != nil {
		return res, err
	}

	if !found {
		return res, failure.NotFound("booking draft not found")
	}

	return res, nil
}

func (s *serviceImpl) DiscardDraft(ctx context.Context) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DiscardDraft")
	defer scope.End()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	return s.drafts.Delete(ctx, userID)
}

func (s *serviceImpl) Quote(ctx context.Context, req dto.QuoteRequest) (res dto.QuoteResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Quote")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	p, err := s.price(ctx, userID, req)
	if err != nil {
		return res, err
	}

	res.Breakdown = p.breakdown
	res.ServiceName = p.service.Name

	if p.redemption != nil {
		res.PromoCode = p.redemption.Promo.Code
	}

	return res, nil
}

// Create recomputes the price, rejects totals that drift from the client's, and stores the booking.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	contactEmail := req.ContactEmail
	if contactEmail == constant.Empty {
		contactEmail, _ = ctx.Value(constant.ContextKeyUserEmail).(string)
	}

	scheduledAt, err := req.ScheduledAt()
	if err != nil {
		return res, failure.BadRequestFromString("invalid date or time")
	}

	if !scheduledAt.After(timezone.Now()) {
		return res, failure.UnprocessableEntity("scheduled time must be in the future")
	}

	p, err := s.price(ctx, userID, req.QuoteRequest)
	if err != nil {
		return res, err
	}

	scope.SetAttributes(map[string]any{
		"booking.client_total": req.Total.String(),
		"booking.server_total": p.breakdown.Total.String(),
	})

	if !pricing.Matches(req.Total, p.breakdown.Total, s.cfg.Pricing.Tolerance) {
		log.Warn().
			Str("client_total", req.Total.String()).
			Str("server_total", p.breakdown.Total.String()).
			Msg("booking total mismatch")

		return res, failure.Conflict(fmt.Sprintf("price has changed, expected total %s", p.breakdown.Total.StringFixed(2)))
	}

	if req.CleanerID != constant.Empty {
		available, err := s.cleaners.IsAvailable(ctx, req.CleanerID, scheduledAt, req.Time)
		if err != nil {
			return res, err
		}

		if !available {
			return res, failure.Conflict("cleaner is not available at the selected time")
		}
	}

	var promoID *string
	if p.redemption != nil {
		promoID = &p.redemption.Promo.ID
	}

	booking, err := req.ToModel(userID, contactEmail, p.breakdown, promoID)
	if err != nil {
		return res, failure.BadRequest(err)
	}

	extras := make([]model.Extra, len(p.extras))
	for i, extra := range p.extras {
		extras[i] = model.Extra{
			ID:        uuid.NewString(),
			BookingID: booking.ID,
			ExtraID:   extra.ID,
			Price:     extra.Price,
		}
	}

	err = s.repo.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.InsertTx(ctx, tx, booking); err != nil {
			return err
		}

		if len(extras) > 0 {
			if err := s.extraRepo.InsertBulkTx(ctx, tx, extras); err != nil {
				return err
			}
		}

		if p.redemption != nil {
			return s.promos.RedeemTx(ctx, tx, p.redemption.Claim.ID, booking.ID)
		}

		return nil
	})
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return res, failure.Conflict("cleaner is not available at the selected time")
		}

		var f *failure.Failure
		if errors.As(err, &f) {
			return res, err
		}

		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := s.drafts.Delete(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to discard booking draft")
	}

	event.Publish(ctx, s.kafka, s.cfg.Kafka.Topics.BookingEvents, event.New(event.TypeCreated, booking))

	res.FromModel(booking)
	res.WithExtras(extras)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.list(ctx, req, filter)
}

func (s *serviceImpl) Mine(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Mine")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	return s.list(ctx, req, shared.ScopeFilter(filter, model.FieldCustomerID, userID, model.TableName))
}

func (s *serviceImpl) Assigned(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Assigned")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	return s.list(ctx, req, shared.ScopeFilter(filter, model.FieldCleanerID, userID, model.TableName))
}

func (s *serviceImpl) list(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	return res, nil
}

// Get returns the booking to its customer, its assigned cleaner, or an admin.
func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(model.CacheKeyGet, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err != nil {
		booking, err := s.load(ctx, id)
		if err != nil {
			return res, err
		}

		extras, err := s.extraRepo.GetAll(ctx, gDto.QueryParams{}, shared.FilterByID(id, model.FieldBookingID, model.ExtraTableName))
		if err != nil {
			return res, fmt.Errorf("failed to get booking extras: %w", err)
		}

		res.FromModel(booking)
		res.WithExtras(extras)

		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
				log.Error().Err(err).Msg("failed to save booking to cache")
			}
		}()
	}

	if !canView(ctx, res.CustomerID, res.CleanerID) {
		return dto.BookingResponse{}, failure.NotFound("booking not found")
	}

	return res, nil
}

func (s *serviceImpl) UpdateStatus(ctx context.Context, req dto.UpdateStatusRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if !canView(ctx, booking.CustomerID, booking.CleanerID) {
		return failure.NotFound("booking not found")
	}

	if !model.AllowedFor(role, req.Status) || (role == constant.RoleCleaner && !booking.AssignedTo(userID)) {
		return failure.Forbidden(fmt.Sprintf("%s cannot mark this booking %s", role, req.Status))
	}

	if !model.CanTransition(booking.Status, req.Status) {
		return failure.Conflict(fmt.Sprintf("booking cannot move from %s to %s", booking.Status, req.Status))
	}

	fields := shared.TransformFields(struct{}{}, userID)
	fields[model.FieldStatus] = req.Status

	if req.Status == model.StatusCancelled && req.Reason != constant.Empty {
		fields[model.FieldCancellation] = req.Reason
		booking.CancellationReason = &req.Reason
	}

	updated, err := s.repo.UpdateAffected(ctx, fields, statusFilter(id, booking.Status))
	if err != nil {
		log.Error().Err(err).Msg("failed to update booking status")

		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if updated == 0 {
		s.invalidate(ctx, id)

		return failure.Conflict(fmt.Sprintf("booking is no longer %s", booking.Status))
	}

	previous := booking.Status
	booking.Status = req.Status

	if req.Status == model.StatusCompleted && booking.CleanerID != nil {
		if err := s.cleaners.RecordCompletedJob(ctx, *booking.CleanerID); err != nil {
			log.Error().Err(err).Str("cleaner_id", *booking.CleanerID).Msg("failed to record completed job")
		}
	}

	s.invalidate(ctx, id)

	evt := event.New(event.TypeStatusChanged, booking)
	evt.PreviousStatus = previous
	event.Publish(ctx, s.kafka, s.cfg.Kafka.Topics.BookingEvents, evt)

	return nil
}

func (s *serviceImpl) AssignCleaner(ctx context.Context, req dto.AssignCleanerRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".AssignCleaner")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if booking.Status != model.StatusPending && booking.Status != model.StatusConfirmed {
		return failure.Conflict(fmt.Sprintf("cannot assign a cleaner to a %s booking", booking.Status))
	}

	if booking.AssignedTo(req.CleanerID) {
		return nil
	}

	available, err := s.cleaners.IsAvailable(ctx, req.CleanerID, booking.ScheduledDate, booking.ScheduledTime)
	if err != nil {
		return err
	}

	if !available {
		return failure.Conflict("cleaner is not available at the booking time")
	}

	fields := shared.TransformFields(struct{}{}, userID)
	fields[model.FieldCleanerID] = req.CleanerID

	if err = s.repo.Update(ctx, fields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		if shared.IsUniqueViolation(err) {
			return failure.Conflict("cleaner is not available at the booking time")
		}

		return fmt.Errorf("failed to assign cleaner: %w", err)
	}

	booking.CleanerID = &req.CleanerID

	s.invalidate(ctx, id)
	event.Publish(ctx, s.kafka, s.cfg.Kafka.Topics.BookingEvents, event.New(event.TypeCleanerAssigned, booking))

	return nil
}

// price loads the catalog entries and promo behind req and runs the pricing function.
func (s *serviceImpl) price(ctx context.Context, userID string, req dto.QuoteRequest) (res priced, err error) {
	res.service, err = s.serviceRepo.Get(ctx, shared.FilterByID(req.ServiceID, catalogModel.FieldID, catalogModel.ServiceTableName))
	if err != nil {
		return res, fmt.Errorf("failed to get service: %w", err)
	}

	if res.service.ID == constant.Empty || !res.service.Active {
		return res, failure.UnprocessableEntity("service is not available")
	}

	extraIDs := req.UniqueExtraIDs()
	if len(extraIDs) > 0 {
		res.extras, err = s.catalogRepo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{
			Filters: []any{
				gDto.Filter{Field: catalogModel.FieldID, Value: extraIDs, Operator: gDto.FilterOperatorIn, Table: catalogModel.ExtraTableName},
				gDto.Filter{Field: catalogModel.FieldActive, Value: true, Operator: gDto.FilterOperatorEq, Table: catalogModel.ExtraTableName},
			},
			Operator: gDto.FilterGroupOperatorAnd,
		})
		if err != nil {
			return res, fmt.Errorf("failed to get extras: %w", err)
		}

		if len(res.extras) != len(extraIDs) {
			return res, failure.UnprocessableEntity("one or more extras are not available")
		}
	}

	in := pricing.Input{
		ServiceID:      res.service.ID,
		BasePrice:      res.service.BasePrice,
		BedroomRate:    res.service.BedroomRate,
		BathroomRate:   res.service.BathroomRate,
		Bedrooms:       req.Bedrooms,
		Bathrooms:      req.Bathrooms,
		Extras:         make([]decimal.Decimal, len(res.extras)),
		Frequency:      pricing.Frequency(req.Frequency),
		ServiceFeeRate: s.cfg.Pricing.ServiceFeeRate,
	}

	for i, extra := range res.extras {
		in.Extras[i] = extra.Price
	}

	if req.PromoCode != constant.Empty {
		redemption, err := s.promos.Redeemable(ctx, userID, req.PromoCode)
		if err != nil {
			return res, err
		}

		res.redemption = &redemption
		in.Promo = redemption.Promo.ToPricing()
	}

	res.breakdown, err = pricing.Calculate(in)

	switch {
	case errors.Is(err, pricing.ErrPromoNotApplicable):
		return res, failure.UnprocessableEntity(err.Error())
	case err != nil:
		return res, failure.BadRequest(err)
	}

	return res, nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found")
	}

	return booking, nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(model.CacheKeyGet, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}
	}()
}

// canView hides bookings from everyone but their customer, their cleaner and admins.
func canView(ctx context.Context, customerID string, cleanerID *string) bool {
	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	switch role {
	case constant.RoleAdmin:
		return true
	case constant.RoleCleaner:
		return (cleanerID != nil && *cleanerID == userID) || customerID == userID
	default:
		return customerID == userID
	}
}

func statusFilter(id, status string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldID, Value: id, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldStatus, Value: status, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
		Operator: gDto.FilterGroupOperatorAnd,
	}
}
