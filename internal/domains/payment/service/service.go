package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cleanbook/config"
	"cleanbook/infras/kafka"
	"cleanbook/infras/otel"
	"cleanbook/infras/payment"
	"cleanbook/internal/domains/booking/event"
	bookingModel "cleanbook/internal/domains/booking/model"
	bookingRepo "cleanbook/internal/domains/booking/repository"
	"cleanbook/internal/domains/payment/model"
	"cleanbook/internal/domains/payment/model/dto"
	"cleanbook/internal/domains/payment/repository"
	"cleanbook/internal/pricing"
	"cleanbook/shared"
	"cleanbook/shared/cache"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/failure"
	gModel "cleanbook/shared/model"
	"cleanbook/shared/timezone"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

type Payment interface {
	CreateIntent(ctx context.Context, req dto.CreateIntentRequest) (dto.IntentResponse, error)
	Verify(ctx context.Context, req dto.VerifyRequest) (dto.PaymentResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetPaymentsResponse, error)
}

type serviceImpl struct {
	repo        repository.Payment
	bookingRepo bookingRepo.Booking
	gateway     payment.Gateway
	kafka       kafka.Client
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(
	repo repository.Payment,
	bookingRepo bookingRepo.Booking,
	gateway payment.Gateway,
	kafka kafka.Client,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Payment {
	return &serviceImpl{
		repo:        repo,
		bookingRepo: bookingRepo,
		gateway:     gateway,
		kafka:       kafka,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

func (s *serviceImpl) CreateIntent(ctx context.Context, req dto.CreateIntentRequest) (res dto.IntentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CreateIntent")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := s.payableBooking(ctx, req.BookingID)
	if err != nil {
		return res, err
	}

	if booking.CustomerID != userID {
		return res, failure.NotFound("booking not found")
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, payment.IntentRequest{
		Amount:         pricing.ToCents(booking.Total),
		Currency:       s.cfg.External.Stripe.Currency,
		Description:    "Cleaning booking " + booking.ID,
		ReceiptEmail:   booking.ContactEmail,
		IdempotencyKey: fmt.Sprintf("booking-%s-%d", booking.ID, pricing.ToCents(booking.Total)),
		Metadata:       map[string]string{model.MetadataBookingID: booking.ID},
	})
	if err != nil {
		if errors.Is(err, payment.ErrGatewayNotConfigured) {
			return res, failure.UnprocessableEntity("payments are not available")
		}

		log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to create payment intent")

		return res, fmt.Errorf("failed to create payment intent: %w", err)
	}

	res.IntentID = intent.ID
	res.ClientSecret = intent.ClientSecret
	res.Amount = pricing.FromCents(intent.Amount)
	res.Currency = intent.Currency

	return res, nil
}

// Verify confirms a succeeded intent against its booking and records it once per intent.
func (s *serviceImpl) Verify(ctx context.Context, req dto.VerifyRequest) (res dto.PaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Verify")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	scope.SetAttributes(map[string]any{"payment.intent_id": req.IntentID})

	existing, err := s.byIntent(ctx, req.IntentID)
	if err != nil {
		return res, err
	}

	if existing.ID != constant.Empty {
		return s.visible(ctx, existing)
	}

	intent, err := s.gateway.RetrievePaymentIntent(ctx, req.IntentID)
	if err != nil {
		if errors.Is(err, payment.ErrGatewayNotConfigured) {
			return res, failure.UnprocessableEntity("payments are not available")
		}

		log.Error().Err(err).Str("intent_id", req.IntentID).Msg("failed to retrieve payment intent")

		return res, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}

	if intent.Status != payment.StatusSucceeded {
		return res, failure.UnprocessableEntity(fmt.Sprintf("payment is %s", intent.Status))
	}

	bookingID := intent.Metadata[model.MetadataBookingID]
	if bookingID == constant.Empty || (req.BookingID != constant.Empty && req.BookingID != bookingID) {
		return res, failure.UnprocessableEntity("payment does not belong to this booking")
	}

	booking, err := s.payableBooking(ctx, bookingID)
	if err != nil {
		return res, err
	}

	if role != constant.RoleAdmin && booking.CustomerID != userID {
		return res, failure.NotFound("booking not found")
	}

	if !strings.EqualFold(intent.Currency, s.cfg.External.Stripe.Currency) {
		return res, failure.UnprocessableEntity("payment currency does not match")
	}

	if intent.Amount != pricing.ToCents(booking.Total) {
		log.Warn().
			Int64("intent_amount", intent.Amount).
			Str("booking_total", booking.Total.String()).
			Msg("payment amount mismatch")

		return res, failure.UnprocessableEntity("payment amount does not match the booking total")
	}

	now := timezone.Now()
	record := model.Payment{
		ID:        uuid.NewString(),
		BookingID: booking.ID,
		IntentID:  intent.ID,
		Amount:    pricing.FromCents(intent.Amount),
		Currency:  strings.ToLower(intent.Currency),
		Status:    intent.Status,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  userID,
			ModifiedBy: userID,
		},
	}

	fields := shared.TransformFields(struct{}{}, userID)
	fields[bookingModel.FieldPaymentStatus] = bookingModel.PaymentStatusPaid

	if booking.Status == bookingModel.StatusPending {
		fields[bookingModel.FieldStatus] = bookingModel.StatusConfirmed
	}

	err = s.repo.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.InsertTx(ctx, tx, record); err != nil {
			return err
		}

		updated, err := s.bookingRepo.UpdateAffectedTx(ctx, tx, fields, payableFilter(booking.ID))
		if err != nil {
			return err
		}

		if updated == 0 {
			return failure.Conflict("booking was cancelled or paid while the payment was verified")
		}

		return nil
	})
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return s.recorded(ctx, req.IntentID)
		}

		var fail *failure.Failure
		if errors.As(err, &fail) {
			return res, err
		}

		log.Error().Err(err).Str("intent_id", intent.ID).Msg("failed to record payment")

		return res, fmt.Errorf("failed to record payment: %w", err)
	}

	previous := booking.Status
	booking.PaymentStatus = bookingModel.PaymentStatusPaid
	if status, ok := fields[bookingModel.FieldStatus].(string); ok {
		booking.Status = status
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(bookingModel.CacheKeyGet, booking.ID)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}
	}()

	evt := event.New(event.TypePaymentConfirmed, booking)
	evt.PreviousStatus = previous
	event.Publish(ctx, s.kafka, s.cfg.Kafka.Topics.BookingEvents, evt)

	res.FromModel(record)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetPaymentsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count payments")

		return res, fmt.Errorf("failed to count payments: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get payments")

		return res, fmt.Errorf("failed to get payments: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	return res, nil
}

// payableBooking loads a booking that can still take a payment.
func (s *serviceImpl) payableBooking(ctx context.Context, id string) (bookingModel.Booking, error) {
	booking, err := s.bookingRepo.Get(ctx, shared.FilterByID(id, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found")
	}

	if booking.PaymentStatus == bookingModel.PaymentStatusPaid {
		return booking, failure.Conflict("booking is already paid")
	}

	if booking.Status == bookingModel.StatusCancelled {
		return booking, failure.Conflict("booking is cancelled")
	}

	return booking, nil
}

func (s *serviceImpl) byIntent(ctx context.Context, intentID string) (model.Payment, error) {
	record, err := s.repo.Get(ctx, shared.FilterByID(intentID, model.FieldIntentID, model.TableName))
	if err != nil {
		return record, fmt.Errorf("failed to get payment: %w", err)
	}

	return record, nil
}

// recorded returns the payment a concurrent verification stored first.
func (s *serviceImpl) recorded(ctx context.Context, intentID string) (res dto.PaymentResponse, err error) {
	record, err := s.byIntent(ctx, intentID)
	if err != nil {
		return res, err
	}

	if record.ID == constant.Empty {
		return res, failure.Conflict("payment is already being recorded")
	}

	return s.visible(ctx, record)
}

// visible returns a stored payment only to its booking's customer or an admin.
func (s *serviceImpl) visible(ctx context.Context, record model.Payment) (res dto.PaymentResponse, err error) {
	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	if role != constant.RoleAdmin {
		booking, err := s.bookingRepo.Get(ctx, shared.FilterByID(record.BookingID, bookingModel.FieldID, bookingModel.TableName))
		if err != nil {
			return res, fmt.Errorf("failed to get booking: %w", err)
		}

		if booking.ID == constant.Empty || booking.CustomerID != userID {
			return res, failure.NotFound("payment not found")
		}
	}

	res.FromModel(record)

	return res, nil
}

// payableFilter matches the booking only while it can still take a payment.
func payableFilter(id string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: bookingModel.FieldID, Value: id, Operator: gDto.FilterOperatorEq, Table: bookingModel.TableName},
			gDto.Filter{
				Field:    bookingModel.FieldStatus,
				Value:    []string{bookingModel.StatusPending, bookingModel.StatusConfirmed},
				Operator: gDto.FilterOperatorIn,
				Table:    bookingModel.TableName,
			},
			gDto.Filter{
				Field:    bookingModel.FieldPaymentStatus,
				Value:    bookingModel.PaymentStatusUnpaid,
				Operator: gDto.FilterOperatorEq,
				Table:    bookingModel.TableName,
			},
		},
		Operator: gDto.FilterGroupOperatorAnd,
	}
}
