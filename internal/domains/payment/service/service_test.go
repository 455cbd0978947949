package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"cleanbook/config"
	kafkaMocks "cleanbook/infras/kafka/mocks"
	"cleanbook/infras/otel/mocks"
	"cleanbook/infras/payment"
	paymentMocks "cleanbook/infras/payment/mocks"
	bookingMocks "cleanbook/internal/domains/booking/mocks"
	bookingModel "cleanbook/internal/domains/booking/model"
	repoMocks "cleanbook/internal/domains/payment/mocks"
	"cleanbook/internal/domains/payment/model"
	"cleanbook/internal/domains/payment/model/dto"
	"cleanbook/internal/domains/payment/service"
	cacheMocks "cleanbook/shared/cache/mocks"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/failure"
)

const bookingID = "5f0c1a2b-3c4d-4e5f-8a9b-0c1d2e3f4a5b"

type fixture struct {
	repo        *repoMocks.MockPayment
	bookingRepo *bookingMocks.MockBooking
	gateway     *paymentMocks.MockGateway
	kafka       *kafkaMocks.MockClient
	cache       *cacheMocks.MockRedisCache
	svc         service.Payment
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		repo:        repoMocks.NewMockPayment(ctrl),
		bookingRepo: bookingMocks.NewMockBooking(ctrl),
		gateway:     paymentMocks.NewMockGateway(ctrl),
		kafka:       kafkaMocks.NewMockClient(ctrl),
		cache:       cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.External.Stripe.Currency = "usd"
	cfg.Kafka.Topics.BookingEvents = "booking-events"

	f.svc = service.New(f.repo, f.bookingRepo, f.gateway, f.kafka, cfg, f.cache, mocks.NewOtel())

	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.kafka.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func userCtx(id, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, id)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func unpaidBooking() bookingModel.Booking {
	return bookingModel.Booking{
		ID:            bookingID,
		CustomerID:    "u-1",
		ContactEmail:  "jane@example.com",
		Total:         decimal.RequireFromString("146.59"),
		Status:        bookingModel.StatusPending,
		PaymentStatus: bookingModel.PaymentStatusUnpaid,
	}
}

func succeeded() payment.Intent {
	return payment.Intent{
		ID:       "pi_123",
		Status:   payment.StatusSucceeded,
		Currency: "usd",
		Amount:   14659,
		Metadata: map[string]string{model.MetadataBookingID: bookingID},
	}
}

func TestPaymentService_CreateIntent(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(f fixture)
		wantCode  int
	}{
		{
			name: "intent created in cents",
			setupMock: func(f fixture) {
				f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(unpaidBooking(), nil)
				f.gateway.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req payment.IntentRequest) (payment.Intent, error) {
						assert.Equal(t, int64(14659), req.Amount)
						assert.Equal(t, "usd", req.Currency)
						assert.Equal(t, bookingID, req.Metadata[model.MetadataBookingID])
						assert.NotEmpty(t, req.IdempotencyKey)

						return payment.Intent{ID: "pi_123", ClientSecret: "secret", Amount: req.Amount, Currency: req.Currency}, nil
					})
			},
		},
		{
			name: "someone else's booking",
			setupMock: func(f fixture) {
				b := unpaidBooking()
				b.CustomerID = "u-2"
				f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(b, nil)
			},
			wantCode: 404,
		},
		{
			name: "already paid",
			setupMock: func(f fixture) {
				b := unpaidBooking()
				b.PaymentStatus = bookingModel.PaymentStatusPaid
				f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(b, nil)
			},
			wantCode: 409,
		},
		{
			name: "cancelled booking",
			setupMock: func(f fixture) {
				b := unpaidBooking()
				b.Status = bookingModel.StatusCancelled
				f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(b, nil)
			},
			wantCode: 409,
		},
		{
			name: "gateway not configured",
			setupMock: func(f fixture) {
				f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(unpaidBooking(), nil)
				f.gateway.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).Return(payment.Intent{}, payment.ErrGatewayNotConfigured)
			},
			wantCode: 422,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.CreateIntent(userCtx("u-1", constant.RoleCustomer), dto.CreateIntentRequest{BookingID: bookingID})
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "secret", res.ClientSecret)
			assert.Equal(t, "146.59", res.Amount.String())
		})
	}
}

func TestPaymentService_Verify(t *testing.T) {
	runTransaction := func(f fixture) {
		f.repo.EXPECT().Transaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
				return fn(nil)
			})
	}

	tests := []struct {
		name      string
		req       dto.VerifyRequest
		setupMock func(f fixture)
		wantCode  int
	}{
		{
			name: "recorded and booking confirmed",
			req:  dto.VerifyRequest{IntentID: "pi_123", BookingID: bookingID},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{}, nil)
				f.gateway.EXPECT().RetrievePaymentIntent(gomock.Any(), "pi_123").Return(succeeded(), nil)
				f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(unpaidBooking(), nil)
				runTransaction(f)
				f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ *sqlx.Tx, p model.Payment) error {
						assert.Equal(t, "146.59", p.Amount.String())
						assert.Equal(t, bookingID, p.BookingID)

						return nil
					})
				f.bookingRepo.EXPECT().UpdateAffectedTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, filter gDto.FilterGroup) (int64, error) {
						assert.Equal(t, bookingModel.PaymentStatusPaid, fields[bookingModel.FieldPaymentStatus])
						assert.Equal(t, bookingModel.StatusConfirmed, fields[bookingModel.FieldStatus])

						where, args := filter.GetWhereClause()
						assert.Contains(t, where, "bookings.payment_status = :payment_status")
						assert.Equal(t, bookingModel.StatusPending, args["status_0"])
						assert.Equal(t, bookingModel.StatusConfirmed, args["status_1"])

						return 1, nil
					})
			},
		},
		{
			name: "booking cancelled before the payment was recorded",
			req:  dto.VerifyRequest{IntentID: "pi_123", BookingID: bookingID},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{}, nil)
				f.gateway.EXPECT().RetrievePaymentIntent(gomock.Any(), "pi_123").Return(succeeded(), nil)
				f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(unpaidBooking(), nil)
				runTransaction(f)
				f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				f.bookingRepo.EXPECT().UpdateAffectedTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)
			},
			wantCode: 409,
		},
		{
			name: "already recorded is returned as is",
			req:  dto.VerifyRequest{IntentID: "pi_123"},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{ID: "pay-1", IntentID: "pi_123", BookingID: bookingID}, nil)
				f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(unpaidBooking(), nil)
			},
		},
		{
			name: "recorded payment of another customer stays hidden",
			req:  dto.VerifyRequest{IntentID: "pi_123"},
			setupMock: func(f fixture) {
				b := unpaidBooking()
				b.CustomerID = "u-2"
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{ID: "pay-1", IntentID: "pi_123", BookingID: bookingID}, nil)
				f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(b, nil)
			},
			wantCode: 404,
		},
		{
			name: "intent not succeeded",
			req:  dto.VerifyRequest{IntentID: "pi_123"},
			setupMock: func(f fixture) {
				intent := succeeded()
				intent.Status = "requires_payment_method"
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{}, nil)
				f.gateway.EXPECT().RetrievePaymentIntent(gomock.Any(), "pi_123").Return(intent, nil)
			},
			wantCode: 422,
		},
		{
			name: "intent for another booking",
			req:  dto.VerifyRequest{IntentID: "pi_123", BookingID: "0d1e2f3a-4b5c-4d6e-8f7a-9b0c1d2e3f4a"},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{}, nil)
				f.gateway.EXPECT().RetrievePaymentIntent(gomock.Any(), "pi_123").Return(succeeded(), nil)
			},
			wantCode: 422,
		},
		{
			name: "amount differs from total",
			req:  dto.VerifyRequest{IntentID: "pi_123"},
			setupMock: func(f fixture) {
				intent := succeeded()
				intent.Amount = 100
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{}, nil)
				f.gateway.EXPECT().RetrievePaymentIntent(gomock.Any(), "pi_123").Return(intent, nil)
				f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(unpaidBooking(), nil)
			},
			wantCode: 422,
		},
		{
			name: "currency differs",
			req:  dto.VerifyRequest{IntentID: "pi_123"},
			setupMock: func(f fixture) {
				intent := succeeded()
				intent.Currency = "eur"
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{}, nil)
				f.gateway.EXPECT().RetrievePaymentIntent(gomock.Any(), "pi_123").Return(intent, nil)
				f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(unpaidBooking(), nil)
			},
			wantCode: 422,
		},
		{
			name: "concurrent verification wins",
			req:  dto.VerifyRequest{IntentID: "pi_123"},
			setupMock: func(f fixture) {
				gomock.InOrder(
					f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{}, nil),
					f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{ID: "pay-1", IntentID: "pi_123", BookingID: bookingID}, nil),
				)
				f.gateway.EXPECT().RetrievePaymentIntent(gomock.Any(), "pi_123").Return(succeeded(), nil)
				f.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(unpaidBooking(), nil).Times(2)
				runTransaction(f)
				f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(&pq.Error{Code: constant.PqErrorCodeUniqueViolation})
			},
		},
		{
			name: "gateway error",
			req:  dto.VerifyRequest{IntentID: "pi_123"},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{}, nil)
				f.gateway.EXPECT().RetrievePaymentIntent(gomock.Any(), "pi_123").Return(payment.Intent{}, errors.New("timeout"))
			},
			wantCode: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Verify(userCtx("u-1", constant.RoleCustomer), tt.req)
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "pi_123", res.IntentID)
		})
	}
}
