package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"cleanbook/config"
	kafkaMocks "cleanbook/infras/kafka/mocks"
	"cleanbook/infras/otel/mocks"
	"cleanbook/internal/domains/booking/draft"
	draftMocks "cleanbook/internal/domains/booking/draft/mocks"
	bookingMocks "cleanbook/internal/domains/booking/mocks"
	"cleanbook/internal/domains/booking/model"
	"cleanbook/internal/domains/booking/model/dto"
	"cleanbook/internal/domains/booking/service"
	catalogMocks "cleanbook/internal/domains/catalog/mocks"
	catalogModel "cleanbook/internal/domains/catalog/model"
	cleanerMocks "cleanbook/internal/domains/cleaner/service/mocks"
	promoModel "cleanbook/internal/domains/promo/model"
	promoService "cleanbook/internal/domains/promo/service"
	promoMocks "cleanbook/internal/domains/promo/service/mocks"
	cacheMocks "cleanbook/shared/cache/mocks"
	"cleanbook/shared/constant"
	"cleanbook/shared/failure"
)

const (
	serviceID = "9b2f7a64-7a8e-4a0b-9d0a-5d1e3c2b1a00"
	extraOne  = "0c9a1b2d-1111-4a0b-9d0a-5d1e3c2b1a01"
	extraTwo  = "0c9a1b2d-2222-4a0b-9d0a-5d1e3c2b1a02"
	cleanerID = "7d3e2f1a-3333-4a0b-9d0a-5d1e3c2b1a03"
)

type fixture struct {
	repo        *bookingMocks.MockBooking
	extraRepo   *bookingMocks.MockExtra
	serviceRepo *catalogMocks.MockService
	catalogRepo *catalogMocks.MockExtra
	promos      *promoMocks.MockPromo
	cleaners    *cleanerMocks.MockCleaner
	drafts      *draftMocks.MockStore
	kafka       *kafkaMocks.MockClient
	cache       *cacheMocks.MockRedisCache
	svc         service.Booking
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		repo:        bookingMocks.NewMockBooking(ctrl),
		extraRepo:   bookingMocks.NewMockExtra(ctrl),
		serviceRepo: catalogMocks.NewMockService(ctrl),
		catalogRepo: catalogMocks.NewMockExtra(ctrl),
		promos:      promoMocks.NewMockPromo(ctrl),
		cleaners:    cleanerMocks.NewMockCleaner(ctrl),
		drafts:      draftMocks.NewMockStore(ctrl),
		kafka:       kafkaMocks.NewMockClient(ctrl),
		cache:       cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Kafka.Topics.BookingEvents = "booking-events"
	cfg.Pricing.ServiceFeeRate = decimal.RequireFromString("0.05")
	cfg.Pricing.Tolerance = decimal.RequireFromString("0.01")

	f.svc = service.New(f.repo, f.extraRepo, f.serviceRepo, f.catalogRepo, f.promos, f.cleaners, f.drafts, f.kafka, cfg, f.cache, mocks.NewOtel())

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.kafka.EXPECT().SendMessages(gomock.Any(), "booking-events", gomock.Any()).Return(nil).AnyTimes()

	return f
}

func (f fixture) runTransactions() {
	f.repo.EXPECT().Transaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
}

func (f fixture) expectCatalog() {
	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(catalogModel.Service{
		ID:           serviceID,
		Name:         "Standard Clean",
		BasePrice:    decimal.NewFromInt(80),
		BedroomRate:  decimal.NewFromInt(15),
		BathroomRate: decimal.NewFromInt(10),
		Active:       true,
	}, nil)
	f.catalogRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Extra{
		{ID: extraOne, Price: decimal.RequireFromString("25"), Active: true},
		{ID: extraTwo, Price: decimal.RequireFromString("12.50"), Active: true},
	}, nil)
}

func userCtx(id, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, id)
	ctx = context.WithValue(ctx, constant.ContextKeyUserEmail, id+"@example.com")

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func quoteRequest() dto.QuoteRequest {
	return dto.QuoteRequest{
		ServiceID: serviceID,
		Bedrooms:  3,
		Bathrooms: 2,
		ExtraIDs:  []string{extraTwo, extraOne, extraOne},
		Frequency: "weekly",
	}
}

func createRequest(total string) dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		QuoteRequest: quoteRequest(),
		Date:         time.Now().AddDate(0, 0, 7).Format(constant.DateOnlyFormat),
		Time:         "09:30",
		Location:     "Downtown",
		Total:        decimal.RequireFromString(total),
	}
}

func TestBookingService_Quote(t *testing.T) {
	f := newFixture(t)
	f.expectCatalog()

	res, err := f.svc.Quote(userCtx("u-1", constant.RoleCustomer), quoteRequest())
	assert.NoError(t, err)
	assert.Equal(t, "182.5", res.Subtotal.String())
	assert.Equal(t, "27.38", res.FrequencyDiscount.String())
	assert.Equal(t, "7.76", res.ServiceFee.String())
	assert.Equal(t, "162.88", res.Total.String())
	assert.Equal(t, "Standard Clean", res.ServiceName)
}

func TestBookingService_Quote_Errors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(f fixture)
		wantCode  int
	}{
		{
			name: "inactive service",
			setupMock: func(f fixture) {
				f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(catalogModel.Service{ID: serviceID}, nil)
			},
			wantCode: 422,
		},
		{
			name: "missing extra",
			setupMock: func(f fixture) {
				f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(catalogModel.Service{ID: serviceID, Active: true}, nil)
				f.catalogRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]catalogModel.Extra{{ID: extraOne, Active: true}}, nil)
			},
			wantCode: 422,
		},
		{
			name: "service lookup fails",
			setupMock: func(f fixture) {
				f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(catalogModel.Service{}, errors.New("db down"))
			},
			wantCode: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			_, err := f.svc.Quote(userCtx("u-1", constant.RoleCustomer), quoteRequest())
			assert.Equal(t, tt.wantCode, failure.GetCode(err))
		})
	}
}

func TestBookingService_Create(t *testing.T) {
	redemption := promoService.Redemption{
		Promo: promoModel.Promo{ID: "p-1", Code: "SPRING10", Kind: "percent", Value: decimal.NewFromInt(10), Active: true},
		Claim: promoModel.Claim{ID: "claim-1", PromoID: "p-1", UserID: "u-1"},
	}

	tests := []struct {
		name      string
		req       func() dto.CreateBookingRequest
		setupMock func(f fixture)
		wantCode  int
		check     func(t *testing.T, res dto.BookingResponse)
	}{
		{
			name: "created within tolerance",
			req:  func() dto.CreateBookingRequest { return createRequest("162.87") },
			setupMock: func(f fixture) {
				f.expectCatalog()
				f.runTransactions()
				f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ *sqlx.Tx, b model.Booking) error {
						assert.Equal(t, "u-1", b.CustomerID)
						assert.Equal(t, "u-1@example.com", b.ContactEmail)
						assert.Equal(t, model.StatusPending, b.Status)
						assert.Equal(t, model.PaymentStatusUnpaid, b.PaymentStatus)
						assert.Nil(t, b.CleanerID)

						return nil
					})
				f.extraRepo.EXPECT().InsertBulkTx(gomock.Any(), gomock.Any(), gomock.Len(2)).Return(nil)
				f.drafts.EXPECT().Delete(gomock.Any(), "u-1").Return(nil)
			},
			check: func(t *testing.T, res dto.BookingResponse) {
				assert.Equal(t, "162.88", res.Total.String())
				assert.Len(t, res.Extras, 2)
			},
		},
		{
			name: "promo redeemed with cleaner",
			req: func() dto.CreateBookingRequest {
				req := createRequest("146.59")
				req.PromoCode = "spring10"
				req.CleanerID = cleanerID

				return req
			},
			setupMock: func(f fixture) {
				f.expectCatalog()
				f.promos.EXPECT().Redeemable(gomock.Any(), "u-1", "spring10").Return(redemption, nil)
				f.cleaners.EXPECT().IsAvailable(gomock.Any(), cleanerID, gomock.Any(), "09:30").Return(true, nil)
				f.runTransactions()
				f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				f.extraRepo.EXPECT().InsertBulkTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				f.promos.EXPECT().RedeemTx(gomock.Any(), gomock.Any(), "claim-1", gomock.Any()).Return(nil)
				f.drafts.EXPECT().Delete(gomock.Any(), "u-1").Return(errors.New("redis down"))
			},
			check: func(t *testing.T, res dto.BookingResponse) {
				assert.Equal(t, "15.51", res.PromoDiscount.String())
				assert.Equal(t, "p-1", *res.PromoID)
				assert.Equal(t, cleanerID, *res.CleanerID)
			},
		},
		{
			name: "client total drifted",
			req:  func() dto.CreateBookingRequest { return createRequest("150.00") },
			setupMock: func(f fixture) {
				f.expectCatalog()
			},
			wantCode: 409,
		},
		{
			name: "cleaner busy",
			req: func() dto.CreateBookingRequest {
				req := createRequest("162.88")
				req.CleanerID = cleanerID

				return req
			},
			setupMock: func(f fixture) {
				f.expectCatalog()
				f.cleaners.EXPECT().IsAvailable(gomock.Any(), cleanerID, gomock.Any(), "09:30").Return(false, nil)
			},
			wantCode: 409,
		},
		{
			name: "slot taken concurrently",
			req:  func() dto.CreateBookingRequest { return createRequest("162.88") },
			setupMock: func(f fixture) {
				f.expectCatalog()
				f.runTransactions()
				f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(&pq.Error{Code: constant.PqErrorCodeUniqueViolation})
			},
			wantCode: 409,
		},
		{
			name: "promo already redeemed",
			req: func() dto.CreateBookingRequest {
				req := createRequest("146.59")
				req.PromoCode = "spring10"

				return req
			},
			setupMock: func(f fixture) {
				f.expectCatalog()
				f.promos.EXPECT().Redeemable(gomock.Any(), "u-1", "spring10").Return(redemption, nil)
				f.runTransactions()
				f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				f.extraRepo.EXPECT().InsertBulkTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				f.promos.EXPECT().RedeemTx(gomock.Any(), gomock.Any(), "claim-1", gomock.Any()).
					Return(failure.Conflict("promo has already been redeemed"))
			},
			wantCode: 409,
		},
		{
			name: "date in the past",
			req: func() dto.CreateBookingRequest {
				req := createRequest("162.88")
				req.Date = "2020-01-01"

				return req
			},
			setupMock: func(fixture) {},
			wantCode:  422,
		},
		{
			name: "insert fails",
			req:  func() dto.CreateBookingRequest { return createRequest("162.88") },
			setupMock: func(f fixture) {
				f.expectCatalog()
				f.runTransactions()
				f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
			wantCode: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Create(userCtx("u-1", constant.RoleCustomer), tt.req())
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			tt.check(t, res)
		})
	}
}

func TestBookingService_UpdateStatus(t *testing.T) {
	assigned := cleanerID

	booking := func(status string) model.Booking {
		return model.Booking{
			ID:            "b-1",
			CustomerID:    "u-1",
			CleanerID:     &assigned,
			Status:        status,
			ScheduledDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			ScheduledTime: "09:30",
		}
	}

	tests := []struct {
		name      string
		ctx       context.Context
		req       dto.UpdateStatusRequest
		setupMock func(f fixture)
		wantCode  int
	}{
		{
			name: "customer cancels own booking",
			ctx:  userCtx("u-1", constant.RoleCustomer),
			req:  dto.UpdateStatusRequest{Status: model.StatusCancelled, Reason: "moving out"},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusPending), nil)
				f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ any) (int64, error) {
						assert.Equal(t, model.StatusCancelled, fields[model.FieldStatus])
						assert.Equal(t, "moving out", fields[model.FieldCancellation])

						return 1, nil
					})
			},
		},
		{
			name: "customer cannot confirm",
			ctx:  userCtx("u-1", constant.RoleCustomer),
			req:  dto.UpdateStatusRequest{Status: model.StatusConfirmed},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusPending), nil)
			},
			wantCode: 403,
		},
		{
			name: "other customer sees nothing",
			ctx:  userCtx("u-2", constant.RoleCustomer),
			req:  dto.UpdateStatusRequest{Status: model.StatusCancelled},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusPending), nil)
			},
			wantCode: 404,
		},
		{
			name: "assigned cleaner completes",
			ctx:  userCtx(cleanerID, constant.RoleCleaner),
			req:  dto.UpdateStatusRequest{Status: model.StatusCompleted},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusConfirmed), nil)
				f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
				f.cleaners.EXPECT().RecordCompletedJob(gomock.Any(), cleanerID).Return(nil)
			},
		},
		{
			name: "status changed since it was read",
			ctx:  userCtx(cleanerID, constant.RoleCleaner),
			req:  dto.UpdateStatusRequest{Status: model.StatusCompleted},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusConfirmed), nil)
				f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)
			},
			wantCode: 409,
		},
		{
			name: "pending cannot complete",
			ctx:  userCtx(cleanerID, constant.RoleCleaner),
			req:  dto.UpdateStatusRequest{Status: model.StatusCompleted},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusPending), nil)
			},
			wantCode: 409,
		},
		{
			name: "admin cannot reopen cancelled",
			ctx:  userCtx("admin-1", constant.RoleAdmin),
			req:  dto.UpdateStatusRequest{Status: model.StatusConfirmed},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusCancelled), nil)
			},
			wantCode: 409,
		},
		{
			name: "unknown booking",
			ctx:  userCtx("admin-1", constant.RoleAdmin),
			req:  dto.UpdateStatusRequest{Status: model.StatusConfirmed},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)
			},
			wantCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			err := f.svc.UpdateStatus(tt.ctx, tt.req, "b-1")
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestBookingService_AssignCleaner(t *testing.T) {
	pending := model.Booking{
		ID:            "b-1",
		CustomerID:    "u-1",
		Status:        model.StatusPending,
		ScheduledDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		ScheduledTime: "09:30",
	}

	t.Run("assigned", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
		f.cleaners.EXPECT().IsAvailable(gomock.Any(), cleanerID, pending.ScheduledDate, "09:30").Return(true, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
				assert.Equal(t, cleanerID, fields[model.FieldCleanerID])

				return nil
			})

		assert.NoError(t, f.svc.AssignCleaner(userCtx("admin-1", constant.RoleAdmin), dto.AssignCleanerRequest{CleanerID: cleanerID}, "b-1"))
	})

	t.Run("busy cleaner", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
		f.cleaners.EXPECT().IsAvailable(gomock.Any(), cleanerID, gomock.Any(), gomock.Any()).Return(false, nil)

		err := f.svc.AssignCleaner(userCtx("admin-1", constant.RoleAdmin), dto.AssignCleanerRequest{CleanerID: cleanerID}, "b-1")
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("completed booking", func(t *testing.T) {
		f := newFixture(t)
		done := pending
		done.Status = model.StatusCompleted

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(done, nil)

		err := f.svc.AssignCleaner(userCtx("admin-1", constant.RoleAdmin), dto.AssignCleanerRequest{CleanerID: cleanerID}, "b-1")
		assert.Equal(t, 409, failure.GetCode(err))
	})
}

func TestBookingService_Get(t *testing.T) {
	b := model.Booking{ID: "b-1", CustomerID: "u-1", Status: model.StatusPending}

	tests := []struct {
		name     string
		ctx      context.Context
		wantCode int
	}{
		{name: "owner", ctx: userCtx("u-1", constant.RoleCustomer)},
		{name: "admin", ctx: userCtx("admin-1", constant.RoleAdmin)},
		{name: "stranger", ctx: userCtx("u-2", constant.RoleCustomer), wantCode: 404},
		{name: "unassigned cleaner", ctx: userCtx(cleanerID, constant.RoleCleaner), wantCode: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			f.cache.EXPECT().Get(gomock.Any(), "booking:get:b-1", gomock.Any()).Return(errors.New("miss"))
			f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(b, nil)
			f.extraRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

			res, err := f.svc.Get(tt.ctx, "b-1")
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "b-1", res.ID)
		})
	}
}

func TestBookingService_Drafts(t *testing.T) {
	t.Run("invalid step is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.SaveDraft(userCtx("u-1", constant.RoleCustomer), draft.Draft{}, draft.StepSchedule)
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("saved with quote", func(t *testing.T) {
		f := newFixture(t)
		f.expectCatalog()

		d := draft.Draft{ServiceID: serviceID, Bedrooms: 3, Bathrooms: 2, ExtraIDs: []string{extraOne, extraTwo}, Frequency: "weekly"}

		f.drafts.EXPECT().Save(gomock.Any(), "u-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, saved draft.Draft) (draft.Draft, error) {
				assert.Equal(t, draft.StepDetails, saved.Step)
				assert.Equal(t, "Standard Clean", saved.ServiceName)
				assert.Equal(t, "162.88", saved.Quote.Total.String())

				return saved, nil
			})

		_, err := f.svc.SaveDraft(userCtx("u-1", constant.RoleCustomer), d, draft.StepDetails)
		assert.NoError(t, err)
	})

	t.Run("missing draft", func(t *testing.T) {
		f := newFixture(t)

		f.drafts.EXPECT().Get(gomock.Any(), "u-1").Return(draft.Draft{}, false, nil)

		_, err := f.svc.GetDraft(userCtx("u-1", constant.RoleCustomer))
		assert.Equal(t, 404, failure.GetCode(err))
	})
}
