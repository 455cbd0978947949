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
	"cleanbook/infras/otel/mocks"
	promoMocks "cleanbook/internal/domains/promo/mocks"
	"cleanbook/internal/domains/promo/model"
	"cleanbook/internal/domains/promo/model/dto"
	"cleanbook/internal/domains/promo/service"
	cacheMocks "cleanbook/shared/cache/mocks"
	"cleanbook/shared/constant"
	"cleanbook/shared/failure"
)

type fixture struct {
	repo      *promoMocks.MockPromo
	claimRepo *promoMocks.MockClaim
	cache     *cacheMocks.MockRedisCache
	svc       service.Promo
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		repo:      promoMocks.NewMockPromo(ctrl),
		claimRepo: promoMocks.NewMockClaim(ctrl),
		cache:     cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	f.svc = service.New(f.repo, f.claimRepo, cfg, f.cache, mocks.NewOtel())

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func (f fixture) runTransactions() {
	f.repo.EXPECT().Transaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
}

func userCtx(id string) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyUserID, id)
}

func activePromo() model.Promo {
	return model.Promo{ID: "p-1", Code: "SPRING10", Kind: "percent", Value: decimal.NewFromInt(10), Active: true}
}

func TestPromoService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreatePromoRequest
		setupMock func(f fixture)
		wantCode  int
	}{
		{
			name: "created with normalized code",
			req:  dto.CreatePromoRequest{Code: "spring10", Kind: "percent", Value: decimal.NewFromInt(10)},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p model.Promo) error {
						assert.Equal(t, "SPRING10", p.Code)
						assert.True(t, p.Active)

						return nil
					})
			},
		},
		{
			name:      "percent above hundred",
			req:       dto.CreatePromoRequest{Code: "BIG", Kind: "percent", Value: decimal.NewFromInt(120)},
			setupMock: func(fixture) {},
			wantCode:  400,
		},
		{
			name: "window ends before it starts",
			req: dto.CreatePromoRequest{
				Code: "LATE", Kind: "flat", Value: decimal.NewFromInt(5),
				StartsAt:  timePtr(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
				ExpiresAt: timePtr(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)),
			},
			setupMock: func(fixture) {},
			wantCode:  400,
		},
		{
			name: "duplicate code",
			req:  dto.CreatePromoRequest{Code: "SPRING10", Kind: "flat", Value: decimal.NewFromInt(5)},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantCode: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			err := f.svc.Create(userCtx("admin-1"), tt.req)
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestPromoService_Claim(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(f fixture)
		wantCode  int
		wantErr   bool
	}{
		{
			name: "claimed",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activePromo(), nil)
				f.claimRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.runTransactions()
				f.repo.EXPECT().ReserveClaimTx(gomock.Any(), gomock.Any(), "p-1").Return(true, nil)
				f.claimRepo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ *sqlx.Tx, c model.Claim) error {
						assert.Equal(t, "u-1", c.UserID)
						assert.Equal(t, "p-1", c.PromoID)
						assert.Nil(t, c.BookingID)

						return nil
					})
			},
		},
		{
			name: "unknown code",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Promo{}, nil)
			},
			wantCode: 404,
			wantErr:  true,
		},
		{
			name: "inactive promo",
			setupMock: func(f fixture) {
				p := activePromo()
				p.Active = false
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(p, nil)
			},
			wantCode: 422,
			wantErr:  true,
		},
		{
			name: "expired promo",
			setupMock: func(f fixture) {
				p := activePromo()
				p.ExpiresAt = timePtr(time.Now().Add(-time.Hour))
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(p, nil)
			},
			wantCode: 422,
			wantErr:  true,
		},
		{
			name: "already claimed",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activePromo(), nil)
				f.claimRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantCode: 409,
			wantErr:  true,
		},
		{
			name: "claim limit reached",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activePromo(), nil)
				f.claimRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.runTransactions()
				f.repo.EXPECT().ReserveClaimTx(gomock.Any(), gomock.Any(), "p-1").Return(false, nil)
			},
			wantCode: 409,
			wantErr:  true,
		},
		{
			name: "concurrent claim by the same user",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activePromo(), nil)
				f.claimRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.runTransactions()
				f.repo.EXPECT().ReserveClaimTx(gomock.Any(), gomock.Any(), "p-1").Return(true, nil)
				f.claimRepo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(&pq.Error{Code: constant.PqErrorCodeUniqueViolation})
			},
			wantCode: 409,
			wantErr:  true,
		},
		{
			name: "insert fails",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activePromo(), nil)
				f.claimRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.runTransactions()
				f.repo.EXPECT().ReserveClaimTx(gomock.Any(), gomock.Any(), "p-1").Return(true, nil)
				f.claimRepo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
			wantCode: 500,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Claim(userCtx("u-1"), dto.ClaimRequest{Code: " spring10 "})
			if tt.wantErr {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "SPRING10", res.Code)
			assert.False(t, res.Redeemed)
		})
	}
}

func TestPromoService_Redeemable(t *testing.T) {
	bookingID := "b-1"

	tests := []struct {
		name      string
		setupMock func(f fixture)
		wantCode  int
	}{
		{
			name: "usable claim",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activePromo(), nil)
				f.claimRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Claim{ID: "c-1", PromoID: "p-1", UserID: "u-1"}, nil)
			},
		},
		{
			name: "not claimed",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activePromo(), nil)
				f.claimRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Claim{}, nil)
			},
			wantCode: 422,
		},
		{
			name: "already redeemed",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activePromo(), nil)
				f.claimRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Claim{ID: "c-1", BookingID: &bookingID}, nil)
			},
			wantCode: 422,
		},
		{
			name: "unknown code",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Promo{}, nil)
			},
			wantCode: 422,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Redeemable(context.Background(), "u-1", "spring10")
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "c-1", res.Claim.ID)
			assert.Equal(t, "p-1", res.Promo.ID)
		})
	}
}

func TestPromoService_RedeemTx(t *testing.T) {
	f := newFixture(t)

	f.claimRepo.EXPECT().RedeemTx(gomock.Any(), gomock.Any(), "c-1", "b-1").Return(false, nil)

	err := f.svc.RedeemTx(context.Background(), nil, "c-1", "b-1")
	assert.Equal(t, 409, failure.GetCode(err))
}

func TestPromoService_Mine(t *testing.T) {
	f := newFixture(t)

	f.claimRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]model.Claim{
		{ID: "c-1", PromoID: "p-1", UserID: "u-1"},
	}, nil)
	f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]model.Promo{activePromo()}, nil)

	res, err := f.svc.Mine(userCtx("u-1"))
	assert.NoError(t, err)
	assert.Len(t, res.Claims, 1)
	assert.Equal(t, "SPRING10", res.Claims[0].Code)
}

func TestPromo_Available(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	p := activePromo()
	assert.NoError(t, p.Available(now))

	p.StartsAt = timePtr(now.Add(time.Hour))
	assert.ErrorIs(t, p.Available(now), model.ErrNotStarted)

	p.StartsAt = nil
	p.ExpiresAt = timePtr(now)
	assert.ErrorIs(t, p.Available(now), model.ErrExpired)

	p.ExpiresAt = nil
	p.MaxClaims, p.ClaimCount = 2, 2
	assert.True(t, p.Exhausted())
}

func timePtr(t time.Time) *time.Time { return &t }
