package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"cleanbook/config"
	"cleanbook/infras/otel/mocks"
	s3Mocks "cleanbook/infras/s3/mocks"
	bookingMocks "cleanbook/internal/domains/booking/mocks"
	bookingModel "cleanbook/internal/domains/booking/model"
	catalogMocks "cleanbook/internal/domains/catalog/mocks"
	catalogModel "cleanbook/internal/domains/catalog/model"
	cleanerMocks "cleanbook/internal/domains/cleaner/mocks"
	"cleanbook/internal/domains/cleaner/model"
	"cleanbook/internal/domains/cleaner/model/dto"
	"cleanbook/internal/domains/cleaner/service"
	userServiceMocks "cleanbook/internal/domains/user/service/mocks"
	cacheMocks "cleanbook/shared/cache/mocks"
	"cleanbook/shared/constant"
	"cleanbook/shared/failure"
)

type fixture struct {
	repo        *cleanerMocks.MockCleaner
	bookingRepo *bookingMocks.MockBooking
	serviceRepo *catalogMocks.MockService
	users       *userServiceMocks.MockUser
	cache       *cacheMocks.MockRedisCache
	s3          *s3Mocks.MockS3
	svc         service.Cleaner
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		repo:        cleanerMocks.NewMockCleaner(ctrl),
		bookingRepo: bookingMocks.NewMockBooking(ctrl),
		serviceRepo: catalogMocks.NewMockService(ctrl),
		users:       userServiceMocks.NewMockUser(ctrl),
		cache:       cacheMocks.NewMockRedisCache(ctrl),
		s3:          s3Mocks.NewMockS3(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	f.svc = service.New(f.repo, f.bookingRepo, f.serviceRepo, f.users, cfg, f.cache, mocks.NewOtel(), f.s3)

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func userCtx(id, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, id)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func strPtr(s string) *string { return &s }

func TestCleanerService_CreateProfile(t *testing.T) {
	req := dto.CreateProfileRequest{DisplayName: "Ana", ServiceAreas: []string{"Downtown"}}

	tests := []struct {
		name      string
		ctx       context.Context
		setupMock func(f fixture)
		wantCode  int
		wantErr   bool
	}{
		{
			name: "customer becomes cleaner",
			ctx:  userCtx("u-1", constant.RoleCustomer),
			setupMock: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, c model.Cleaner) error {
						assert.Equal(t, "u-1", c.ID)
						assert.False(t, c.Active)
						assert.Equal(t, pq.StringArray{"Downtown"}, c.ServiceAreas)

						return nil
					})
				f.users.EXPECT().ResolveRole(gomock.Any(), "u-1", constant.RoleCustomer).Return(constant.RoleCustomer)
				f.users.EXPECT().Update(gomock.Any(), gomock.Any(), "u-1").Return(nil)
			},
		},
		{
			name: "admin keeps role",
			ctx:  userCtx("a-1", constant.RoleAdmin),
			setupMock: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				f.users.EXPECT().ResolveRole(gomock.Any(), "a-1", constant.RoleAdmin).Return(constant.RoleAdmin)
			},
		},
		{
			name: "profile exists",
			ctx:  userCtx("u-1", constant.RoleCleaner),
			setupMock: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantCode: 409,
			wantErr:  true,
		},
		{
			name: "insert fails",
			ctx:  userCtx("u-1", constant.RoleCustomer),
			setupMock: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
			wantCode: 500,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			err := f.svc.CreateProfile(tt.ctx, req)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestCleanerService_Match(t *testing.T) {
	req := dto.MatchRequest{ServiceID: "svc-1", Date: "2025-03-14", Time: "09:00", Location: "downtown"}

	t.Run("busy and out of area cleaners are excluded", func(t *testing.T) {
		f := newFixture(t)

		f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(catalogModel.Service{ID: "svc-1", Active: true}, nil)
		f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]model.Cleaner{
			{ID: "c1", DisplayName: "Bea", ServiceAreas: pq.StringArray{"Downtown"}, Rating: decimal.RequireFromString("4.5"), Active: true},
			{ID: "c2", DisplayName: "Ana", ServiceAreas: pq.StringArray{"Downtown"}, Rating: decimal.RequireFromString("4.9"), Active: true},
			{ID: "c3", DisplayName: "Cal", ServiceAreas: pq.StringArray{"Uptown"}, Rating: decimal.RequireFromString("5"), Active: true},
			{ID: "c4", DisplayName: "Dee", ServiceAreas: pq.StringArray{"downtown"}, Rating: decimal.RequireFromString("5"), Active: true},
		}, nil)
		f.bookingRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any(), bookingModel.FieldCleanerID).
			Return([]bookingModel.Booking{{CleanerID: strPtr("c4")}}, nil)

		res, err := f.svc.Match(context.Background(), req)
		assert.NoError(t, err)

		ids := make([]string, len(res.Cleaners))
		for i, c := range res.Cleaners {
			ids[i] = c.ID
		}

		assert.Equal(t, []string{"c2", "c1"}, ids)
	})

	t.Run("inactive service", func(t *testing.T) {
		f := newFixture(t)

		f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(catalogModel.Service{ID: "svc-1", Active: false}, nil)

		_, err := f.svc.Match(context.Background(), req)
		assert.Equal(t, 404, failure.GetCode(err))
	})

	t.Run("bookings lookup fails", func(t *testing.T) {
		f := newFixture(t)

		f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(catalogModel.Service{ID: "svc-1", Active: true}, nil)
		f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
		f.bookingRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("db down"))

		_, err := f.svc.Match(context.Background(), req)
		assert.Error(t, err)
	})
}

func TestCleanerService_IsAvailable(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(f fixture)
		want      bool
	}{
		{
			name: "free",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(model.Cleaner{ID: "c1", Active: true}, nil)
				f.bookingRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]bookingModel.Booking{{CleanerID: strPtr("c9")}}, nil)
			},
			want: true,
		},
		{
			name: "booked at the slot",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(model.Cleaner{ID: "c1", Active: true}, nil)
				f.bookingRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]bookingModel.Booking{{CleanerID: strPtr("c1")}}, nil)
			},
		},
		{
			name: "inactive profile",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(model.Cleaner{ID: "c1"}, nil)
			},
		},
		{
			name: "unknown cleaner",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(model.Cleaner{}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			got, err := f.svc.IsAvailable(context.Background(), "c1", date, "09:00")
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanerService_Update(t *testing.T) {
	t.Run("empty request", func(t *testing.T) {
		f := newFixture(t)

		err := f.svc.Update(userCtx("a-1", constant.RoleAdmin), dto.UpdateCleanerRequest{}, "c1")
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("activates", func(t *testing.T) {
		f := newFixture(t)
		active := true

		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
				assert.Equal(t, &active, fields[model.FieldActive])

				return nil
			})

		assert.NoError(t, f.svc.Update(userCtx("a-1", constant.RoleAdmin), dto.UpdateCleanerRequest{Active: &active}, "c1"))
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		active := false

		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		err := f.svc.Update(userCtx("a-1", constant.RoleAdmin), dto.UpdateCleanerRequest{Active: &active}, "c1")
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestCleanerService_RecordCompletedJob(t *testing.T) {
	f := newFixture(t)

	f.bookingRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(7, nil)
	f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
			assert.Equal(t, 7, fields[model.FieldCompletedJobs])

			return nil
		})

	assert.NoError(t, f.svc.RecordCompletedJob(context.Background(), "c1"))
}

func TestCleanerService_RecordRating(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
			assert.Equal(t, "4.67", fields[model.FieldRating].(decimal.Decimal).StringFixed(2))
			assert.Equal(t, 3, fields[model.FieldReviewCount])

			return nil
		})

	assert.NoError(t, f.svc.RecordRating(context.Background(), "c1", decimal.RequireFromString("4.666666"), 3))
}
