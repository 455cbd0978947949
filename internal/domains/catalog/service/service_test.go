package service_test

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"cleanbook/config"
	"cleanbook/infras/otel/mocks"
	s3Mocks "cleanbook/infras/s3/mocks"
	catalogMocks "cleanbook/internal/domains/catalog/mocks"
	"cleanbook/internal/domains/catalog/model"
	"cleanbook/internal/domains/catalog/model/dto"
	"cleanbook/internal/domains/catalog/service"
	cacheMocks "cleanbook/shared/cache/mocks"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/failure"
)

type fixture struct {
	serviceRepo *catalogMocks.MockService
	extraRepo   *catalogMocks.MockExtra
	cache       *cacheMocks.MockRedisCache
	s3          *s3Mocks.MockS3
	svc         service.Catalog
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		serviceRepo: catalogMocks.NewMockService(ctrl),
		extraRepo:   catalogMocks.NewMockExtra(ctrl),
		cache:       cacheMocks.NewMockRedisCache(ctrl),
		s3:          s3Mocks.NewMockS3(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.External.S3.BucketName = "cleanbook"

	f.svc = service.New(f.serviceRepo, f.extraRepo, cfg, f.cache, mocks.NewOtel(), f.s3)

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func adminCtx() context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")
}

func TestCatalogService_CreateService(t *testing.T) {
	image := &multipart.FileHeader{Filename: "deep-clean.PNG"}

	tests := []struct {
		name      string
		req       dto.CreateServiceRequest
		setupMock func(f fixture)
		wantErr   bool
	}{
		{
			name: "created without image",
			req: dto.CreateServiceRequest{
				Name:            "Standard Clean",
				BasePrice:       decimal.NewFromInt(80),
				BedroomRate:     decimal.NewFromInt(15),
				BathroomRate:    decimal.NewFromInt(10),
				DurationMinutes: 120,
			},
			setupMock: func(f fixture) {
				f.serviceRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, m model.Service) error {
						assert.True(t, m.Active)
						assert.Equal(t, "admin-1", m.CreatedBy)
						assert.Empty(t, m.Image)

						return nil
					})
			},
		},
		{
			name: "created with image",
			req: dto.CreateServiceRequest{
				Name:            "Deep Clean",
				BasePrice:       decimal.NewFromInt(150),
				DurationMinutes: 240,
				Image:           image,
			},
			setupMock: func(f fixture) {
				f.s3.EXPECT().UploadFile(gomock.Any(), "cleanbook", model.ServiceEntityName, gomock.Any(), image, gomock.Any()).
					Return("https://cdn.example.com/service/a.png", nil)
				f.serviceRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, m model.Service) error {
						assert.Equal(t, "https://cdn.example.com/service/a.png", m.Image)

						return nil
					})
			},
		},
		{
			name: "uploaded image is removed when insert fails",
			req: dto.CreateServiceRequest{
				Name:            "Deep Clean",
				BasePrice:       decimal.NewFromInt(150),
				DurationMinutes: 240,
				Image:           image,
			},
			setupMock: func(f fixture) {
				f.s3.EXPECT().UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return("https://cdn.example.com/service/a.png", nil)
				f.serviceRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
				f.s3.EXPECT().DeleteFile(gomock.Any(), "cleanbook", model.ServiceEntityName, gomock.Any()).Return(nil)
			},
			wantErr: true,
		},
		{
			name: "negative rate",
			req: dto.CreateServiceRequest{
				Name:            "Broken",
				BasePrice:       decimal.NewFromInt(10),
				BedroomRate:     decimal.NewFromInt(-1),
				DurationMinutes: 60,
			},
			setupMock: func(f fixture) {},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			err := f.svc.CreateService(adminCtx(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCatalogService_GetService(t *testing.T) {
	f := newFixture(t)

	f.cache.EXPECT().Get(gomock.Any(), "service:get:svc-1", gomock.Any()).Return(errors.New("miss"))
	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).
		Return(model.Service{ID: "svc-1", Name: "Standard Clean", BasePrice: decimal.NewFromInt(80), Active: true}, nil)

	res, err := f.svc.GetService(context.Background(), "svc-1")
	assert.NoError(t, err)
	assert.Equal(t, "Standard Clean", res.Name)
	assert.True(t, decimal.NewFromInt(80).Equal(res.BasePrice))

	f.cache.EXPECT().Get(gomock.Any(), "service:get:missing", gomock.Any()).Return(errors.New("miss"))
	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Service{}, nil)

	_, err = f.svc.GetService(context.Background(), "missing")
	assert.Equal(t, 404, failure.GetCode(err))
}

func TestCatalogService_GetServices(t *testing.T) {
	f := newFixture(t)

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss")).Times(2)
	f.serviceRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(2, nil)
	f.serviceRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Service{{ID: "svc-1"}, {ID: "svc-2"}}, nil)

	res, err := f.svc.GetServices(context.Background(), gDtoParams(), emptyFilter())
	assert.NoError(t, err)
	assert.Len(t, res.Services, 2)
	assert.Equal(t, 2, res.TotalData)
	assert.Equal(t, 1, res.TotalPage)
}

func TestCatalogService_UpdateService(t *testing.T) {
	image := &multipart.FileHeader{Filename: "new.jpg"}
	negative := decimal.NewFromInt(-5)

	tests := []struct {
		name      string
		req       dto.UpdateServiceRequest
		setupMock func(f fixture)
		wantCode  int
	}{
		{
			name: "replaces the previous image",
			req:  dto.UpdateServiceRequest{Name: "Renamed", Image: image},
			setupMock: func(f fixture) {
				f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).
					Return(model.Service{ID: "svc-1", Image: "https://cdn.example.com/service/old.jpg"}, nil)
				f.s3.EXPECT().UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), image, gomock.Any()).
					Return("https://cdn.example.com/service/new.jpg", nil)
				f.serviceRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
						assert.Equal(t, "Renamed", fields[model.FieldName])
						assert.Equal(t, "https://cdn.example.com/service/new.jpg", fields[model.FieldImage])

						return nil
					})
				f.s3.EXPECT().GetObjectNameFromURL("cleanbook", "https://cdn.example.com/service/old.jpg").Return("old.jpg")
				f.s3.EXPECT().DeleteFile(gomock.Any(), "cleanbook", model.ServiceEntityName, "old.jpg").Return(nil)
			},
		},
		{
			name: "not found",
			req:  dto.UpdateServiceRequest{Name: "Renamed"},
			setupMock: func(f fixture) {
				f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Service{}, nil)
			},
			wantCode: 404,
		},
		{
			name:      "negative price",
			req:       dto.UpdateServiceRequest{BasePrice: &negative},
			setupMock: func(f fixture) {},
			wantCode:  400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			err := f.svc.UpdateService(adminCtx(), tt.req, "svc-1")

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCatalogService_DeleteService(t *testing.T) {
	f := newFixture(t)

	f.serviceRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
	f.serviceRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
			active, ok := fields[model.FieldActive].(*bool)
			assert.True(t, ok)
			assert.False(t, *active)

			return nil
		})

	assert.NoError(t, f.svc.DeleteService(adminCtx(), "svc-1"))

	f.serviceRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
	assert.Equal(t, 404, failure.GetCode(f.svc.DeleteService(adminCtx(), "missing")))
}

func TestCatalogService_Extras(t *testing.T) {
	f := newFixture(t)

	assert.Error(t, f.svc.CreateExtra(adminCtx(), dto.CreateExtraRequest{Name: "Oven", Price: decimal.NewFromInt(-1)}))

	f.extraRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	assert.NoError(t, f.svc.CreateExtra(adminCtx(), dto.CreateExtraRequest{Name: "Oven", Price: decimal.NewFromInt(25)}))

	price := decimal.NewFromInt(30)

	f.extraRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
	f.extraRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	assert.NoError(t, f.svc.UpdateExtra(adminCtx(), dto.UpdateExtraRequest{Price: &price}, "extra-1"))

	f.extraRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
	assert.Equal(t, 404, failure.GetCode(f.svc.DeleteExtra(adminCtx(), "missing")))

	f.cache.EXPECT().Get(gomock.Any(), "extra:get:extra-1", gomock.Any()).Return(errors.New("miss"))
	f.extraRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Extra{ID: "extra-1", Name: "Oven", Price: price}, nil)

	extra, err := f.svc.GetExtra(context.Background(), "extra-1")
	assert.NoError(t, err)
	assert.Equal(t, "Oven", extra.Name)
}

func gDtoParams() gDto.QueryParams {
	return gDto.QueryParams{Page: 1, Limit: 10}
}

func emptyFilter() gDto.FilterGroup {
	return gDto.FilterGroup{}
}
