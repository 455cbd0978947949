package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"cleanbook/infras/otel"
	"cleanbook/infras/postgres"
	"cleanbook/internal/domains/catalog/model"
	gDto "cleanbook/shared/dto"
	gRepo "cleanbook/shared/repository"
)

type Service interface {
	Insert(ctx context.Context, model model.Service) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Service, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Service, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type Extra interface {
	Insert(ctx context.Context, model model.Extra) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Extra, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Extra, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type serviceRepositoryImpl struct {
	gRepo.Repository[model.Service]
	db   *postgres.Connection
	otel otel.Otel
}

func NewService(db *postgres.Connection, otel otel.Otel) Service {
	return &serviceRepositoryImpl{
		Repository: gRepo.NewRepository[model.Service](model.ServiceEntityName, model.ServiceTableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

type extraRepositoryImpl struct {
	gRepo.Repository[model.Extra]
	db   *postgres.Connection
	otel otel.Otel
}

func NewExtra(db *postgres.Connection, otel otel.Otel) Extra {
	return &extraRepositoryImpl{
		Repository: gRepo.NewRepository[model.Extra](model.ExtraEntityName, model.ExtraTableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
