package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"cleanbook/infras/otel"
	"cleanbook/infras/postgres"
	"cleanbook/internal/domains/cleaner/model"
	gDto "cleanbook/shared/dto"
	gRepo "cleanbook/shared/repository"
)

type Cleaner interface {
	Insert(ctx context.Context, model model.Cleaner) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Cleaner, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Cleaner, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Cleaner]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Cleaner {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Cleaner](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
