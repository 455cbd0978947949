package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"cleanbook/infras/otel"
	"cleanbook/infras/postgres"
	"cleanbook/internal/domains/booking/model"
	gDto "cleanbook/shared/dto"
	gRepo "cleanbook/shared/repository"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Booking interface {
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	CountBy(ctx context.Context, column string, filter gDto.FilterGroup) (map[string]int, error)
	Sum(ctx context.Context, column string, filter gDto.FilterGroup) (decimal.Decimal, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateAffected(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error)
	UpdateAffectedTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) (int64, error)
	Transaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type Extra interface {
	InsertBulkTx(ctx context.Context, sqltx *sqlx.Tx, models []model.Extra) error
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Extra, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
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
