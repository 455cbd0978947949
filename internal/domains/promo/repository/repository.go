package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"cleanbook/infras/otel"
	"cleanbook/infras/postgres"
	"cleanbook/internal/domains/promo/model"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/logger"
	gRepo "cleanbook/shared/repository"
	"cleanbook/shared/timezone"

	"github.com/jmoiron/sqlx"
)

type Promo interface {
	Insert(ctx context.Context, model model.Promo) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Promo, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Promo, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Transaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	// ReserveClaimTx bumps the claim counter unless the limit is reached. It reports whether a slot was taken.
	ReserveClaimTx(ctx context.Context, sqltx *sqlx.Tx, id string) (bool, error)
}

type Claim interface {
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.Claim) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Claim, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Claim, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	// RedeemTx binds an unredeemed claim to a booking. It reports whether the claim was still unredeemed.
	RedeemTx(ctx context.Context, sqltx *sqlx.Tx, claimID, bookingID string) (bool, error)
}

type promoRepositoryImpl struct {
	gRepo.Repository[model.Promo]
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Promo {
	return &promoRepositoryImpl{
		Repository: gRepo.NewRepository[model.Promo](model.EntityName, model.TableName, model.FieldID, db, otel),
		otel:       otel,
	}
}

func (repo *promoRepositoryImpl) ReserveClaimTx(ctx context.Context, sqltx *sqlx.Tx, id string) (bool, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".promo.ReserveClaimTx")
	defer scope.End()

	query := fmt.Sprintf("UPDATE %s SET %s = %s + 1 WHERE %s = $1 AND (%s = 0 OR %s < %s)",
		model.TableName, model.FieldClaimCount, model.FieldClaimCount, model.FieldID,
		model.FieldMaxClaims, model.FieldClaimCount, model.FieldMaxClaims)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	return execAffected(ctx, sqltx, scope, query, id)
}

type claimRepositoryImpl struct {
	gRepo.Repository[model.Claim]
	otel otel.Otel
}

func NewClaim(db *postgres.Connection, otel otel.Otel) Claim {
	return &claimRepositoryImpl{
		Repository: gRepo.NewRepository[model.Claim](model.ClaimEntityName, model.ClaimTableName, model.FieldID, db, otel),
		otel:       otel,
	}
}

func (repo *claimRepositoryImpl) RedeemTx(ctx context.Context, sqltx *sqlx.Tx, claimID, bookingID string) (bool, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".promo_claim.RedeemTx")
	defer scope.End()

	query := fmt.Sprintf("UPDATE %s SET %s = $1, %s = $2 WHERE %s = $3 AND %s IS NULL",
		model.ClaimTableName, model.FieldBookingID, model.FieldRedeemedAt, model.FieldID, model.FieldBookingID)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	return execAffected(ctx, sqltx, scope, query, bookingID, timezone.Now(), claimID)
}

func execAffected(ctx context.Context, sqltx *sqlx.Tx, scope otel.Scope, query string, args ...any) (bool, error) {
	res, err := sqltx.ExecContext(ctx, query, args...)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to execute update: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}
