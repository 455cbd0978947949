package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"cleanbook/shared/constant"
	"cleanbook/shared/dto"
	"cleanbook/shared/logger"

	"github.com/jmoiron/sqlx"
)

// update args are prefixed so a column can be both set and filtered on
const setArgPrefix = "set_"

func (repo *Repository[T]) insertQuery() string {
	placeholders := make([]string, len(repo.columns))
	for i, col := range repo.columns {
		placeholders[i] = ":" + col
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		repo.table, strings.Join(repo.columns, ", "), strings.Join(placeholders, ", "))
}

func (repo *Repository[T]) exec(ctx context.Context, op string, exec execer, query string, arg any) error {
	_, err := repo.execAffected(ctx, op, exec, query, arg)

	return err
}

func (repo *Repository[T]) execAffected(ctx context.Context, op string, exec execer, query string, arg any) (int64, error) {
	ctx, scope := repo.span(ctx, op)
	defer scope.End()

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	res, err := exec.NamedExecContext(ctx, query, arg)
	if err != nil {
		return 0, repo.fail(scope, op+" data", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, repo.fail(scope, op+" rows affected", err)
	}

	return affected, nil
}

func (repo *Repository[T]) Insert(ctx context.Context, model T) error {
	return repo.exec(ctx, "insert", repo.db.Write, repo.insertQuery(), model)
}

func (repo *Repository[T]) InsertTx(ctx context.Context, sqltx *sqlx.Tx, model T) error {
	return repo.exec(ctx, "insert", sqltx, repo.insertQuery(), model)
}

// InsertBulkTx writes every model in one multi-row INSERT. An empty slice is a no-op.
func (repo *Repository[T]) InsertBulkTx(ctx context.Context, sqltx *sqlx.Tx, models []T) error {
	if len(models) == 0 {
		return nil
	}

	return repo.exec(ctx, "bulk insert", sqltx, repo.insertQuery(), models)
}

func (repo *Repository[T]) updateQuery(mod map[string]any, filter dto.FilterGroup) (string, map[string]any, error) {
	where, args := repo.where(filter)
	if where == "" {
		return "", nil, errRequiredFilter
	}

	sets := make([]string, 0, len(mod))

	for _, col := range slices.Sorted(maps.Keys(mod)) {
		sets = append(sets, fmt.Sprintf("%s = :%s%s", col, setArgPrefix, col))
		args[setArgPrefix+col] = mod[col]
	}

	return fmt.Sprintf("UPDATE %s SET %s %s", repo.table, strings.Join(sets, ", "), where), args, nil
}

func (repo *Repository[T]) update(ctx context.Context, exec execer, mod map[string]any, filter dto.FilterGroup) (int64, error) {
	query, args, err := repo.updateQuery(mod, filter)
	if err != nil {
		return 0, err
	}

	return repo.execAffected(ctx, "update", exec, query, args)
}

func (repo *Repository[T]) Update(ctx context.Context, mod map[string]any, filter dto.FilterGroup) error {
	_, err := repo.update(ctx, repo.db.Write, mod, filter)

	return err
}

func (repo *Repository[T]) UpdateTx(ctx context.Context, sqltx *sqlx.Tx, mod map[string]any, filter dto.FilterGroup) error {
	_, err := repo.update(ctx, sqltx, mod, filter)

	return err
}

// UpdateAffected is Update for conditional writes: it reports how many rows the filter matched,
// so a caller guarding on a previous value can tell a lost race from success.
func (repo *Repository[T]) UpdateAffected(ctx context.Context, mod map[string]any, filter dto.FilterGroup) (int64, error) {
	return repo.update(ctx, repo.db.Write, mod, filter)
}

func (repo *Repository[T]) UpdateAffectedTx(ctx context.Context, sqltx *sqlx.Tx, mod map[string]any, filter dto.FilterGroup) (int64, error) {
	return repo.update(ctx, sqltx, mod, filter)
}

func (repo *Repository[T]) Delete(ctx context.Context, filter dto.FilterGroup) error {
	where, args := repo.where(filter)
	if where == "" {
		return errRequiredFilter
	}

	return repo.exec(ctx, "delete", repo.db.Write, statement("DELETE FROM", repo.table, where), args)
}

// Transaction runs fn inside a write transaction, committing when fn returns nil.
func (repo *Repository[T]) Transaction(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	ctx, scope := repo.span(ctx, "Transaction")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	sqltx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to begin transaction (%s): %w", repo.entity, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqltx.Rollback()

			panic(p)
		}
	}()

	if err = fn(sqltx); err != nil {
		if rbErr := sqltx.Rollback(); rbErr != nil {
			logger.ErrorWithStack(rbErr)
		}

		return err
	}

	if err = sqltx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to commit transaction (%s): %w", repo.entity, err)
	}

	return nil
}
