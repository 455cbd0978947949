package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cleanbook/infras/otel"
	"cleanbook/shared/constant"
	"cleanbook/shared/dto"

	"github.com/shopspring/decimal"
)

func (repo *Repository[T]) get(ctx context.Context, scope otel.Scope, query string, args map[string]any, dest any) error {
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	stmt, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	return stmt.GetContext(ctx, dest, args)
}

func (repo *Repository[T]) selectAll(ctx context.Context, scope otel.Scope, query string, args map[string]any, dest any) error {
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	stmt, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	return stmt.SelectContext(ctx, dest, args)
}

func (repo *Repository[T]) Exist(ctx context.Context, filter dto.FilterGroup) (bool, error) {
	ctx, scope := repo.span(ctx, "Exist")
	defer scope.End()

	where, args := repo.where(filter)
	if where == "" {
		return false, errRequiredFilter
	}

	var exist bool

	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s %s)", repo.table, where)
	if err := repo.get(ctx, scope, query, args, &exist); err != nil {
		return false, repo.fail(scope, "check exist data", err)
	}

	return exist, nil
}

// Get returns the first matching row, or the zero value when nothing matches.
func (repo *Repository[T]) Get(ctx context.Context, filter dto.FilterGroup, columns ...string) (T, error) {
	ctx, scope := repo.span(ctx, "Get")
	defer scope.End()

	var model T

	where, args := repo.where(filter)
	query := statement("SELECT", repo.selectList(columns...), "FROM", repo.table, where, "LIMIT 1")

	err := repo.get(ctx, scope, query, args, &model)
	if errors.Is(err, sql.ErrNoRows) {
		return model, nil
	}

	if err != nil {
		return model, repo.fail(scope, "get data", err)
	}

	return model, nil
}

func (repo *Repository[T]) GetAll(ctx context.Context, params dto.QueryParams, filter dto.FilterGroup, columns ...string) ([]T, error) {
	ctx, scope := repo.span(ctx, "GetAll")
	defer scope.End()

	where, args := repo.where(filter)

	var ordering, pagination string

	if params.SortBy != "" && params.SortDir != "" {
		ordering = "ORDER BY " + params.SortBy + " " + params.SortDir
	}

	if params.Limit > 0 {
		args["limit"] = params.Limit
		args["offset"] = params.Offset()
		pagination = "LIMIT :limit OFFSET :offset"
	}

	query := statement("SELECT", repo.selectList(columns...), "FROM", repo.table, where, ordering, pagination)

	models := []T{}
	if err := repo.selectAll(ctx, scope, query, args, &models); err != nil {
		return nil, repo.fail(scope, "get all data", err)
	}

	return models, nil
}

func (repo *Repository[T]) Count(ctx context.Context, filter dto.FilterGroup) (int, error) {
	ctx, scope := repo.span(ctx, "Count")
	defer scope.End()

	where, args := repo.where(filter)
	query := statement(fmt.Sprintf("SELECT COUNT(%s.%s) FROM %s", repo.table, repo.primaryColumn, repo.table), where)

	var count int
	if err := repo.get(ctx, scope, query, args, &count); err != nil {
		return 0, repo.fail(scope, "count data", err)
	}

	return count, nil
}

// Sum adds up a numeric column over the filtered rows, zero when none match.
func (repo *Repository[T]) Sum(ctx context.Context, column string, filter dto.FilterGroup) (decimal.Decimal, error) {
	ctx, scope := repo.span(ctx, "Sum")
	defer scope.End()

	where, args := repo.where(filter)
	query := statement(fmt.Sprintf("SELECT COALESCE(SUM(%s.%s), 0) FROM %s", repo.table, column, repo.table), where)

	total := decimal.Zero
	if err := repo.get(ctx, scope, query, args, &total); err != nil {
		return decimal.Zero, repo.fail(scope, "sum data", err)
	}

	return total, nil
}

type groupCount struct {
	Key   string `db:"key"`
	Total int    `db:"total"`
}

// CountBy counts the filtered rows per distinct value of column.
func (repo *Repository[T]) CountBy(ctx context.Context, column string, filter dto.FilterGroup) (map[string]int, error) {
	ctx, scope := repo.span(ctx, "CountBy")
	defer scope.End()

	where, args := repo.where(filter)
	qualified := repo.table + "." + column
	query := statement(
		fmt.Sprintf("SELECT %s AS key, COUNT(%s.%s) AS total FROM %s", qualified, repo.table, repo.primaryColumn, repo.table),
		where,
		"GROUP BY "+qualified,
	)

	var rows []groupCount
	if err := repo.selectAll(ctx, scope, query, args, &rows); err != nil {
		return nil, repo.fail(scope, "count data by "+column, err)
	}

	res := make(map[string]int, len(rows))
	for _, row := range rows {
		res[row.Key] = row.Total
	}

	return res, nil
}
