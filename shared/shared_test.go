package shared_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cleanbook/shared"
	cacheMocks "cleanbook/shared/cache/mocks"
	"cleanbook/shared/constant"
	"cleanbook/shared/dto"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestConvertStringToBool(t *testing.T) {
	assert.Nil(t, shared.ConvertStringToBool(""))
	assert.Nil(t, shared.ConvertStringToBool("maybe"))

	got := shared.ConvertStringToBool("false")
	require.NotNil(t, got)
	assert.False(t, *got)

	got = shared.ConvertStringToBool("1")
	require.NotNil(t, got)
	assert.True(t, *got)
}

func TestConvertStringToInt(t *testing.T) {
	got, err := shared.ConvertStringToInt(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	_, err = shared.ConvertStringToInt("four")
	assert.Error(t, err)
}

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{total: 0, limit: 10, want: 1},
		{total: 10, limit: 0, want: 1},
		{total: 10, limit: 10, want: 1},
		{total: 11, limit: 10, want: 2},
		{total: 95, limit: 20, want: 5},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.total, tt.limit), func(t *testing.T) {
			assert.Equal(t, tt.want, shared.CalculateTotalPage(tt.total, tt.limit))
		})
	}
}

func TestTransformFields(t *testing.T) {
	type updateRequest struct {
		Name     string  `db:"name"`
		Notes    string  `db:"notes"`
		Active   *bool   `db:"active"`
		Rooms    int     `db:"bedrooms,omitempty"`
		Internal string  `db:"-"`
		Untagged string
		Phone    *string `db:"phone"`
	}

	inactive := false

	req := updateRequest{
		Name:     "Deep clean",
		Active:   &inactive,
		Rooms:    3,
		Internal: "skip",
		Untagged: "skip",
	}

	t.Run("value", func(t *testing.T) {
		got := shared.TransformFields(req, "u-1")

		assert.Equal(t, "Deep clean", got["name"])
		assert.Equal(t, &inactive, got["active"])
		assert.Equal(t, 3, got["bedrooms"])
		assert.NotContains(t, got, "notes")
		assert.NotContains(t, got, "phone")
		assert.NotContains(t, got, "-")
		assert.NotContains(t, got, "Untagged")
		assert.Equal(t, "u-1", got[constant.FieldModifiedBy])
		assert.IsType(t, time.Time{}, got[constant.FieldModifiedAt])
		assert.Len(t, got, 5)
	})

	t.Run("pointer", func(t *testing.T) {
		got := shared.TransformFields(&req, "u-1")

		assert.Equal(t, "Deep clean", got["name"])
	})
}

func TestFilterByID(t *testing.T) {
	filter := shared.FilterByID("b-1", "id", "bookings")
	where, args := filter.GetWhereClause()

	assert.Equal(t, "(bookings.id = :id)", where)
	assert.Equal(t, map[string]any{"id": "b-1"}, args)
}

func TestScopeFilter(t *testing.T) {
	t.Run("wraps existing filters", func(t *testing.T) {
		filter := dto.FilterGroup{Operator: dto.FilterGroupOperatorAnd}
		filter.AppendIfNotEmpty("status", dto.FilterOperatorEq, "pending", "bookings")

		scoped := shared.ScopeFilter(filter, "customer_id", "u-1", "bookings")
		where, args := scoped.GetWhereClause()

		assert.Equal(t, "(bookings.customer_id = :customer_id AND (bookings.status = :status))", where)
		assert.Equal(t, "u-1", args["customer_id"])
		assert.Equal(t, "pending", args["status"])
	})

	t.Run("empty filter", func(t *testing.T) {
		scoped := shared.ScopeFilter(dto.FilterGroup{}, "customer_id", "u-1", "bookings")
		where, _ := scoped.GetWhereClause()

		assert.Equal(t, "(bookings.customer_id = :customer_id)", where)
	})
}

func TestBuildCacheKey(t *testing.T) {
	assert.Equal(t, "booking:get:b-1", shared.BuildCacheKey("booking:get", "b-1"))
	assert.Equal(t, "dashboard", shared.BuildCacheKey("dashboard"))
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	params := dto.QueryParams{Page: 2, Limit: 10, SortBy: "created_at", SortDir: dto.SortDirDesc}

	pending := dto.FilterGroup{Operator: dto.FilterGroupOperatorAnd}
	pending.AppendIfNotEmpty("status", dto.FilterOperatorEq, "pending", "bookings")

	paid := dto.FilterGroup{Operator: dto.FilterGroupOperatorAnd}
	paid.AppendIfNotEmpty("status", dto.FilterOperatorEq, "paid", "bookings")

	first := shared.BuildCacheKeyWithQuery("booking:list", params, pending)

	assert.Equal(t, first, shared.BuildCacheKeyWithQuery("booking:list", params, pending))
	assert.NotEqual(t, first, shared.BuildCacheKeyWithQuery("booking:list", params, paid))
	assert.Contains(t, first, "booking:list:2:10:created_at:DESC:")
}

func TestInvalidateCaches(t *testing.T) {
	ctrl := gomock.NewController(t)
	redisCache := cacheMocks.NewMockRedisCache(ctrl)

	redisCache.EXPECT().Clear(gomock.Any(), "booking:get:b-1"+constant.Asterix).Return(errors.New("redis down"))

	shared.InvalidateCaches(context.Background(), redisCache, "booking:get:b-1")
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pq.Error{Code: pq.ErrorCode(constant.PqErrorCodeUniqueViolation)}
	foreignKey := &pq.Error{Code: pq.ErrorCode(constant.PqErrorCodeFkViolation)}

	assert.True(t, shared.IsUniqueViolation(fmt.Errorf("insert booking: %w", unique)))
	assert.False(t, shared.IsUniqueViolation(foreignKey))
	assert.False(t, shared.IsUniqueViolation(errors.New("plain")))
}
