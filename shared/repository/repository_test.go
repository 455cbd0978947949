package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"cleanbook/infras/otel/mocks"
	"cleanbook/shared/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stamp struct {
	CreatedAt time.Time `db:"created_at"`
	CreatedBy string    `db:"created_by"`
}

type booking struct {
	ID      string `db:"id"`
	Status  string `db:"status"`
	Total   string `db:"total"`
	Ignored string `db:"-"`
	Plain   string
	stamp
}

type recordingExec struct {
	query    string
	arg      any
	affected int64
	err      error
}

func (r *recordingExec) NamedExecContext(_ context.Context, query string, arg any) (sql.Result, error) {
	r.query, r.arg = query, arg
	if r.err != nil {
		return nil, r.err
	}

	return driver.RowsAffected(r.affected), nil
}

func newRepo() Repository[booking] {
	return NewRepository[booking]("booking", "bookings", "id", nil, mocks.NewOtel())
}

func statusFilter(status string) dto.FilterGroup {
	return dto.FilterGroup{
		Operator: dto.FilterGroupOperatorAnd,
		Filters:  []any{dto.Filter{Field: "status", Value: status, Operator: dto.FilterOperatorEq, Table: "bookings"}},
	}
}

func TestDBColumns(t *testing.T) {
	repo := newRepo()

	assert.Equal(t, []string{"id", "status", "total", "created_at", "created_by"}, repo.columns)
}

func TestSelectList(t *testing.T) {
	repo := newRepo()

	assert.Equal(t, "bookings.id, bookings.status", repo.selectList("status", "id"))
	assert.Contains(t, repo.selectList(), "bookings.created_by")
}

func TestInsertQuery(t *testing.T) {
	repo := newRepo()

	assert.Equal(t,
		"INSERT INTO bookings (id, status, total, created_at, created_by) VALUES (:id, :status, :total, :created_at, :created_by)",
		repo.insertQuery())
}

func TestUpdateQuery(t *testing.T) {
	repo := newRepo()

	t.Run("set and filter on the same column", func(t *testing.T) {
		query, args, err := repo.updateQuery(map[string]any{"status": "cancelled", "total": "0"}, statusFilter("pending"))
		require.NoError(t, err)

		assert.Equal(t, "UPDATE bookings SET status = :set_status, total = :set_total WHERE (bookings.status = :status)", query)
		assert.Equal(t, "pending", args["status"])
		assert.Equal(t, "cancelled", args["set_status"])
	})

	t.Run("refuses to update every row", func(t *testing.T) {
		_, _, err := repo.updateQuery(map[string]any{"status": "cancelled"}, dto.FilterGroup{})

		assert.ErrorIs(t, err, errRequiredFilter)
	})
}

func TestExec(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()

	t.Run("update", func(t *testing.T) {
		exec := &recordingExec{affected: 1}

		affected, err := repo.update(ctx, exec, map[string]any{"status": "confirmed"}, statusFilter("pending"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)
		assert.Equal(t, "UPDATE bookings SET status = :set_status WHERE (bookings.status = :status)", exec.query)
	})

	t.Run("update matching nothing reports zero rows", func(t *testing.T) {
		exec := &recordingExec{}

		affected, err := repo.update(ctx, exec, map[string]any{"status": "cancelled"}, statusFilter("pending"))
		require.NoError(t, err)
		assert.Zero(t, affected)
	})

	t.Run("driver error is wrapped with the entity", func(t *testing.T) {
		exec := &recordingExec{err: errors.New("connection reset")}

		err := repo.exec(ctx, "insert", exec, repo.insertQuery(), booking{ID: "b-1"})

		assert.ErrorContains(t, err, "failed to insert data (booking)")
		assert.ErrorIs(t, err, exec.err)
	})

	t.Run("bulk insert of nothing", func(t *testing.T) {
		assert.NoError(t, repo.InsertBulkTx(ctx, nil, nil))
	})
}

func TestStatement(t *testing.T) {
	assert.Equal(t, "SELECT a FROM t LIMIT 1", statement("SELECT", "a", "FROM", "t", "", "", "LIMIT 1"))
}
