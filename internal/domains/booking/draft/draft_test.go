package draft_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"cleanbook/config"
	"cleanbook/internal/domains/booking/draft"
	"cleanbook/shared/cache"
	cacheMocks "cleanbook/shared/cache/mocks"
)

func complete() draft.Draft {
	return draft.Draft{
		ServiceID:    "svc-1",
		Bedrooms:     2,
		Bathrooms:    1,
		Frequency:    "weekly",
		Date:         "2025-03-14",
		Time:         "09:30",
		Location:     "Downtown",
		CleanerID:    "c-1",
		ContactEmail: "jane@example.com",
	}
}

func TestDraft_Validate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(d *draft.Draft)
		step       string
		wantStep   string
		wantFields []string
	}{
		{name: "complete draft passes payment", mutate: func(*draft.Draft) {}, step: draft.StepPayment},
		{
			name:   "later steps are not checked",
			mutate: func(d *draft.Draft) { d.Date, d.CleanerID = "", "" },
			step:   draft.StepDetails,
		},
		{
			name:       "missing service blocks every step",
			mutate:     func(d *draft.Draft) { d.ServiceID = "" },
			step:       draft.StepSchedule,
			wantStep:   draft.StepService,
			wantFields: []string{"service_id"},
		},
		{
			name:       "unknown frequency",
			mutate:     func(d *draft.Draft) { d.Frequency = "daily" },
			step:       draft.StepDetails,
			wantStep:   draft.StepDetails,
			wantFields: []string{"frequency"},
		},
		{
			name:   "empty frequency means one time",
			mutate: func(d *draft.Draft) { d.Frequency = "" },
			step:   draft.StepDetails,
		},
		{
			name:       "bad schedule",
			mutate:     func(d *draft.Draft) { d.Date, d.Time, d.Location = "14/03/2025", "9am", "  " },
			step:       draft.StepCleaner,
			wantStep:   draft.StepSchedule,
			wantFields: []string{"date", "time", "location"},
		},
		{
			name:   "any cleaner passes the cleaner step",
			mutate: func(d *draft.Draft) { d.CleanerID = "" },
			step:   draft.StepPayment,
		},
		{
			name:       "blank cleaner id",
			mutate:     func(d *draft.Draft) { d.CleanerID = "   " },
			step:       draft.StepPayment,
			wantStep:   draft.StepCleaner,
			wantFields: []string{"cleaner_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := complete()
			tt.mutate(&d)

			err := d.Validate(tt.step)
			if tt.wantStep == "" {
				assert.NoError(t, err)

				return
			}

			var incomplete *draft.IncompleteError
			assert.ErrorAs(t, err, &incomplete)
			assert.Equal(t, tt.wantStep, incomplete.Step)
			assert.Equal(t, tt.wantFields, incomplete.Fields)
		})
	}
}

func TestDraft_ValidateUnknownStep(t *testing.T) {
	assert.ErrorIs(t, complete().Validate("review"), draft.ErrUnknownStep)
}

func TestSteps(t *testing.T) {
	steps := draft.Steps()
	assert.Equal(t, []string{"service", "details", "schedule", "cleaner", "payment"}, steps)

	steps[0] = "changed"
	assert.Equal(t, draft.StepService, draft.Steps()[0])
}

func TestStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.Booking.DraftTTLMinutes = 30

	t.Run("save uses ttl in seconds", func(t *testing.T) {
		redisCache := cacheMocks.NewMockRedisCache(gomock.NewController(t))
		redisCache.EXPECT().Save(gomock.Any(), "booking:draft:u-1", gomock.Any(), 1800).Return(nil)

		saved, err := draft.NewStore(cfg, redisCache).Save(context.Background(), "u-1", complete())
		assert.NoError(t, err)
		assert.False(t, saved.UpdatedAt.IsZero())
	})

	t.Run("missing draft", func(t *testing.T) {
		redisCache := cacheMocks.NewMockRedisCache(gomock.NewController(t))
		redisCache.EXPECT().Get(gomock.Any(), "booking:draft:u-1", gomock.Any()).
			Return(fmt.Errorf("failed to get cache value: %w", cache.Nil))

		_, found, err := draft.NewStore(cfg, redisCache).Get(context.Background(), "u-1")
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("redis failure", func(t *testing.T) {
		redisCache := cacheMocks.NewMockRedisCache(gomock.NewController(t))
		redisCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

		_, _, err := draft.NewStore(cfg, redisCache).Get(context.Background(), "u-1")
		assert.Error(t, err)
	})

	t.Run("found", func(t *testing.T) {
		redisCache := cacheMocks.NewMockRedisCache(gomock.NewController(t))
		redisCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, value any) error {
				*value.(*draft.Draft) = complete()

				return nil
			})

		d, found, err := draft.NewStore(cfg, redisCache).Get(context.Background(), "u-1")
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "svc-1", d.ServiceID)
	})
}
