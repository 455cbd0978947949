package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestHandleWithRetry(t *testing.T) {
	msg := kafkaGo.Message{Key: []byte("b-1")}
	errBusy := errors.New("smtp busy")

	t.Run("succeeds after a transient failure", func(t *testing.T) {
		calls := 0
		handler := func(context.Context, kafkaGo.Message) error {
			calls++
			if calls == 1 {
				return errBusy
			}

			return nil
		}

		assert.NoError(t, handleWithRetry(t.Context(), msg, handler, 3, time.Millisecond))
		assert.Equal(t, 2, calls)
	})

	t.Run("gives up with the last error", func(t *testing.T) {
		calls := 0
		handler := func(context.Context, kafkaGo.Message) error {
			calls++

			return errBusy
		}

		assert.ErrorIs(t, handleWithRetry(t.Context(), msg, handler, 3, time.Millisecond), errBusy)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops waiting when cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		calls := 0
		handler := func(context.Context, kafkaGo.Message) error {
			calls++
			cancel()

			return errBusy
		}

		assert.ErrorIs(t, handleWithRetry(ctx, msg, handler, 3, time.Hour), errBusy)
		assert.Equal(t, 1, calls)
	})
}
