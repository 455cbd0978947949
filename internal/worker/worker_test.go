package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cleanbook/config"
	kafkaMocks "cleanbook/infras/kafka/mocks"
	"cleanbook/infras/mailer"
	"cleanbook/internal/domains/booking/event"
	"cleanbook/internal/domains/notification/model"
	"cleanbook/internal/domains/notification/service/mocks"
	"cleanbook/internal/worker"

	"github.com/hibiken/asynq"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newWorker(t *testing.T) (*worker.Worker, *mocks.MockNotification) {
	t.Helper()

	ctrl := gomock.NewController(t)
	notifications := mocks.NewMockNotification(ctrl)

	return worker.New(&config.Config{}, nil, kafkaMocks.NewMockClient(ctrl), notifications), notifications
}

func TestWorker_ProcessEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers decoded message", func(t *testing.T) {
		w, notifications := newWorker(t)

		msg := mailer.Message{To: []string{"ann@example.com"}, Subject: "Payment received", TextBody: "thanks"}
		body, err := json.Marshal(msg)
		require.NoError(t, err)

		notifications.EXPECT().Deliver(gomock.Any(), msg).Return(nil)

		assert.NoError(t, w.ProcessEmail(ctx, asynq.NewTask(model.TaskTypeSendEmail, body)))
	})

	t.Run("malformed payload is not retried", func(t *testing.T) {
		w, _ := newWorker(t)

		err := w.ProcessEmail(ctx, asynq.NewTask(model.TaskTypeSendEmail, []byte("{")))

		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("delivery error is returned for retry", func(t *testing.T) {
		w, notifications := newWorker(t)

		notifications.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(errors.New("smtp timeout"))

		err := w.ProcessEmail(ctx, asynq.NewTask(model.TaskTypeSendEmail, []byte(`{"to":["a@b.co"]}`)))

		assert.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestWorker_ProcessBookingEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("passes event to notifications", func(t *testing.T) {
		w, notifications := newWorker(t)

		evt := event.Event{Type: event.TypeCreated, BookingID: "b-1", ContactEmail: "ann@example.com", Status: "pending"}
		body, err := json.Marshal(evt)
		require.NoError(t, err)

		notifications.EXPECT().HandleBookingEvent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, got event.Event) error {
				assert.Equal(t, "b-1", got.BookingID)
				assert.Equal(t, event.TypeCreated, got.Type)

				return nil
			})

		assert.NoError(t, w.ProcessBookingEvent(ctx, kafkaGo.Message{Key: []byte("b-1"), Value: body}))
	})

	t.Run("malformed message is dropped", func(t *testing.T) {
		w, _ := newWorker(t)

		assert.NoError(t, w.ProcessBookingEvent(ctx, kafkaGo.Message{Key: []byte("b-1"), Value: []byte("not json")}))
	})

	t.Run("handler error keeps message uncommitted", func(t *testing.T) {
		w, notifications := newWorker(t)

		notifications.EXPECT().HandleBookingEvent(gomock.Any(), gomock.Any()).Return(errors.New("queue down"))

		err := w.ProcessBookingEvent(ctx, kafkaGo.Message{Value: []byte(`{"type":"booking.created","booking_id":"b-2"}`)})

		assert.ErrorContains(t, err, "b-2")
	})
}
