// Package worker runs the background side of the app: email delivery from the task queue
// and the booking event consumer that turns lifecycle changes into emails.
package worker

import (
	"context"
	"fmt"

	"cleanbook/config"
	"cleanbook/infras/kafka"
	"cleanbook/infras/mailer"
	"cleanbook/infras/queue"
	"cleanbook/internal/domains/booking/event"
	"cleanbook/internal/domains/notification/model"
	"cleanbook/internal/domains/notification/service"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
)

const consumerGroupNotifications = "cleanbook-notifications"

type Worker struct {
	cfg           *config.Config
	server        *asynq.Server
	kafka         kafka.Client
	notifications service.Notification
}

func New(cfg *config.Config, server *asynq.Server, kafka kafka.Client, notifications service.Notification) *Worker {
	return &Worker{
		cfg:           cfg,
		server:        server,
		kafka:         kafka,
		notifications: notifications,
	}
}

// Mux routes queued tasks to their handlers.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(model.TaskTypeSendEmail, w.ProcessEmail)

	return mux
}

// Run blocks until ctx is cancelled or either loop fails to start.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := w.server.Start(w.Mux()); err != nil {
			return fmt.Errorf("failed to start task server: %w", err)
		}

		log.Info().Msg("Task server started.")

		<-ctx.Done()

		w.server.Shutdown()
		log.Info().Msg("Task server stopped.")

		return nil
	})

	g.Go(func() error {
		topic := w.cfg.Kafka.Topics.BookingEvents

		log.Info().Str("topic", topic).Msg("Booking event consumer started.")

		return w.kafka.Consume(ctx, consumerGroupNotifications, topic, w.ProcessBookingEvent)
	})

	err := g.Wait()

	if closeErr := w.kafka.Close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("Failed to close Kafka client.")
	}

	return err
}

// ProcessEmail delivers one queued email. A payload that cannot be decoded is never retried.
func (w *Worker) ProcessEmail(ctx context.Context, task *asynq.Task) error {
	msg, err := queue.DecodePayload[mailer.Message](task)
	if err != nil {
		return fmt.Errorf("%w: %w", asynq.SkipRetry, err)
	}

	return w.notifications.Deliver(ctx, msg)
}

// ProcessBookingEvent handles one message from the booking events topic. Malformed messages
// are logged and committed so they do not block the partition.
func (w *Worker) ProcessBookingEvent(ctx context.Context, msg kafkaGo.Message) error {
	evt, err := kafka.DecodeKafkaMessage[event.Event](msg)
	if err != nil {
		log.Error().Err(err).Str("key", string(msg.Key)).Msg("dropping malformed booking event")

		return nil
	}

	if err := w.notifications.HandleBookingEvent(ctx, evt); err != nil {
		return fmt.Errorf("failed to handle %s for booking %s: %w", evt.Type, evt.BookingID, err)
	}

	return nil
}
