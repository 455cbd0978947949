package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"cleanbook/config"
	"cleanbook/infras/mailer"
	"cleanbook/infras/otel"
	"cleanbook/infras/queue"
	"cleanbook/internal/domains/booking/event"
	"cleanbook/internal/domains/notification/model"
	"cleanbook/internal/domains/notification/model/dto"
	"cleanbook/internal/domains/notification/template"
	"cleanbook/shared/constant"
	"cleanbook/shared/failure"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

type Notification interface {
	Contact(ctx context.Context, req dto.ContactRequest) error
	HandleBookingEvent(ctx context.Context, evt event.Event) error
	Deliver(ctx context.Context, msg mailer.Message) error
}

type serviceImpl struct {
	queue  queue.Queue
	mailer mailer.Mailer
	cfg    *config.Config
	otel   otel.Otel
}

func New(queue queue.Queue, mailer mailer.Mailer, cfg *config.Config, otel otel.Otel) Notification {
	return &serviceImpl{
		queue:  queue,
		mailer: mailer,
		cfg:    cfg,
		otel:   otel,
	}
}

var subjects = map[string]string{
	event.TypeCreated:          "We received your booking",
	event.TypeCleanerAssigned:  "Your cleaner has been assigned",
	event.TypePaymentConfirmed: "Payment received",
}

var templates = map[string]string{
	event.TypeCreated:          model.TemplateBookingCreated,
	event.TypeStatusChanged:    model.TemplateStatusChanged,
	event.TypeCleanerAssigned:  model.TemplateCleanerAssigned,
	event.TypePaymentConfirmed: model.TemplatePaymentConfirmed,
}

// Contact queues a message from a visitor to the support inbox.
func (s *serviceImpl) Contact(ctx context.Context, req dto.ContactRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Contact")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	support := s.cfg.External.Mail.Support
	if support == constant.Empty {
		return failure.UnprocessableEntity("contact form is not available")
	}

	html, text, err := template.Render(model.TemplateContact, req)
	if err != nil {
		return err
	}

	return s.queue.Enqueue(ctx, model.TaskTypeSendEmail, mailer.Message{
		To:       []string{support},
		ReplyTo:  req.Email,
		Subject:  "[Contact] " + req.Subject,
		HTMLBody: html,
		TextBody: text,
	})
}

// HandleBookingEvent turns a booking event into a customer email task.
func (s *serviceImpl) HandleBookingEvent(ctx context.Context, evt event.Event) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".HandleBookingEvent")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	name, ok := templates[evt.Type]
	if !ok {
		log.Warn().Str("type", evt.Type).Str("booking_id", evt.BookingID).Msg("ignoring unknown booking event")

		return nil
	}

	if evt.ContactEmail == constant.Empty {
		log.Warn().Str("type", evt.Type).Str("booking_id", evt.BookingID).Msg("booking has no contact email")

		return nil
	}

	subject, ok := subjects[evt.Type]
	if !ok {
		subject = fmt.Sprintf("Your booking is %s", evt.Status)
	}

	html, text, err := template.Render(name, evt)
	if err != nil {
		return err
	}

	err = s.queue.Enqueue(ctx, model.TaskTypeSendEmail, mailer.Message{
		To:       []string{evt.ContactEmail},
		Subject:  subject,
		HTMLBody: html,
		TextBody: text,
	}, asynq.TaskID(evt.Type+":"+evt.BookingID+":"+evt.Status))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		log.Info().Str("type", evt.Type).Str("booking_id", evt.BookingID).Msg("booking email already queued")

		return nil
	}

	return err
}

// Deliver sends a queued message. Messages that can never be sent are not retried.
func (s *serviceImpl) Deliver(ctx context.Context, msg mailer.Message) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Deliver")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	err = s.mailer.Send(ctx, msg)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, mailer.ErrNoRecipient), errors.Is(err, mailer.ErrMailNotConfigured):
		return fmt.Errorf("%w: %w", asynq.SkipRetry, err)
	default:
		return err
	}
}
