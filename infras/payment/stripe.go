package payment

//go:generate go run go.uber.org/mock/mockgen -source=./stripe.go -destination=./mocks/stripe_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"cleanbook/config"
	"cleanbook/infras/otel"
	"cleanbook/shared/constant"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const (
	StatusSucceeded = string(stripe.PaymentIntentStatusSucceeded)

	otelAttrIntentID = "payment.intent_id"
)

var ErrGatewayNotConfigured = errors.New("payment gateway is not configured")

// IntentRequest describes a PaymentIntent to create. Amount is in the smallest currency unit.
type IntentRequest struct {
	Amount         int64
	Currency       string
	Description    string
	ReceiptEmail   string
	IdempotencyKey string
	Metadata       map[string]string
}

// Intent is the subset of a Stripe PaymentIntent the application relies on.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Currency     string
	Amount       int64
	Metadata     map[string]string
}

type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (Intent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (Intent, error)
}

type stripeGateway struct {
	api  *client.API
	cfg  *config.Config
	otel otel.Otel
}

func New(cfg *config.Config, otl otel.Otel) Gateway {
	var api *client.API

	if cfg.External.Stripe.SecretKey != "" {
		api = client.New(cfg.External.Stripe.SecretKey, nil)
	} else {
		log.Warn().Msg("Stripe secret key is empty, payment endpoints will fail")
	}

	return &stripeGateway{
		api:  api,
		cfg:  cfg,
		otel: otl,
	}
}

func (g *stripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (res Intent, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelPaymentScopeName, constant.OtelPaymentScopeName+".CreatePaymentIntent")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if g.api == nil {
		return res, ErrGatewayNotConfigured
	}

	currency := req.Currency
	if currency == "" {
		currency = g.cfg.External.Stripe.Currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}

	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}

	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		log.Error().Err(err).Msg("failed to create stripe payment intent")

		return res, fmt.Errorf("failed to create payment intent: %w", err)
	}

	scope.SetAttribute(otelAttrIntentID, intent.ID)

	return fromStripe(intent), nil
}

func (g *stripeGateway) RetrievePaymentIntent(ctx context.Context, id string) (res Intent, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelPaymentScopeName, constant.OtelPaymentScopeName+".RetrievePaymentIntent")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelAttrIntentID, id)

	if g.api == nil {
		return res, ErrGatewayNotConfigured
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		log.Error().Err(err).Str("intent_id", id).Msg("failed to retrieve stripe payment intent")

		return res, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}

	return fromStripe(intent), nil
}

func fromStripe(intent *stripe.PaymentIntent) Intent {
	return Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
		Currency:     string(intent.Currency),
		Amount:       intent.Amount,
		Metadata:     intent.Metadata,
	}
}
