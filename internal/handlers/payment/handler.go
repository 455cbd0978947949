package payment

import (
	"net/http"

	"cleanbook/infras/otel"
	"cleanbook/internal/domains/payment/model"
	"cleanbook/internal/domains/payment/model/dto"
	"cleanbook/internal/domains/payment/service"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/validator"
	"cleanbook/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Payment
	otel    otel.Otel
}

func New(service service.Payment, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/payments", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetPayments)
		routerGroup.Post("/intent", handler.CreateIntent)
		routerGroup.Post("/verify", handler.Verify)
	})
}

// CreateIntent opens a card payment for the booking total.
// @Summary Create a payment intent
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.CreateIntentRequest true "Create Intent Request"
// @Success 200 {object} response.Data[dto.IntentResponse] "Intent for the client to confirm"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Already paid or cancelled"
// @Failure 422 {object} response.Error "Payments are not configured"
// @Failure 500 {object} response.Error
// @Router /v1/payments/intent [post]
// @Security BearerAuth
func (handler *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateIntent")
	defer scope.End()

	req := dto.CreateIntentRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.CreateIntent(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("booking_id", req.BookingID).Msg("failed to create payment intent")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// Verify checks a confirmed intent with the gateway and marks the booking paid.
// Calling it again for the same intent returns the recorded payment.
// @Summary Verify a payment
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.VerifyRequest true "Verify Request"
// @Success 200 {object} response.Data[dto.PaymentResponse] "Recorded payment"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error "Intent not succeeded or does not match the booking"
// @Failure 500 {object} response.Error
// @Router /v1/payments/verify [post]
// @Security BearerAuth
func (handler *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Verify")
	defer scope.End()

	req := dto.VerifyRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Verify(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("intent_id", req.IntentID).Msg("failed to verify payment")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Payment " + res.ID + " verified for booking " + res.BookingID)

	response.WithJSON(w, http.StatusOK, res)
}

// GetPayments lists recorded payments.
// @Summary Get payments
// @Tags Payment
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param booking_id query string false "Filter by booking"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Data[dto.GetPaymentsResponse] "List of payments"
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments [get]
// @Security BearerAuth
func (handler *Handler) GetPayments(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPayments")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true, model.SortableColumns...)

	filterGroup := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}
	filterGroup.AppendIfNotEmpty(model.FieldBookingID, gDto.FilterOperatorEq, r.URL.Query().Get(model.FieldBookingID), model.TableName)
	filterGroup.AppendIfNotEmpty(model.FieldStatus, gDto.FilterOperatorEq, r.URL.Query().Get(model.FieldStatus), model.TableName)

	payments, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get payments")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, payments)
}
