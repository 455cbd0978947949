package booking

import (
	"context"
	"net/http"

	"cleanbook/infras/otel"
	"cleanbook/internal/domains/booking/draft"
	"cleanbook/internal/domains/booking/model"
	"cleanbook/internal/domains/booking/model/dto"
	"cleanbook/internal/domains/booking/service"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/validator"
	"cleanbook/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const queryParamStep = "step"

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/quote", handler.Quote)

		routerGroup.Get("/draft", handler.GetDraft)
		routerGroup.Put("/draft", handler.SaveDraft)
		routerGroup.Delete("/draft", handler.DiscardDraft)

		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/", handler.GetBookings)
		routerGroup.Get("/mine", handler.GetMyBookings)
		routerGroup.Get("/assigned", handler.GetAssignedBookings)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Patch("/{id}/status", handler.UpdateStatus)
		routerGroup.Patch("/{id}/cleaner", handler.AssignCleaner)
	})
}

// Quote prices a prospective booking.
// @Summary Quote a booking
// @Description Compute the itemised price for a service, home size, extras, frequency and promo code.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.QuoteRequest true "Quote Request"
// @Success 200 {object} response.Data[dto.QuoteResponse] "Price breakdown"
// @Failure 400 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/quote [post]
// @Security BearerAuth
func (handler *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Quote")
	defer scope.End()

	req := dto.QuoteRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Quote(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to quote booking")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// GetDraft returns the caller's unfinished booking.
// @Summary Get booking draft
// @Tags Booking
// @Produce json
// @Success 200 {object} response.Data[draft.Draft] "Saved draft"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/draft [get]
// @Security BearerAuth
func (handler *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetDraft")
	defer scope.End()

	res, err := handler.service.GetDraft(ctx)
	if err != nil {
		scope.TraceError(err)

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// SaveDraft stores the wizard state after the given step has been completed.
// @Summary Save booking draft
// @Description The draft must carry every field required up to and including step.
// @Tags Booking
// @Accept json
// @Produce json
// @Param step query string true "Completed step (service, details, schedule, cleaner, payment)"
// @Param request body draft.Draft true "Draft"
// @Success 200 {object} response.Data[draft.Draft] "Saved draft with a fresh quote"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/draft [put]
// @Security BearerAuth
func (handler *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SaveDraft")
	defer scope.End()

	req := draft.Draft{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.SaveDraft(ctx, req, r.URL.Query().Get(queryParamStep))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to save booking draft")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// DiscardDraft throws away the caller's unfinished booking.
// @Summary Discard booking draft
// @Tags Booking
// @Produce json
// @Success 200 {object} response.Message "Draft discarded"
// @Failure 500 {object} response.Error
// @Router /v1/bookings/draft [delete]
// @Security BearerAuth
func (handler *Handler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DiscardDraft")
	defer scope.End()

	if err := handler.service.DiscardDraft(ctx); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to discard booking draft")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Draft discarded")
}

// CreateBooking places a booking after checking the client's total against the server price.
// @Summary Create a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResponse] "Booking created"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error "Price changed, slot taken or promo already used"
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking " + res.ID + " created by user " + user)

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetBookings lists every booking for the admin console.
// @Summary Get all bookings
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status (pending, confirmed, completed, cancelled)"
// @Param payment_status query string false "Filter by payment status (unpaid, paid)"
// @Param scheduled_date query string false "Filter by date (YYYY-MM-DD)"
// @Param cleaner_id query string false "Filter by cleaner"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	handler.list(w, r, "GetBookings", handler.service.GetAll)
}

// GetMyBookings lists the caller's bookings.
// @Summary Get my bookings
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 500 {object} response.Error
// @Router /v1/bookings/mine [get]
// @Security BearerAuth
func (handler *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	handler.list(w, r, "GetMyBookings", handler.service.Mine)
}

// GetAssignedBookings lists the jobs assigned to the calling cleaner.
// @Summary Get assigned jobs
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status"
// @Param scheduled_date query string false "Filter by date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/assigned [get]
// @Security BearerAuth
func (handler *Handler) GetAssignedBookings(w http.ResponseWriter, r *http.Request) {
	handler.list(w, r, "GetAssignedBookings", handler.service.Assigned)
}

type lister func(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)

func (handler *Handler) list(w http.ResponseWriter, r *http.Request, name string, fetch lister) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+"."+name)
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true, model.SortableColumns...)

	query := r.URL.Query()
	filterGroup := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	for _, field := range []string{model.FieldStatus, model.FieldPaymentStatus, model.FieldScheduledDate, model.FieldCleanerID} {
		filterGroup.AppendIfNotEmpty(field, gDto.FilterOperatorEq, query.Get(field), model.TableName)
	}

	bookings, err := fetch(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bookings")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetBookingByID retrieves a booking the caller owns, is assigned to, or administers.
// @Summary Get a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	booking, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, booking)
}

// UpdateStatus moves a booking through its lifecycle.
// @Summary Change booking status
// @Description Customers may cancel; cleaners complete their jobs; admins may do anything the lifecycle allows.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.UpdateStatusRequest true "Update Status Request"
// @Success 200 {object} response.Message "Booking status updated"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/status [patch]
// @Security BearerAuth
func (handler *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateStatus")
	defer scope.End()

	req := dto.UpdateStatusRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.UpdateStatus(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update booking status")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking " + id + " moved to " + req.Status)

	response.WithMessage(w, http.StatusOK, "Booking status updated")
}

// AssignCleaner puts a cleaner on a booking.
// @Summary Assign a cleaner
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.AssignCleanerRequest true "Assign Cleaner Request"
// @Success 200 {object} response.Message "Cleaner assigned"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/cleaner [patch]
// @Security BearerAuth
func (handler *Handler) AssignCleaner(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".AssignCleaner")
	defer scope.End()

	req := dto.AssignCleanerRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.AssignCleaner(ctx, req, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to assign cleaner")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Cleaner assigned")
}
