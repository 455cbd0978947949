package promo

import (
	"net/http"

	"cleanbook/infras/otel"
	"cleanbook/internal/domains/promo/model"
	"cleanbook/internal/domains/promo/model/dto"
	"cleanbook/internal/domains/promo/service"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/validator"
	"cleanbook/transport/http/middleware"
	"cleanbook/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service  service.Promo
	throttle *middleware.Throttle
	otel     otel.Otel
}

func New(service service.Promo, throttle *middleware.Throttle, otel otel.Otel) Handler {
	return Handler{
		service:  service,
		throttle: throttle,
		otel:     otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/promos", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreatePromo)
		routerGroup.Get("/", handler.GetPromos)
		routerGroup.With(handler.throttle.Handler).Post("/claim", handler.Claim)
		routerGroup.Get("/claims/mine", handler.GetMyClaims)
		routerGroup.Get("/{id}", handler.GetPromoByID)
		routerGroup.Patch("/{id}", handler.UpdatePromo)
		routerGroup.Delete("/{id}", handler.DeletePromo)
	})
}

// CreatePromo issues a promo code.
// @Summary Create a promo code
// @Tags Promo
// @Accept json
// @Produce json
// @Param request body dto.CreatePromoRequest true "Create Promo Request"
// @Success 201 {object} response.Message "Promo created successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/promos [post]
// @Security BearerAuth
func (handler *Handler) CreatePromo(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreatePromo")
	defer scope.End()

	req := dto.CreatePromoRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create promo")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Promo " + req.Code + " created")

	response.WithMessage(w, http.StatusCreated, "Promo created successfully")
}

// GetPromos lists promo codes.
// @Summary Get promo codes
// @Tags Promo
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param code query string false "Filter by code (partial match)"
// @Param active query boolean false "Filter by active flag"
// @Success 200 {object} response.Data[dto.GetPromosResponse] "List of promos"
// @Failure 500 {object} response.Error
// @Router /v1/promos [get]
// @Security BearerAuth
func (handler *Handler) GetPromos(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPromos")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true, model.SortableColumns...)

	filterGroup := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}
	filterGroup.AppendIfNotEmpty(model.FieldCode, gDto.FilterOperatorLike, r.URL.Query().Get(model.FieldCode), model.TableName)
	filterGroup.AppendIfNotEmpty(model.FieldActive, gDto.FilterOperatorEq, r.URL.Query().Get(model.FieldActive), model.TableName)

	promos, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get promos")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, promos)
}

// Claim adds a promo code to the caller's wallet so it can be used on a booking.
// @Summary Claim a promo code
// @Tags Promo
// @Accept json
// @Produce json
// @Param request body dto.ClaimRequest true "Claim Request"
// @Success 201 {object} response.Data[dto.ClaimResponse] "Promo claimed"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Already claimed or fully claimed"
// @Failure 422 {object} response.Error "Expired or not started"
// @Failure 429 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/promos/claim [post]
// @Security BearerAuth
func (handler *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Claim")
	defer scope.End()

	req := dto.ClaimRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Claim(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Msg("failed to claim promo")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Promo " + res.Code + " claimed by user " + user)

	response.WithJSON(w, http.StatusCreated, res)
}

// GetMyClaims lists the promo codes in the caller's wallet.
// @Summary Get my promo claims
// @Tags Promo
// @Produce json
// @Success 200 {object} response.Data[dto.GetClaimsResponse] "Claimed promos"
// @Failure 500 {object} response.Error
// @Router /v1/promos/claims/mine [get]
// @Security BearerAuth
func (handler *Handler) GetMyClaims(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyClaims")
	defer scope.End()

	claims, err := handler.service.Mine(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get promo claims")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, claims)
}

// GetPromoByID retrieves one promo code.
// @Summary Get a promo code
// @Tags Promo
// @Produce json
// @Param id path string true "Promo ID"
// @Success 200 {object} response.Data[dto.PromoResponse] "Promo details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/promos/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetPromoByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPromoByID")
	defer scope.End()

	promo, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get promo by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, promo)
}

// UpdatePromo changes a promo code's terms.
// @Summary Update a promo code
// @Tags Promo
// @Accept json
// @Produce json
// @Param id path string true "Promo ID"
// @Param request body dto.UpdatePromoRequest true "Update Promo Request"
// @Success 200 {object} response.Message "Promo updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/promos/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdatePromo(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdatePromo")
	defer scope.End()

	req := dto.UpdatePromoRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update promo")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Promo updated successfully")
}

// DeletePromo deactivates a promo code. Existing claims stay in wallets but can no longer be used.
// @Summary Delete a promo code
// @Tags Promo
// @Produce json
// @Param id path string true "Promo ID"
// @Success 200 {object} response.Message "Promo deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/promos/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeletePromo(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeletePromo")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete promo")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Promo deleted successfully")
}
