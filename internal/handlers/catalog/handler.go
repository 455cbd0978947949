package catalog

import (
	"net/http"

	"cleanbook/infras/otel"
	"cleanbook/internal/domains/catalog/model"
	"cleanbook/internal/domains/catalog/model/dto"
	"cleanbook/internal/domains/catalog/service"
	"cleanbook/shared"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/failure"
	"cleanbook/shared/validator"
	"cleanbook/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const formImage = "image"

type Handler struct {
	service service.Catalog
	otel    otel.Otel
}

func New(service service.Catalog, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/services", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateService)
		routerGroup.Get("/", handler.GetServices)
		routerGroup.Get("/{id}", handler.GetServiceByID)
		routerGroup.Patch("/{id}", handler.UpdateService)
		routerGroup.Delete("/{id}", handler.DeleteService)
	})

	router.Route("/extras", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateExtra)
		routerGroup.Get("/", handler.GetExtras)
		routerGroup.Get("/{id}", handler.GetExtraByID)
		routerGroup.Patch("/{id}", handler.UpdateExtra)
		routerGroup.Delete("/{id}", handler.DeleteExtra)
	})
}

// CreateService adds a cleaning service to the catalog.
// @Summary Create a cleaning service
// @Tags Catalog
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Service name"
// @Param description formData string false "Description"
// @Param base_price formData number true "Base price"
// @Param bedroom_rate formData number false "Price per bedroom"
// @Param bathroom_rate formData number false "Price per bathroom"
// @Param duration_minutes formData integer true "Expected duration in minutes"
// @Param active formData boolean false "Bookable"
// @Param image formData file false "Service image"
// @Success 201 {object} response.Message "Service created successfully"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/services [post]
// @Security BearerAuth
func (handler *Handler) CreateService(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateService")
	defer scope.End()

	if err := request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")
		response.WithError(writer, failure.BadRequest(err))

		return
	}

	req := dto.CreateServiceRequest{
		Name:        request.FormValue(model.FieldName),
		Description: request.FormValue(model.FieldDescription),
		Active:      shared.ConvertStringToBool(request.FormValue(model.FieldActive)),
	}

	var err error

	if req.BasePrice, err = formDecimal(request, model.FieldBasePrice); err != nil {
		response.WithError(writer, err)

		return
	}

	if req.BedroomRate, err = formDecimal(request, model.FieldBedroomRate); err != nil {
		response.WithError(writer, err)

		return
	}

	if req.BathroomRate, err = formDecimal(request, model.FieldBathroomRate); err != nil {
		response.WithError(writer, err)

		return
	}

	if duration := request.FormValue(model.FieldDurationMinutes); duration != constant.Empty {
		if req.DurationMinutes, err = shared.ConvertStringToInt(duration); err != nil {
			response.WithError(writer, failure.BadRequestFromString("duration_minutes must be a number"))

			return
		}
	}

	file, fileHeader, err := request.FormFile(formImage)
	if err == nil {
		req.Image = fileHeader
		req.ImageFile = file

		defer file.Close()
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.CreateService(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create service")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Service created successfully by user " + user)

	response.WithMessage(writer, http.StatusCreated, "Service created successfully")
}

// GetServices lists the catalog. Only admins see inactive services.
// @Summary Get cleaning services
// @Tags Catalog
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param name query string false "Filter by name (partial match)"
// @Success 200 {object} response.Data[dto.GetServicesResponse] "List of services"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/services [get]
func (handler *Handler) GetServices(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetServices")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true, model.ServiceSortableColumns...)

	filterGroup := visibleTo(ctx.Value(constant.ContextKeyUserRole), model.ServiceTableName)
	filterGroup.AppendIfNotEmpty(model.FieldName, gDto.FilterOperatorLike, r.URL.Query().Get(model.FieldName), model.ServiceTableName)

	services, err := handler.service.GetServices(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get services")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, services)
}

// GetServiceByID retrieves one service.
// @Summary Get a cleaning service
// @Tags Catalog
// @Produce json
// @Param id path string true "Service ID"
// @Success 200 {object} response.Data[dto.ServiceResponse] "Service details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/services/{id} [get]
func (handler *Handler) GetServiceByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetServiceByID")
	defer scope.End()

	svc, err := handler.service.GetService(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get service by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, svc)
}

// UpdateService changes a service's pricing, details or image.
// @Summary Update a cleaning service
// @Tags Catalog
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Service ID"
// @Param name formData string false "Service name"
// @Param description formData string false "Description"
// @Param base_price formData number false "Base price"
// @Param bedroom_rate formData number false "Price per bedroom"
// @Param bathroom_rate formData number false "Price per bathroom"
// @Param duration_minutes formData integer false "Expected duration in minutes"
// @Param active formData boolean false "Bookable"
// @Param image formData file false "Service image"
// @Success 200 {object} response.Message "Service updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/services/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateService(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateService")
	defer scope.End()

	if err := request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")
		response.WithError(writer, failure.BadRequest(err))

		return
	}

	req := dto.UpdateServiceRequest{
		Name:        request.FormValue(model.FieldName),
		Description: request.FormValue(model.FieldDescription),
		Active:      shared.ConvertStringToBool(request.FormValue(model.FieldActive)),
	}

	for field, target := range map[string]**decimal.Decimal{
		model.FieldBasePrice:    &req.BasePrice,
		model.FieldBedroomRate:  &req.BedroomRate,
		model.FieldBathroomRate: &req.BathroomRate,
	} {
		if request.FormValue(field) == constant.Empty {
			continue
		}

		value, err := formDecimal(request, field)
		if err != nil {
			response.WithError(writer, err)

			return
		}

		*target = &value
	}

	if duration := request.FormValue(model.FieldDurationMinutes); duration != constant.Empty {
		minutes, err := shared.ConvertStringToInt(duration)
		if err != nil {
			response.WithError(writer, failure.BadRequestFromString("duration_minutes must be a number"))

			return
		}

		req.DurationMinutes = &minutes
	}

	file, fileHeader, err := request.FormFile(formImage)
	if err == nil {
		req.Image = fileHeader
		req.ImageFile = file

		defer file.Close()
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(writer, err)

		return
	}

	id := chi.URLParam(request, constant.RequestParamID)

	if err := handler.service.UpdateService(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update service")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Service " + id + " updated")

	response.WithMessage(writer, http.StatusOK, "Service updated successfully")
}

// DeleteService retires a service so it can no longer be booked.
// @Summary Delete a cleaning service
// @Tags Catalog
// @Produce json
// @Param id path string true "Service ID"
// @Success 200 {object} response.Message "Service deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/services/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteService")
	defer scope.End()

	if err := handler.service.DeleteService(ctx, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete service")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Service deleted successfully")
}

// CreateExtra adds an add-on that customers can attach to a booking.
// @Summary Create an extra
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body dto.CreateExtraRequest true "Create Extra Request"
// @Success 201 {object} response.Message "Extra created successfully"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/extras [post]
// @Security BearerAuth
func (handler *Handler) CreateExtra(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateExtra")
	defer scope.End()

	req := dto.CreateExtraRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.CreateExtra(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create extra")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusCreated, "Extra created successfully")
}

// GetExtras lists add-ons. Only admins see inactive ones.
// @Summary Get extras
// @Tags Catalog
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetExtrasResponse] "List of extras"
// @Failure 500 {object} response.Error
// @Router /v1/extras [get]
func (handler *Handler) GetExtras(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetExtras")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true, model.ExtraSortableColumns...)

	extras, err := handler.service.GetExtras(ctx, queryParams, visibleTo(ctx.Value(constant.ContextKeyUserRole), model.ExtraTableName))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get extras")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, extras)
}

// GetExtraByID retrieves one add-on.
// @Summary Get an extra
// @Tags Catalog
// @Produce json
// @Param id path string true "Extra ID"
// @Success 200 {object} response.Data[dto.ExtraResponse] "Extra details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/extras/{id} [get]
func (handler *Handler) GetExtraByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetExtraByID")
	defer scope.End()

	extra, err := handler.service.GetExtra(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get extra by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, extra)
}

// UpdateExtra changes an add-on.
// @Summary Update an extra
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Extra ID"
// @Param request body dto.UpdateExtraRequest true "Update Extra Request"
// @Success 200 {object} response.Message "Extra updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/extras/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateExtra(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateExtra")
	defer scope.End()

	req := dto.UpdateExtraRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.UpdateExtra(ctx, req, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update extra")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Extra updated successfully")
}

// DeleteExtra retires an add-on.
// @Summary Delete an extra
// @Tags Catalog
// @Produce json
// @Param id path string true "Extra ID"
// @Success 200 {object} response.Message "Extra deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/extras/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteExtra(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteExtra")
	defer scope.End()

	if err := handler.service.DeleteExtra(ctx, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete extra")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Extra deleted successfully")
}

func formDecimal(request *http.Request, field string) (decimal.Decimal, error) {
	raw := request.FormValue(field)
	if raw == constant.Empty {
		return decimal.Zero, nil
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, failure.BadRequestFromString(field + " must be a number")
	}

	return value, nil
}

// visibleTo hides inactive catalog entries from everyone but admins.
func visibleTo(role any, table string) gDto.FilterGroup {
	group := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	if role != constant.RoleAdmin {
		group.Filters = append(group.Filters, gDto.Filter{
			Field:    model.FieldActive,
			Operator: gDto.FilterOperatorEq,
			Value:    true,
			Table:    table,
		})
	}

	return group
}
