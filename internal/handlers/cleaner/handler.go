package cleaner

import (
	"net/http"

	"cleanbook/infras/otel"
	"cleanbook/internal/domains/cleaner/model"
	"cleanbook/internal/domains/cleaner/model/dto"
	"cleanbook/internal/domains/cleaner/service"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/failure"
	"cleanbook/shared/validator"
	"cleanbook/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const formAvatar = "avatar"

type Handler struct {
	service service.Cleaner
	otel    otel.Otel
}

func New(service service.Cleaner, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/cleaners", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetCleaners)
		routerGroup.Post("/match", handler.Match)
		routerGroup.Post("/profile", handler.CreateProfile)
		routerGroup.Patch("/profile", handler.UpdateProfile)
		routerGroup.Put("/profile/avatar", handler.UploadAvatar)
		routerGroup.Get("/{id}", handler.GetCleanerByID)
		routerGroup.Patch("/{id}", handler.UpdateCleaner)
	})
}

// GetCleaners lists cleaner profiles. Only admins see profiles awaiting approval.
// @Summary Get cleaners
// @Tags Cleaner
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param display_name query string false "Filter by name (partial match)"
// @Success 200 {object} response.Data[dto.GetCleanersResponse] "List of cleaners"
// @Failure 500 {object} response.Error
// @Router /v1/cleaners [get]
func (handler *Handler) GetCleaners(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetCleaners")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true, model.SortableColumns...)

	filterGroup := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}
	filterGroup.AppendIfNotEmpty(model.FieldDisplayName, gDto.FilterOperatorLike, r.URL.Query().Get(model.FieldDisplayName), model.TableName)

	if role, _ := ctx.Value(constant.ContextKeyUserRole).(string); role != constant.RoleAdmin {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldActive,
			Operator: gDto.FilterOperatorEq,
			Value:    true,
			Table:    model.TableName,
		})
	}

	cleaners, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get cleaners")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, cleaners)
}

// Match ranks the active cleaners who cover a location and are free at a slot.
// @Summary Match cleaners to a booking slot
// @Tags Cleaner
// @Accept json
// @Produce json
// @Param request body dto.MatchRequest true "Match Request"
// @Success 200 {object} response.Data[dto.MatchResponse] "Matching cleaners"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/cleaners/match [post]
// @Security BearerAuth
func (handler *Handler) Match(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Match")
	defer scope.End()

	req := dto.MatchRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Match(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to match cleaners")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// CreateProfile registers the caller as a cleaner. The profile stays hidden until an admin activates it.
// @Summary Apply as a cleaner
// @Tags Cleaner
// @Accept json
// @Produce json
// @Param request body dto.CreateProfileRequest true "Create Profile Request"
// @Success 201 {object} response.Message "Cleaner profile created successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/cleaners/profile [post]
// @Security BearerAuth
func (handler *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateProfile")
	defer scope.End()

	req := dto.CreateProfileRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.CreateProfile(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create cleaner profile")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Cleaner profile created by user " + user)

	response.WithMessage(w, http.StatusCreated, "Cleaner profile created successfully")
}

// UpdateProfile edits the caller's own cleaner profile.
// @Summary Update own cleaner profile
// @Tags Cleaner
// @Accept json
// @Produce json
// @Param request body dto.UpdateProfileRequest true "Update Profile Request"
// @Success 200 {object} response.Message "Cleaner profile updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/cleaners/profile [patch]
// @Security BearerAuth
func (handler *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateProfile")
	defer scope.End()

	req := dto.UpdateProfileRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.UpdateProfile(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update cleaner profile")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Cleaner profile updated successfully")
}

// UploadAvatar replaces the caller's profile photo.
// @Summary Upload cleaner avatar
// @Tags Cleaner
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} response.Data[string] "Avatar URL"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/cleaners/profile/avatar [put]
// @Security BearerAuth
func (handler *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UploadAvatar")
	defer scope.End()

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")

		response.WithError(w, failure.BadRequest(err))

		return
	}

	file, fileHeader, err := r.FormFile(formAvatar)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get avatar from form")

		response.WithError(w, failure.BadRequestFromString("avatar is required"))

		return
	}
	defer file.Close()

	req := dto.UploadAvatarRequest{
		Avatar:     fileHeader,
		AvatarFile: file,
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)

		response.WithError(w, err)

		return
	}

	url, err := handler.service.UploadAvatar(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to upload avatar")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, url)
}

// GetCleanerByID retrieves one cleaner profile.
// @Summary Get a cleaner
// @Tags Cleaner
// @Produce json
// @Param id path string true "Cleaner ID"
// @Success 200 {object} response.Data[dto.CleanerResponse] "Cleaner details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/cleaners/{id} [get]
func (handler *Handler) GetCleanerByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetCleanerByID")
	defer scope.End()

	cleaner, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get cleaner by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, cleaner)
}

// UpdateCleaner activates or suspends a cleaner.
// @Summary Activate or suspend a cleaner
// @Tags Cleaner
// @Accept json
// @Produce json
// @Param id path string true "Cleaner ID"
// @Param request body dto.UpdateCleanerRequest true "Update Cleaner Request"
// @Success 200 {object} response.Message "Cleaner updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/cleaners/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateCleaner(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateCleaner")
	defer scope.End()

	req := dto.UpdateCleanerRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update cleaner")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Cleaner " + id + " updated")

	response.WithMessage(w, http.StatusOK, "Cleaner updated successfully")
}
