package contact

import (
	"net/http"

	"cleanbook/infras/otel"
	"cleanbook/internal/domains/notification/model/dto"
	"cleanbook/internal/domains/notification/service"
	"cleanbook/shared/constant"
	"cleanbook/shared/validator"
	"cleanbook/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Notification
	otel    otel.Otel
}

func New(service service.Notification, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Post("/contact", handler.SendMessage)
}

// SendMessage forwards a visitor's message to the support inbox.
// @Summary Contact support
// @Tags Contact
// @Accept json
// @Produce json
// @Param request body dto.ContactRequest true "Contact Request"
// @Success 202 {object} response.Message "Message received"
// @Failure 400 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 429 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/contact [post]
func (handler *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SendMessage")
	defer scope.End()

	req := dto.ContactRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Contact(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to queue contact message")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusAccepted, "Message received")
}
