package router

import (
	"cleanbook/internal/handlers/auth"
	"cleanbook/internal/handlers/booking"
	"cleanbook/internal/handlers/catalog"
	"cleanbook/internal/handlers/cleaner"
	"cleanbook/internal/handlers/contact"
	"cleanbook/internal/handlers/dashboard"
	"cleanbook/internal/handlers/payment"
	"cleanbook/internal/handlers/promo"
	"cleanbook/internal/handlers/review"
	"cleanbook/internal/handlers/user"
	"cleanbook/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Auth      auth.Handler
	User      user.Handler
	Catalog   catalog.Handler
	Cleaner   cleaner.Handler
	Promo     promo.Handler
	Booking   booking.Handler
	Payment   payment.Handler
	Review    review.Handler
	Dashboard dashboard.Handler
	Contact   contact.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	AuthRole       middleware.AuthRole
}

// SetupRoutes mounts every domain under /v1. Which routes are public and which roles
// reach the rest is decided by the permission table, not here.
func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.AuthRole.APIKey, r.AuthRole.Auth, r.AuthRole.RBAC)

		r.DomainHandlers.Auth.Router(routerGroup)
		r.DomainHandlers.User.Router(routerGroup)
		r.DomainHandlers.Catalog.Router(routerGroup)
		r.DomainHandlers.Cleaner.Router(routerGroup)
		r.DomainHandlers.Promo.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Payment.Router(routerGroup)
		r.DomainHandlers.Review.Router(routerGroup)
		r.DomainHandlers.Dashboard.Router(routerGroup)
		r.DomainHandlers.Contact.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers, authRole middleware.AuthRole) Router {
	return Router{
		DomainHandlers: domainHandlers,
		AuthRole:       authRole,
	}
}
