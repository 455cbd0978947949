//go:build wireinject
// +build wireinject

package di

import (
	"cleanbook/config"
	"cleanbook/infras/jwt"
	"cleanbook/infras/kafka"
	"cleanbook/infras/mailer"
	"cleanbook/infras/otel"
	"cleanbook/infras/payment"
	"cleanbook/infras/postgres"
	"cleanbook/infras/queue"
	"cleanbook/infras/redis"
	"cleanbook/infras/s3"
	"cleanbook/internal/worker"
	"cleanbook/shared/cache"
	"cleanbook/transport/http"
	"cleanbook/transport/http/middleware"
	"cleanbook/transport/http/router"

	authService "cleanbook/internal/domains/auth/service"
	bookingDraft "cleanbook/internal/domains/booking/draft"
	bookingRepository "cleanbook/internal/domains/booking/repository"
	bookingService "cleanbook/internal/domains/booking/service"
	catalogRepository "cleanbook/internal/domains/catalog/repository"
	catalogService "cleanbook/internal/domains/catalog/service"
	cleanerRepository "cleanbook/internal/domains/cleaner/repository"
	cleanerService "cleanbook/internal/domains/cleaner/service"
	dashboardService "cleanbook/internal/domains/dashboard/service"
	notificationService "cleanbook/internal/domains/notification/service"
	paymentRepository "cleanbook/internal/domains/payment/repository"
	paymentService "cleanbook/internal/domains/payment/service"
	promoRepository "cleanbook/internal/domains/promo/repository"
	promoService "cleanbook/internal/domains/promo/service"
	reviewRepository "cleanbook/internal/domains/review/repository"
	reviewService "cleanbook/internal/domains/review/service"
	userRepository "cleanbook/internal/domains/user/repository"
	userService "cleanbook/internal/domains/user/service"

	authHandler "cleanbook/internal/handlers/auth"
	bookingHandler "cleanbook/internal/handlers/booking"
	catalogHandler "cleanbook/internal/handlers/catalog"
	cleanerHandler "cleanbook/internal/handlers/cleaner"
	contactHandler "cleanbook/internal/handlers/contact"
	dashboardHandler "cleanbook/internal/handlers/dashboard"
	paymentHandler "cleanbook/internal/handlers/payment"
	promoHandler "cleanbook/internal/handlers/promo"
	reviewHandler "cleanbook/internal/handlers/review"
	userHandler "cleanbook/internal/handlers/user"

	"cleanbook/permissions"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
	kafka.New,
	queue.New,
	mailer.New,
	payment.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
	middleware.NewPromoClaimThrottle,
	wire.Bind(new(middleware.RoleResolver), new(userService.User)),
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var userDomain = wire.NewSet(
	userRepository.New,
	userService.New,
	authService.New,
)

var catalogDomain = wire.NewSet(
	catalogRepository.NewService,
	catalogRepository.NewExtra,
	catalogService.New,
)

var cleanerDomain = wire.NewSet(
	cleanerRepository.New,
	cleanerService.New,
)

var promoDomain = wire.NewSet(
	promoRepository.New,
	promoRepository.NewClaim,
	promoService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingRepository.NewExtra,
	bookingDraft.NewStore,
	bookingService.New,
)

var paymentDomain = wire.NewSet(
	paymentRepository.New,
	paymentService.New,
)

var reviewDomain = wire.NewSet(
	reviewRepository.New,
	reviewService.New,
)

var domains = wire.NewSet(
	userDomain,
	catalogDomain,
	cleanerDomain,
	promoDomain,
	bookingDomain,
	paymentDomain,
	reviewDomain,
	dashboardService.New,
	notificationService.New,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	catalogHandler.New,
	cleanerHandler.New,
	promoHandler.New,
	bookingHandler.New,
	paymentHandler.New,
	reviewHandler.New,
	dashboardHandler.New,
	contactHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeWorker() *worker.Worker {
	wire.Build(
		config.Get,
		otel.New,
		kafka.New,
		queue.New,
		queue.NewServer,
		mailer.New,
		notificationService.New,
		worker.New,
	)

	return &worker.Worker{}
}
