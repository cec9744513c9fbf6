// Package marketplacebilling предоставляет маршруты для сервиса биллинга.
package marketplacebilling

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/marketplace-billing/internal/config"
	listingenforce "github.com/magabrotheeeer/marketplace-billing/internal/http/handlers/listing/enforce"
	listinglimitupdate "github.com/magabrotheeeer/marketplace-billing/internal/http/handlers/listing/limit"
	notificationlist "github.com/magabrotheeeer/marketplace-billing/internal/http/handlers/notification/list"
	"github.com/magabrotheeeer/marketplace-billing/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/marketplace-billing/internal/http/handlers/payment/paymentreconcile"
	"github.com/magabrotheeeer/marketplace-billing/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/marketplace-billing/internal/http/handlers/subscription/expire"
	"github.com/magabrotheeeer/marketplace-billing/internal/http/handlers/subscription/health"
	"github.com/magabrotheeeer/marketplace-billing/internal/http/handlers/subscription/history"
	"github.com/magabrotheeeer/marketplace-billing/internal/http/handlers/subscription/revenue"
	"github.com/magabrotheeeer/marketplace-billing/internal/http/handlers/subscription/upgrade"
	"github.com/magabrotheeeer/marketplace-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/jwt"
	"github.com/magabrotheeeer/marketplace-billing/internal/services/expirer"
	"github.com/magabrotheeeer/marketplace-billing/internal/services/listinglimit"
	"github.com/magabrotheeeer/marketplace-billing/internal/services/reconciler"
	"github.com/magabrotheeeer/marketplace-billing/internal/storage/repository"
)

// RouteServices зависимости маршрутов приложения.
type RouteServices struct {
	Storage    *repository.Storage
	Reconciler *reconciler.Service
	Enforcer   *listinglimit.Enforcer
	Expirer    *expirer.Service
	JWTMaker   *jwt.Maker
	Config     *config.Config
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps RouteServices) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Webhook платежного шлюза (аутентификация подписью тела)
		r.Post("/payments/webhook",
			paymentwebhook.New(logger, deps.Reconciler, deps.Config.PayMongo.WebhookSecret).ServeHTTP)

		// Операторские конечные точки под JWT
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.JWTMaker, logger))
			r.Use(middlewarectx.AdminOnlyMiddleware(logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/payments/checkout", paymentcreate.New(logger, deps.Reconciler).ServeHTTP)
			r.Post("/payments/{id}/reconcile", paymentreconcile.New(logger, deps.Reconciler).ServeHTTP)
			r.Post("/subscriptions/upgrade", upgrade.New(logger, deps.Reconciler).ServeHTTP)
			r.Post("/subscriptions/expire", expire.New(logger, deps.Expirer).ServeHTTP)
			r.Get("/subscriptions/revenue", revenue.New(logger, deps.Storage).ServeHTTP)
			r.Get("/subscriptions/{user_uid}/history", history.New(logger, deps.Storage).ServeHTTP)
			r.Post("/listings/enforce", listingenforce.New(logger, deps.Enforcer).ServeHTTP)
			r.Put("/listings/limits", listinglimitupdate.New(logger, deps.Enforcer).ServeHTTP)
			r.Get("/notifications/{user_uid}", notificationlist.New(logger, deps.Storage).ServeHTTP)
		})

		r.Get("/health", health.New(logger, deps.Storage).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
