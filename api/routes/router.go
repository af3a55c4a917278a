package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/massanostra/pizzeria-backend/api/controllers"
	eventcontrollers "github.com/massanostra/pizzeria-backend/api/controllers/events"
	ordercontrollers "github.com/massanostra/pizzeria-backend/api/controllers/orders"
	paymentcontrollers "github.com/massanostra/pizzeria-backend/api/controllers/payments"
	webhookcontrollers "github.com/massanostra/pizzeria-backend/api/controllers/webhooks"
	"github.com/massanostra/pizzeria-backend/api/middleware"
	"github.com/massanostra/pizzeria-backend/internal/notify"
	"github.com/massanostra/pizzeria-backend/internal/orders"
	"github.com/massanostra/pizzeria-backend/internal/payments"
	"github.com/massanostra/pizzeria-backend/pkg/config"
	"github.com/massanostra/pizzeria-backend/pkg/db"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
	"github.com/massanostra/pizzeria-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	hub *notify.Hub,
	ordersSvc orders.Service,
	paymentsSvc payments.Service,
	webhookSvc webhookcontrollers.PaymentWebhookService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)
	}

	// The payment provider calls this directly; it carries its own
	// signature and must stay outside the identity middleware.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment-provider", webhookcontrollers.PaymentProvider(webhookSvc, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))

		r.Route("/orders", func(r chi.Router) {
			// Detail serves both sides: staff see any order, customers
			// only their own. The handler picks the branch itself.
			r.Get("/{orderId}", ordercontrollers.Detail(ordersSvc, logg))
			r.With(middleware.RequireStaff(logg)).Patch("/{orderId}/status", ordercontrollers.UpdateStatus(ordersSvc, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCustomer(logg))
				r.Post("/", ordercontrollers.Create(ordersSvc, logg))
				r.Get("/mine", ordercontrollers.Mine(ordersSvc, logg))
				r.Post("/{orderId}/cancel", ordercontrollers.Cancel(ordersSvc, logg))
			})
			r.Post("/{orderId}/delivery-token/validate", ordercontrollers.ValidateDeliveryToken(ordersSvc, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(middleware.RequireCustomer(logg))
			r.Post("/pix", paymentcontrollers.GeneratePix(paymentsSvc, logg))
			r.Get("/{paymentId}", paymentcontrollers.Detail(paymentsSvc, logg))
		})

		r.With(middleware.RequireCustomer(logg)).Get("/events", eventcontrollers.CustomerStream(hub, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.RequireStaff(logg))
		r.Get("/orders", ordercontrollers.AdminList(ordersSvc, logg))
		r.Get("/events", eventcontrollers.AdminStream(hub, logg))
	})

	return r
}
