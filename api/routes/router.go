package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/d2bmarket/d2b-backend/api/controllers"
	webhookcontrollers "github.com/d2bmarket/d2b-backend/api/controllers/webhooks"
	"github.com/d2bmarket/d2b-backend/api/middleware"
	"github.com/d2bmarket/d2b-backend/internal/notifications"
	"github.com/d2bmarket/d2b-backend/internal/orders"
	"github.com/d2bmarket/d2b-backend/internal/payments"
	"github.com/d2bmarket/d2b-backend/pkg/config"
	"github.com/d2bmarket/d2b-backend/pkg/db"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
	"github.com/d2bmarket/d2b-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config            *config.Config
	Logger            *logger.Logger
	DB                db.Pinger
	Redis             redis.Pinger
	PaymentsService   controllers.ConfirmPaymentService
	WebhookGuard      *payments.WebhookGuard
	Provisioner       controllers.ShipmentProvisioner
	Reconciler        controllers.OrderReconciler
	OrdersRepo        orders.Repository
	NotificationsRepo notifications.Repository
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment", webhookcontrollers.PaymentWebhook(deps.PaymentsService, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/payments/confirm", controllers.ConfirmPayment(deps.PaymentsService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.OrdersRepo, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.OrdersRepo, logg))
			r.Post("/{orderId}/provision", controllers.ProvisionShipment(deps.Provisioner, logg))
			r.Post("/{orderId}/reconcile", controllers.ReconcileOrder(deps.Reconciler, logg))
		})

		r.Get("/notifications", controllers.NotificationList(deps.NotificationsRepo, logg))
	})

	return r
}
