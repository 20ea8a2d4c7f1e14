package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veloplane-b2b/orderdesk-backend/api/controllers"
	"github.com/veloplane-b2b/orderdesk-backend/api/middleware"
	"github.com/veloplane-b2b/orderdesk-backend/internal/deliveries"
	"github.com/veloplane-b2b/orderdesk-backend/internal/orders"
	"github.com/veloplane-b2b/orderdesk-backend/internal/payments"
	"github.com/veloplane-b2b/orderdesk-backend/internal/products"
	"github.com/veloplane-b2b/orderdesk-backend/internal/retailers"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/config"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/logger"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/redis"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Retailers  retailers.Service
	Products   products.Service
	Orders     orders.Service
	Deliveries deliveries.Service
	Payments   payments.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	svcs Services,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": dbP,
			"redis":    redisClient,
		}))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Post("/", controllers.CreateOrder(svcs.Orders, logg))
			r.Get("/stats", controllers.OrderStats(svcs.Orders, logg))
			r.Post("/bulk-status", controllers.BulkUpdateOrderStatus(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(svcs.Orders, logg))
			r.Put("/{orderId}", controllers.UpdateOrder(svcs.Orders, logg))
			r.Post("/{orderId}/status", controllers.UpdateOrderStatus(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(svcs.Orders, logg))
		})

		r.Route("/retailers", func(r chi.Router) {
			r.Post("/", controllers.CreateRetailer(svcs.Retailers, logg))
			r.Get("/{retailerId}", controllers.GetRetailer(svcs.Retailers, logg))
			r.Post("/{retailerId}/status", controllers.UpdateRetailerStatus(svcs.Retailers, logg))
			r.Post("/{retailerId}/balance-override", controllers.OverrideRetailerBalance(svcs.Retailers, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(svcs.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(svcs.Products, logg))
			r.Post("/{productId}/stock", controllers.AdjustProductStock(svcs.Products, logg))
			r.Post("/{productId}/active", controllers.SetProductActive(svcs.Products, logg))
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Get("/{orderId}", controllers.GetDelivery(svcs.Deliveries, logg))
			r.Post("/{orderId}/status", controllers.UpdateDeliveryStatus(svcs.Deliveries, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.ListRetailerPayments(svcs.Payments, logg))
			r.Post("/", controllers.RecordPayment(svcs.Payments, logg))
		})
	})

	return r
}
