package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tuanminhdo/fashionshop-backend/api/controllers"
	"github.com/tuanminhdo/fashionshop-backend/api/middleware"
	"github.com/tuanminhdo/fashionshop-backend/internal/cart"
	"github.com/tuanminhdo/fashionshop-backend/internal/catalog"
	checkoutsvc "github.com/tuanminhdo/fashionshop-backend/internal/checkout"
	"github.com/tuanminhdo/fashionshop-backend/internal/inventory"
	"github.com/tuanminhdo/fashionshop-backend/internal/notifications"
	"github.com/tuanminhdo/fashionshop-backend/internal/orders"
	"github.com/tuanminhdo/fashionshop-backend/pkg/config"
	"github.com/tuanminhdo/fashionshop-backend/pkg/db"
	"github.com/tuanminhdo/fashionshop-backend/pkg/logger"
	"github.com/tuanminhdo/fashionshop-backend/pkg/redis"
)

// Deps carries everything NewRouter mounts. Grouping them in one struct keeps
// cmd/api wiring readable as the route surface grows.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DBPinger      db.Pinger
	Redis         *redis.Client
	Catalog       catalog.Service
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Inventory     inventory.Service
	Notifications notifications.Service
	Metrics       prometheus.Gatherer
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

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutIPLimit,
		cfg.RateLimit.CheckoutUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/{slug}", controllers.GetProduct(deps.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{sku}", controllers.CartUpdateItem(deps.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(middleware.RateLimit(checkoutPolicy, deps.Redis, logg))
			r.Post("/", controllers.CheckoutFromCart(deps.Checkout, logg))
			r.Post("/direct", controllers.CheckoutDirect(deps.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
			r.Get("/{idOrCode}", controllers.GetOrder(deps.Orders, logg))
			r.Post("/{idOrCode}/cancel", controllers.CancelOrder(deps.Checkout, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
				r.Post("/{idOrCode}/transition", controllers.AdminTransitionOrder(deps.Orders, logg))
				r.Get("/{code}/ledger", controllers.AdminOrderLedger(deps.Inventory, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(deps.Catalog, logg))
				r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
				r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Catalog, logg))
				r.Post("/{productId}/variants", controllers.AdminAddVariant(deps.Catalog, logg))
			})
			r.Patch("/variants/{variantId}", controllers.AdminUpdateVariant(deps.Catalog, logg))

			r.Route("/inventory", func(r chi.Router) {
				r.Post("/adjust", controllers.AdminAdjustStock(deps.Catalog, logg))
				r.Get("/{sku}/log", controllers.AdminInventoryLog(deps.Inventory, logg))
			})
		})
	})

	return r
}
