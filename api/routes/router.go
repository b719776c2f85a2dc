package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lifeimang/dfresh/api/controllers"
	cartcontrollers "github.com/lifeimang/dfresh/api/controllers/cart"
	"github.com/lifeimang/dfresh/api/middleware"
	cartsvc "github.com/lifeimang/dfresh/internal/cart"
	"github.com/lifeimang/dfresh/internal/catalog"
	"github.com/lifeimang/dfresh/pkg/config"
	"github.com/lifeimang/dfresh/pkg/logger"
	"github.com/lifeimang/dfresh/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	catalogService catalog.Service,
	cartService cartsvc.Service,
	cartMetrics *metrics.CartMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products/{productID}", controllers.ProductDetail(catalogService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartList(cartService, cartMetrics, logg))
				r.Post("/items", cartcontrollers.CartAdd(cartService, cartMetrics, logg))
				r.Put("/items/{productID}", cartcontrollers.CartUpdate(cartService, cartMetrics, logg))
				r.Delete("/items/{productID}", cartcontrollers.CartDelete(cartService, cartMetrics, logg))
			})
		})
	})

	return r
}
