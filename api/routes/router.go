package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pluginbazaar/pluginbazaar-backend/api/controllers"
	"github.com/pluginbazaar/pluginbazaar-backend/api/middleware"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/catalog"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/licenses"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/orders"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/config"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	catalogService catalog.Service,
	licenseService licenses.Service,
	ordersService orders.Service,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/plugins", func(r chi.Router) {
			r.Get("/", controllers.PluginList(catalogService, logg))
			r.Get("/{pluginId}/editions", controllers.PluginEditions(catalogService, logg))
		})
		r.Get("/editions/{editionId}", controllers.EditionDetail(catalogService, logg))

		r.Route("/licenses", func(r chi.Router) {
			r.Get("/", controllers.LicenseList(licenseService, logg))
			r.Get("/{licenseKey}", controllers.LicenseDetail(licenseService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(ordersService, logg))
			r.Get("/{orderNumber}", controllers.OrderDetail(ordersService, logg))
			r.Post("/{orderNumber}/pay", controllers.OrderMarkPaid(ordersService, logg))
			r.Post("/{orderNumber}/complete", controllers.OrderComplete(ordersService, logg))
		})
	})

	return r
}
