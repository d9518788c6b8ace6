package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dlemaitre/sales-analytics-backend/api/controllers"
	"github.com/dlemaitre/sales-analytics-backend/api/middleware"
	sale "github.com/dlemaitre/sales-analytics-backend/internal/sales"
	"github.com/dlemaitre/sales-analytics-backend/pkg/config"
	"github.com/dlemaitre/sales-analytics-backend/pkg/db"
	"github.com/dlemaitre/sales-analytics-backend/pkg/logger"
)

// NewRouter wires the HTTP surface of the sales API.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	queryService sale.QueryService,
	statsService sale.StatsService,
	ingestService sale.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.Health(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", controllers.Health(cfg))

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.ListSales(queryService, logg))
			r.Get("/stats", controllers.GetSalesStats(statsService, logg))
			r.Get("/{id}", controllers.GetSaleByID(queryService, logg))
			r.Post("/", controllers.CreateSale(ingestService, logg))
		})
	})

	return r
}
