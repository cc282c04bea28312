package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdecoop/verdecoop-backend/api/controllers"
	"github.com/verdecoop/verdecoop-backend/api/middleware"
	"github.com/verdecoop/verdecoop-backend/internal/certificates"
	"github.com/verdecoop/verdecoop-backend/internal/coop"
	"github.com/verdecoop/verdecoop-backend/internal/lots"
	"github.com/verdecoop/verdecoop-backend/internal/trading"
	"github.com/verdecoop/verdecoop-backend/internal/transactions"
	"github.com/verdecoop/verdecoop-backend/internal/wallet"
	"github.com/verdecoop/verdecoop-backend/pkg/config"
	"github.com/verdecoop/verdecoop-backend/pkg/db"
	"github.com/verdecoop/verdecoop-backend/pkg/logger"
	"github.com/verdecoop/verdecoop-backend/pkg/redis"
)

// Services bundles everything the router exposes over HTTP.
type Services struct {
	Wallet       wallet.Service
	Lots         lots.Service
	Trading      trading.Service
	Transactions transactions.Service
	Coop         coop.Service
	Certificates certificates.Repository
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	gatherer prometheus.Gatherer,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", controllers.AccountCreate(svcs.Wallet, logg))
			r.Get("/{accountID}", controllers.AccountGet(svcs.Wallet, logg))
			r.Get("/{accountID}/balance", controllers.AccountBalance(svcs.Wallet, logg))
			r.Put("/{accountID}/balance", controllers.AccountBalanceSet(svcs.Wallet, logg))
			r.Get("/{accountID}/transactions", controllers.TransactionList(svcs.Transactions, logg))
			r.Get("/{accountID}/certificates", controllers.CertificateList(svcs.Certificates, logg))
		})

		r.Route("/lots", func(r chi.Router) {
			r.Post("/", controllers.LotCreate(svcs.Lots, logg))
			r.Get("/", controllers.LotList(svcs.Lots, logg))
			r.Get("/{lotID}", controllers.LotGet(svcs.Lots, logg))
			r.Delete("/{lotID}", controllers.LotDelete(svcs.Lots, logg))
		})

		r.Post("/trades", controllers.TradeExecute(svcs.Trading, svcs.Lots, logg))
		r.Get("/sales", controllers.SalesList(svcs.Trading, logg))

		r.Route("/pool", func(r chi.Router) {
			r.Get("/", controllers.CoopOverview(svcs.Coop, logg))
			r.Post("/contributions", controllers.CoopContribute(svcs.Coop, logg))
			r.Post("/purchases", controllers.PoolPurchase(svcs.Trading, logg))
			r.Post("/sell", controllers.CoopSellPool(svcs.Coop, logg))
		})

		r.Post("/memberships", controllers.CoopJoin(svcs.Coop, logg))

		r.Get("/certificates/{serial}", controllers.CertificateBySerial(svcs.Certificates, logg))
	})

	return r
}
