package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streamtips/streamtips-backend/api/controllers"
	webhookcontrollers "github.com/streamtips/streamtips-backend/api/controllers/webhooks"
	"github.com/streamtips/streamtips-backend/api/middleware"
	"github.com/streamtips/streamtips-backend/internal/payees"
	"github.com/streamtips/streamtips-backend/internal/tips"
	"github.com/streamtips/streamtips-backend/internal/transactions"
	stripewebhook "github.com/streamtips/streamtips-backend/internal/webhooks/stripe"
	"github.com/streamtips/streamtips-backend/pkg/config"
	"github.com/streamtips/streamtips-backend/pkg/db"
	"github.com/streamtips/streamtips-backend/pkg/logger"
	"github.com/streamtips/streamtips-backend/pkg/redis"
	pkgstripe "github.com/streamtips/streamtips-backend/pkg/stripe"
)

type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        redis.Pinger
	Payees       payees.Service
	Tips         tips.Service
	Transactions transactions.Service
	StripeClient *pkgstripe.Client
	Webhook      *stripewebhook.Service
	WebhookGuard *stripewebhook.IdempotencyGuard
	Metrics      prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.Webhook, p.StripeClient, p.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/payees", controllers.PayeeList(p.Payees, logg))
		r.Route("/tips", func(r chi.Router) {
			r.Post("/", controllers.TipCreate(p.Tips, logg))
			r.Get("/status", controllers.TipStatus(p.Transactions, logg))
		})
		r.Get("/transactions", controllers.TransactionList(p.Transactions, logg))
	})

	return r
}
