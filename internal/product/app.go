package product

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ProductInventory/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

// NewHandler puts the product routes behind request ids, panic recovery and
// access logging. With a registry it also records HTTP and inventory metrics
// and, when enabled, serves /metrics behind the scrape token.
func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if s.Log == nil {
		s.Log = deps.Log
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID, kit.Recoverer, kit.Logging(deps.Log))

	if deps.Registry != nil {
		if s.Metrics == nil {
			s.Metrics = NewInventoryMetrics(deps.Registry)
		}
		r.Use(kit.NewMetrics(deps.Registry).Middleware(deps.Service, kit.ChiRoutePatternOrPath))

		if deps.MetricsEnabled {
			r.With(kit.MetricsAuth(deps.MetricsToken)).
				Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
		} else if deps.MetricsToken != "" {
			deps.Log.Warn("metrics token set but metrics endpoint disabled")
		}
	}

	r.Mount("/", s.Routes())
	return r
}
