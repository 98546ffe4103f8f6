package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	prommetrics "github.com/dreschagin/factory-health-monitor/internal/infrastructure/observability/prometheus"
	"github.com/dreschagin/factory-health-monitor/internal/interfaces/http/handler"
	"github.com/dreschagin/factory-health-monitor/internal/interfaces/http/middleware"
	"github.com/dreschagin/factory-health-monitor/pkg/config"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

// Router настраивает маршруты приложения
type Router struct {
	mux                  *http.ServeMux
	machineHealthHandler *handler.MachineHealthAPIHandler
	readingsHandler      *handler.ReadingsAPIHandler
	statusHandler        *handler.StatusAPIHandler
	websocketHandler     *handler.WebSocketHandler
	authAPIHandler       *handler.AuthAPIHandler
	metrics              *prommetrics.Metrics
	registry             *prometheus.Registry
	security             config.SecurityConfig
	logger               *logger.Logger
}

// NewRouter создает новый router
func NewRouter(
	machineHealthHandler *handler.MachineHealthAPIHandler,
	readingsHandler *handler.ReadingsAPIHandler,
	statusHandler *handler.StatusAPIHandler,
	websocketHandler *handler.WebSocketHandler,
	authAPIHandler *handler.AuthAPIHandler,
	metrics *prommetrics.Metrics,
	registry *prometheus.Registry,
	security config.SecurityConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:                  http.NewServeMux(),
		machineHealthHandler: machineHealthHandler,
		readingsHandler:      readingsHandler,
		statusHandler:        statusHandler,
		websocketHandler:     websocketHandler,
		authAPIHandler:       authAPIHandler,
		metrics:              metrics,
		registry:             registry,
		security:             security,
		logger:               logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Health endpoints are intentionally unauthenticated for probes.
	rt.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rt.mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// Prometheus scrape endpoint
	rt.mux.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}, rt.logger)

	// WebSocket проверяет auth сам: браузер не может отправить
	// Authorization header через new WebSocket()
	rt.mux.HandleFunc("/ws", rt.websocketHandler.HandleConnection)

	// Auth endpoints
	rt.mux.HandleFunc("/api/v1/auth/login", rt.authAPIHandler.Login)
	rt.mux.HandleFunc("/api/v1/auth/logout", rt.authAPIHandler.Logout)
	rt.mux.HandleFunc("/api/v1/auth/status", rt.authAPIHandler.Status)

	// API endpoints
	rt.mux.Handle("/api/v1/machines/health", authMiddleware(http.HandlerFunc(rt.machineHealthHandler.GetHealth)))
	rt.mux.Handle("/api/v1/machines/critical", authMiddleware(http.HandlerFunc(rt.machineHealthHandler.GetCritical)))
	rt.mux.Handle("/api/v1/evaluate", authMiddleware(http.HandlerFunc(rt.machineHealthHandler.TriggerEvaluation)))
	rt.mux.Handle("/api/v1/readings/recent", authMiddleware(http.HandlerFunc(rt.readingsHandler.GetRecent)))
	rt.mux.Handle("/api/v1/status", authMiddleware(http.HandlerFunc(rt.statusHandler.GetStatus)))

	// Применяем middleware
	var handler http.Handler = rt.mux
	handler = middleware.Compression(handler)
	if rt.security.RateLimitRPS > 0 {
		limiter := middleware.NewIPRateLimiter(rt.security.RateLimitRPS, rt.security.RateLimitBurst)
		handler = middleware.RateLimit(limiter)(handler)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = middleware.Logger(rt.logger)(handler)
	handler = middleware.Recovery(rt.logger)(handler)

	return handler
}
