package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/pennyvault/pennyvault/pkg/middleware"
	"github.com/pennyvault/pennyvault/pkg/observability"
)

func tracerProvider(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(name)
}

// SetupRouter configures all routes and returns the HTTP handler
func SetupRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	jwtSecret := []byte(deps.Config.Auth.JWTSecret)
	if len(jwtSecret) == 0 {
		deps.Logger.Warn("JWT secret is empty; authentication middleware will reject requests")
	}

	publicPaths := []string{
		"/health",
		"/health/details",
		"/ready",
		"/metrics",
	}

	registerIngestRoutes(mux, deps)
	registerUtilityRoutes(mux, deps)

	chain := []middleware.Middleware{
		middleware.RequestID,
		middleware.Tracing(tracerProvider("pennyvault/api")),
	}
	if deps.Config.Server.RateLimitPerSecond > 0 && deps.Config.Server.RateLimitBurst > 0 {
		limiter := rate.NewLimiter(
			rate.Limit(float64(deps.Config.Server.RateLimitPerSecond)),
			deps.Config.Server.RateLimitBurst,
		)
		chain = append(chain, middleware.RateLimit(limiter))
	}
	chain = append(chain,
		middleware.Recovery(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.Auth(jwtSecret, publicPaths...),
	)
	if deps.Config.Observability.MetricsEnabled {
		chain = append(chain, observability.MetricsMiddleware)
	}

	handler := middleware.Chain(mux, chain...)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // narrow to the web client origin in prod
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           7200,
	})

	return corsHandler.Handler(handler)
}

// registerIngestRoutes registers the import and rule endpoints
func registerIngestRoutes(mux *http.ServeMux, deps *Dependencies) {
	h := deps.IngestHandler

	mux.HandleFunc("POST /v1/accounts/{accountID}/imports", h.HandleImport)
	mux.HandleFunc("GET /v1/formats", h.HandleListFormats)
	mux.HandleFunc("GET /v1/rules", h.HandleListRules)
	mux.HandleFunc("POST /v1/rules", h.HandleCreateRule)
	mux.HandleFunc("DELETE /v1/rules/{id}", h.HandleDeleteRule)

	deps.Logger.Info("registered ingest routes")
}

// registerUtilityRoutes registers health check, metrics, and other utility routes
func registerUtilityRoutes(mux *http.ServeMux, deps *Dependencies) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		if err := deps.DB.Health(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, writeErr := w.Write([]byte("database unhealthy")); writeErr != nil {
				deps.Logger.Error("failed to write health response", slog.Any("error", writeErr))
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			deps.Logger.Error("failed to write health response", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered health check", "path", "/health")

	mux.HandleFunc("/health/details", func(w http.ResponseWriter, _ *http.Request) {
		type status struct {
			Status string `json:"status"`
			Detail string `json:"detail,omitempty"`
		}
		result := map[string]status{
			"db":     {Status: "ok"},
			"cipher": {Status: "ok"},
			"ready":  {Status: "ok"},
		}

		if err := deps.DB.Health(); err != nil {
			result["db"] = status{Status: "fail", Detail: err.Error()}
			result["ready"] = status{Status: "fail", Detail: "db unavailable"}
		}
		if deps.Cipher == nil {
			result["cipher"] = status{Status: "fail", Detail: "encryption key not initialized"}
			result["ready"] = status{Status: "fail", Detail: "cipher unavailable"}
		}

		w.Header().Set("Content-Type", "application/json")
		for _, v := range result {
			if v.Status == "fail" {
				w.WriteHeader(http.StatusServiceUnavailable)
				if err := json.NewEncoder(w).Encode(result); err != nil {
					deps.Logger.Error("failed to encode health details", slog.Any("error", err))
				}
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(result); err != nil {
			deps.Logger.Error("failed to encode health details", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered health details", "path", "/health/details")

	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ready")); err != nil {
			deps.Logger.Error("failed to write readiness response", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered readiness check", "path", "/ready")

	if deps.Config.Observability.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		deps.Logger.Info("registered metrics endpoint", "path", "/metrics")
	}
}
