// Package api exposes the HTTP surface: health and readiness probes,
// Prometheus metrics, the question-to-SQL endpoint, and the direct SQL
// validation endpoint. Error payloads share one envelope with an error code,
// a human message, a retryable hint, and the request trace id.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/querygate/querygate/internal/config"
	"github.com/querygate/querygate/internal/observability"
	"github.com/querygate/querygate/internal/pipeline"
	"github.com/querygate/querygate/internal/schema"
)

type ReadinessCheck func(ctx context.Context) error

// QueryPipeline is the slice of the pipeline the handlers need.
type QueryPipeline interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
	Validate(ctx context.Context, sql string, schemaMetadata json.RawMessage, dialect string) (pipeline.Response, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Pipeline          QueryPipeline
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/query", func(w http.ResponseWriter, r *http.Request) {
		handleQuery(deps, w, r)
	})
	protected.HandleFunc("POST /v1/validate", func(w http.ResponseWriter, r *http.Request) {
		handleValidate(deps, w, r)
	})

	var protectedHandler http.Handler = protected
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			protectedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		} else {
			protectedHandler = deps.AuthMiddleware(protectedHandler)
		}
	}
	mux.Handle("POST /v1/query", protectedHandler)
	mux.Handle("POST /v1/validate", protectedHandler)

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

// CheckAgentsConfig fails readiness when a provider is selected but has no
// credentials; a disabled provider is fine, validation stays available.
func CheckAgentsConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.Agents.Provider == config.ProviderNone {
			return nil
		}
		if cfg.Agents.APIKey == "" {
			return errors.New("agents provider is configured without an api key")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}

// writePipelineError maps the pipeline's sentinel errors onto the error
// envelope. Unknown errors are reported as retryable internals without
// leaking their details.
func writePipelineError(ctx context.Context, w http.ResponseWriter, err error) {
	var parseErr *schema.ParseError
	switch {
	case errors.As(err, &parseErr):
		writeError(ctx, w, http.StatusBadRequest, "INVALID_SCHEMA", "Invalid schema format: "+parseErr.Error(), false, nil)
	case errors.Is(err, pipeline.ErrUnsupportedDialect):
		writeError(ctx, w, http.StatusBadRequest, "UNSUPPORTED_DIALECT", err.Error(), false, map[string]any{"supported": []string{"postgres", "mysql", "sqlite"}})
	case errors.Is(err, pipeline.ErrEmptyQuestion):
		writeError(ctx, w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
	case errors.Is(err, pipeline.ErrEmptySQL):
		writeError(ctx, w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
	case errors.Is(err, pipeline.ErrAgentsUnavailable):
		writeError(ctx, w, http.StatusNotImplemented, "AGENTS_NOT_CONFIGURED", "no model provider is configured for SQL generation", false, nil)
	default:
		writeError(ctx, w, http.StatusInternalServerError, "INTERNAL", "request failed", true, nil)
	}
}
