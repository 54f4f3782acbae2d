package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/querygate/querygate/internal/agent"
	"github.com/querygate/querygate/internal/api"
	"github.com/querygate/querygate/internal/auth"
	"github.com/querygate/querygate/internal/config"
	"github.com/querygate/querygate/internal/gate"
	"github.com/querygate/querygate/internal/observability"
	"github.com/querygate/querygate/internal/pipeline"
)

func main() {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("querygate-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	var planner *agent.Planner
	var writer *agent.Writer
	if cfg.Agents.Provider == config.ProviderNone {
		logger.Warn("no model provider configured; POST /v1/query is disabled, POST /v1/validate remains available")
	} else {
		plannerLLM, err := newLLMClient(cfg, cfg.Agents.PlannerModel)
		if err != nil {
			logger.Error("failed to initialize planner model client", slog.Any("error", err))
			os.Exit(1)
		}
		writerLLM, err := newLLMClient(cfg, cfg.Agents.WriterModel)
		if err != nil {
			logger.Error("failed to initialize writer model client", slog.Any("error", err))
			os.Exit(1)
		}
		planner = agent.NewPlanner(plannerLLM, logger)
		writer = agent.NewWriter(writerLLM, logger)
	}

	policyGate := gate.New(gate.Config{MaxRowLimit: cfg.Validation.MaxRowLimit})
	queryPipeline := pipeline.New(planner, writer, policyGate, logger)

	deps := api.Dependencies{
		Logger:            logger,
		Pipeline:          queryPipeline,
		Readiness:         api.CombineReadinessChecks(api.CheckAgentsConfig(cfg)),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func newLLMClient(cfg config.Config, model string) (agent.LLMClient, error) {
	switch cfg.Agents.Provider {
	case config.ProviderAnthropic:
		return agent.NewAnthropicClient(agent.AnthropicConfig{
			APIKey:    cfg.Agents.APIKey,
			Model:     model,
			MaxTokens: int64(cfg.Agents.MaxTokens),
		})
	case config.ProviderOpenAI:
		return agent.NewOpenAIClient(agent.OpenAIConfig{
			BaseURL:     cfg.Agents.BaseURL,
			APIKey:      cfg.Agents.APIKey,
			Model:       model,
			Temperature: cfg.Agents.Temperature,
			Timeout:     cfg.Agents.Timeout,
		})
	default:
		return nil, errors.New("unknown agents provider")
	}
}
