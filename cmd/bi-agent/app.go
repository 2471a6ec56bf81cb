// cmd/bi-agent/app.go
package main

import (
	"context"
	"fmt"

	"founder-bi-agent/internal/common/config"
	"founder-bi-agent/internal/common/database"
	"founder-bi-agent/internal/common/llm"
	"founder-bi-agent/internal/common/logger"
	"founder-bi-agent/internal/common/monday"
	"founder-bi-agent/internal/common/observability"
	"founder-bi-agent/internal/common/spreadsheet"
	"founder-bi-agent/internal/orchestrator"
	"founder-bi-agent/internal/session"
	aq "founder-bi-agent/internal/workers/bi-agent/answer-query"
	ci "founder-bi-agent/internal/workers/bi-agent/classify-intent"
	rs "founder-bi-agent/internal/workers/bi-agent/route-sources"
	sr "founder-bi-agent/internal/workers/bi-agent/synthesize-response"

	"go.uber.org/zap"
)

// app holds every wired component of one process.
type app struct {
	cfg          *config.Config
	zap          *zap.Logger
	log          logger.Logger
	obs          *observability.Observability
	redis        *database.RedisClient
	orchestrator *orchestrator.Orchestrator
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func newApp(configPath string) (*app, error) {
	cfg, reg, err := loadRegistry(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	log := logger.NewZapAdapter(zapLog)
	for _, w := range cfg.Warnings {
		log.Warn("configuration warning", map[string]interface{}{"warning": w})
	}

	obs := observability.New(observability.Options{
		ServiceName:  cfg.Observability.ServiceName,
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
	}, log)

	redisClient := database.NewRedis(cfg.Database.Redis)

	routeCfg, err := rs.Resolve(cfg.Sources, reg)
	if err != nil {
		return nil, fmt.Errorf("source routing: %w", err)
	}
	for domain, d := range routeCfg.Descriptors {
		log.Info("source resolved", map[string]interface{}{
			"domain":  string(domain),
			"kind":    d.Kind,
			"boardId": d.BoardID,
			"path":    d.Path,
		})
	}

	live := monday.NewClient(monday.Config{
		URL:        cfg.Monday.URL,
		APIToken:   cfg.Monday.APIToken,
		APIVersion: cfg.Monday.APIVersion,
		PageLimit:  cfg.Monday.PageLimit,
		Timeout:    config.GetDuration(cfg.Monday.Timeout),
		CacheTTL:   config.GetDuration(cfg.Monday.CacheTTL),
	}, redisClient.GetClient(), log)

	model := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     config.GetDuration(cfg.LLM.Timeout),
	})

	classifier := ci.NewHandler(ci.LoadConfig(), model, &classifyIntentLoggerAdapter{log})
	router := rs.NewHandler(routeCfg, live, spreadsheet.NewReader(), &routeSourcesLoggerAdapter{log})
	synthesizer := sr.NewHandler(sr.LoadConfig(), model, &synthesizeResponseLoggerAdapter{log})

	orch := orchestrator.New(orchestrator.Config{
		LLMConfigured: cfg.LLM.Configured(),
		HistoryWindow: cfg.Memory.HistoryWindow,
	}, session.NewMemoryStore(), classifier, router, synthesizer, obs, log)

	return &app{
		cfg:          cfg,
		zap:          zapLog,
		log:          log,
		obs:          obs,
		redis:        redisClient,
		orchestrator: orch,
	}, nil
}

func (a *app) answerQueryHandler() *aq.Handler {
	wcfg := aq.LoadConfig()
	if a.cfg.Camunda.Timeout > 0 {
		wcfg.Timeout = config.GetDuration(a.cfg.Camunda.Timeout)
	}
	return aq.NewHandler(wcfg, a.orchestrator, &answerQueryLoggerAdapter{a.log})
}

func (a *app) close() {
	a.obs.Shutdown(context.Background())
	if err := a.redis.Close(); err != nil {
		a.log.Error("redis close failed", map[string]interface{}{"error": err.Error()})
	}
	_ = a.zap.Sync()
}

// Logger adapters for workers that have their own Logger interfaces
type classifyIntentLoggerAdapter struct {
	logger.Logger
}

func (a *classifyIntentLoggerAdapter) With(fields map[string]interface{}) ci.Logger {
	return &classifyIntentLoggerAdapter{a.Logger.With(fields)}
}

type routeSourcesLoggerAdapter struct {
	logger.Logger
}

func (a *routeSourcesLoggerAdapter) With(fields map[string]interface{}) rs.Logger {
	return &routeSourcesLoggerAdapter{a.Logger.With(fields)}
}

type synthesizeResponseLoggerAdapter struct {
	logger.Logger
}

func (a *synthesizeResponseLoggerAdapter) With(fields map[string]interface{}) sr.Logger {
	return &synthesizeResponseLoggerAdapter{a.Logger.With(fields)}
}

type answerQueryLoggerAdapter struct {
	logger.Logger
}

func (a *answerQueryLoggerAdapter) With(fields map[string]interface{}) aq.Logger {
	return &answerQueryLoggerAdapter{a.Logger.With(fields)}
}
