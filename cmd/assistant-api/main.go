// Package main 问答 API 服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/assistant"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/knowledge"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/monitor"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/config"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/infrastructure/embedding"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/infrastructure/llm"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/infrastructure/messaging"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/infrastructure/persistence/milvus"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/infrastructure/persistence/postgres"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/infrastructure/persistence/redis"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/interfaces/http/handler"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/interfaces/http/router"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/logger"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting assistant-api",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	// 初始化追踪
	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// PostgreSQL（必需）
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to connect postgres", err)
	}
	defer pgClient.Close()

	// Redis（必需）
	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to connect redis", err)
	}
	defer redisClient.Close()

	// Milvus（可选：连接失败时语义策略不注册，关键词策略照常服务）
	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		log.Warn("milvus unavailable, semantic retrieval disabled", "error", err)
		milvusClient = nil
	} else {
		defer milvusClient.Close()
	}

	// 仓储
	faqRepo := postgres.NewFAQRepository(pgClient)
	jobRepo := postgres.NewJobRepository(pgClient)

	// 检索策略
	snapshot := assistant.NewFAQSnapshotStore(faqRepo, cfg.Assistant.FAQRefreshInterval)
	if err := snapshot.Refresh(ctx); err != nil {
		log.Warn("initial faq snapshot refresh failed", "error", err)
	}

	strategies := []assistant.Strategy{
		assistant.NewKeywordStrategy(snapshot),
	}

	embedClient := embedding.NewClient(&cfg.Embedding)
	if milvusClient != nil {
		milvusRepo := milvus.NewRepository(milvusClient)
		strategies = append(strategies,
			assistant.NewSemanticStrategy(embedClient, milvus.NewVectorSearchAdapter(milvusRepo)),
		)
	}

	// 问答流水线
	registry := assistant.NewRegistry(strategies...)
	scorer := assistant.NewScorer(registry, cfg.Assistant.MaxCandidates)
	mon := monitor.New(0)
	defer mon.Close()

	orchestrator := assistant.NewOrchestrator(registry, scorer, mon, assistant.OrchestratorConfig{
		TopK:                cfg.Assistant.TopK,
		ConfidenceFloor:     cfg.Assistant.ConfidenceFloor,
		MinConfidentResults: cfg.Assistant.MinConfidentResults,
	})
	cache := assistant.NewResultCache(cfg.Assistant.CacheTTL)
	generator := llm.NewClient(&cfg.LLM)

	assistantService := assistant.NewService(assistant.ServiceConfig{
		MaxContextChars:  cfg.Assistant.MaxContextChars,
		GenerationDerate: cfg.Assistant.GenerationDerate,
	}, orchestrator, generator, cache, mon, snapshot)

	// 索引任务提交（执行在 knowledge-worker）
	producer := messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
	jobService := knowledge.NewJobService(jobRepo, producer, nil)

	// HTTP 层
	handlers := router.Handlers{
		Health:    handler.NewHealthHandler(pgClient, redisClient, milvusClient),
		Assistant: handler.NewAssistantHandler(assistantService),
		Job:       handler.NewJobHandler(jobService),
	}
	r := router.New(cfg, handlers, redis.NewRateLimiter(redisClient))

	// 创建 HTTP 服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	// 启动服务器
	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
