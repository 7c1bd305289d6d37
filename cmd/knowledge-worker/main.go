// Package main 知识库索引执行器入口（knowledge-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/knowledge"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/config"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/infrastructure/embedding"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/infrastructure/messaging"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/infrastructure/persistence/milvus"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/infrastructure/persistence/postgres"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/infrastructure/persistence/redis"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/logger"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "knowledge-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	// 索引是本进程的唯一职责，Milvus 连不上直接退出交给编排重启
	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Fatal(ctx, "failed to init milvus", err)
	}
	defer func() { _ = milvusClient.Close() }()

	docRepo := postgres.NewDocumentRepository(pgClient)
	jobRepo := postgres.NewJobRepository(pgClient)

	milvusRepo := milvus.NewRepository(milvusClient)
	vectorRepo := milvus.NewIndexVectorRepository(milvusRepo)
	embedClient := embedding.NewClient(&cfg.Embedding)

	indexer := knowledge.NewIndexer(embedClient, vectorRepo, docRepo, cfg.Embedding.BatchSize)
	producer := messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
	jobService := knowledge.NewJobService(jobRepo, producer, indexer)

	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamDocumentIndex,
		Group:        messaging.ConsumerGroupIndexWorker,
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: cfg.Messaging.RedisStream.BlockTimeout,
		RetryLimit:   cfg.Messaging.RedisStream.RetryLimit,
	})
	consumer.RegisterHandler(messaging.MessageTypeIndexJob, jobService.HandleIndexJobMessage)

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}

	log := logger.FromContext(ctx)
	log.Info("knowledge-worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("knowledge-worker shutting down")
	consumer.Stop()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
