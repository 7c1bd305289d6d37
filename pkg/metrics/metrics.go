// Package metrics 提供 Prometheus 指标采集功能
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "horilla_ai"
)

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// 业务指标 - 问答流水线
	AssistantAnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "answers_total",
			Help:      "Total number of assistant answers",
		},
		[]string{"outcome"}, // hit/miss/error
	)

	AssistantAnswerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "answer_duration_seconds",
			Help:      "End-to-end answer pipeline duration in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	AssistantCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "cache_evictions_total",
			Help:      "Total number of result cache evictions",
		},
		[]string{"reason"}, // ttl/invalidate
	)

	// 检索策略指标
	StrategySearchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "strategy_search_total",
			Help:      "Total number of strategy searches",
		},
		[]string{"strategy", "status"},
	)

	StrategySearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "strategy_search_duration_seconds",
			Help:      "Strategy search duration in seconds",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	// LLM 指标
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "LLM call duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	LLMCallTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_total",
			Help:      "Total number of LLM calls",
		},
		[]string{"provider", "status"},
	)

	// 向量检索指标
	MilvusSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "milvus",
			Name:      "search_duration_seconds",
			Help:      "Milvus search duration in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1},
		},
		[]string{"collection"},
	)

	MilvusSearchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "milvus",
			Name:      "search_total",
			Help:      "Total number of Milvus searches",
		},
		[]string{"collection", "status"},
	)

	// 索引任务指标
	IndexJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "jobs_total",
			Help:      "Total number of document indexing jobs",
		},
		[]string{"status"},
	)

	IndexJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "job_duration_seconds",
			Help:      "Document indexing job duration in seconds",
			Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	// 队列指标
	StreamProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "stream_processed_total",
			Help:      "Total number of Redis stream messages processed",
		},
		[]string{"stream", "status"},
	)
)
