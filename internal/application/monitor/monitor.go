// Package monitor 提供按服务维度的性能采集
package monitor

import (
	"sort"
	"sync"
	"time"
)

// Outcome 单次调用结果
type Outcome string

const (
	OutcomeHit   Outcome = "hit"
	OutcomeMiss  Outcome = "miss"
	OutcomeError Outcome = "error"
)

// sampleWindow 每个服务保留的延迟样本数（环形缓冲）
const sampleWindow = 512

// Summary 服务维度的性能摘要
type Summary struct {
	TotalRequests int64   `json:"total_requests"`
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Errors        int64   `json:"errors"`
	SuccessRate   float64 `json:"success_rate"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
}

type event struct {
	service string
	d       time.Duration
	outcome Outcome
}

type serviceStats struct {
	total  int64
	hits   int64
	misses int64
	errors int64

	totalLatency time.Duration
	samples      [sampleWindow]float64 // 毫秒
	sampleIdx    int
	sampleCount  int
}

// Monitor 采集各服务的调用次数与延迟。
// Record 走带缓冲 channel，满则丢弃：采集绝不阻塞流水线，也绝不上抛错误。
type Monitor struct {
	ch     chan event
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu       sync.RWMutex
	services map[string]*serviceStats
}

// New 创建并启动监控器
func New(buffer int) *Monitor {
	if buffer <= 0 {
		buffer = 1024
	}
	m := &Monitor{
		ch:       make(chan event, buffer),
		stopCh:   make(chan struct{}),
		services: make(map[string]*serviceStats),
	}
	m.wg.Add(1)
	go m.run()
	return m
}

// Record 记录一次调用；非阻塞，缓冲满时静默丢弃。
func (m *Monitor) Record(service string, d time.Duration, outcome Outcome) {
	select {
	case m.ch <- event{service: service, d: d, outcome: outcome}:
	default:
		// 满载时丢样本优于阻塞调用方
	}
}

// Summary 返回单个服务的摘要
func (m *Monitor) Summary(service string) (Summary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats, ok := m.services[service]
	if !ok {
		return Summary{}, false
	}
	return stats.summary(), true
}

// SummaryAll 返回全部服务的摘要
func (m *Monitor) SummaryAll() map[string]Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Summary, len(m.services))
	for name, stats := range m.services {
		out[name] = stats.summary()
	}
	return out
}

// Close 停止采集并等待后台消费结束
func (m *Monitor) Close() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Monitor) run() {
	defer m.wg.Done()
	for {
		select {
		case ev := <-m.ch:
			m.apply(ev)
		case <-m.stopCh:
			// 排空剩余事件后退出
			for {
				select {
				case ev := <-m.ch:
					m.apply(ev)
				default:
					return
				}
			}
		}
	}
}

func (m *Monitor) apply(ev event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.services[ev.service]
	if !ok {
		stats = &serviceStats{}
		m.services[ev.service] = stats
	}

	stats.total++
	switch ev.outcome {
	case OutcomeHit:
		stats.hits++
	case OutcomeMiss:
		stats.misses++
	case OutcomeError:
		stats.errors++
	}

	stats.totalLatency += ev.d
	stats.samples[stats.sampleIdx] = float64(ev.d.Microseconds()) / 1000.0
	stats.sampleIdx = (stats.sampleIdx + 1) % sampleWindow
	if stats.sampleCount < sampleWindow {
		stats.sampleCount++
	}
}

func (s *serviceStats) summary() Summary {
	out := Summary{
		TotalRequests: s.total,
		Hits:          s.hits,
		Misses:        s.misses,
		Errors:        s.errors,
	}
	if s.total > 0 {
		out.SuccessRate = float64(s.total-s.errors) / float64(s.total)
		out.AvgLatencyMs = float64(s.totalLatency.Microseconds()) / 1000.0 / float64(s.total)
	}
	if s.sampleCount > 0 {
		sorted := make([]float64, s.sampleCount)
		copy(sorted, s.samples[:s.sampleCount])
		sort.Float64s(sorted)
		idx := int(float64(s.sampleCount)*0.95+0.5) - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= s.sampleCount {
			idx = s.sampleCount - 1
		}
		out.P95LatencyMs = sorted[idx]
	}
	return out
}
