// Package metrics 提供 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/formabot/backend/internal/domain/events"
)

// 指标命名空间
const namespace = "formabot"

// 一轮对话的结果标签
const (
	OutcomeSuccess           = "success"
	OutcomeRetrievalFailure  = "retrieval_unavailable"
	OutcomeGenerationFailure = "generation_failure"
	OutcomeStoreFailure      = "store_failure"
	OutcomeTemplateFailure   = "template_error"
	OutcomeCancelled         = "cancelled"
)

// Metrics 对话服务指标
type Metrics struct {
	// TurnsTotal 对话轮次，按结果区分
	TurnsTotal *prometheus.CounterVec
	// StageDurationSeconds 各阶段耗时
	StageDurationSeconds *prometheus.HistogramVec
	// PromptTokens 提示词 token 数
	PromptTokens prometheus.Histogram
	// SourcesPerTurn 每轮返回的来源数
	SourcesPerTurn prometheus.Histogram
	// TemplateReloads 模板热加载次数，result 为 ok 或 error
	TemplateReloads *prometheus.CounterVec

	registerer prometheus.Registerer
}

// New 在指定注册器上创建指标
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total number of chat turns by outcome.",
		}, []string{"outcome"}),
		StageDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each chat turn stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		PromptTokens: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "prompt_tokens",
			Help:      "Estimated number of tokens in assembled prompts.",
			Buckets:   prometheus.ExponentialBuckets(128, 2, 8),
		}),
		SourcesPerTurn: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "sources_per_turn",
			Help:      "Number of sources kept after compression.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15, 20},
		}),
		TemplateReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prompt",
			Name:      "template_reloads_total",
			Help:      "Prompt template reloads triggered by file changes.",
		}, []string{"result"}),
		registerer: reg,
	}
}

// ProvideMetrics 在默认注册器上创建指标，并订阅模板重载事件
func ProvideMetrics(bus events.EventBus) *Metrics {
	m := New(prometheus.DefaultRegisterer)
	bus.Subscribe(events.TemplateReloaded, m)
	return m
}

// HandleEvent 统计模板重载结果
func (m *Metrics) HandleEvent(event events.Event) error {
	e, ok := event.(*events.TemplateEvent)
	if !ok {
		return nil
	}
	result := "ok"
	if e.Err != nil {
		result = "error"
	}
	m.TemplateReloads.WithLabelValues(result).Inc()
	return nil
}

// ObserveStage 记录阶段耗时
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDurationSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// IncTurn 记录一轮对话结果
func (m *Metrics) IncTurn(outcome string) {
	m.TurnsTotal.WithLabelValues(outcome).Inc()
}

// ObservePromptTokens 记录提示词 token 数
func (m *Metrics) ObservePromptTokens(n int) {
	m.PromptTokens.Observe(float64(n))
}

// ObserveSources 记录来源数量
func (m *Metrics) ObserveSources(n int) {
	m.SourcesPerTurn.Observe(float64(n))
}

// RegisterCachedSessions 注册缓存会话数量（采集时读取）
func (m *Metrics) RegisterCachedSessions(size func() int) {
	promauto.With(m.registerer).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "cached_sessions",
		Help:      "Number of sessions held in the in-memory cache.",
	}, func() float64 {
		return float64(size())
	})
}
