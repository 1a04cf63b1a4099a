package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Стадии цикла генерации (label "stage").
const (
	StageGenerate = "generate"
	StagePersist  = "persist"
	StageWrite    = "write"
	StagePublish  = "publish"
)

// Исходы тика (label "result").
const (
	TickGenerated  = "generated"
	TickSuppressed = "suppressed"
	TickNotLeader  = "not_leader"
	TickFailed     = "failed"
)

// Исходы запроса паузы (label "result").
const (
	PauseApplied   = "applied"
	PauseIgnored   = "ignored"
	PauseMalformed = "malformed"
)

// Metrics — метрики бота.
type Metrics struct {
	Ticks              *prometheus.CounterVec
	CyclesFailed       *prometheus.CounterVec
	BatchesPublished   prometheus.Counter
	TestCasesGenerated prometheus.Counter
	CycleDuration      prometheus.Histogram
	PauseRequests      *prometheus.CounterVec
	PauseExpiresAt     prometheus.Gauge
}

// NewMetrics регистрирует метрики в reg.
// Для глобального реестра передайте prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Ticks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "testgen_ticks_total",
			Help: "Scheduler ticks by result",
		}, []string{"result"}),

		CyclesFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "testgen_cycles_failed_total",
			Help: "Aborted generation cycles by failed stage",
		}, []string{"stage"}),

		BatchesPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "testgen_batches_published_total",
			Help: "Batch-ready events published to executors",
		}),

		TestCasesGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "testgen_test_cases_generated_total",
			Help: "Test cases produced by the generator",
		}),

		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "testgen_cycle_duration_seconds",
			Help:    "Duration of non-suppressed generation cycles",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),

		PauseRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "testgen_pause_requests_total",
			Help: "Inbound pause requests by result",
		}, []string{"result"}),

		PauseExpiresAt: f.NewGauge(prometheus.GaugeOpts{
			Name: "testgen_pause_expires_at_seconds",
			Help: "Unix time at which the current pause window ends",
		}),
	}
}
