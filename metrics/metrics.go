package metrics

import (
	"github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/Layr-Labs/eigensdk-go/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	BenchName = "aa-gasbench"

	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type MetricsGenerator interface {
	metrics.Metrics

	IncBundleSubmitted(name string)
	IncBundleResult(name, status string)
	ObserveBundleGas(gasUsed uint64, opCount int)
	IncErrorCode(code string)
}

// BenchMetrics contains the metrics recorded while a benchmark run submits bundles
type BenchMetrics struct {
	metrics.Metrics

	numBundleSubmitted *prometheus.CounterVec
	numBundleResult    *prometheus.CounterVec
	numErrors          *prometheus.CounterVec

	gasUsed      prometheus.Histogram
	gasPerOp     prometheus.Histogram
	opsPerBundle prometheus.Histogram
}

const benchNamespace = "gasbench"

// NewBenchMetrics registers the bench collectors on reg. The embedded eigen
// metrics own the http listener at ipPortAddress.
func NewBenchMetrics(ipPortAddress string, reg *prometheus.Registry, logger logging.Logger) *BenchMetrics {
	eigenMetrics := metrics.NewEigenMetrics(BenchName, ipPortAddress, reg, logger)

	return &BenchMetrics{
		Metrics: eigenMetrics,

		numBundleSubmitted: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: benchNamespace,
				Name:      "num_bundle_submitted_total",
				Help:      "The number of bundles the bench started to assemble",
			}, []string{"bundle"}),

		numBundleResult: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: benchNamespace,
				Name:      "num_bundle_result_total",
				Help:      "The number of finished bundles by outcome",
			}, []string{"bundle", "status"}),

		numErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: benchNamespace,
				Name:      "num_errors_total",
				Help:      "The number of failed bundles by error code",
			}, []string{"code"}),

		gasUsed: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: benchNamespace,
				Name:      "bundle_gas_used",
				Help:      "Gas used by one handleOps transaction",
				Buckets:   prometheus.ExponentialBuckets(50_000, 2, 10),
			}),

		gasPerOp: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: benchNamespace,
				Name:      "op_gas_used",
				Help:      "Average gas used per user operation of a bundle",
				Buckets:   prometheus.ExponentialBuckets(25_000, 2, 10),
			}),

		opsPerBundle: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: benchNamespace,
				Name:      "bundle_op_count",
				Help:      "Number of user operations per bundle",
				Buckets:   prometheus.LinearBuckets(1, 1, 8),
			}),
	}
}

func (m *BenchMetrics) IncBundleSubmitted(name string) {
	m.numBundleSubmitted.WithLabelValues(name).Inc()
}

func (m *BenchMetrics) IncBundleResult(name, status string) {
	m.numBundleResult.WithLabelValues(name, status).Inc()
}

func (m *BenchMetrics) IncErrorCode(code string) {
	m.numErrors.WithLabelValues(code).Inc()
}

func (m *BenchMetrics) ObserveBundleGas(gasUsed uint64, opCount int) {
	m.gasUsed.Observe(float64(gasUsed))
	m.opsPerBundle.Observe(float64(opCount))
	if opCount > 0 {
		m.gasPerOp.Observe(float64(gasUsed) / float64(opCount))
	}
}
