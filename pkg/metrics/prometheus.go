// Package metrics provides Prometheus metrics for the wine quality service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metric naming.
const (
	defaultNamespace = "wine"
	defaultSubsystem = "quality"
)

// confidenceBuckets cover the only reachable range of max(p_not_good, p_good).
var confidenceBuckets = []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 0.99, 1} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Inference metrics
	predictions       *prometheus.CounterVec
	predictionErrors  prometheus.Counter
	inferenceLatency  prometheus.Histogram
	confidence        prometheus.Histogram
	inputAdjustments  *prometheus.CounterVec
	inputRejections   *prometheus.CounterVec
	modelInfo         *prometheus.GaugeVec
	modelLoadDuration prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var (
	mu            sync.RWMutex        //nolint:gochecknoglobals // guards the singleton swap in Configure
	globalManager *Manager            //nolint:gochecknoglobals // intentional global for singleton metrics manager
	registry      *prometheus.Registry //nolint:gochecknoglobals // custom registry without default Go collectors
)

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	registry = prometheus.NewRegistry()
	globalManager = NewManager(WithPrometheusRegistry(registry))
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before the /metrics handler is mounted.
func Configure(opts ...Option) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	m := NewManager(append(opts, WithPrometheusRegistry(reg))...)
	mu.Lock()
	registry, globalManager = reg, m
	mu.Unlock()
	return reg
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predictions_total",
		Help:        "Total number of successful predictions by label",
		ConstLabels: m.constLabels,
	}, []string{"label"})

	m.predictionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "prediction_errors_total",
		Help:        "Total number of failed inferences",
		ConstLabels: m.constLabels,
	})

	m.inferenceLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "inference_latency_milliseconds",
		Help:        "Histogram of predict plus predict_proba latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.confidence = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "prediction_confidence_ratio",
		Help:        "Distribution of the larger class probability",
		Buckets:     confidenceBuckets,
		ConstLabels: m.constLabels,
	})

	m.inputAdjustments = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "input_adjustments_total",
		Help:        "Total number of out-of-range inputs clamped into bounds",
		ConstLabels: m.constLabels,
	}, []string{"field"})

	m.inputRejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "input_rejections_total",
		Help:        "Total number of inputs rejected by the collector",
		ConstLabels: m.constLabels,
	}, []string{"field", "kind"})

	m.modelInfo = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "model_info",
		Help:        "Loaded model artifact, value is always 1",
		ConstLabels: m.constLabels,
	}, []string{"format", "sha256"})

	m.modelLoadDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "model_load_duration_milliseconds",
		Help:        "Time taken to load the model artifact at startup",
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Total number of errors by endpoint",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "Heap memory in use in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})
}

func current() *Manager {
	mu.RLock()
	defer mu.RUnlock()
	return globalManager
}

// RecordPrediction increments the prediction counter for label.
func RecordPrediction(label string) {
	current().predictions.WithLabelValues(label).Inc()
}

// RecordPredictionError increments the failed inference counter.
func RecordPredictionError() {
	current().predictionErrors.Inc()
}

// RecordInferenceLatency records inference latency in milliseconds.
func RecordInferenceLatency(latencyMs float64) {
	current().inferenceLatency.Observe(latencyMs)
}

// RecordConfidence records the confidence of a successful prediction.
func RecordConfidence(confidence float64) {
	current().confidence.Observe(confidence)
}

// RecordInputAdjustment increments the clamp counter for field.
func RecordInputAdjustment(field string) {
	current().inputAdjustments.WithLabelValues(field).Inc()
}

// RecordInputRejection increments the rejection counter for field and kind.
func RecordInputRejection(field, kind string) {
	current().inputRejections.WithLabelValues(field, kind).Inc()
}

// SetModelInfo publishes the loaded artifact identity.
func SetModelInfo(format, sha256 string, loadMs float64) {
	m := current()
	m.modelInfo.Reset()
	m.modelInfo.WithLabelValues(format, sha256).Set(1)
	m.modelLoadDuration.Set(loadMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	current().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	current().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	current().errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	current().systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	current().systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}
