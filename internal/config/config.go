// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - All loaders accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8501".
	Addr string `koanf:"addr"`

	// ModelPath points at the serialized classifier artifact.
	ModelPath string `koanf:"model_path"`

	// ModelFormat is auto, xgboost or onnx.
	ModelFormat string `koanf:"model_format"`

	// ONNX runtime settings, used only when the artifact is ONNX.
	ONNXLibraryPath string `koanf:"onnx_library_path"`
	ONNXInput       string `koanf:"onnx_input"`
	ONNXLabelOutput string `koanf:"onnx_label_output"`
	ONNXProbaOutput string `koanf:"onnx_proba_output"`

	// OutOfRange is the collector policy for values outside a field's bounds:
	// clamp or reject.
	OutOfRange string `koanf:"out_of_range"`

	// MaxBodyBytes caps request bodies on the analyze endpoints.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// DefaultLang is the BCP 47 tag used when Accept-Language is absent.
	DefaultLang string `koanf:"default_lang"`

	// MetricsNamespace prefixes every Prometheus metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsSubsystem is the second metric name component.
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLatencyBuckets overrides the millisecond buckets of the latency
	// histograms; empty keeps the Prometheus defaults. From env: "1,5,25".
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`

	// MetricsConstLabels are attached to every metric, as "env=prod,zone=a".
	MetricsConstLabels string `koanf:"metrics_const_labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":8501",
		ModelPath:        "model/wine_quality_model.json",
		ModelFormat:      "auto",
		OutOfRange:       "clamp",
		MaxBodyBytes:     64 << 10,
		DefaultLang:      "en",
		MetricsNamespace: "wine",
		MetricsSubsystem: "quality",
	}
}
