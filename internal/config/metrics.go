package config

import (
	"fmt"
	"regexp"
	"strings"
)

// identifier matches metric name parts and label names.
var identifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ConstLabels parses MetricsConstLabels into a label set.
func (c *Config) ConstLabels() (map[string]string, error) {
	raw := strings.TrimSpace(c.MetricsConstLabels)
	if raw == "" {
		return nil, nil
	}
	labels := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || !identifier.MatchString(k) || strings.HasPrefix(k, "__") {
			return nil, fmt.Errorf("%w: metrics_const_labels entry %q", ErrInvalidConfig, pair)
		}
		if _, dup := labels[k]; dup {
			return nil, fmt.Errorf("%w: metrics_const_labels repeats %q", ErrInvalidConfig, k)
		}
		labels[k] = strings.TrimSpace(v)
	}
	return labels, nil
}

// validateMetrics rejects values the Prometheus client would panic on at
// registration.
func (c *Config) validateMetrics() error {
	for key, part := range map[string]string{
		"metrics_namespace": c.MetricsNamespace,
		"metrics_subsystem": c.MetricsSubsystem,
	} {
		if part != "" && !identifier.MatchString(part) {
			return fmt.Errorf("%w: %s %q", ErrInvalidConfig, key, part)
		}
	}
	for i := 1; i < len(c.MetricsLatencyBuckets); i++ {
		if c.MetricsLatencyBuckets[i] <= c.MetricsLatencyBuckets[i-1] {
			return fmt.Errorf("%w: metrics_latency_buckets must be strictly increasing", ErrInvalidConfig)
		}
	}
	_, err := c.ConstLabels()
	return err
}
