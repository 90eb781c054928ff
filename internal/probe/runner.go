package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/winequality/internal/domain/quality"
	"github.com/okian/winequality/internal/presenter"
	"github.com/okian/winequality/pkg/logger"
)

type outcome int

const (
	outcomeGood outcome = iota
	outcomeNotGood
	outcomeFailed
	outcomeRefused
)

type result struct {
	sample    string
	outcome   outcome
	violation string
}

// Run executes a complete probe. It returns the statistics even when the run
// found violations, together with an error wrapping ErrViolations.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if config == nil || config.BaseURL == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrConfig)
	}
	if config.Samples < 0 {
		return nil, fmt.Errorf("%w: samples must not be negative", ErrConfig)
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	base := strings.TrimRight(config.BaseURL, "/")
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting wine quality probe",
		logger.String("baseURL", base),
		logger.Int("samples", config.Samples),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
	)

	client := newHTTPClient(config.Timeout)
	if err := checkServiceHealth(ctx, client, base); err != nil {
		return nil, err
	}

	samples := generateSamples(config.Samples, config.Lang)
	stats.Generated = len(samples)

	submitSamples(ctx, client, base+"/api/v1/analyze", config, samples, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("probe interrupted: %w", err)
	}
	if len(stats.Violations) > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrViolations, len(stats.Violations), stats.Submitted)
	}
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, base string) error {
	resp, err := client.Get(ctx, base+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	var health struct {
		ModelLoaded bool `json:"model_loaded"`
	}
	if err := json.Unmarshal(body, &health); err != nil || !health.ModelLoaded {
		return fmt.Errorf("%w: no model loaded", ErrUnhealthy)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// submitSamples posts samples concurrently using a worker pool.
func submitSamples(ctx context.Context, client *HTTPClient, url string, config *Config, samples []Sample, stats *Stats) {
	sampleChan := make(chan Sample, config.Workers*WorkerChannelMultiplier)
	resultChan := make(chan result, config.Workers*WorkerChannelMultiplier)

	var wg sync.WaitGroup
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range sampleChan {
				resultChan <- submitSingleSample(ctx, client, url, s)
			}
		}()
	}

	go func() {
		defer close(sampleChan)
		for _, s := range samples {
			select {
			case <-ctx.Done():
				return
			case sampleChan <- s:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for r := range resultChan {
		stats.Submitted++
		switch r.outcome {
		case outcomeGood:
			stats.Good++
		case outcomeNotGood:
			stats.NotGood++
		case outcomeFailed:
			stats.Failed++
		case outcomeRefused:
			stats.Refused++
		}
		if r.violation != "" {
			stats.Violations = append(stats.Violations, Violation{Sample: r.sample, Reason: r.violation})
			if config.Verbose {
				logger.Get().Warn(ctx, "report violation",
					logger.String("sample", r.sample),
					logger.String("reason", r.violation),
				)
			}
		}
	}
}

// submitSingleSample posts one sample and classifies the response.
func submitSingleSample(ctx context.Context, client *HTTPClient, url string, s Sample) result {
	res := result{sample: s.Name, outcome: outcomeRefused}
	resp, err := client.Post(ctx, url, s)
	if err != nil {
		res.violation = "request failed: " + err.Error()
		return res
	}
	body, err := readResponseBody(resp)
	if err != nil {
		res.violation = "read failed: " + err.Error()
		return res
	}
	if resp.StatusCode != StatusOK {
		res.violation = fmt.Sprintf("in-range sample refused with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return res
	}

	var report presenter.Report
	if err := json.Unmarshal(body, &report); err != nil {
		res.violation = "undecodable report: " + err.Error()
		return res
	}
	switch {
	case report.Status == presenter.StatusError:
		res.outcome = outcomeFailed
	case report.Label == quality.Good.String():
		res.outcome = outcomeGood
	default:
		res.outcome = outcomeNotGood
	}
	if err := verifyReport(s, report); err != nil {
		res.violation = err.Error()
	}
	return res
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var goodRate, perSecond float64
	if answered := stats.Good + stats.NotGood; answered > 0 {
		goodRate = float64(stats.Good) / float64(answered) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("good", stats.Good),
		logger.Int("notGood", stats.NotGood),
		logger.Int("failed", stats.Failed),
		logger.Int("refused", stats.Refused),
		logger.Int("violations", len(stats.Violations)),
		logger.Duration("duration", stats.Duration),
		logger.Float64("goodRate", goodRate),
		logger.Float64("requestsPerSecond", perSecond),
	)
}
