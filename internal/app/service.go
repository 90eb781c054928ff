// Package service wires the analysis pipeline: it collects bounded inputs,
// invokes the injected classifier and packages the outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/winequality/internal/classifier"
	"github.com/okian/winequality/internal/domain/features"
	"github.com/okian/winequality/internal/domain/quality"
	"github.com/okian/winequality/pkg/logger"
	"github.com/okian/winequality/pkg/metrics"
)

const defaultSystemRefresh = 15 * time.Second

// Service runs one synchronous analysis per call. It holds no per-request
// state; the classifier is shared read-only across goroutines.
type Service struct {
	mu sync.RWMutex

	classifier classifier.Classifier
	collector  *features.Collector
	policy     features.Policy

	// Configuration
	systemRefresh time.Duration
	loadDuration  time.Duration

	// State
	started   bool
	startedAt time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}

	// Counters
	analyses atomic.Int64
	failures atomic.Int64
	good     atomic.Int64
	notGood  atomic.Int64
	adjusted atomic.Int64
	rejected atomic.Int64

	logger  logger.Logger
	logOnce sync.Once
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClassifier injects the loaded model. The service takes ownership and
// closes it on Stop.
func WithClassifier(c classifier.Classifier) Option {
	return func(s *Service) {
		s.classifier = c
	}
}

// WithOutOfRangePolicy selects how out-of-bounds input is handled.
func WithOutOfRangePolicy(p features.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithSystemMetricsInterval sets how often runtime gauges are refreshed.
func WithSystemMetricsInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.systemRefresh = d
		}
	}
}

// WithModelLoadDuration records how long the classifier took to load, for
// the model-info metrics.
func WithModelLoadDuration(d time.Duration) Option {
	return func(s *Service) {
		s.loadDuration = d
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		policy:        features.PolicyClamp,
		systemRefresh: defaultSystemRefresh,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.collector = features.NewCollector(
		features.WithPolicy(s.policy),
		features.WithAdjustHook(func(a features.Adjustment) {
			s.adjusted.Add(1)
			metrics.RecordInputAdjustment(a.Name)
		}),
		features.WithRejectHook(func(features.Field) {
			s.rejected.Add(1)
		}),
	)
	return s
}

func (s *Service) log() logger.Logger {
	s.logOnce.Do(func() {
		if s.logger == nil {
			s.logger = logger.Get()
		}
	})
	return s.logger
}

// Start publishes the model identity and begins refreshing runtime gauges.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.classifier == nil {
		return ErrNoClassifier
	}
	info := s.classifier.Info()
	metrics.SetModelInfo(string(info.Format), info.SHA256, float64(s.loadDuration.Microseconds())/1000)

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.refreshSystemMetrics(s.stopCh, s.doneCh)

	s.started = true
	s.startedAt = time.Now()
	s.log().Info(ctx, "wine quality service started",
		logger.String("format", string(info.Format)),
		logger.String("model", info.Path),
		logger.String("sha256", info.SHA256),
		logger.String("outOfRange", s.policy.String()),
	)
	return nil
}

// Stop halts background work and releases the classifier.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	if s.classifier != nil {
		if err := s.classifier.Close(); err != nil {
			s.log().Warn(context.Background(), "failed to close classifier", logger.Error(err))
		}
	}
	s.started = false
	s.log().Info(context.Background(), "wine quality service stopped")
}

func (s *Service) refreshSystemMetrics(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(s.systemRefresh)
	defer t.Stop()
	for {
		updateSystemMetrics()
		select {
		case <-stop:
			return
		case <-t.C:
		}
	}
}

func updateSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	metrics.UpdateSystemMemoryUsage(ms.HeapAlloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

// Collect validates raw input into a bounded vector.
func (s *Service) Collect(ctx context.Context, values features.Values) (features.Vector, []features.Adjustment, error) {
	v, adjustments, err := s.collector.Collect(values)
	if err != nil {
		var re *features.RangeError
		if errors.As(err, &re) {
			metrics.RecordInputRejection(re.Field.Spec().Name, rejectionKind(re.Kind))
		}
		s.log().Debug(ctx, "input refused", logger.Error(err))
		return features.Vector{}, nil, err
	}
	for _, a := range adjustments {
		s.log().Debug(ctx, "input clamped",
			logger.String("field", a.Name),
			logger.Float64("from", a.From),
			logger.Float64("to", a.To),
		)
	}
	return v, adjustments, nil
}

func rejectionKind(err error) string {
	if errors.Is(err, features.ErrNotFinite) {
		return "not_finite"
	}
	return "out_of_range"
}

// Analyze runs the classifier once on v. It never returns an error: every
// failure is carried in the outcome's failure variant.
func (s *Service) Analyze(ctx context.Context, v features.Vector) quality.Outcome {
	id := uuid.NewString()
	s.analyses.Add(1)
	start := time.Now()

	p, ierr := s.infer(ctx, v.Array())
	took := time.Since(start)
	metrics.RecordInferenceLatency(float64(took.Microseconds()) / 1000)

	if ierr != nil {
		s.failures.Add(1)
		metrics.RecordPredictionError()
		s.log().Error(ctx, "analysis failed",
			logger.String("id", id),
			logger.String("op", ierr.Op),
			logger.Error(ierr.Err),
			logger.Duration("took", took),
		)
		return quality.Failed(id, ierr)
	}

	if p.Label == quality.Good {
		s.good.Add(1)
	} else {
		s.notGood.Add(1)
	}
	metrics.RecordPrediction(p.Label.String())
	metrics.RecordConfidence(p.Confidence())
	s.log().Debug(ctx, "analysis complete",
		logger.String("id", id),
		logger.String("label", p.Label.String()),
		logger.Float64("confidence", p.Confidence()),
		logger.Duration("took", took),
	)
	return quality.Succeeded(id, p)
}

// infer calls predict then predict_proba. A panicking classifier is turned
// into an inference error for the stage that panicked.
func (s *Service) infer(ctx context.Context, x features.Array) (p quality.Prediction, ierr *quality.InferenceError) {
	op := "predict"
	defer func() {
		if r := recover(); r != nil {
			ierr = &quality.InferenceError{Op: op, Err: fmt.Errorf("%w: %v", ErrClassifierPanic, r)}
		}
	}()

	if s.classifier == nil {
		return quality.Prediction{}, &quality.InferenceError{Op: op, Err: ErrNoClassifier}
	}
	label, err := s.classifier.Predict(ctx, x)
	if err != nil {
		return quality.Prediction{}, &quality.InferenceError{Op: op, Err: err}
	}
	op = "predict_proba"
	proba, err := s.classifier.PredictProba(ctx, x)
	if err != nil {
		return quality.Prediction{}, &quality.InferenceError{Op: op, Err: err}
	}
	op = "validate"
	p, err = quality.NewPrediction(label, proba)
	if err != nil {
		return quality.Prediction{}, &quality.InferenceError{Op: op, Err: err}
	}
	return p, nil
}

// ModelInfo describes the loaded artifact.
func (s *Service) ModelInfo() (classifier.Info, bool) {
	if s.classifier == nil {
		return classifier.Info{}, false
	}
	return s.classifier.Info(), true
}

// Policy returns the active out-of-range policy.
func (s *Service) Policy() features.Policy { return s.collector.Policy() }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"analyses":   s.analyses.Load(),
		"failures":   s.failures.Load(),
		"good":       s.good.Load(),
		"notGood":    s.notGood.Load(),
		"clamped":    s.adjusted.Load(),
		"rejected":   s.rejected.Load(),
		"outOfRange": s.policy.String(),
	}
	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	if info, ok := s.ModelInfo(); ok {
		stats["modelFormat"] = string(info.Format)
		stats["modelSha256"] = info.SHA256
	}
	updateSystemMetrics()
	return stats
}
