package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/winequality/internal/classifier"
	"github.com/okian/winequality/internal/config"
	"github.com/okian/winequality/internal/domain/features"
)

// FromConfig loads the configured model and builds a service around it.
// Extra options are applied after the ones derived from cfg.
func FromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	format, err := classifier.ParseFormat(cfg.ModelFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: model_format: %w", config.ErrInvalidConfig, err)
	}
	policy, err := features.ParsePolicy(cfg.OutOfRange)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	start := time.Now()
	m, err := classifier.Load(ctx, classifier.Options{
		Path:   cfg.ModelPath,
		Format: format,
		ONNX: classifier.ONNXOptions{
			LibraryPath: cfg.ONNXLibraryPath,
			Input:       cfg.ONNXInput,
			LabelOutput: cfg.ONNXLabelOutput,
			ProbaOutput: cfg.ONNXProbaOutput,
		},
	})
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithClassifier(m),
		WithOutOfRangePolicy(policy),
		WithModelLoadDuration(time.Since(start)),
	}
	return New(append(base, opts...)...), nil
}
