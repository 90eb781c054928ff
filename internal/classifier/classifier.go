// Package classifier loads the pre-trained wine quality model artifact and
// exposes it behind the predict / predict-probability contract.
//
// Conventions:
//   - A Classifier is loaded once, shared by all requests and never mutated.
//   - Implementations must be safe for concurrent use.
//   - All blocking functions accept context.Context as the first parameter.
package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/winequality/internal/domain/features"
)

// Classifier is the external model contract.
type Classifier interface {
	// Predict returns the class index (0 = not good, 1 = good).
	Predict(ctx context.Context, x features.Array) (int64, error)
	// PredictProba returns the class distribution indexed by class.
	PredictProba(ctx context.Context, x features.Array) ([]float64, error)
	// Info describes the loaded artifact.
	Info() Info
	// Close releases native resources.
	Close() error
}

// Format names an artifact encoding.
type Format string

const (
	FormatAuto    Format = "auto"
	FormatXGBoost Format = "xgboost"
	FormatONNX    Format = "onnx"
)

// Info describes a loaded artifact.
type Info struct {
	Format    Format    `json:"format"`
	Path      string    `json:"path"`
	SHA256    string    `json:"sha256"`
	SizeBytes int64     `json:"size_bytes"`
	Objective string    `json:"objective,omitempty"`
	Trees     int       `json:"trees,omitempty"`
	Columns   []string  `json:"columns"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Options configures Load.
type Options struct {
	Path   string
	Format Format
	ONNX   ONNXOptions
}

// ParseFormat accepts auto, xgboost or onnx.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatXGBoost, FormatONNX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Load reads the artifact at opts.Path. FormatAuto picks the reader by file
// extension.
func Load(ctx context.Context, opts Options) (Classifier, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, fmt.Errorf("%w: model path is empty", ErrLoad)
	}
	format := opts.Format
	if format == "" || format == FormatAuto {
		format = detectFormat(opts.Path)
	}
	if format != FormatXGBoost && format != FormatONNX {
		return nil, fmt.Errorf("%w: cannot infer format of %s", ErrUnknownFormat, opts.Path)
	}
	info, err := describe(opts.Path, format)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXGBoost:
		f, err := os.Open(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
		defer f.Close()
		m, err := LoadXGBoost(ctx, f, info)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		m, err := LoadONNX(ctx, info, opts.ONNX)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func detectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatXGBoost
	case ".onnx":
		return FormatONNX
	default:
		return ""
	}
}

// describe hashes the artifact so operators can tell which model is serving.
func describe(path string, format Format) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Info{}, fmt.Errorf("%w: hash %s: %w", ErrLoad, path, err)
	}
	return Info{
		Format:    format,
		Path:      path,
		SHA256:    hex.EncodeToString(h.Sum(nil)),
		SizeBytes: n,
		Columns:   features.Columns(),
		LoadedAt:  time.Now().UTC(),
	}, nil
}
