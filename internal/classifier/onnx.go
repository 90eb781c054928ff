package classifier

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/winequality/internal/domain/features"
	ort "github.com/yalue/onnxruntime_go"
)

// Default tensor names produced by skl2onnx / onnxmltools for classifiers
// exported with zipmap disabled.
const (
	defaultONNXInput       = "float_input"
	defaultONNXLabel       = "label"
	defaultONNXProbability = "probabilities"
)

// ONNXOptions configures the ONNX Runtime backend.
type ONNXOptions struct {
	// LibraryPath points at the onnxruntime shared library.
	LibraryPath string
	Input       string
	LabelOutput string
	ProbaOutput string
}

func (o ONNXOptions) withDefaults() ONNXOptions {
	if o.Input == "" {
		o.Input = defaultONNXInput
	}
	if o.LabelOutput == "" {
		o.LabelOutput = defaultONNXLabel
	}
	if o.ProbaOutput == "" {
		o.ProbaOutput = defaultONNXProbability
	}
	return o
}

var (
	ortMu    sync.Mutex
	ortUsers int
)

// acquireRuntime initializes the process-wide ONNX Runtime environment on
// first use.
func acquireRuntime(libraryPath string) error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortUsers == 0 && !ort.IsInitialized() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("%w: %w", ErrRuntimeNotReady, err)
		}
	}
	ortUsers++
	return nil
}

func releaseRuntime() error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortUsers == 0 {
		return nil
	}
	ortUsers--
	if ortUsers == 0 && ort.IsInitialized() {
		return ort.DestroyEnvironment()
	}
	return nil
}

// ONNX runs a classifier exported to ONNX. Tensors are allocated per call so
// concurrent Run calls never share buffers.
type ONNX struct {
	session *ort.DynamicAdvancedSession
	opts    ONNXOptions
	info    Info

	closeOnce sync.Once
	closeErr  error
}

// LoadONNX creates a session for the artifact described by info.
func LoadONNX(_ context.Context, info Info, opts ONNXOptions) (*ONNX, error) {
	opts = opts.withDefaults()
	if err := acquireRuntime(opts.LibraryPath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	session, err := ort.NewDynamicAdvancedSession(info.Path,
		[]string{opts.Input},
		[]string{opts.LabelOutput, opts.ProbaOutput},
		nil,
	)
	if err != nil {
		_ = releaseRuntime()
		return nil, fmt.Errorf("%w: create onnx session: %w", ErrLoad, err)
	}
	info.Format = FormatONNX
	return &ONNX{session: session, opts: opts, info: info}, nil
}

func (m *ONNX) run(ctx context.Context, x features.Array) (int64, []float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrPredict, err)
	}
	input, err := ort.NewTensor(ort.NewShape(1, int64(features.Count)), x.Float32())
	if err != nil {
		return 0, nil, fmt.Errorf("%w: input tensor: %w", ErrPredict, err)
	}
	defer input.Destroy()

	label, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: label tensor: %w", ErrPredict, err)
	}
	defer label.Destroy()

	proba, err := ort.NewEmptyTensor[float32](ort.NewShape(1, binaryClasses))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: probability tensor: %w", ErrPredict, err)
	}
	defer proba.Destroy()

	if err := m.session.Run([]ort.Value{input}, []ort.Value{label, proba}); err != nil {
		return 0, nil, fmt.Errorf("%w: onnx run: %w", ErrPredict, err)
	}
	raw := proba.GetData()
	out := make([]float64, len(raw))
	for i, p := range raw {
		out[i] = float64(p)
	}
	return label.GetData()[0], out, nil
}

// Predict returns the class index.
func (m *ONNX) Predict(ctx context.Context, x features.Array) (int64, error) {
	label, _, err := m.run(ctx, x)
	return label, err
}

// PredictProba returns [p_not_good, p_good].
func (m *ONNX) PredictProba(ctx context.Context, x features.Array) ([]float64, error) {
	_, proba, err := m.run(ctx, x)
	return proba, err
}

// Info describes the loaded artifact.
func (m *ONNX) Info() Info { return m.info }

// Close destroys the session and, for the last user, the runtime.
func (m *ONNX) Close() error {
	m.closeOnce.Do(func() {
		if err := m.session.Destroy(); err != nil {
			m.closeErr = err
		}
		if err := releaseRuntime(); err != nil && m.closeErr == nil {
			m.closeErr = err
		}
	})
	return m.closeErr
}
