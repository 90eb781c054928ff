// Package quality holds the classifier output model: the binary quality
// label, the probability pair and the outcome of one analysis.
package quality

import (
	"errors"
	"fmt"
	"math"
)

// Label is the binary quality class. Values match the classifier's class
// indices.
type Label int

const (
	NotGood Label = 0
	Good    Label = 1
)

// ProbabilityTolerance bounds |p_not_good + p_good - 1|.
const ProbabilityTolerance = 1e-6

func (l Label) String() string {
	switch l {
	case Good:
		return "good"
	case NotGood:
		return "not_good"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// Valid reports whether l is one of the two known classes.
func (l Label) Valid() bool { return l == Good || l == NotGood }

// MarshalText encodes the label as "good" or "not_good".
func (l Label) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLabel, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (l *Label) UnmarshalText(b []byte) error {
	switch string(b) {
	case "good":
		*l = Good
	case "not_good":
		*l = NotGood
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLabel, string(b))
	}
	return nil
}

// Prediction is the classifier's output for one feature vector.
type Prediction struct {
	Label    Label   `json:"label"`
	PNotGood float64 `json:"p_not_good"`
	PGood    float64 `json:"p_good"`
}

// NewPrediction validates raw classifier output: the label must be a known
// class and proba a finite two-element distribution summing to one.
func NewPrediction(label int64, proba []float64) (Prediction, error) {
	l := Label(label)
	if !l.Valid() {
		return Prediction{}, fmt.Errorf("%w: %d", ErrUnknownLabel, label)
	}
	if len(proba) != 2 {
		return Prediction{}, fmt.Errorf("%w: expected 2 probabilities, got %d", ErrMalformedDistribution, len(proba))
	}
	for _, p := range proba {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
			return Prediction{}, fmt.Errorf("%w: probability %v", ErrMalformedDistribution, p)
		}
	}
	if sum := proba[0] + proba[1]; math.Abs(sum-1) > ProbabilityTolerance {
		return Prediction{}, fmt.Errorf("%w: probabilities sum to %v", ErrMalformedDistribution, sum)
	}
	return Prediction{Label: l, PNotGood: proba[0], PGood: proba[1]}, nil
}

// Confidence is the larger of the two class probabilities.
func (p Prediction) Confidence() float64 {
	return math.Max(p.PNotGood, p.PGood)
}

// Sentinel error kinds for this package.
var (
	ErrInference             = errors.New("inference failed")
	ErrUnknownLabel          = errors.New("unknown quality label")
	ErrMalformedDistribution = errors.New("malformed probability distribution")
	ErrNoOutcome             = errors.New("no analysis was run")
)

// InferenceError is the single failure kind of the analysis pipeline.
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + ErrInference.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Is makes every InferenceError match ErrInference.
func (e *InferenceError) Is(target error) bool { return target == ErrInference }

// Outcome is the result of one analysis: either a Prediction or a failure,
// never both. Only Succeeded produces the success variant; the zero value is
// a failure.
type Outcome struct {
	ID         string
	ok         bool
	prediction Prediction
	failure    *InferenceError
}

// Succeeded builds the success variant.
func Succeeded(id string, p Prediction) Outcome {
	return Outcome{ID: id, ok: true, prediction: p}
}

// Failed builds the failure variant.
func Failed(id string, err *InferenceError) Outcome {
	if err == nil {
		err = &InferenceError{Op: "analyze"}
	}
	return Outcome{ID: id, failure: err}
}

// Prediction returns the prediction and true on success.
func (o Outcome) Prediction() (Prediction, bool) {
	if !o.ok {
		return Prediction{}, false
	}
	return o.prediction, true
}

// Failure returns the inference error, nil on success.
func (o Outcome) Failure() *InferenceError {
	switch {
	case o.ok:
		return nil
	case o.failure == nil:
		return &InferenceError{Op: "analyze", Err: ErrNoOutcome}
	default:
		return o.failure
	}
}

// OK reports whether the analysis succeeded.
func (o Outcome) OK() bool { return o.ok }
