package features

import (
	"fmt"
	"math"
	"strings"
)

// Policy decides what happens to a finite value outside its bounds.
type Policy int

const (
	// PolicyClamp moves the value to the nearest bound.
	PolicyClamp Policy = iota
	// PolicyReject refuses the whole input.
	PolicyReject
)

// ParsePolicy accepts "clamp" or "reject" (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return PolicyClamp, nil
	case "reject":
		return PolicyReject, nil
	default:
		return PolicyClamp, fmt.Errorf("unknown out-of-range policy: %q", s)
	}
}

func (p Policy) String() string {
	if p == PolicyReject {
		return "reject"
	}
	return "clamp"
}

// Values holds raw user input keyed by field. Missing fields take their
// default when collected.
type Values map[Field]float64

// Adjustment records a value the collector clamped into range.
type Adjustment struct {
	Field Field   `json:"-"`
	Name  string  `json:"field"`
	From  float64 `json:"from"`
	To    float64 `json:"to"`
}

// Collector turns raw values into a bounded Vector.
type Collector struct {
	policy Policy
	// onAdjust and onReject let callers observe policy decisions.
	onAdjust func(Adjustment)
	onReject func(Field)
}

// Option applies a configuration option to the Collector.
type Option func(*Collector)

// WithPolicy sets the out-of-range policy.
func WithPolicy(p Policy) Option {
	return func(c *Collector) {
		c.policy = p
	}
}

// WithAdjustHook registers a callback invoked for every clamped value.
func WithAdjustHook(fn func(Adjustment)) Option {
	return func(c *Collector) {
		if fn != nil {
			c.onAdjust = fn
		}
	}
}

// WithRejectHook registers a callback invoked for every refused value.
func WithRejectHook(fn func(Field)) Option {
	return func(c *Collector) {
		if fn != nil {
			c.onReject = fn
		}
	}
}

// NewCollector creates a collector; the default policy clamps.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{policy: PolicyClamp}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the configured out-of-range policy.
func (c *Collector) Policy() Policy { return c.policy }

// Collect validates values and builds a Vector. Non-finite values are always
// refused. Finite values outside their bounds are clamped or refused
// according to the policy; clamped values are reported as adjustments.
func (c *Collector) Collect(values Values) (Vector, []Adjustment, error) {
	var (
		a           Array
		adjustments []Adjustment
	)
	for i := range specs {
		f := Field(i)
		s := specs[i]
		v, ok := values[f]
		if !ok {
			a[i] = s.Default
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			c.rejected(f)
			return Vector{}, nil, &RangeError{Field: f, Value: v, Kind: ErrNotFinite}
		}
		if s.Contains(v) {
			a[i] = v
			continue
		}
		if c.policy == PolicyReject {
			c.rejected(f)
			return Vector{}, nil, &RangeError{Field: f, Value: v, Kind: ErrOutOfRange}
		}
		clamped := math.Min(math.Max(v, s.Min), s.Max)
		adj := Adjustment{Field: f, Name: s.Name, From: v, To: clamped}
		adjustments = append(adjustments, adj)
		if c.onAdjust != nil {
			c.onAdjust(adj)
		}
		a[i] = clamped
	}
	return FromArray(a), adjustments, nil
}

func (c *Collector) rejected(f Field) {
	if c.onReject != nil {
		c.onReject(f)
	}
}
