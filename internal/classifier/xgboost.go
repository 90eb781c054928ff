package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/winequality/internal/domain/features"
)

// Objectives understood by the XGBoost evaluator.
const (
	objBinaryLogistic = "binary:logistic"
	objBinaryLogitRaw = "binary:logitraw"
	objRegLogistic    = "reg:logistic"
	objMultiSoftprob  = "multi:softprob"
	objMultiSoftmax   = "multi:softmax"

	leafMarker    = -1
	binaryClasses = 2
	// decisionThreshold mirrors XGBClassifier.predict for binary objectives.
	decisionThreshold = 0.5
)

// xgbDocument is the subset of the XGBoost save_model JSON layout we read.
type xgbDocument struct {
	Learner struct {
		FeatureNames    []string `json:"feature_names"`
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				Trees    []xgbTree `json:"trees"`
				TreeInfo []int     `json:"tree_info"`
			} `json:"model"`
		} `json:"gradient_booster"`
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumClass   string `json:"num_class"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
	} `json:"learner"`
}

type xgbTree struct {
	LeftChildren    []int       `json:"left_children"`
	RightChildren   []int       `json:"right_children"`
	SplitIndices    []int       `json:"split_indices"`
	SplitConditions []float64   `json:"split_conditions"`
	DefaultLeft     []flexibool `json:"default_left"`
}

// flexibool decodes both true/false and 0/1; XGBoost versions disagree.
type flexibool bool

func (b *flexibool) UnmarshalJSON(data []byte) error {
	switch s := string(bytes.TrimSpace(data)); s {
	case "true", "1":
		*b = true
	case "false", "0":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", s)
	}
	return nil
}

// tree is a validated regression tree in flat array form.
type tree struct {
	left, right []int
	feature     []int
	threshold   []float32
	value       []float64
	defaultLeft []bool
	class       int
}

// XGBoost evaluates a gradient boosted tree ensemble in pure Go. The value is
// read-only after load and safe for concurrent use.
type XGBoost struct {
	trees      []tree
	objective  string
	numClass    int
	baseMargins []float64
	info        Info
}

// LoadXGBoost parses an XGBoost JSON model from r.
func LoadXGBoost(_ context.Context, r io.Reader, info Info) (*XGBoost, error) {
	var doc xgbDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode xgboost json: %w", ErrLoad, err)
	}
	l := doc.Learner
	if name := l.GradientBooster.Name; name != "" && name != "gbtree" {
		return nil, fmt.Errorf("%w: booster %q", ErrUnsupported, name)
	}
	if len(l.FeatureNames) > 0 && !slices.Equal(l.FeatureNames, features.Columns()) {
		return nil, fmt.Errorf("%w: artifact lists %v", ErrColumnMismatch, l.FeatureNames)
	}
	if nf := strings.TrimSpace(l.LearnerModelParam.NumFeature); nf != "" {
		n, err := strconv.Atoi(nf)
		if err != nil || n != features.Count {
			return nil, fmt.Errorf("%w: artifact expects %s features", ErrColumnMismatch, nf)
		}
	}

	m := &XGBoost{objective: l.Objective.Name, info: info}
	if m.objective == "" {
		m.objective = objBinaryLogistic
	}
	numClass, err := parseIntParam(l.LearnerModelParam.NumClass)
	if err != nil {
		return nil, fmt.Errorf("%w: num_class: %w", ErrLoad, err)
	}
	baseScores, err := parseFloatsParam(l.LearnerModelParam.BaseScore, decisionThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: base_score: %w", ErrLoad, err)
	}

	switch m.objective {
	case objBinaryLogistic, objRegLogistic:
		if len(baseScores) != 1 {
			return nil, fmt.Errorf("%w: %s with %d base scores", ErrUnsupported, m.objective, len(baseScores))
		}
		if b := baseScores[0]; b <= 0 || b >= 1 {
			return nil, fmt.Errorf("%w: base_score %v outside (0,1)", ErrLoad, b)
		}
		m.baseMargins = []float64{math.Log(baseScores[0] / (1 - baseScores[0]))}
		m.numClass = 1
	case objBinaryLogitRaw:
		if len(baseScores) != 1 {
			return nil, fmt.Errorf("%w: %s with %d base scores", ErrUnsupported, m.objective, len(baseScores))
		}
		m.baseMargins = baseScores
		m.numClass = 1
	case objMultiSoftprob, objMultiSoftmax:
		if numClass != binaryClasses {
			return nil, fmt.Errorf("%w: %s with %d classes", ErrUnsupported, m.objective, numClass)
		}
		switch len(baseScores) {
		case 1:
			m.baseMargins = []float64{baseScores[0], baseScores[0]}
		case binaryClasses:
			m.baseMargins = baseScores
		default:
			return nil, fmt.Errorf("%w: %d base scores for %d classes", ErrUnsupported, len(baseScores), numClass)
		}
		m.numClass = binaryClasses
	default:
		return nil, fmt.Errorf("%w: objective %q", ErrUnsupported, m.objective)
	}

	raw := l.GradientBooster.Model.Trees
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: model has no trees", ErrLoad)
	}
	m.trees = make([]tree, len(raw))
	for i, rt := range raw {
		class := 0
		if i < len(l.GradientBooster.Model.TreeInfo) {
			class = l.GradientBooster.Model.TreeInfo[i]
		}
		if class < 0 || class >= m.numClass {
			return nil, fmt.Errorf("%w: tree %d targets class %d", ErrLoad, i, class)
		}
		t, err := buildTree(rt, class)
		if err != nil {
			return nil, fmt.Errorf("%w: tree %d: %w", ErrLoad, i, err)
		}
		m.trees[i] = t
	}
	m.info.Format = FormatXGBoost
	m.info.Objective = m.objective
	m.info.Trees = len(m.trees)
	return m, nil
}

func buildTree(rt xgbTree, class int) (tree, error) {
	n := len(rt.LeftChildren)
	if n == 0 {
		return tree{}, fmt.Errorf("empty tree")
	}
	if len(rt.RightChildren) != n || len(rt.SplitIndices) != n || len(rt.SplitConditions) != n {
		return tree{}, fmt.Errorf("inconsistent node arrays")
	}
	t := tree{
		left:        rt.LeftChildren,
		right:       rt.RightChildren,
		feature:     rt.SplitIndices,
		threshold:   make([]float32, n),
		value:       rt.SplitConditions,
		defaultLeft: make([]bool, n),
		class:       class,
	}
	for i := 0; i < n; i++ {
		t.threshold[i] = float32(rt.SplitConditions[i])
		if i < len(rt.DefaultLeft) {
			t.defaultLeft[i] = bool(rt.DefaultLeft[i])
		}
		if t.left[i] == leafMarker {
			continue
		}
		// Children always follow their parent; this also rules out cycles.
		if t.left[i] <= i || t.left[i] >= n || t.right[i] <= i || t.right[i] >= n {
			return tree{}, fmt.Errorf("node %d has invalid children", i)
		}
		if t.feature[i] < 0 || t.feature[i] >= features.Count {
			return tree{}, fmt.Errorf("node %d splits on feature %d", i, t.feature[i])
		}
	}
	return t, nil
}

// leaf walks the tree for x and returns the leaf weight.
func (t *tree) leaf(x *[features.Count]float32) float64 {
	node := 0
	for t.left[node] != leafMarker {
		v := x[t.feature[node]]
		switch {
		case math.IsNaN(float64(v)):
			if t.defaultLeft[node] {
				node = t.left[node]
			} else {
				node = t.right[node]
			}
		case v < t.threshold[node]:
			node = t.left[node]
		default:
			node = t.right[node]
		}
	}
	return t.value[node]
}

// margins returns the raw per-class scores.
func (m *XGBoost) margins(x features.Array) []float64 {
	var xf [features.Count]float32
	for i, v := range x {
		xf[i] = float32(v)
	}
	out := make([]float64, m.numClass)
	copy(out, m.baseMargins)
	for i := range m.trees {
		t := &m.trees[i]
		out[t.class] += t.leaf(&xf)
	}
	return out
}

// PredictProba returns [p_not_good, p_good].
func (m *XGBoost) PredictProba(ctx context.Context, x features.Array) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPredict, err)
	}
	margins := m.margins(x)
	if m.numClass == 1 {
		p := sigmoid(margins[0])
		return []float64{1 - p, p}, nil
	}
	return softmax(margins), nil
}

// Predict returns the class index.
func (m *XGBoost) Predict(ctx context.Context, x features.Array) (int64, error) {
	proba, err := m.PredictProba(ctx, x)
	if err != nil {
		return 0, err
	}
	if m.numClass == 1 {
		if proba[1] > decisionThreshold {
			return 1, nil
		}
		return 0, nil
	}
	best := 0
	for i, p := range proba {
		if p > proba[best] {
			best = i
		}
	}
	return int64(best), nil
}

// Info describes the loaded artifact.
func (m *XGBoost) Info() Info { return m.info }

// Close is a no-op; the evaluator holds no native resources.
func (m *XGBoost) Close() error { return nil }

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func softmax(xs []float64) []float64 {
	hi := slices.Max(xs)
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// parseFloatsParam reads XGBoost's string-encoded intercept: "5E-1", or a
// bracketed list such as "[5E-1]" or "[5E-1,5E-1]" in newer releases.
func parseFloatsParam(s string, fallback float64) ([]float64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if strings.TrimSpace(s) == "" {
		return []float64{fallback}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseIntParam(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
