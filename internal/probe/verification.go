package probe

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/winequality/internal/domain/quality"
	"github.com/okian/winequality/internal/presenter"
)

// verifyReport checks the invariants every report must hold for sample.
func verifyReport(sample Sample, r presenter.Report) error {
	if r.ID == "" {
		return fmt.Errorf("report has no id")
	}
	switch r.Status {
	case presenter.StatusError:
		if !strings.HasPrefix(r.Error, presenter.ErrorPrefix) {
			return fmt.Errorf("error %q lacks the standard prefix", r.Error)
		}
		if r.Headline != nil || r.Probabilities != nil || len(r.Chart) > 0 {
			return fmt.Errorf("failed report carries a partial result")
		}
		return nil
	case presenter.StatusOK:
	default:
		return fmt.Errorf("unknown status %q", r.Status)
	}

	if r.Probabilities == nil || r.Headline == nil {
		return fmt.Errorf("successful report is missing probabilities or headline")
	}
	p := r.Probabilities
	if sum := p.NotGood + p.Good; math.Abs(sum-1) > quality.ProbabilityTolerance {
		return fmt.Errorf("probabilities sum to %v", sum)
	}
	if r.Confidence != math.Max(p.NotGood, p.Good) {
		return fmt.Errorf("confidence %v is not the larger probability", r.Confidence)
	}

	want := presenter.Cautionary
	if r.Label == quality.Good.String() {
		want = presenter.Affirmative
	} else if r.Label != quality.NotGood.String() {
		return fmt.Errorf("unknown label %q", r.Label)
	}
	if r.Headline.Kind != want {
		return fmt.Errorf("label %q got a %s headline", r.Label, r.Headline.Kind)
	}

	if len(r.Chart) != 2 || r.Chart[0].Category != "Not Good" || r.Chart[1].Category != "Good" {
		return fmt.Errorf("chart must be [Not Good, Good]")
	}
	if r.Chart[0].Probability != p.NotGood || r.Chart[1].Probability != p.Good {
		return fmt.Errorf("chart disagrees with probabilities")
	}
	if len(r.Metrics) != 3 || len(r.Guidance) != 3 {
		return fmt.Errorf("expected 3 metrics and 3 guidance lines, got %d and %d", len(r.Metrics), len(r.Guidance))
	}

	// Samples stay inside bounds, so the echoed readings must match exactly.
	if len(r.Adjustments) > 0 {
		return fmt.Errorf("in-range sample was adjusted: %v", r.Adjustments)
	}
	for i, name := range []string{"alcohol", "pH", "total_sulfur_dioxide"} {
		if sent, ok := sample.Features[name]; ok && r.Metrics[i].Raw != sent {
			return fmt.Errorf("metric %s shows %v, sent %v", r.Metrics[i].Key, r.Metrics[i].Raw, sent)
		}
	}
	return nil
}
