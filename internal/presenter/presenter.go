// Package presenter turns an analysis outcome into what the user sees: a
// headline, three chemistry metrics, the two-bar probability chart and three
// guidance lines.
package presenter

import (
	"github.com/okian/winequality/internal/domain/features"
	"github.com/okian/winequality/internal/domain/quality"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// HeadlineKind tells renderers which branch produced the headline.
type HeadlineKind string

const (
	Affirmative HeadlineKind = "affirmative"
	Cautionary  HeadlineKind = "cautionary"
)

// Chart colours, in category order.
const (
	ColorNotGood = "#ff6b6b"
	ColorGood    = "#4caf50"
)

// ErrorPrefix starts every failure message shown to the user.
const ErrorPrefix = "An error occurred during prediction: "

// Headline is the verdict block.
type Headline struct {
	Kind    HeadlineKind `json:"kind"`
	Title   string       `json:"title"`
	Message string       `json:"message"`
	Detail  string       `json:"detail"`
}

// Metric is one derived chemistry reading with its guidance hint.
type Metric struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Raw   float64 `json:"raw"`
	Value string  `json:"value"`
	Hint  string  `json:"hint"`
}

// Bar is one category of the probability chart.
type Bar struct {
	Category    string  `json:"category"`
	Probability float64 `json:"probability"`
	Percent     string  `json:"percent"`
	Color       string  `json:"color"`
}

// Probabilities is the class distribution.
type Probabilities struct {
	NotGood float64 `json:"not_good"`
	Good    float64 `json:"good"`
}

// Report is everything shown for one analysis. On failure only ID, Status,
// Error and Lang are set.
type Report struct {
	ID            string                `json:"id"`
	Status        string                `json:"status"`
	Label         string                `json:"label,omitempty"`
	Probabilities *Probabilities        `json:"probabilities,omitempty"`
	Confidence    float64               `json:"confidence,omitempty"`
	Headline      *Headline             `json:"headline,omitempty"`
	Metrics       []Metric              `json:"metrics,omitempty"`
	Chart         []Bar                 `json:"chart,omitempty"`
	Guidance      []string              `json:"guidance,omitempty"`
	Adjustments   []features.Adjustment `json:"adjustments,omitempty"`
	Error         string                `json:"error,omitempty"`
	Lang          string                `json:"lang"`
}

// OK reports whether the report holds a result.
func (r Report) OK() bool { return r.Status == StatusOK }

// Presenter formats reports for one locale.
type Presenter struct {
	tag     language.Tag
	printer *message.Printer
}

// New creates a presenter formatting numbers for tag.
func New(tag language.Tag) *Presenter {
	return &Presenter{tag: tag, printer: message.NewPrinter(tag)}
}

// Build renders outcome for the vector it was computed from. Adjustments made
// by the collector are passed through for display.
func (p *Presenter) Build(out quality.Outcome, v features.Vector, adjustments []features.Adjustment) Report {
	r := Report{ID: out.ID, Lang: p.tag.String()}
	pred, ok := out.Prediction()
	if !ok {
		r.Status = StatusError
		r.Error = ErrorPrefix + out.Failure().Error()
		return r
	}

	r.Status = StatusOK
	r.Label = pred.Label.String()
	r.Probabilities = &Probabilities{NotGood: pred.PNotGood, Good: pred.PGood}
	r.Confidence = pred.Confidence()
	r.Headline = p.headline(pred)
	r.Metrics = p.metrics(v)
	r.Chart = p.chart(pred)
	r.Guidance = p.guidance(v)
	r.Adjustments = adjustments
	return r
}

// Percent formats a probability as a percentage with one decimal.
func (p *Presenter) Percent(prob float64) string {
	return p.printer.Sprintf("%.1f%%", prob*100)
}

func (p *Presenter) headline(pred quality.Prediction) *Headline {
	conf := p.Percent(pred.Confidence())
	if pred.Label == quality.Good {
		return &Headline{
			Kind:    Affirmative,
			Title:   "Excellent Quality Wine!",
			Message: p.printer.Sprintf("Our analysis indicates this is a high quality wine with %s confidence.", conf),
			Detail:  "This wine meets all the key chemical markers for excellent taste and aging potential.",
		}
	}
	return &Headline{
		Kind:    Cautionary,
		Title:   "Needs Improvement",
		Message: p.printer.Sprintf("Our analysis suggests this wine is below quality standards with %s confidence.", conf),
		Detail:  "Consider adjusting the chemical balance for better results.",
	}
}

func (p *Presenter) metrics(v features.Vector) []Metric {
	return []Metric{
		{
			Key:   "alcohol_balance",
			Label: "Alcohol Balance",
			Raw:   v.Alcohol,
			Value: p.printer.Sprintf("%.1f%% vol", v.Alcohol),
			Hint:  "Ideal range: 11-13% for reds, 9-12% for whites",
		},
		{
			Key:   "acidity_level",
			Label: "Acidity Level",
			Raw:   v.PH,
			Value: p.printer.Sprintf("%.2f pH", v.PH),
			Hint:  "Ideal range: 3.0-3.4 for balanced taste",
		},
		{
			Key:   "sulfur_balance",
			Label: "Sulfur Balance",
			Raw:   v.TotalSulfurDioxide,
			Value: p.printer.Sprintf("%.0f mg/dm³", v.TotalSulfurDioxide),
			Hint:  "Ideal range: 30-100 mg/dm³",
		},
	}
}

func (p *Presenter) chart(pred quality.Prediction) []Bar {
	return []Bar{
		{Category: "Not Good", Probability: pred.PNotGood, Percent: p.Percent(pred.PNotGood), Color: ColorNotGood},
		{Category: "Good", Probability: pred.PGood, Percent: p.Percent(pred.PGood), Color: ColorGood},
	}
}

func (p *Presenter) guidance(v features.Vector) []string {
	return []string{
		p.printer.Sprintf("Volatile Acidity: Should be < 0.6 g/dm³ (yours: %.2f)", v.VolatileAcidity),
		p.printer.Sprintf("Sulphates: Ideal range 0.5-0.8 g/dm³ (yours: %.2f)", v.Sulphates),
		p.printer.Sprintf("Alcohol: Higher levels often correlate with quality (yours: %.1f%%)", v.Alcohol),
	}
}
