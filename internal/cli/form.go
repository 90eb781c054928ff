package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/okian/winequality/internal/domain/features"
)

const basicGroup = "basic"

// sampleForm holds the text entries backing the huh inputs.
type sampleForm struct {
	raw [features.Count]string
}

// newSampleForm builds the two-panel form prefilled from values, falling
// back to each field's default.
func newSampleForm(values features.Values) (*huh.Form, *sampleForm) {
	sf := &sampleForm{}
	var basic, advanced []huh.Field
	for _, s := range features.Specs() {
		v, ok := values[s.Field]
		if !ok {
			v = s.Default
		}
		sf.raw[s.Field] = strconv.FormatFloat(v, 'f', -1, 64)

		input := huh.NewInput().
			Title(s.DisplayLabel()).
			Description(fmt.Sprintf("%s (%g to %g)", s.Help, s.Min, s.Max)).
			Value(&sf.raw[s.Field]).
			Validate(func(in string) error {
				_, err := parseEntry(s, in)
				return err
			})
		if s.Group == basicGroup {
			basic = append(basic, input)
		} else {
			advanced = append(advanced, input)
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Enter Wine Characteristics").
				Description("Adjust the chemical properties of the wine.\nPress Enter to keep a value.").
				Next(true).
				NextLabel("Continue"),
		),
		huh.NewGroup(basic...).Title("Basic Properties"),
		huh.NewGroup(advanced...).Title("Advanced Properties"),
	)
	return form, sf
}

// values parses every entry. The form validates as the user types, so an
// error here means the form was bypassed.
func (sf *sampleForm) values() (features.Values, error) {
	out := make(features.Values, features.Count)
	for _, s := range features.Specs() {
		v, err := parseEntry(s, sf.raw[s.Field])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInput, err)
		}
		out[s.Field] = v
	}
	return out, nil
}

// parseEntry reads one form entry and keeps it within the field bounds, as
// the dashboard's number inputs do.
func parseEntry(s features.Spec, in string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(in), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: not a number", s.Label)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: %w", s.Label, features.ErrNotFinite)
	}
	if !s.Contains(v) {
		return 0, fmt.Errorf("%s: must be between %g and %g", s.Label, s.Min, s.Max)
	}
	return v, nil
}

func runForm(ctx context.Context, values features.Values) (features.Values, error) {
	form, sf := newSampleForm(values)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, ErrCancelled
		}
		return nil, err
	}
	return sf.values()
}
