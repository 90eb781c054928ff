package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/okian/winequality/internal/domain/features"
	"github.com/spf13/cobra"
)

func newFieldsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the eleven input fields with their bounds and defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(fieldViews(features.Specs()))
			}
			fmt.Fprint(cmd.OutOrStdout(), fieldTable(features.Specs()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the fields as JSON")
	return cmd
}

type fieldView struct {
	Name    string  `json:"name"`
	Column  string  `json:"column"`
	Label   string  `json:"label"`
	Unit    string  `json:"unit,omitempty"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

func fieldViews(specs []features.Spec) []fieldView {
	out := make([]fieldView, len(specs))
	for i, s := range specs {
		out[i] = fieldView{Name: s.Name, Column: s.Column, Label: s.Label, Unit: s.Unit, Min: s.Min, Max: s.Max, Default: s.Default}
	}
	return out
}

var fieldColumns = []struct {
	title string
	width int
}{
	{"NAME", 22},
	{"LABEL", 26},
	{"MIN", 8},
	{"MAX", 8},
	{"DEFAULT", 9},
}

func fieldTable(specs []features.Spec) string {
	var b strings.Builder
	row := func(style lipgloss.Style, cells ...string) {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = style.Width(fieldColumns[i].width).Render(c)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
		b.WriteString("\n")
	}

	titles := make([]string, len(fieldColumns))
	for i, c := range fieldColumns {
		titles[i] = c.title
	}
	row(headerStyle, titles...)
	for _, s := range specs {
		row(lipgloss.NewStyle(), s.Name, s.DisplayLabel(),
			fmt.Sprintf("%g", s.Min), fmt.Sprintf("%g", s.Max), fmt.Sprintf("%g", s.Default))
	}
	return b.String()
}
