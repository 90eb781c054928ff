package cli

import (
	"encoding/json"
	"fmt"
	"os"

	service "github.com/okian/winequality/internal/app"
	"github.com/okian/winequality/internal/config"
	"github.com/okian/winequality/internal/domain/features"
	"github.com/okian/winequality/internal/presenter"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
)

const defaultWidth = 64

type analyzeOptions struct {
	file        string
	interactive bool
	model       string
	format      string
	outOfRange  string
	lang        string
	asJSON      bool
	width       int
	fields      [features.Count]float64
}

func newAnalyzeCmd() *cobra.Command {
	o := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify one wine sample",
		Long: "Classify one wine sample with a local model artifact. Values come from the field flags, " +
			"a YAML file or an interactive form; missing fields take their defaults.",
		Example: "  wine-cli analyze --alcohol 12.8 --pH 3.2\n" +
			"  wine-cli analyze --file sample.yaml --json\n" +
			"  wine-cli analyze --interactive --lang de",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.file, "file", "f", "", "YAML file mapping field names to values")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "Enter values in an interactive form")
	f.StringVarP(&o.model, "model", "m", "", "Model artifact path (default from WINE_MODEL_PATH)")
	f.StringVar(&o.format, "format", "", "Model format: auto, xgboost or onnx")
	f.StringVar(&o.outOfRange, "out-of-range", "", "Out-of-range policy: clamp or reject")
	f.StringVar(&o.lang, "lang", "", "Locale for numbers, e.g. en or de")
	f.BoolVar(&o.asJSON, "json", false, "Print the report as JSON")
	f.IntVar(&o.width, "width", defaultWidth, "Terminal width of the rendered report")
	for _, s := range features.Specs() {
		f.Float64Var(&o.fields[s.Field], s.Name, s.Default, fmt.Sprintf("%s, %g to %g", s.DisplayLabel(), s.Min, s.Max))
	}
	return cmd
}

func (o *analyzeOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	values, err := o.values(cmd)
	if err != nil {
		return err
	}
	if o.interactive {
		if values, err = runForm(ctx, values); err != nil {
			return err
		}
	}

	cfg, err := o.config(cmd)
	if err != nil {
		return err
	}
	tag, err := language.Parse(cfg.DefaultLang)
	if err != nil {
		return fmt.Errorf("%w: lang %q: %w", ErrInput, cfg.DefaultLang, err)
	}

	svc, err := service.FromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	v, adjustments, err := svc.Collect(ctx, values)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInput, err)
	}
	report := presenter.New(tag).Build(svc.Analyze(ctx, v), v, adjustments)

	out := cmd.OutOrStdout()
	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, presenter.Terminal(report, o.width))
	}
	if !report.OK() {
		return ErrAnalysisFailed
	}
	return nil
}

// values merges the sample file with explicitly set field flags; flags win.
func (o *analyzeOptions) values(cmd *cobra.Command) (features.Values, error) {
	values := make(features.Values, features.Count)
	if o.file != "" {
		fromFile, err := readSampleFile(o.file)
		if err != nil {
			return nil, err
		}
		for f, v := range fromFile {
			values[f] = v
		}
	}
	for _, s := range features.Specs() {
		if cmd.Flags().Changed(s.Name) {
			values[s.Field] = o.fields[s.Field]
		}
	}
	return values, nil
}

// config layers the command flags over the WINE_ environment.
func (o *analyzeOptions) config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	if o.model != "" {
		cfg.ModelPath = o.model
	}
	if o.format != "" {
		cfg.ModelFormat = o.format
	}
	if o.outOfRange != "" {
		cfg.OutOfRange = o.outOfRange
	}
	if o.lang != "" {
		cfg.DefaultLang = o.lang
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readSampleFile decodes a flat YAML mapping such as
//
//	alcohol: 12.8
//	pH: 3.2
func readSampleFile(path string) (features.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInput, path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s: no fields", ErrInput, path)
	}
	values, err := features.ValuesFromAny(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInput, path, err)
	}
	return values, nil
}
