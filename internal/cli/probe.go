package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/okian/winequality/internal/probe"
	"github.com/spf13/cobra"
)

const (
	defaultProbeURL     = "http://localhost:8501"
	defaultProbeSamples = 100
	defaultProbeWorkers = 4
)

func newProbeCmd() *cobra.Command {
	cfg := &probe.Config{}
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Smoke-test a running classifier service",
		Long: "Post the default, minimum, maximum and random in-range samples to a running " +
			"service and check every report for consistency.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := probe.Run(cmd.Context(), cfg)
			if stats != nil {
				printProbeStats(cmd.OutOrStdout(), stats)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", defaultProbeURL, "Base URL of the service")
	f.IntVarP(&cfg.Samples, "samples", "n", defaultProbeSamples, "Random samples on top of the boundary ones")
	f.IntVarP(&cfg.Workers, "workers", "w", defaultProbeWorkers, "Concurrent workers")
	f.DurationVar(&cfg.Timeout, "timeout", probe.DefaultTimeout, "Per-request timeout")
	f.StringVar(&cfg.Lang, "lang", "", "Locale sent with every request")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log each violation as it is found")
	return cmd
}

func printProbeStats(w io.Writer, s *probe.Stats) {
	fmt.Fprintln(w, headerStyle.Render("Probe results"))
	fmt.Fprintf(w, "  submitted  %d of %d in %s\n", s.Submitted, s.Generated, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  good       %d\n", s.Good)
	fmt.Fprintf(w, "  not good   %d\n", s.NotGood)
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  failed     %d", s.Failed)))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  refused    %d", s.Refused)))
	if len(s.Violations) == 0 {
		fmt.Fprintln(w, goodStyle.Render("✓ no violations"))
		return
	}
	fmt.Fprintln(w, badStyle.Render(fmt.Sprintf("✗ %d violations", len(s.Violations))))
	for _, v := range s.Violations {
		fmt.Fprintf(w, "  %s: %s\n", v.Sample, v.Reason)
	}
}
