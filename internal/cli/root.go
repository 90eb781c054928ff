// Package cli implements the wine-cli commands: local analysis of a sample,
// the field table, the ML-BOM of a model artifact and the service probe.
package cli

import (
	"github.com/okian/winequality/pkg/logger"
	"github.com/spf13/cobra"
)

const longDescription = "Classify wine samples as good or not good from eleven chemical measurements, " +
	"inspect the model artifact and smoke-test a running classifier service."

// NewRootCmd builds the command tree. version is shown by --version.
func NewRootCmd(version string) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "wine-cli",
		Short:         "Wine quality classifier",
		Long:          longDescription,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newAnalyzeCmd(),
		newFieldsCmd(),
		newBOMCmd(),
		newProbeCmd(),
	)
	return root
}
