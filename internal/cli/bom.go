package cli

import (
	"fmt"
	"os"

	"github.com/okian/winequality/internal/bom"
	"github.com/okian/winequality/internal/classifier"
	"github.com/okian/winequality/internal/config"
	"github.com/spf13/cobra"
)

func newBOMCmd() *cobra.Command {
	var model, format, output string
	cmd := &cobra.Command{
		Use:   "bom",
		Short: "Write a CycloneDX ML-BOM for a model artifact",
		Example: "  wine-cli bom --model model/wine_quality_model.json\n" +
			"  wine-cli bom -m model.onnx -o model.cdx.json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			if model != "" {
				cfg.ModelPath = model
			}
			if format != "" {
				cfg.ModelFormat = format
			}
			f, err := classifier.ParseFormat(cfg.ModelFormat)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInput, err)
			}

			c, err := classifier.Load(ctx, classifier.Options{
				Path:   cfg.ModelPath,
				Format: f,
				ONNX: classifier.ONNXOptions{
					LibraryPath: cfg.ONNXLibraryPath,
					Input:       cfg.ONNXInput,
					LabelOutput: cfg.ONNXLabelOutput,
					ProbaOutput: cfg.ONNXProbaOutput,
				},
			})
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			doc, err := bom.Build(c.Info(), bom.WithToolVersion(cmd.Root().Version))
			if err != nil {
				return err
			}

			if output == "" {
				return bom.Encode(cmd.OutOrStdout(), doc)
			}
			file, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := bom.Encode(file, doc); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), goodStyle.Render("✓")+" wrote "+output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model artifact path (default from WINE_MODEL_PATH)")
	cmd.Flags().StringVar(&format, "format", "", "Model format: auto, xgboost or onnx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
