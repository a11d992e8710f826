package cmd

import (
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/inspector/internal/config"
	"github.com/lehigh-university-libraries/inspector/internal/eval"
	"github.com/lehigh-university-libraries/inspector/internal/inspection"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	var (
		provider    string
		model       string
		outputDir   string
		limit       int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "eval <dataset>",
		Short: "Score the vision model against labeled images",
		Long: `Runs every image of a labeled dataset through the inspection pipeline and
reports how often the model's defective verdict matches the label.

The dataset is a JSONL or Parquet file of records with "image" (path or URL),
"defective" ("yes" or "no"), and an optional expected "object".

Results are saved as YAML in the output directory.`,
		Example: `  # Evaluate the default provider
  inspector eval samples/labels.jsonl

  # Compare an Ollama model on the first 50 samples
  inspector eval --provider ollama --model llava --limit 50 samples/labels.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasetPath := args[0]

			samples, err := eval.LoadDataset(datasetPath)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}
			if limit > 0 && limit < len(samples) {
				samples = samples[:limit]
			}
			if len(samples) == 0 {
				return fmt.Errorf("dataset %s has no samples", datasetPath)
			}

			cfg := config.Load().WithProvider(provider, model)
			svc, closeProvider, err := inspection.NewServiceFromConfig(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeProvider(); err != nil {
					slog.Error("Unable to close provider", "err", err)
				}
			}()

			resolve, cleanup, err := newResolver(cfg.Timeout)
			if err != nil {
				return err
			}
			defer cleanup()

			slog.Info("Starting evaluation run", "dataset", datasetPath, "samples", len(samples), "provider", svc.Provider(), "model", svc.Model())

			outcomes := eval.Run(cmd.Context(), svc, resolve, samples, concurrency)
			summary := eval.Summarize(svc.Provider(), svc.Model(), outcomes)

			path, err := eval.SaveToYAML(outputDir, eval.NewResults(datasetPath, summary, outcomes))
			if err != nil {
				return err
			}
			slog.Info("Evaluation results saved", "path", path)

			return summary.Write(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Vision provider: openai, ollama, gemini (default $INSPECTION_PROVIDER or openai)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default depends on provider)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "evals", "Directory for evaluation result files")
	cmd.Flags().IntVar(&limit, "limit", 0, "Evaluate only the first N samples (0 for all)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "Number of images inspected in parallel")

	return cmd
}
