package cmd

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/inspector/internal/config"
	"github.com/lehigh-university-libraries/inspector/internal/images"
	"github.com/lehigh-university-libraries/inspector/internal/inspection"
	"github.com/lehigh-university-libraries/inspector/internal/models"
	"github.com/lehigh-university-libraries/inspector/internal/report"
	"github.com/spf13/cobra"
)

type fileInspector interface {
	InspectFile(ctx context.Context, path string) models.InspectionResult
	Provider() string
	Model() string
}

func newInspectCmd() *cobra.Command {
	var (
		provider    string
		model       string
		format      string
		output      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "inspect <image|url>...",
		Short: "Inspect local or remote images",
		Long: `Runs each image through the configured vision model and prints a report.

Images that cannot be read or analyzed are reported with defective "error"
rather than stopping the run.`,
		Example: `  # Inspect two images with the default provider
  inspector inspect widget.jpg gear.png

  # Inspect a remote image
  inspector inspect https://example.com/photos/widget.jpg

  # Use Gemini and export the results to parquet
  inspector inspect --provider gemini --output results.parquet images/*.jpg

  # Print YAML
  inspector inspect --format yaml widget.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			rep := runInspect(cmd.Context(), svc, resolve, args, concurrency)

			if output != "" {
				if err := report.Save(output, rep); err != nil {
					return err
				}
				slog.Info("Report written", "path", output)
			}

			return report.Write(cmd.OutOrStdout(), format, rep)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Vision provider: openai, ollama, gemini (default $INSPECTION_PROVIDER or openai)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default depends on provider)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, yaml, csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write results to a file (.parquet, .json, .yaml, .csv, .txt)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "Number of images inspected in parallel")

	return cmd
}

// runInspect inspects every ref and returns the results in argument order
func runInspect(ctx context.Context, inspector fileInspector, resolve inspection.Resolver, refs []string, concurrency int) *report.Report {
	runID := uuid.New().String()
	logger := slog.With("run_id", runID)
	logger.Info("Starting inspection run",
		"images", len(refs),
		"provider", inspector.Provider(),
		"model", inspector.Model(),
		"concurrency", concurrency)

	rep := &report.Report{
		Provider:  inspector.Provider(),
		Model:     inspector.Model(),
		Timestamp: time.Now().Format("2006-01-02_15-04-05"),
	}
	for _, in := range inspection.InspectAll(ctx, inspector, resolve, refs, concurrency) {
		name := in.Ref
		if !images.IsURL(name) {
			name = filepath.Base(name)
		}
		rep.Add(name, in.Result)
	}

	defective, sound, failed := rep.Counts()
	logger.Info("Inspection run complete", "defective", defective, "sound", sound, "failed", failed)

	return rep
}
