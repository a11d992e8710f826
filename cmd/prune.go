package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/inspector/internal/config"
	"github.com/lehigh-university-libraries/inspector/internal/storage"
	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	var (
		olderThan  time.Duration
		uploadsDir string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove stored uploads older than a given age",
		Example: `  # Remove uploads and thumbnails older than 30 days
  inspector prune --older-than 720h

  # See what would be removed
  inspector prune --older-than 24h --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			if uploadsDir == "" {
				uploadsDir = config.Load().UploadsDir
			}

			cutoff := time.Now().Add(-olderThan)
			removed, err := storage.NewUploads(uploadsDir).Prune(cutoff, dryRun)
			if err != nil {
				return err
			}

			for _, name := range removed {
				slog.Debug("Pruned upload", "name", name, "dry_run", dryRun)
			}

			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d file(s) from %s\n", verb, len(removed), uploadsDir)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove files last modified before this age")
	cmd.Flags().StringVar(&uploadsDir, "uploads", "", "Uploads directory (default $UPLOADS_DIR or ./uploads)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be removed without deleting")

	return cmd
}
