package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lehigh-university-libraries/inspector/internal/images"
	"github.com/lehigh-university-libraries/inspector/internal/inspection"
)

// newResolver returns a resolver that downloads http(s) refs into a
// temporary directory and passes local paths through. cleanup removes the
// downloads.
func newResolver(timeout time.Duration) (inspection.Resolver, func(), error) {
	dir, err := os.MkdirTemp("", "inspector-")
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to create download directory: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("Unable to remove download directory", "dir", dir, "err", err)
		}
	}

	fetcher := images.NewFetcher(timeout)
	resolve := func(ctx context.Context, ref string) (string, error) {
		if !images.IsURL(ref) {
			return ref, nil
		}
		return fetcher.Fetch(ctx, ref, dir)
	}

	return resolve, cleanup, nil
}
