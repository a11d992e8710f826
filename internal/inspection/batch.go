package inspection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/inspector/internal/models"
)

// FileInspector inspects one local image file
type FileInspector interface {
	InspectFile(ctx context.Context, path string) models.InspectionResult
}

// Resolver maps an image reference (a path or URL) to a local path
type Resolver func(ctx context.Context, ref string) (string, error)

// Inspected is the outcome for one image reference
type Inspected struct {
	Ref      string
	Result   models.InspectionResult
	Duration time.Duration
}

// InspectAll inspects refs with at most concurrency calls in flight and
// returns outcomes in input order. A ref that cannot be resolved gets the
// failure sentinel. A nil resolve treats every ref as a local path.
func InspectAll(ctx context.Context, inspector FileInspector, resolve Resolver, refs []string, concurrency int) []Inspected {
	if concurrency < 1 {
		concurrency = 1
	}

	out := make([]Inspected, len(refs))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)
	for i, ref := range refs {
		wg.Add(1)
		go func(idx int, ref string) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Inspecting image", "ref", ref, "progress", fmt.Sprintf("%d/%d", idx+1, len(refs)))

			start := time.Now()
			out[idx] = Inspected{Ref: ref, Result: inspectRef(ctx, inspector, resolve, ref)}
			out[idx].Duration = time.Since(start)
		}(i, ref)
	}
	wg.Wait()

	return out
}

func inspectRef(ctx context.Context, inspector FileInspector, resolve Resolver, ref string) models.InspectionResult {
	path := ref
	if resolve != nil {
		var err error
		if path, err = resolve(ctx, ref); err != nil {
			slog.Error("Unable to resolve image", "ref", ref, "err", err)
			return models.FailedInspection(err)
		}
	}
	return inspector.InspectFile(ctx, path)
}
