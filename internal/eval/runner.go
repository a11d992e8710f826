package eval

import (
	"context"

	"github.com/lehigh-university-libraries/inspector/internal/inspection"
)

// Run inspects every sample and returns outcomes in dataset order
func Run(ctx context.Context, inspector inspection.FileInspector, resolve inspection.Resolver, samples []Sample, concurrency int) []Outcome {
	refs := make([]string, len(samples))
	for i, s := range samples {
		refs[i] = s.Image
	}

	inspected := inspection.InspectAll(ctx, inspector, resolve, refs, concurrency)

	outcomes := make([]Outcome, len(samples))
	for i, in := range inspected {
		outcomes[i] = Outcome{
			Sample:         samples[i],
			Result:         in.Result,
			ProcessingTime: in.Duration,
		}
	}
	return outcomes
}
