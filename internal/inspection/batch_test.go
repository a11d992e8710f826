package inspection

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/inspector/internal/models"
)

type countingInspector struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *countingInspector) InspectFile(ctx context.Context, path string) models.InspectionResult {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return models.InspectionResult{Object: filepath.Base(path), Defective: "no", Explanation: "ok"}
}

func TestInspectAll(t *testing.T) {
	refs := []string{"/a.png", "/b.png", "/c.png", "/d.png", "/e.png"}
	inspector := &countingInspector{}

	out := InspectAll(context.Background(), inspector, nil, refs, 2)

	require.Len(t, out, len(refs))
	for i, in := range out {
		require.Equal(t, refs[i], in.Ref)
		require.Equal(t, filepath.Base(refs[i]), in.Result.Object)
		require.Positive(t, in.Duration)
	}
	require.LessOrEqual(t, inspector.peak.Load(), int32(2))
}

func TestInspectAllResolveFailure(t *testing.T) {
	resolve := func(ctx context.Context, ref string) (string, error) {
		if ref == "bad" {
			return "", errors.New("image URL returned status 500")
		}
		return "/resolved/" + ref, nil
	}

	out := InspectAll(context.Background(), &countingInspector{}, resolve, []string{"good.png", "bad"}, 0)

	require.Equal(t, "good.png", out[0].Result.Object)
	require.Equal(t, models.FailedInspection(errors.New("image URL returned status 500")), out[1].Result)
}
