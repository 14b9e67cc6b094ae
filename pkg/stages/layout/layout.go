// Package layout implements the crop calculation stage.
package layout

import (
	"context"
	"math"

	"github.com/user/wikipreview/pkg/pipeline"
)

// Stage calculates which region of a capture becomes the preview.
// This is a pure function with no external dependencies.
type Stage struct{}

// NewStage creates a new layout stage.
func NewStage() *Stage {
	return &Stage{}
}

// Execute calculates the crop rectangle for the input.
func (s *Stage) Execute(ctx context.Context, input pipeline.LayoutInput) (pipeline.LayoutResult, error) {
	return ComputeCrop(input), nil
}

// ComputeCrop returns the largest region of the source with the target's
// aspect ratio. Sources wider than the target are centered horizontally;
// taller sources are positioned vertically by TopBias.
//
// This is exposed as a standalone function for testing and reuse.
func ComputeCrop(input pipeline.LayoutInput) pipeline.LayoutResult {
	sw, sh := input.Source.Width, input.Source.Height
	tw, th := input.Target.Width, input.Target.Height
	if sw <= 0 || sh <= 0 || tw <= 0 || th <= 0 {
		return pipeline.LayoutResult{}
	}

	bias := math.Max(0, math.Min(1, input.TopBias))
	aspect := float64(tw) / float64(th)

	crop := pipeline.Rectangle{Width: sw, Height: sh}
	if float64(sw)/float64(sh) > aspect {
		// Source is wider: full height, centered horizontally
		crop.Width = clamp(int(math.Round(float64(sh)*aspect)), 1, sw)
		crop.X = (sw - crop.Width) / 2
	} else {
		// Source is taller: full width, vertical position from bias
		crop.Height = clamp(int(math.Round(float64(sw)/aspect)), 1, sh)
		crop.Y = int(math.Round(float64(sh-crop.Height) * bias))
	}

	return pipeline.LayoutResult{
		Crop:  crop,
		Scale: float64(tw) / float64(crop.Width),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
