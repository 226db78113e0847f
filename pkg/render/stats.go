package render

import "github.com/pathtrace/nori-go/pkg/core"

// RenderStats summarizes a completed render.
type RenderStats struct {
	TotalPixels  int
	TotalSamples int
	Elapsed      float64 // seconds
}

// PixelStats accumulates the running mean color for a single pixel across
// however many samples it receives.
type PixelStats struct {
	ColorAccum  core.Vec3
	SampleCount int
}

// AddSample folds in one more radiance estimate for this pixel.
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	ps.SampleCount++
}

// Mean returns the pixel's running average color, or black if no samples
// have been taken yet.
func (ps *PixelStats) Mean() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Multiply(1 / float64(ps.SampleCount))
}
