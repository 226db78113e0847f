// Package camera maps image-plane samples to world-space rays.
package camera

import (
	"math"

	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/warp"
)

// Transform is a rigid-body placement in world space: a translation plus an
// orthonormal rotation, used in place of a general 4x4 matrix since the
// camera never needs scale or shear.
type Transform struct {
	Origin core.Vec3
	Basis  core.Frame
}

// Filter is a pixel reconstruction filter: it maps a uniform [0,1)^2
// sampler draw to an offset (in pixels) from the pixel center.
type Filter int

const (
	// Box is the trivial filter: samples are uniform within the pixel.
	Box Filter = iota
	// Tent weights samples toward the pixel center following a triangular
	// density, reducing aliasing more than a box filter at the same sample
	// count.
	Tent
)

// Camera is a perspective projection from normalized image coordinates to
// world-space rays.
type Camera struct {
	ToWorld    Transform
	Fov        float64 // vertical field of view, in degrees
	NearClip   float64
	FarClip    float64
	OutputW    int
	OutputH    int
	RFilter    Filter
	FilterSize float64 // filter support radius in pixels, default 0.5
}

// NewCamera constructs a perspective camera with FilterSize set to 0.5
// pixels (the box filter's natural support).
func NewCamera(toWorld Transform, fov float64, nearClip, farClip float64, width, height int, rfilter Filter) *Camera {
	c := &Camera{
		ToWorld:    toWorld,
		Fov:        fov,
		NearClip:   nearClip,
		FarClip:    farClip,
		OutputW:    width,
		OutputH:    height,
		RFilter:    rfilter,
		FilterSize: 0.5,
	}
	return c
}

// SampleFilterOffset maps a uniform [0,1)^2 sample to a sub-pixel offset in
// [-FilterSize, FilterSize]^2, per the configured reconstruction filter.
func (c *Camera) SampleFilterOffset(sample core.Vec2) core.Vec2 {
	switch c.RFilter {
	case Tent:
		t := warp.SquareToTent(sample)
		return core.Vec2{X: t.X * c.FilterSize, Y: t.Y * c.FilterSize}
	default:
		return core.Vec2{X: (sample.X - 0.5) * 2 * c.FilterSize, Y: (sample.Y - 0.5) * 2 * c.FilterSize}
	}
}

// GenerateRay maps a pixel coordinate (pixelX, pixelY, both float64 so a
// filter offset can be added) to a world-space ray through that point on
// the image plane, using a standard perspective projection with the
// camera's vertical field of view.
func (c *Camera) GenerateRay(pixelX, pixelY float64) core.Ray {
	aspect := float64(c.OutputW) / float64(c.OutputH)
	tanHalfFov := math.Tan(c.Fov * math.Pi / 360)

	// Normalized device coordinates in [-1, 1], y flipped so increasing
	// pixelY (downward in image space) maps to decreasing world-space y.
	ndcX := (2*(pixelX+0.5)/float64(c.OutputW) - 1) * aspect * tanHalfFov
	ndcY := (1 - 2*(pixelY+0.5)/float64(c.OutputH)) * tanHalfFov

	localDir := core.NewVec3(ndcX, ndcY, 1).Normalize()
	worldDir := c.ToWorld.Basis.ToWorld(localDir)

	return core.NewRayRange(c.ToWorld.Origin, worldDir, c.NearClip, c.FarClip)
}
