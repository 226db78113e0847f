// Package emitter implements area-light emission and next-event-estimation
// sampling over a mesh's surface.
package emitter

import (
	"math"

	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/mesh"
)

// HitRecord is the emitter query used when a traced ray directly strikes
// an emitter mesh: the hit point, its surface normal, and the direction
// back toward the ray's origin.
type HitRecord struct {
	P  core.Vec3
	N  core.Vec3
	Wi core.Vec3
}

// SampleRecord is the emitter query used for next-event estimation: Ref and
// RefN are supplied by the caller; P, N, Wi, PDF and ShadowRay are filled by
// Sample.
type SampleRecord struct {
	Ref  core.Vec3
	RefN core.Vec3

	P         core.Vec3
	N         core.Vec3
	Wi        core.Vec3
	PDF       float64
	ShadowRay core.Ray
}

// AreaLight is a mesh-backed emitter with constant outgoing radiance on the
// side its surface normal points toward. It holds a pointer to the owning
// mesh, set by SetShape, which it samples points from: the mesh owns the
// emitter and is guaranteed to outlive it.
type AreaLight struct {
	Radiance core.Vec3
	shape    *mesh.Mesh
}

// NewAreaLight constructs an area light with the given outgoing radiance.
// SetShape must be called (by the owning mesh, on activation) before
// Sample or Power can be used.
func NewAreaLight(radiance core.Vec3) *AreaLight {
	return &AreaLight{Radiance: radiance}
}

// SetShape binds the emitter to its owning mesh. Called once, by the mesh,
// during activation.
func (a *AreaLight) SetShape(shape *mesh.Mesh) { a.shape = shape }

// Area returns the surface area of the emitter's backing shape, used by
// integrators to convert a hit-mode intersection into an area-measure PDF
// for multiple importance sampling against a next-event-estimation sample
// of the same light.
func (a *AreaLight) Area() float64 {
	if a.shape == nil {
		return 0
	}
	return a.shape.Area()
}

// Power returns a proxy for the light's total emitted power (radiance *
// area * pi, the exact power of a diffuse area emitter), used by the scene
// to build a power-weighted light selection distribution.
func (a *AreaLight) Power() float64 {
	if a.shape == nil {
		return 0
	}
	return a.Radiance.Luminance() * a.shape.Area() * math.Pi
}

// Eval evaluates emitted radiance for a ray that directly hit the emitter:
// nonzero only when the hit point's front face (N) points back toward the
// ray origin.
func (a *AreaLight) Eval(rec HitRecord) core.Vec3 {
	if rec.N.Dot(rec.Wi) > 0 {
		return a.Radiance
	}
	return core.Vec3{}
}

// evalSampled evaluates emitted radiance for a sampled direction: nonzero
// only when the sampled point's normal faces back toward the reference
// point (the mirror of the hit-mode check, expressed in terms of the
// outgoing direction wo = -Wi as seen from the light).
func (a *AreaLight) evalSampled(rec SampleRecord) core.Vec3 {
	if rec.N.Dot(rec.Wi.Negate()) > 0 {
		return a.Radiance
	}
	return core.Vec3{}
}

// Sample draws a point on the emitter's surface proportional to area, and
// computes the solid-angle PDF, geometry term, and shadow ray needed for
// next-event estimation from the given reference point. Returns the zero
// value and ok=false when the geometry term is non-positive (the sampled
// point faces away from the reference point, or vice versa) or the emitter
// has no surface area to sample.
func (a *AreaLight) Sample(ref, refN core.Vec3, u core.Vec2, triSample float64) (SampleRecord, bool) {
	rec := SampleRecord{Ref: ref, RefN: refN}
	if a.shape == nil {
		return rec, false
	}

	p, n, areaPDF, ok := a.shape.SamplePoint(u, triSample)
	if !ok {
		return rec, false
	}
	rec.P, rec.N = p, n

	omega := p.Subtract(ref)
	r2 := omega.LengthSquared()
	if r2 <= 0 {
		return rec, false
	}
	r := math.Sqrt(r2)
	wi := omega.Multiply(1 / r)
	rec.Wi = wi

	cosLight := math.Max(0, -wi.Dot(n))
	cosRef := math.Max(0, wi.Dot(refN))
	g := cosLight * cosRef / r2
	if g <= 0 {
		return rec, false
	}

	rec.PDF = areaPDF * r2 / cosLight
	rec.ShadowRay = core.NewRayRange(ref, wi, core.Epsilon, r-core.Epsilon)

	return rec, true
}

// PDF returns the solid-angle PDF stored by a prior call to Sample.
func (a *AreaLight) PDF(rec SampleRecord) float64 {
	return rec.PDF
}

// EvalNextEventEstimate returns the light-side Monte Carlo contribution of
// a successful Sample call, L_e * cosRef / rec.PDF. Because rec.PDF is the
// solid-angle pdf areaPDF * r^2 / cosLight, this equals L_e * G / areaPDF
// with G = cosLight * cosRef / r^2. It is zero when the sampled point faces
// away from the reference point or rec.PDF is not positive.
func (a *AreaLight) EvalNextEventEstimate(rec SampleRecord) core.Vec3 {
	if rec.PDF <= 0 {
		return core.Vec3{}
	}
	radiance := a.evalSampled(rec)
	if radiance.IsZero() {
		return core.Vec3{}
	}
	cosRef := math.Max(0, rec.Wi.Dot(rec.RefN))
	return radiance.Multiply(cosRef / rec.PDF)
}
