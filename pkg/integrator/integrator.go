// Package integrator implements the Monte Carlo light transport algorithms
// that turn a traced ray into a radiance estimate: ambient occlusion, a
// single-bounce direct lighting integrator, Whitted-style recursive
// specular tracing, and three flavors of unidirectional path tracing
// (material sampling, emitter sampling, and multiple importance sampling
// between the two).
package integrator

import (
	"math"

	"github.com/pathtrace/nori-go/pkg/bsdf"
	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/emitter"
	"github.com/pathtrace/nori-go/pkg/mesh"
	"github.com/pathtrace/nori-go/pkg/sampler"
	"github.com/pathtrace/nori-go/pkg/scene"
	"github.com/pathtrace/nori-go/pkg/warp"
)

// sampleCosineHemisphereLocal draws a local-frame direction above the
// hemisphere (+Z) with density proportional to cosine, used by the AO
// integrator which has no BSDF to importance sample against.
func sampleCosineHemisphereLocal(rng sampler.Sampler) core.Vec3 {
	return warp.SquareToCosineHemisphere(rng.Get2D())
}

// Integrator computes the radiance arriving along a ray from a built scene.
// Implementations must be safe to call concurrently with independent
// samplers (each render worker owns its own sampler.Sampler).
type Integrator interface {
	Li(ray core.Ray, sc *scene.Scene, rng sampler.Sampler) core.Vec3
}

// rrStartDepth is the bounce count after which Russian roulette starts
// probabilistically terminating paths, letting the first few bounces
// through for free.
const rrStartDepth = 3

// maxDepth caps path length regardless of Russian roulette, as a backstop
// against pathological scenes (e.g. a mirror box) that would otherwise
// survive roulette indefinitely.
const maxDepth = 100

// russianRoulette decides whether a path with the given throughput and
// accumulated relative index-of-refraction should continue, returning the
// (possibly rescaled) throughput and whether to continue. eta is the
// running product of IOR ratios crossed by refraction, so a path that has
// passed through a dense medium isn't unduly terminated despite a bright
// throughput: radiance is compressed by eta^2 inside a denser medium.
func russianRoulette(depth int, beta core.Vec3, eta float64, rng sampler.Sampler) (core.Vec3, bool) {
	if depth < rrStartDepth {
		return beta, true
	}
	q := math.Min(0.99, beta.MaxComponent()*eta*eta)
	if q <= 0 {
		return beta, false
	}
	if rng.Get1D() >= q {
		return beta, false
	}
	return beta.Multiply(1 / q), true
}

// emitterOf returns the concrete area light backing a mesh's Emitter field,
// or nil if the mesh isn't an emitter. pkg/mesh only knows about a minimal
// local Emitter interface to avoid an import cycle; integrators need the
// full emitter.AreaLight API to sample and evaluate it.
func emitterOf(m *mesh.Mesh) *emitter.AreaLight {
	if m == nil || m.Emitter == nil {
		return nil
	}
	al, _ := m.Emitter.(*emitter.AreaLight)
	return al
}

// fullBSDF widens a mesh's narrow local BSDF interface back to the full
// bsdf.BSDF interface, which every concrete implementation in pkg/bsdf
// satisfies structurally.
func fullBSDF(m *mesh.Mesh) (bsdf.BSDF, bool) {
	if m == nil || m.BSDF == nil {
		return nil, false
	}
	b, ok := m.BSDF.(bsdf.BSDF)
	return b, ok
}

// sampleDirectLight performs one next-event-estimation sample from the
// shading point (p, geometricN, shading), against a light chosen uniformly
// or power-weighted by the scene's light selection distribution. Returns
// zero if the scene has no lights, the light sample is degenerate, the
// BSDF has no response in that direction, or the shadow ray is occluded.
func sampleDirectLight(sc *scene.Scene, p, geometricN core.Vec3, shading core.Frame, b bsdf.BSDF, woWorld core.Vec3, rng sampler.Sampler) core.Vec3 {
	light, pLight, ok := sc.SampleLight(rng.Get1D())
	if !ok {
		return core.Vec3{}
	}
	al := emitterOf(light)
	if al == nil {
		return core.Vec3{}
	}
	rec, ok := al.Sample(p, geometricN, rng.Get2D(), rng.Get1D())
	if !ok {
		return core.Vec3{}
	}

	if _, occluded := sc.RayIntersect(rec.ShadowRay, true); occluded {
		return core.Vec3{}
	}

	wiLocal := shading.ToLocal(rec.Wi)
	woLocal := shading.ToLocal(woWorld)
	q := bsdf.NewQueryRecord(wiLocal)
	q.Wo = woLocal
	f := b.Eval(q)
	if f.IsZero() {
		return core.Vec3{}
	}

	le := al.EvalNextEventEstimate(rec)
	if le.IsZero() || pLight <= 0 {
		return core.Vec3{}
	}
	return f.MultiplyVec(le).Multiply(1 / pLight)
}

// directLightPDF returns the combined (light selection * solid angle) PDF
// that sampleDirectLight would have assigned to direction wiWorld landing
// on light at distance hitDist with surface normal lightN from point p. It
// mirrors emitter.AreaLight.Sample's own area-to-solid-angle conversion so
// the MIS path tracer can weight a BSDF-sampled hit on an emitter against
// the probability next-event estimation would have produced the same
// direction.
func directLightPDF(sc *scene.Scene, light *mesh.Mesh, wiWorld core.Vec3, hitDist float64, lightN core.Vec3) float64 {
	al := emitterOf(light)
	if al == nil || al.Area() <= 0 {
		return 0
	}
	pSelect := sc.LightSelectionPDF(light)
	if pSelect <= 0 {
		return 0
	}
	cosLight := math.Max(0, -wiWorld.Dot(lightN))
	if cosLight <= 0 {
		return 0
	}
	areaPDF := 1 / al.Area()
	solidAnglePDF := areaPDF * hitDist * hitDist / cosLight
	return pSelect * solidAnglePDF
}

// balanceHeuristic is the standard two-strategy MIS weight.
func balanceHeuristic(pdfA, pdfB float64) float64 {
	if pdfA+pdfB <= 0 {
		return 0
	}
	return pdfA / (pdfA + pdfB)
}

// powerHeuristic is Veach's beta=2 power heuristic, which has lower
// variance than the balance heuristic whenever one technique's pdf
// dominates the other's.
func powerHeuristic(pdfA, pdfB float64) float64 {
	if pdfA+pdfB <= 0 {
		return 0
	}
	a2 := pdfA * pdfA
	b2 := pdfB * pdfB
	return a2 / (a2 + b2)
}

// MISHeuristic selects which weighting function PathMIS combines
// techniques with.
type MISHeuristic int

const (
	Balance MISHeuristic = iota
	Power
)

func (h MISHeuristic) weight(pdfA, pdfB float64) float64 {
	if h == Power {
		return powerHeuristic(pdfA, pdfB)
	}
	return balanceHeuristic(pdfA, pdfB)
}
