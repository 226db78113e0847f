package integrator

import (
	"github.com/pathtrace/nori-go/pkg/bsdf"
	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/sampler"
	"github.com/pathtrace/nori-go/pkg/scene"
)

// Whitted recursively follows ideal specular bounces (mirrors, dielectrics)
// and resolves diffuse/glossy surfaces with a single next-event-estimation
// sample, the classic non-stochastic-diffuse recursive ray tracer. It
// cannot resolve indirect diffuse light (diffuse-to-diffuse bounces are
// truncated after the first one), unlike the path tracers.
type Whitted struct {
	MaxDepth int
}

// NewWhitted constructs a Whitted integrator with the given recursion limit
// on specular bounces.
func NewWhitted(depth int) *Whitted {
	if depth <= 0 {
		depth = 10
	}
	return &Whitted{MaxDepth: depth}
}

func (w *Whitted) Li(ray core.Ray, sc *scene.Scene, rng sampler.Sampler) core.Vec3 {
	return w.li(ray, sc, rng, 0)
}

func (w *Whitted) li(ray core.Ray, sc *scene.Scene, rng sampler.Sampler, depth int) core.Vec3 {
	its, ok := sc.RayIntersect(ray, false)
	if !ok {
		return core.Vec3{}
	}

	result := core.Vec3{}
	if al := emitterOf(its.Mesh); al != nil {
		result = result.Add(al.Eval(emitterHitRecord(its, ray)))
	}

	b, ok := fullBSDF(its.Mesh)
	if !ok || depth >= w.MaxDepth {
		return result
	}

	woWorld := ray.Direction.Negate()
	woLocal := its.Shading.ToLocal(woWorld)

	if b.IsDiffuse() {
		direct := sampleDirectLight(sc, its.P, its.Geometric.N, its.Shading, b, woWorld, rng)
		return result.Add(direct)
	}

	q := bsdf.NewQueryRecord(woLocal)
	weight := b.Sample(&q, rng.Get2D())
	if weight.IsZero() {
		return result
	}
	if core.CosTheta(q.Wo) == 0 {
		return result
	}
	bounceDir := its.Shading.ToWorld(q.Wo)
	bounceRay := core.NewRayRange(its.P, bounceDir, core.Epsilon, 1e8)
	indirect := w.li(bounceRay, sc, rng, depth+1)
	return result.Add(weight.MultiplyVec(indirect))
}
