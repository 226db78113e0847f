package integrator

import (
	"github.com/pathtrace/nori-go/pkg/bsdf"
	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/sampler"
	"github.com/pathtrace/nori-go/pkg/scene"
)

// PathEMS is a unidirectional path tracer that relies entirely on emitter
// (next-event-estimation) sampling: every diffuse/glossy vertex takes one
// explicit light sample instead of hoping the continuing BSDF bounce finds
// an emitter. Direct hits on emitters only contribute at the camera vertex
// or immediately after a discrete (specular) bounce, where NEE has zero
// probability of having already accounted for them. It has low variance on
// small bright lights but cannot resolve emitters reached only by
// importance-sampling the BSDF, such as a glossy highlight of a light
// source too small for NEE to sample efficiently.
type PathEMS struct{}

// NewPathEMS constructs an emitter-sampling path tracer.
func NewPathEMS() *PathEMS { return &PathEMS{} }

func (p *PathEMS) Li(ray core.Ray, sc *scene.Scene, rng sampler.Sampler) core.Vec3 {
	l := core.Vec3{}
	beta := core.NewVec3(1, 1, 1)
	eta := 1.0
	currentRay := ray
	specularBounce := true

	for depth := 0; depth < maxDepth; depth++ {
		its, ok := sc.RayIntersect(currentRay, false)
		if !ok {
			break
		}

		if specularBounce {
			if al := emitterOf(its.Mesh); al != nil {
				l = l.Add(beta.MultiplyVec(al.Eval(emitterHitRecord(its, currentRay))))
			}
		}

		b, ok := fullBSDF(its.Mesh)
		if !ok {
			break
		}

		woWorld := currentRay.Direction.Negate()
		if b.IsDiffuse() {
			direct := sampleDirectLight(sc, its.P, its.Geometric.N, its.Shading, b, woWorld, rng)
			l = l.Add(beta.MultiplyVec(direct))
		}

		woLocal := its.Shading.ToLocal(woWorld)
		q := bsdf.NewQueryRecord(woLocal)
		weight := b.Sample(&q, rng.Get2D())
		if weight.IsZero() || core.CosTheta(q.Wo) == 0 {
			break
		}
		specularBounce = q.Measure == bsdf.Discrete

		beta = beta.MultiplyVec(weight)
		eta *= q.Eta

		var cont bool
		beta, cont = russianRoulette(depth, beta, eta, rng)
		if !cont {
			break
		}

		bounceDir := its.Shading.ToWorld(q.Wo)
		currentRay = core.NewRayRange(its.P, bounceDir, core.Epsilon, 1e8)
	}

	return l
}
