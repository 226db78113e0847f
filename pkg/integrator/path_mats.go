package integrator

import (
	"github.com/pathtrace/nori-go/pkg/bsdf"
	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/sampler"
	"github.com/pathtrace/nori-go/pkg/scene"
)

// PathMATS is a unidirectional path tracer that relies entirely on BSDF
// (materials) importance sampling: every bounce is drawn from the BSDF, and
// emitted light is added in full whenever a path vertex directly strikes
// an emitter. It converges correctly on its own but has high variance on
// small, bright lights that the BSDF distribution rarely points toward.
type PathMATS struct{}

// NewPathMATS constructs a materials-sampling path tracer.
func NewPathMATS() *PathMATS { return &PathMATS{} }

func (p *PathMATS) Li(ray core.Ray, sc *scene.Scene, rng sampler.Sampler) core.Vec3 {
	l := core.Vec3{}
	beta := core.NewVec3(1, 1, 1)
	eta := 1.0
	currentRay := ray

	for depth := 0; depth < maxDepth; depth++ {
		its, ok := sc.RayIntersect(currentRay, false)
		if !ok {
			break
		}

		if al := emitterOf(its.Mesh); al != nil {
			l = l.Add(beta.MultiplyVec(al.Eval(emitterHitRecord(its, currentRay))))
			break
		}

		b, ok := fullBSDF(its.Mesh)
		if !ok {
			break
		}

		woLocal := its.Shading.ToLocal(currentRay.Direction.Negate())
		q := bsdf.NewQueryRecord(woLocal)
		weight := b.Sample(&q, rng.Get2D())
		if weight.IsZero() || core.CosTheta(q.Wo) == 0 {
			break
		}

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
