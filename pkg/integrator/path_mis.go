package integrator

import (
	"github.com/pathtrace/nori-go/pkg/bsdf"
	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/mesh"
	"github.com/pathtrace/nori-go/pkg/sampler"
	"github.com/pathtrace/nori-go/pkg/scene"
)

// PathMIS combines material and emitter sampling at every vertex, weighting
// each technique's contribution by the heuristic so that neither a small
// bright light (where NEE excels) nor a glossy reflection of a large light
// (where BSDF sampling excels) is overweighted or underweighted relative
// to the other. This is the integrator that should be used for final
// output; PathMATS and PathEMS exist mainly to verify it against the two
// techniques it interpolates between.
type PathMIS struct {
	Heuristic MISHeuristic
}

// NewPathMIS constructs an MIS path tracer using the given heuristic.
func NewPathMIS(h MISHeuristic) *PathMIS {
	return &PathMIS{Heuristic: h}
}

func (p *PathMIS) Li(ray core.Ray, sc *scene.Scene, rng sampler.Sampler) core.Vec3 {
	l := core.Vec3{}
	beta := core.NewVec3(1, 1, 1)
	eta := 1.0
	currentRay := ray
	specularBounce := true
	prevBSDFPDF := 0.0

	for depth := 0; depth < maxDepth; depth++ {
		its, ok := sc.RayIntersect(currentRay, false)
		if !ok {
			break
		}

		if al := emitterOf(its.Mesh); al != nil {
			le := al.Eval(emitterHitRecord(its, currentRay))
			if !le.IsZero() {
				weight := 1.0
				if !specularBounce {
					lightPDF := directLightPDF(sc, its.Mesh, currentRay.Direction, its.T, its.Shading.N)
					weight = p.Heuristic.weight(prevBSDFPDF, lightPDF)
				}
				l = l.Add(beta.MultiplyVec(le).Multiply(weight))
			}
		}

		b, ok := fullBSDF(its.Mesh)
		if !ok {
			break
		}

		woWorld := currentRay.Direction.Negate()
		if b.IsDiffuse() {
			direct := p.sampleDirectLightMIS(sc, its, b, woWorld, rng)
			l = l.Add(beta.MultiplyVec(direct))
		}

		woLocal := its.Shading.ToLocal(woWorld)
		q := bsdf.NewQueryRecord(woLocal)
		weight := b.Sample(&q, rng.Get2D())
		if weight.IsZero() || core.CosTheta(q.Wo) == 0 {
			break
		}
		specularBounce = q.Measure == bsdf.Discrete
		prevBSDFPDF = b.PDF(q)

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

// sampleDirectLightMIS is sampleDirectLight's MIS-aware counterpart: it
// weights the next-event-estimation contribution by the probability the
// continuing BSDF-sampling technique would have produced the same
// direction, so the two techniques' combined estimator stays unbiased.
func (p *PathMIS) sampleDirectLightMIS(sc *scene.Scene, its mesh.Intersection, b bsdf.BSDF, woWorld core.Vec3, rng sampler.Sampler) core.Vec3 {
	light, pLight, ok := sc.SampleLight(rng.Get1D())
	if !ok {
		return core.Vec3{}
	}
	al := emitterOf(light)
	if al == nil {
		return core.Vec3{}
	}
	rec, ok := al.Sample(its.P, its.Geometric.N, rng.Get2D(), rng.Get1D())
	if !ok {
		return core.Vec3{}
	}
	if _, occluded := sc.RayIntersect(rec.ShadowRay, true); occluded {
		return core.Vec3{}
	}

	wiLocal := its.Shading.ToLocal(rec.Wi)
	woLocal := its.Shading.ToLocal(woWorld)
	evalRec := bsdf.NewQueryRecord(wiLocal)
	evalRec.Wo = woLocal
	f := b.Eval(evalRec)
	if f.IsZero() {
		return core.Vec3{}
	}

	le := al.EvalNextEventEstimate(rec)
	if le.IsZero() || pLight <= 0 {
		return core.Vec3{}
	}

	sampleRec := bsdf.NewQueryRecord(woLocal)
	sampleRec.Wo = wiLocal
	bsdfPDF := b.PDF(sampleRec)
	lightPDF := pLight * rec.PDF

	weight := p.Heuristic.weight(lightPDF, bsdfPDF)
	return f.MultiplyVec(le).Multiply(weight / pLight)
}
