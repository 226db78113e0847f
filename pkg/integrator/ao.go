package integrator

import (
	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/sampler"
	"github.com/pathtrace/nori-go/pkg/scene"
)

// AO is an ambient occlusion integrator: it returns white attenuated by the
// fraction of the cosine-weighted hemisphere above the first hit that is
// unoccluded within MaxDistance, ignoring materials and emitters entirely.
// Useful as a cheap sanity check on acceleration structure correctness and
// mesh normal orientation before running a full path tracer.
type AO struct {
	MaxDistance float64
}

// NewAO constructs an ambient occlusion integrator. maxDistance <= 0 means
// unbounded occlusion rays.
func NewAO(maxDistance float64) *AO {
	return &AO{MaxDistance: maxDistance}
}

func (a *AO) Li(ray core.Ray, sc *scene.Scene, rng sampler.Sampler) core.Vec3 {
	its, ok := sc.RayIntersect(ray, false)
	if !ok {
		return core.Vec3{}
	}

	localDir := sampleCosineHemisphereLocal(rng)
	worldDir := its.Shading.ToWorld(localDir)

	tMax := a.MaxDistance
	if tMax <= 0 {
		tMax = 1e8
	}
	occlusionRay := core.NewRayRange(its.P, worldDir, core.Epsilon, tMax)
	if _, occluded := sc.RayIntersect(occlusionRay, true); occluded {
		return core.Vec3{}
	}
	return core.NewVec3(1, 1, 1)
}
