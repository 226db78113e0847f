package integrator

import (
	"math"

	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/emitter"
	"github.com/pathtrace/nori-go/pkg/mesh"
	"github.com/pathtrace/nori-go/pkg/sampler"
	"github.com/pathtrace/nori-go/pkg/scene"
)

// Simple is a direct-lighting-only integrator against a single analytic
// point light, independent of any emitter mesh in the scene: at the first
// hit it shadow-tests the segment to Position and, if visible, returns
// Energy * max(0, n.l) / (pi^2 * r^2). It has no variance because it draws
// no samples, which makes it a fast way to preview geometry and shading
// normals before committing to a full path trace.
type Simple struct {
	Position core.Vec3
	Energy   core.Vec3
}

// NewSimple constructs a point-light direct lighting integrator.
func NewSimple(position, energy core.Vec3) *Simple {
	return &Simple{Position: position, Energy: energy}
}

func (s *Simple) Li(ray core.Ray, sc *scene.Scene, rng sampler.Sampler) core.Vec3 {
	its, ok := sc.RayIntersect(ray, false)
	if !ok {
		return core.Vec3{}
	}

	toLight := s.Position.Subtract(its.P)
	dist := toLight.Length()
	if dist == 0 {
		return core.Vec3{}
	}
	l := toLight.Multiply(1 / dist)

	cosTheta := its.Shading.N.Dot(l)
	if cosTheta <= 0 {
		return core.Vec3{}
	}

	shadowRay := core.NewRayRange(its.P, l, core.Epsilon, dist-core.Epsilon)
	if _, occluded := sc.RayIntersect(shadowRay, true); occluded {
		return core.Vec3{}
	}

	falloff := cosTheta / (math.Pi * math.Pi * dist * dist)
	return s.Energy.Multiply(falloff)
}

// emitterHitRecord builds the emitter.HitRecord for a ray that directly
// struck an emitter mesh: Wi points back from the hit point toward the ray
// origin, matching emitter.AreaLight.Eval's "front face toward the viewer"
// convention.
func emitterHitRecord(its mesh.Intersection, ray core.Ray) emitter.HitRecord {
	return emitter.HitRecord{P: its.P, N: its.Shading.N, Wi: ray.Direction.Negate()}
}
