// Package accel implements acceleration structures over the triangles of
// every mesh added to a scene: a surface-area-heuristic BVH and an octree,
// both behind the same Accelerator contract.
package accel

import (
	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/mesh"
)

// TriangleRef identifies a single triangle by the mesh that owns it and its
// index within that mesh's face table.
type TriangleRef struct {
	MeshID   int
	TriIndex int
}

// Accelerator indexes the triangles of every added mesh for closest-hit and
// any-hit ray queries. Meshes must be added before Build; Build finalizes
// the structure and further AddMesh calls are forbidden.
type Accelerator interface {
	AddMesh(m *mesh.Mesh)
	Build() error
	RayIntersect(ray core.Ray, shadow bool) (mesh.Intersection, bool)
	Bounds() core.BoundingBox
}

// meshSet is the shared bookkeeping both backends use to hold the meshes
// added before Build and to resolve a TriangleRef back to its geometry.
type meshSet struct {
	meshes []*mesh.Mesh
	built  bool
}

func (s *meshSet) addMesh(m *mesh.Mesh) {
	s.meshes = append(s.meshes, m)
}

func (s *meshSet) triangleBounds(ref TriangleRef) core.BoundingBox {
	return s.meshes[ref.MeshID].TriangleBounds(ref.TriIndex)
}

// intersectTriangle runs Möller-Trumbore against triangle ref within
// [tMin, tMax], returning the hit parameter and barycentrics on acceptance.
// Back faces are included (double-sided geometry); the determinant
// rejection threshold follows the convention used throughout the renderer
// for near-parallel ray/triangle configurations.
func intersectTriangle(m *mesh.Mesh, triIdx int, ray core.Ray, tMin, tMax float64) (t, u, v float64, hit bool) {
	v0, v1, v2 := m.TriangleVertices(triIdx)
	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)

	h := ray.Direction.Cross(edge2)
	det := edge1.Dot(h)
	if det > -1e-8 && det < 1e-8 {
		return 0, 0, 0, false
	}
	invDet := 1 / det

	s := ray.Origin.Subtract(v0)
	uu := invDet * s.Dot(h)
	if uu < 0 || uu > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	vv := invDet * ray.Direction.Dot(q)
	if vv < 0 || uu+vv > 1 {
		return 0, 0, 0, false
	}

	tt := invDet * edge2.Dot(q)
	if tt < tMin || tt > tMax {
		return 0, 0, 0, false
	}
	return tt, uu, vv, true
}
