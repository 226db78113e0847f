package accel

import (
	"container/heap"
	"fmt"

	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/mesh"
)

const (
	octreeMaxDepth     = 10
	octreeMaxWidth     = 4
	octreeReleaseConst = 0.1
)

type octreeNode struct {
	bounds   core.BoundingBox
	elements []TriangleRef
	children [8]*octreeNode
}

// Octree is an alternative Accelerator backend: a loose octree that pads
// each child's bounding box by RELEASE_CONST of the parent's extent and
// keeps a triangle at the current node whenever it isn't fully contained by
// any single (padded) child box, rather than duplicating it across every
// overlapping child.
type Octree struct {
	meshSet
	root *octreeNode
}

// NewOctree constructs an empty octree; call AddMesh for each mesh, then Build.
func NewOctree() *Octree {
	return &Octree{}
}

func (o *Octree) AddMesh(m *mesh.Mesh) { o.addMesh(m) }

func (o *Octree) Bounds() core.BoundingBox {
	if o.root == nil {
		return core.BoundingBox{}
	}
	return o.root.bounds
}

// Build finalizes the octree over every triangle of every added mesh.
func (o *Octree) Build() error {
	if o.built {
		return fmt.Errorf("octree: already built")
	}
	o.built = true

	var refs []TriangleRef
	var bounds core.BoundingBox
	first := true
	for meshID, m := range o.meshes {
		for tri := 0; tri < m.NumTriangles(); tri++ {
			ref := TriangleRef{MeshID: meshID, TriIndex: tri}
			refs = append(refs, ref)
			tb := m.TriangleBounds(tri)
			if first {
				bounds = tb
				first = false
			} else {
				bounds = bounds.Union(tb)
			}
		}
	}
	if len(refs) == 0 {
		return nil
	}
	o.root = o.build(bounds, refs, 0)
	return nil
}

// triangleFullyContained reports whether every vertex of the triangle ref
// lies within bounds, mirroring the original's per-vertex containment check.
func (o *Octree) triangleFullyContained(ref TriangleRef, bounds core.BoundingBox) bool {
	m := o.meshes[ref.MeshID]
	v0, v1, v2 := m.TriangleVertices(ref.TriIndex)
	return containsPoint(bounds, v0) && containsPoint(bounds, v1) && containsPoint(bounds, v2)
}

func containsPoint(b core.BoundingBox, p core.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

func (o *Octree) build(bounds core.BoundingBox, refs []TriangleRef, depth int) *octreeNode {
	if len(refs) == 0 {
		return nil
	}
	node := &octreeNode{bounds: bounds}
	if depth >= octreeMaxDepth || len(refs) <= octreeMaxWidth {
		node.elements = refs
		return node
	}

	center := bounds.Center()
	size := bounds.Size()
	release := size.Multiply(octreeReleaseConst)

	var childBounds [8]core.BoundingBox
	for j := 0; j < 8; j++ {
		corner := octreeCorner(bounds, j)
		var min, max core.Vec3
		min, max = octreeChildBoundsAxis(center, corner, release)
		childBounds[j] = core.NewBoundingBox(min, max)
	}

	var childRefs [8][]TriangleRef
	var kept []TriangleRef
	for _, ref := range refs {
		placed := false
		for i := 0; i < 8; i++ {
			if o.triangleFullyContained(ref, childBounds[i]) {
				childRefs[i] = append(childRefs[i], ref)
				placed = true
				break
			}
		}
		if !placed {
			kept = append(kept, ref)
		}
	}
	node.elements = kept
	for i := 0; i < 8; i++ {
		if len(childRefs[i]) > 0 {
			node.children[i] = o.build(childBounds[i], childRefs[i], depth+1)
		}
	}
	return node
}

// octreeCorner returns the j-th corner of bounds, j in [0,8) selecting each
// combination of min/max per axis via its bit pattern.
func octreeCorner(b core.BoundingBox, j int) core.Vec3 {
	pick := func(bit int, lo, hi float64) float64 {
		if j&(1<<uint(bit)) != 0 {
			return hi
		}
		return lo
	}
	return core.Vec3{
		X: pick(0, b.Min.X, b.Max.X),
		Y: pick(1, b.Min.Y, b.Max.Y),
		Z: pick(2, b.Min.Z, b.Max.Z),
	}
}

// octreeChildBoundsAxis computes the padded child box spanning from the
// corner out to the parent's center (plus a release-constant overlap), per
// axis independently.
func octreeChildBoundsAxis(center, corner, release core.Vec3) (min, max core.Vec3) {
	axis := func(c, p, r float64) (float64, float64) {
		if c-p > 0 {
			return p, c + r
		}
		return c - r, p
	}
	minX, maxX := axis(center.X, corner.X, release.X)
	minY, maxY := axis(center.Y, corner.Y, release.Y)
	minZ, maxZ := axis(center.Z, corner.Z, release.Z)
	return core.Vec3{X: minX, Y: minY, Z: minZ}, core.Vec3{X: maxX, Y: maxY, Z: maxZ}
}

type octreeQueueItem struct {
	tNear float64
	node  *octreeNode
}

type octreeQueue []octreeQueueItem

func (q octreeQueue) Len() int            { return len(q) }
func (q octreeQueue) Less(i, j int) bool  { return q[i].tNear < q[j].tNear }
func (q octreeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *octreeQueue) Push(x interface{}) { *q = append(*q, x.(octreeQueueItem)) }
func (q *octreeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// RayIntersect implements Accelerator via a priority-queue traversal
// ordered by each node's t_near, descending into children only while their
// bounding box t_near is still less than the current closest hit.
func (o *Octree) RayIntersect(ray core.Ray, shadow bool) (mesh.Intersection, bool) {
	if o.root == nil {
		return mesh.Intersection{}, false
	}
	tMin, tMax := ray.TMin, ray.TMax
	nearRoot, _, hit := o.root.bounds.RayIntersect(ray, tMin, tMax)
	if !hit {
		return mesh.Intersection{}, false
	}

	pq := &octreeQueue{{tNear: nearRoot, node: o.root}}
	heap.Init(pq)

	var best mesh.Intersection
	found := false

	for pq.Len() > 0 {
		item := heap.Pop(pq).(octreeQueueItem)
		if found && item.tNear > tMax {
			continue
		}
		node := item.node

		for _, ref := range node.elements {
			m := o.meshes[ref.MeshID]
			t, u, v, hit := intersectTriangle(m, ref.TriIndex, ray, tMin, tMax)
			if !hit {
				continue
			}
			if shadow {
				return mesh.Intersection{}, true
			}
			tMax = t
			best = m.FillIntersection(ref.TriIndex, u, v, t, ray)
			found = true
		}

		for _, child := range node.children {
			if child == nil {
				continue
			}
			near, _, hit := child.bounds.RayIntersect(ray, tMin, tMax)
			if !hit {
				continue
			}
			heap.Push(pq, octreeQueueItem{tNear: near, node: child})
		}
	}

	return best, found
}
