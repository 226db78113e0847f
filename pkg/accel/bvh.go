package accel

import (
	"fmt"
	"sort"

	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/mesh"
)

// leafSize bounds the number of triangles stored in a BVH leaf; splitting
// stops once a node's triangle count is at or below this threshold even if
// SAH would suggest otherwise, avoiding leaves of 1-2 triangles that don't
// amortize the traversal overhead.
const leafSize = 4

// sahBins is the number of bins used to approximate the surface-area-heuristic
// cost function along the split axis, per Wald & Havran binned SAH.
const sahBins = 16

// bvhNode is either an interior node (Count < 0, Left is the left child's
// index into the shared node array and -(Count+1) the right child's) or a
// leaf (Count > 0, Left is the offset into the triangle reference array).
type bvhNode struct {
	Bounds core.BoundingBox
	Left   int32
	Count  int32
	Axis   int8
}

// BVH is a surface-area-heuristic bounding volume hierarchy over the
// triangles of every mesh added to it, stored as a contiguous node array
// indexed by 32-bit offsets.
type BVH struct {
	meshSet
	nodes []bvhNode
	tris  []TriangleRef
	root  int32
}

// NewBVH constructs an empty BVH; call AddMesh for each mesh, then Build.
func NewBVH() *BVH {
	return &BVH{}
}

func (b *BVH) AddMesh(m *mesh.Mesh) { b.addMesh(m) }

func (b *BVH) Bounds() core.BoundingBox {
	if len(b.nodes) == 0 {
		return core.BoundingBox{}
	}
	return b.nodes[b.root].Bounds
}

type bvhPrimitive struct {
	ref     TriangleRef
	bounds  core.BoundingBox
	centroid core.Vec3
}

// Build finalizes the BVH: it gathers every triangle from every added mesh,
// then recursively partitions them using binned SAH, choosing the split
// axis and position that minimizes the expected traversal + intersection
// cost at each node.
func (b *BVH) Build() error {
	if b.built {
		return fmt.Errorf("bvh: already built")
	}
	b.built = true

	var prims []bvhPrimitive
	for meshID, m := range b.meshes {
		for tri := 0; tri < m.NumTriangles(); tri++ {
			bounds := m.TriangleBounds(tri)
			prims = append(prims, bvhPrimitive{
				ref:      TriangleRef{MeshID: meshID, TriIndex: tri},
				bounds:   bounds,
				centroid: bounds.Center(),
			})
		}
	}
	if len(prims) == 0 {
		b.nodes = []bvhNode{{Bounds: core.BoundingBox{}, Count: 0}}
		b.root = 0
		return nil
	}

	b.tris = make([]TriangleRef, 0, len(prims))
	b.nodes = make([]bvhNode, 0, 2*len(prims))
	b.root = b.buildRecursive(prims)
	return nil
}

func boundsOf(prims []bvhPrimitive) core.BoundingBox {
	bounds := prims[0].bounds
	for _, p := range prims[1:] {
		bounds = bounds.Union(p.bounds)
	}
	return bounds
}

func centroidBoundsOf(prims []bvhPrimitive) core.BoundingBox {
	bounds := core.NewBoundingBox(prims[0].centroid, prims[0].centroid)
	for _, p := range prims[1:] {
		bounds = bounds.ExpandToPoint(p.centroid)
	}
	return bounds
}

// buildRecursive partitions prims into a subtree and returns the index of
// its root node in b.nodes.
func (b *BVH) buildRecursive(prims []bvhPrimitive) int32 {
	bounds := boundsOf(prims)

	makeLeaf := func() int32 {
		offset := int32(len(b.tris))
		for _, p := range prims {
			b.tris = append(b.tris, p.ref)
		}
		idx := int32(len(b.nodes))
		b.nodes = append(b.nodes, bvhNode{Bounds: bounds, Left: offset, Count: int32(len(prims))})
		return idx
	}

	if len(prims) <= leafSize {
		return makeLeaf()
	}

	cbounds := centroidBoundsOf(prims)
	axis := cbounds.LongestAxis()
	extentMin := core.AxisValue(cbounds.Min, axis)
	extentMax := core.AxisValue(cbounds.Max, axis)
	if extentMax-extentMin < 1e-12 {
		return makeLeaf()
	}

	type bin struct {
		bounds core.BoundingBox
		count  int
		set    bool
	}
	bins := make([]bin, sahBins)
	binIndex := func(p bvhPrimitive) int {
		c := core.AxisValue(p.centroid, axis)
		idx := int(float64(sahBins) * (c - extentMin) / (extentMax - extentMin))
		if idx >= sahBins {
			idx = sahBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		return idx
	}
	for _, p := range prims {
		idx := binIndex(p)
		if !bins[idx].set {
			bins[idx].bounds = p.bounds
			bins[idx].set = true
		} else {
			bins[idx].bounds = bins[idx].bounds.Union(p.bounds)
		}
		bins[idx].count++
	}

	// Sweep left-to-right and right-to-left to get cumulative bounds/counts,
	// then evaluate the SAH cost of each of the sahBins-1 split planes.
	leftBounds := make([]core.BoundingBox, sahBins)
	leftCount := make([]int, sahBins)
	rightBounds := make([]core.BoundingBox, sahBins)
	rightCount := make([]int, sahBins)

	var acc core.BoundingBox
	accCount := 0
	for i := 0; i < sahBins; i++ {
		if bins[i].set {
			if accCount == 0 {
				acc = bins[i].bounds
			} else {
				acc = acc.Union(bins[i].bounds)
			}
			accCount += bins[i].count
		}
		leftBounds[i] = acc
		leftCount[i] = accCount
	}
	acc = core.BoundingBox{}
	accCount = 0
	for i := sahBins - 1; i >= 0; i-- {
		if bins[i].set {
			if accCount == 0 {
				acc = bins[i].bounds
			} else {
				acc = acc.Union(bins[i].bounds)
			}
			accCount += bins[i].count
		}
		rightBounds[i] = acc
		rightCount[i] = accCount
	}

	bestCost := bounds.SurfaceArea() * float64(len(prims)) // cost of not splitting
	bestSplit := -1
	for i := 0; i < sahBins-1; i++ {
		if leftCount[i] == 0 || rightCount[i+1] == 0 {
			continue
		}
		cost := leftBounds[i].SurfaceArea()*float64(leftCount[i]) + rightBounds[i+1].SurfaceArea()*float64(rightCount[i+1])
		if cost < bestCost {
			bestCost = cost
			bestSplit = i
		}
	}

	if bestSplit == -1 {
		if len(prims) <= leafSize*4 {
			return makeLeaf()
		}
		// Fall back to a median split on this axis so pathological centroid
		// distributions (e.g. all but one primitive sharing a centroid) still
		// terminate in O(log n) depth.
		sort.Slice(prims, func(i, j int) bool {
			return core.AxisValue(prims[i].centroid, axis) < core.AxisValue(prims[j].centroid, axis)
		})
		mid := len(prims) / 2
		return b.makeInterior(prims[:mid], prims[mid:], bounds, axis)
	}

	var left, right []bvhPrimitive
	for _, p := range prims {
		if binIndex(p) <= bestSplit {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return makeLeaf()
	}
	return b.makeInterior(left, right, bounds, axis)
}

func (b *BVH) makeInterior(left, right []bvhPrimitive, bounds core.BoundingBox, axis int) int32 {
	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, bvhNode{Bounds: bounds, Axis: int8(axis)})
	leftIdx := b.buildRecursive(left)
	rightIdx := b.buildRecursive(right)
	// Children of an interior node are not guaranteed contiguous because
	// recursion may append other subtrees first; store explicit indices by
	// overwriting Count as a right-child pointer (Count < 0 marks interior).
	b.nodes[idx].Left = leftIdx
	b.nodes[idx].Count = -(rightIdx + 1)
	return idx
}

func (n bvhNode) isLeaf() bool { return n.Count >= 0 }
func (n bvhNode) rightChild() int32 { return -n.Count - 1 }

// RayIntersect implements Accelerator. For shadow rays it returns at the
// first accepted hit; otherwise it traverses with a stack, visiting the
// near child first (by the sign of the ray direction along the split axis)
// so that once a candidate hit is found, far subtrees whose bounding box
// t_near exceeds the running t_max are skipped without being visited.
func (b *BVH) RayIntersect(ray core.Ray, shadow bool) (mesh.Intersection, bool) {
	if len(b.nodes) == 0 {
		return mesh.Intersection{}, false
	}

	tMin, tMax := ray.TMin, ray.TMax
	var best mesh.Intersection
	found := false

	var stack [64]int32
	sp := 0
	stack[sp] = b.root
	sp++

	for sp > 0 {
		sp--
		nodeIdx := stack[sp]
		node := b.nodes[nodeIdx]

		if _, _, hit := node.Bounds.RayIntersect(ray, tMin, tMax); !hit {
			continue
		}

		if node.isLeaf() {
			for i := int32(0); i < node.Count; i++ {
				ref := b.tris[node.Left+i]
				m := b.meshes[ref.MeshID]
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
			continue
		}

		left := node.Left
		right := node.rightChild()
		// Visit the child nearer to the ray origin first; negative direction
		// along the split axis means the "right" partition is nearer.
		if core.AxisValue(ray.Direction, int(node.Axis)) < 0 {
			stack[sp] = left
			sp++
			stack[sp] = right
			sp++
		} else {
			stack[sp] = right
			sp++
			stack[sp] = left
			sp++
		}
	}

	return best, found
}
