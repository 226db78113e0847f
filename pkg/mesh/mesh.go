// Package mesh implements triangle meshes over shared vertex arrays: the
// geometry representation the acceleration structure indexes into and the
// emitter samples from.
package mesh

import (
	"fmt"
	"math"

	"github.com/pathtrace/nori-go/pkg/core"
)

// BSDF is the subset of the bsdf package's interface a Mesh needs to install
// a default material on activation. Declared here so that pkg/mesh does not
// import pkg/bsdf.
type BSDF interface {
	IsDiffuse() bool
}

// Emitter mirrors the subset of pkg/emitter's interface a Mesh needs to know
// about for activation and sampling; kept minimal for the same reason as BSDF.
type Emitter interface {
	SetShape(m *Mesh)
	Power() float64
}

// Intersection is the result of a closest-hit query against the acceleration
// structure: the hit point, ray parameter, interpolated UV, geometric and
// (possibly smoothed) shading frames, and a borrowed reference to the mesh
// and triangle hit.
type Intersection struct {
	P         core.Vec3
	T         float64
	UV        core.Vec2
	Geometric core.Frame
	Shading   core.Frame
	Mesh      *Mesh
	TriIndex  int
}

// Mesh is a collection of triangles over shared vertex position, normal and
// UV arrays, addressed by a flat triangle index table. It is immutable after
// Activate is called.
type Mesh struct {
	Name string

	V  []core.Vec3 // vertex positions
	N  []core.Vec3 // optional per-vertex normals, len(N) == len(V) if present
	UV []core.Vec2 // optional per-vertex UVs, len(UV) == len(V) if present
	F  []int       // triangle indices, len(F) == 3*numTriangles

	BSDF    BSDF
	Emitter Emitter

	bbox          core.BoundingBox
	triBounds     []core.BoundingBox
	triArea       []float64
	distribution  *core.Distribution1D
	totalArea     float64
	degenerateCnt int
	activated     bool

	logger Logger
}

// Logger is the minimal structured-logging surface Mesh needs to report
// build-time diagnostics (degenerate triangles, missing data) without
// depending on a concrete logging package.
type Logger interface {
	Printf(format string, args ...any)
}

// NewMesh constructs a mesh from shared vertex/index arrays. V and F are
// required; N and UV may be nil.
func NewMesh(name string, v []core.Vec3, n []core.Vec3, uv []core.Vec2, f []int) (*Mesh, error) {
	if len(f)%3 != 0 {
		return nil, fmt.Errorf("mesh %q: face index count %d not a multiple of 3", name, len(f))
	}
	if n != nil && len(n) != len(v) {
		return nil, fmt.Errorf("mesh %q: normal count %d does not match vertex count %d", name, len(n), len(v))
	}
	if uv != nil && len(uv) != len(v) {
		return nil, fmt.Errorf("mesh %q: uv count %d does not match vertex count %d", name, len(uv), len(v))
	}
	for i, idx := range f {
		if idx < 0 || idx >= len(v) {
			return nil, fmt.Errorf("mesh %q: face index %d at position %d out of range [0,%d)", name, idx, i, len(v))
		}
	}
	return &Mesh{Name: name, V: v, N: n, UV: uv, F: f}, nil
}

// NumTriangles returns the number of triangles in the mesh.
func (m *Mesh) NumTriangles() int { return len(m.F) / 3 }

// TriangleVertices returns the three vertex positions of triangle i.
func (m *Mesh) TriangleVertices(i int) (v0, v1, v2 core.Vec3) {
	base := i * 3
	return m.V[m.F[base]], m.V[m.F[base+1]], m.V[m.F[base+2]]
}

// TriangleArea returns the surface area of triangle i (zero for degenerate
// triangles).
func (m *Mesh) TriangleArea(i int) float64 {
	v0, v1, v2 := m.TriangleVertices(i)
	return 0.5 * v1.Subtract(v0).Cross(v2.Subtract(v0)).Length()
}

// TriangleBounds returns the axis-aligned bounding box of triangle i.
func (m *Mesh) TriangleBounds(i int) core.BoundingBox {
	v0, v1, v2 := m.TriangleVertices(i)
	return core.BoundingBoxFromPoints(v0, v1, v2)
}

// Bounds returns the mesh's overall bounding box. Valid only after Activate.
func (m *Mesh) Bounds() core.BoundingBox { return m.bbox }

// Activate finalizes the mesh: computes per-triangle bounds and area,
// installs the default diffuse BSDF if none was set, builds the
// area-weighted triangle distribution if the mesh is an emitter, and detects
// degenerate (zero-area or NaN-normal) triangles. Must be called exactly
// once before the mesh is used for rendering.
func (m *Mesh) Activate(defaultBSDF BSDF, logger Logger) error {
	if m.activated {
		return fmt.Errorf("mesh %q: already activated", m.Name)
	}
	m.logger = logger
	if m.logger == nil {
		m.logger = noopLogger{}
	}

	n := m.NumTriangles()
	if n == 0 {
		return fmt.Errorf("mesh %q: no triangles", m.Name)
	}
	m.triBounds = make([]core.BoundingBox, n)
	m.triArea = make([]float64, n)

	bbox := m.TriangleBounds(0)
	for i := 0; i < n; i++ {
		tb := m.TriangleBounds(i)
		m.triBounds[i] = tb
		bbox = bbox.Union(tb)

		area := m.TriangleArea(i)
		if area <= 1e-12 || m.hasDegenerateNormal(i) {
			m.degenerateCnt++
			area = 0
		}
		m.triArea[i] = area
		m.totalArea += area
	}
	m.bbox = bbox

	if m.degenerateCnt > 0 {
		m.logger.Printf("mesh %q: %d degenerate triangle(s) detected, excluded from area sampling", m.Name, m.degenerateCnt)
	}

	if m.BSDF == nil {
		m.BSDF = defaultBSDF
	}

	if m.Emitter != nil {
		m.distribution = core.NewDistribution1D(m.triArea)
		m.Emitter.SetShape(m)
	}

	m.activated = true
	return nil
}

func (m *Mesh) hasDegenerateNormal(i int) bool {
	if m.N == nil {
		return false
	}
	base := i * 3
	n0, n1, n2 := m.N[m.F[base]], m.N[m.F[base+1]], m.N[m.F[base+2]]
	return n0.HasNaN() || n1.HasNaN() || n2.HasNaN()
}

// Area returns the mesh's total surface area (sum of non-degenerate triangle
// areas), computed by Activate for every mesh, emitter or not.
func (m *Mesh) Area() float64 { return m.totalArea }

// SamplePoint draws a point uniformly distributed over the mesh's surface
// area, proportional to per-triangle area, returning the world-space
// position, the interpolated (geometric, or smoothed if normals present)
// shading normal, and the combined area-measure PDF (1/totalArea).
func (m *Mesh) SamplePoint(u core.Vec2, triSample float64) (p core.Vec3, normal core.Vec3, pdf float64, ok bool) {
	if m.distribution == nil || m.totalArea <= 0 {
		return core.Vec3{}, core.Vec3{}, 0, false
	}
	triIdx, triPDF, sampled := m.distribution.Sample(triSample)
	if !sampled {
		return core.Vec3{}, core.Vec3{}, 0, false
	}

	// Uniform barycentric sampling per Shirley & Chiu: (1-sqrt(u), sqrt(u)*(1-v), sqrt(u)*v).
	su0 := math.Sqrt(u.X)
	b0 := 1 - su0
	b1 := su0 * (1 - u.Y)
	b2 := su0 * u.Y

	v0, v1, v2 := m.TriangleVertices(triIdx)
	p = v0.Multiply(b0).Add(v1.Multiply(b1)).Add(v2.Multiply(b2))

	normal = m.interpolatedNormal(triIdx, b0, b1, b2)

	area := m.triArea[triIdx]
	if area <= 0 {
		return core.Vec3{}, core.Vec3{}, 0, false
	}
	pdf = triPDF / area
	return p, normal, pdf, true
}

func (m *Mesh) interpolatedNormal(triIdx int, b0, b1, b2 float64) core.Vec3 {
	v0, v1, v2 := m.TriangleVertices(triIdx)
	geometric := v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
	if m.N == nil {
		return geometric
	}
	base := triIdx * 3
	n0, n1, n2 := m.N[m.F[base]], m.N[m.F[base+1]], m.N[m.F[base+2]]
	smoothed := n0.Multiply(b0).Add(n1.Multiply(b1)).Add(n2.Multiply(b2))
	if smoothed.IsZero() {
		return geometric
	}
	return smoothed.Normalize()
}

// FillIntersection computes the post-intersection fields (point, UV,
// geometric and shading frames) given the hit triangle and barycentric
// coordinates (u, v), following the standard (1-u-v, u, v) convention.
func (m *Mesh) FillIntersection(triIdx int, u, v, t float64, ray core.Ray) Intersection {
	v0, v1, v2 := m.TriangleVertices(triIdx)
	w := 1 - u - v

	p := ray.At(t)
	geometricNormal := v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
	geometric := core.NewFrame(geometricNormal)

	shadingNormal := geometricNormal
	if m.N != nil {
		base := triIdx * 3
		n0, n1, n2 := m.N[m.F[base]], m.N[m.F[base+1]], m.N[m.F[base+2]]
		interpolated := n0.Multiply(w).Add(n1.Multiply(u)).Add(n2.Multiply(v))
		if !interpolated.IsZero() {
			shadingNormal = interpolated.Normalize()
		}
	}
	shading := core.NewFrame(shadingNormal)

	uv := core.Vec2{X: u, Y: v}
	if m.UV != nil {
		base := triIdx * 3
		uv0, uv1, uv2 := m.UV[m.F[base]], m.UV[m.F[base+1]], m.UV[m.F[base+2]]
		uv = uv0.Multiply(w).Add(uv1.Multiply(u)).Add(uv2.Multiply(v))
	}

	return Intersection{
		P:         p,
		T:         t,
		UV:        uv,
		Geometric: geometric,
		Shading:   shading,
		Mesh:      m,
		TriIndex:  triIdx,
	}
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}
