package mesh

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"

	"github.com/pathtrace/nori-go/pkg/core"
)

// LoadGLTF reads every triangle primitive out of a glTF or GLB file and
// returns one Mesh per glTF mesh in the document, named "<file>#<index>"
// when the document contains more than one. BSDF and Emitter are left nil;
// the caller assigns them from scene configuration, since glTF materials
// describe an unrelated (non-spectral) shading model this renderer does
// not interpret.
func LoadGLTF(path string) ([]*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf: open %q: %w", path, err)
	}

	base := filepath.Base(path)
	var meshes []*Mesh
	for i, gm := range doc.Meshes {
		name := base
		if len(doc.Meshes) > 1 {
			name = fmt.Sprintf("%s#%d", base, i)
		}
		m, err := meshFromGLTF(doc, gm, name)
		if err != nil {
			return nil, fmt.Errorf("gltf: mesh %q: %w", gm.Name, err)
		}
		if m != nil {
			meshes = append(meshes, m)
		}
	}
	if len(meshes) == 0 {
		return nil, fmt.Errorf("gltf: %q contains no triangle meshes", path)
	}
	return meshes, nil
}

func meshFromGLTF(doc *gltf.Document, gm *gltf.Mesh, name string) (*Mesh, error) {
	var v, n []core.Vec3
	var uv []core.Vec2
	var f []int

	for _, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return nil, fmt.Errorf("positions: %w", err)
		}

		var normals []core.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return nil, fmt.Errorf("normals: %w", err)
			}
		}

		var uvs []core.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return nil, fmt.Errorf("uvs: %w", err)
			}
		}

		base := len(v)
		v = append(v, positions...)
		if normals != nil {
			n = append(n, normals...)
		}
		if uvs != nil {
			uv = append(uv, uvs...)
		}

		if prim.Indices != nil {
			indices, err := readIndexAccessor(doc, *prim.Indices)
			if err != nil {
				return nil, fmt.Errorf("indices: %w", err)
			}
			for _, idx := range indices {
				f = append(f, base+idx)
			}
		} else {
			for i := range positions {
				f = append(f, base+i)
			}
		}
	}

	if len(v) == 0 {
		return nil, nil
	}
	if len(n) != len(v) {
		n = nil
	}
	if len(uv) != len(v) {
		uv = nil
	}
	return NewMesh(name, v, n, uv, f)
}

func readVec3Accessor(doc *gltf.Document, idx uint32) ([]core.Vec3, error) {
	data, err := readAccessorFloats(doc, idx, 3)
	if err != nil {
		return nil, err
	}
	out := make([]core.Vec3, len(data))
	for i, c := range data {
		out[i] = core.NewVec3(float64(c[0]), float64(c[1]), float64(c[2]))
	}
	return out, nil
}

func readVec2Accessor(doc *gltf.Document, idx uint32) ([]core.Vec2, error) {
	data, err := readAccessorFloats(doc, idx, 2)
	if err != nil {
		return nil, err
	}
	out := make([]core.Vec2, len(data))
	for i, c := range data {
		out[i] = core.NewVec2(float64(c[0]), float64(c[1]))
	}
	return out, nil
}

// readAccessorFloats reads componentCount float32 components per element
// from a VEC2/VEC3 accessor's backing buffer view, honoring any explicit
// interleaved stride.
func readAccessorFloats(doc *gltf.Document, idx uint32, componentCount int) ([][]float32, error) {
	accessor := doc.Accessors[idx]
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no buffer view", idx)
	}
	bv := doc.BufferViews[*accessor.BufferView]
	buf := doc.Buffers[bv.Buffer]
	if buf.Data == nil {
		return nil, fmt.Errorf("accessor %d: buffer has no embedded data", idx)
	}

	stride := bv.ByteStride
	if stride == 0 {
		stride = uint32(componentCount) * 4
	}
	start := bv.ByteOffset + accessor.ByteOffset
	out := make([][]float32, accessor.Count)
	for i := uint32(0); i < accessor.Count; i++ {
		offset := start + i*stride
		row := make([]float32, componentCount)
		for c := 0; c < componentCount; c++ {
			row[c] = readFloat32LE(buf.Data[offset+uint32(c)*4:])
		}
		out[i] = row
	}
	return out, nil
}

func readIndexAccessor(doc *gltf.Document, idx uint32) ([]int, error) {
	accessor := doc.Accessors[idx]
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("index accessor %d has no buffer view", idx)
	}
	bv := doc.BufferViews[*accessor.BufferView]
	buf := doc.Buffers[bv.Buffer]
	if buf.Data == nil {
		return nil, fmt.Errorf("index accessor %d: buffer has no embedded data", idx)
	}

	var compSize uint32
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		compSize = 1
	case gltf.ComponentUshort:
		compSize = 2
	case gltf.ComponentUint:
		compSize = 4
	default:
		return nil, fmt.Errorf("index accessor %d: unsupported component type %v", idx, accessor.ComponentType)
	}

	stride := bv.ByteStride
	if stride == 0 {
		stride = compSize
	}
	start := bv.ByteOffset + accessor.ByteOffset
	out := make([]int, accessor.Count)
	for i := uint32(0); i < accessor.Count; i++ {
		offset := start + i*stride
		switch compSize {
		case 1:
			out[i] = int(buf.Data[offset])
		case 2:
			out[i] = int(buf.Data[offset]) | int(buf.Data[offset+1])<<8
		case 4:
			out[i] = int(buf.Data[offset]) | int(buf.Data[offset+1])<<8 |
				int(buf.Data[offset+2])<<16 | int(buf.Data[offset+3])<<24
		}
	}
	return out, nil
}

func readFloat32LE(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
