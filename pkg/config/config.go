// Package config loads a YAML scene description into a built scene.Scene,
// an integrator and render options, the external-interface surface
// described by the configuration surface (§6 in the project's design
// documents): one integrator, one camera, one sampler, and any number of
// meshes carrying their own bsdf/emitter children.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pathtrace/nori-go/pkg/accel"
	"github.com/pathtrace/nori-go/pkg/bsdf"
	"github.com/pathtrace/nori-go/pkg/camera"
	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/emitter"
	"github.com/pathtrace/nori-go/pkg/integrator"
	"github.com/pathtrace/nori-go/pkg/mesh"
	"github.com/pathtrace/nori-go/pkg/scene"
)

// file is the raw YAML document shape.
type file struct {
	Integrator *integratorDoc `yaml:"integrator"`
	Sampler    *samplerDoc    `yaml:"sampler"`
	Camera     *cameraDoc     `yaml:"camera"`
	Accel      string         `yaml:"accel"` // "bvh" (default) or "octree"
	Selection  string         `yaml:"lightSelection"` // "uniform" (default) or "power"
	Meshes     []meshDoc      `yaml:"meshes"`
}

type integratorDoc struct {
	Type     string     `yaml:"type"` // ao, simple, whitted, path_mats, path_ems, path_mis
	MIS      string     `yaml:"mis"`  // balance (default) or power, for path_mis
	MaxDepth int        `yaml:"maxDepth"`
	AODist   float64    `yaml:"aoDistance"`
	Position [3]float64 `yaml:"position"` // simple: point light position
	Energy   [3]float64 `yaml:"energy"`   // simple: point light radiant intensity
}

type samplerDoc struct {
	Type        string `yaml:"type"` // only "independent" is supported
	SampleCount int    `yaml:"sampleCount"`
}

type cameraDoc struct {
	Fov        float64    `yaml:"fov"`
	NearClip   float64    `yaml:"nearClip"`
	FarClip    float64    `yaml:"farClip"`
	RFilter    string     `yaml:"rfilter"` // box (default) or tent
	OutputSize [2]int     `yaml:"outputSize"`
	ToWorld    toWorldDoc `yaml:"toWorld"`
}

// toWorldDoc specifies the camera placement as a look-at transform rather
// than a raw 4x4 matrix: the camera is always a rigid transform (no scale
// or shear), so origin/target/up fully determines it.
type toWorldDoc struct {
	Origin [3]float64 `yaml:"origin"`
	Target [3]float64 `yaml:"target"`
	Up     [3]float64 `yaml:"up"`
}

type meshDoc struct {
	Name string       `yaml:"name"`
	File string       `yaml:"file"` // path to a .gltf/.glb mesh, in place of inline v/f
	V    [][3]float64 `yaml:"v"`
	N    [][3]float64 `yaml:"n"`
	UV   [][2]float64 `yaml:"uv"`
	F    []int        `yaml:"f"`

	BSDF    *bsdfDoc    `yaml:"bsdf"`
	Emitter *emitterDoc `yaml:"emitter"`
}

type bsdfDoc struct {
	Type         string     `yaml:"type"` // diffuse, dielectric, microfacet
	Albedo       [3]float64 `yaml:"albedo"`
	IntIOR       float64    `yaml:"intIOR"`
	ExtIOR       float64    `yaml:"extIOR"`
	Alpha        float64    `yaml:"alpha"`
	Kd           [3]float64 `yaml:"kd"`
	Distribution string     `yaml:"distribution"` // beckmann (default) or ggx
	VNDF         bool       `yaml:"vndf"`
}

type emitterDoc struct {
	Type     string     `yaml:"type"` // only "area" is supported
	Radiance [3]float64 `yaml:"radiance"`
}

// Result holds everything needed to render once Load succeeds.
type Result struct {
	Scene       *scene.Scene
	Integrator  integrator.Integrator
	SampleCount int
}

// Load reads and validates a YAML scene description from path, building a
// fully activated Scene, the configured Integrator, and the sampler's
// configured sample count (32 when the sampler block is absent).
// Configuration errors (missing integrator or camera; duplicate keys, which
// the YAML decoder rejects; unknown type tags; missing required fields) are
// returned as a wrapped error and are fatal — the caller should print and
// exit rather than attempt a partial render.
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parsing %q: %w", path, err)
	}

	if f.Integrator == nil {
		return nil, fmt.Errorf("config: no integrator specified")
	}
	if f.Camera == nil {
		return nil, fmt.Errorf("config: no camera specified")
	}
	if len(f.Meshes) == 0 {
		return nil, fmt.Errorf("config: no meshes specified")
	}

	cam, err := buildCamera(f.Camera)
	if err != nil {
		return nil, fmt.Errorf("config: camera: %w", err)
	}

	integ, err := buildIntegrator(f.Integrator)
	if err != nil {
		return nil, fmt.Errorf("config: integrator: %w", err)
	}

	sampleCount := 32
	if f.Sampler != nil {
		if f.Sampler.Type != "" && f.Sampler.Type != "independent" {
			return nil, fmt.Errorf("config: sampler: unknown type %q", f.Sampler.Type)
		}
		if f.Sampler.SampleCount > 0 {
			sampleCount = f.Sampler.SampleCount
		}
	}

	selection := scene.Uniform
	if f.Selection == "power" {
		selection = scene.PowerWeighted
	}
	sc, err := scene.New(cam, scene.Config{Selection: selection})
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	for _, md := range f.Meshes {
		meshes, err := buildMeshes(md)
		if err != nil {
			return nil, fmt.Errorf("config: mesh %q: %w", md.Name, err)
		}
		for _, m := range meshes {
			if err := sc.AddMesh(m); err != nil {
				return nil, fmt.Errorf("config: mesh %q: %w", m.Name, err)
			}
		}
	}

	var accelerator accel.Accelerator
	switch f.Accel {
	case "", "bvh":
		accelerator = accel.NewBVH()
	case "octree":
		accelerator = accel.NewOctree()
	default:
		return nil, fmt.Errorf("config: unknown accel type %q", f.Accel)
	}

	if err := sc.Build(accelerator, nil); err != nil {
		return nil, fmt.Errorf("config: building scene: %w", err)
	}

	return &Result{
		Scene:       sc,
		Integrator:  integ,
		SampleCount: sampleCount,
	}, nil
}

func buildCamera(c *cameraDoc) (*camera.Camera, error) {
	if c.OutputSize[0] <= 0 || c.OutputSize[1] <= 0 {
		return nil, fmt.Errorf("outputSize must be positive, got %v", c.OutputSize)
	}
	fov := c.Fov
	if fov <= 0 {
		fov = 30
	}
	near, far := c.NearClip, c.FarClip
	if near <= 0 {
		near = 1e-4
	}
	if far <= 0 {
		far = 1e4
	}

	origin := vec3From(c.ToWorld.Origin)
	target := vec3From(c.ToWorld.Target)
	up := vec3From(c.ToWorld.Up)
	if up.IsZero() {
		up = core.NewVec3(0, 1, 0)
	}
	forward := target.Subtract(origin).Normalize()
	if forward.IsZero() {
		return nil, fmt.Errorf("toWorld: origin and target coincide")
	}

	rfilter := camera.Box
	if c.RFilter == "tent" {
		rfilter = camera.Tent
	} else if c.RFilter != "" && c.RFilter != "box" {
		return nil, fmt.Errorf("unknown rfilter %q", c.RFilter)
	}

	transform := camera.Transform{Origin: origin, Basis: lookAtFrame(forward, up)}
	return camera.NewCamera(transform, fov, near, far, c.OutputSize[0], c.OutputSize[1], rfilter), nil
}

// lookAtFrame builds an orthonormal frame whose local +Z is forward, using
// up only to disambiguate roll around that axis (it need not be
// perpendicular to forward).
func lookAtFrame(forward, up core.Vec3) core.Frame {
	s := forward.Cross(up).Normalize()
	if s.IsZero() {
		s = forward.Cross(core.NewVec3(0, 0, 1)).Normalize()
	}
	t := s.Cross(forward)
	return core.Frame{S: s, T: t, N: forward}
}

func buildIntegrator(d *integratorDoc) (integrator.Integrator, error) {
	switch d.Type {
	case "ao":
		return integrator.NewAO(d.AODist), nil
	case "simple":
		return integrator.NewSimple(vec3From(d.Position), vec3From(d.Energy)), nil
	case "whitted":
		return integrator.NewWhitted(d.MaxDepth), nil
	case "path_mats":
		return integrator.NewPathMATS(), nil
	case "path_ems":
		return integrator.NewPathEMS(), nil
	case "path_mis":
		h := integrator.Balance
		if d.MIS == "power" {
			h = integrator.Power
		} else if d.MIS != "" && d.MIS != "balance" {
			return nil, fmt.Errorf("unknown mis heuristic %q", d.MIS)
		}
		return integrator.NewPathMIS(h), nil
	default:
		return nil, fmt.Errorf("unknown integrator type %q", d.Type)
	}
}

// buildMeshes constructs the one or more mesh.Mesh values a meshDoc
// describes: a single mesh from inline vertex arrays, or every triangle
// mesh found in an external glTF/GLB file when File is set. Every
// resulting mesh shares the doc's bsdf/emitter assignment.
func buildMeshes(d meshDoc) ([]*mesh.Mesh, error) {
	var meshes []*mesh.Mesh
	if d.File != "" {
		loaded, err := mesh.LoadGLTF(d.File)
		if err != nil {
			return nil, err
		}
		meshes = loaded
	} else {
		if len(d.V) == 0 {
			return nil, fmt.Errorf("no vertices")
		}
		v := make([]core.Vec3, len(d.V))
		for i, p := range d.V {
			v[i] = vec3From(p)
		}
		var n []core.Vec3
		if len(d.N) > 0 {
			n = make([]core.Vec3, len(d.N))
			for i, p := range d.N {
				n[i] = vec3From(p)
			}
		}
		var uv []core.Vec2
		if len(d.UV) > 0 {
			uv = make([]core.Vec2, len(d.UV))
			for i, p := range d.UV {
				uv[i] = core.NewVec2(p[0], p[1])
			}
		}
		m, err := mesh.NewMesh(d.Name, v, n, uv, d.F)
		if err != nil {
			return nil, err
		}
		meshes = []*mesh.Mesh{m}
	}

	var b bsdf.BSDF
	if d.BSDF != nil {
		var err error
		b, err = buildBSDF(d.BSDF)
		if err != nil {
			return nil, fmt.Errorf("bsdf: %w", err)
		}
	}
	var e mesh.Emitter
	if d.Emitter != nil {
		var err error
		e, err = buildEmitter(d.Emitter)
		if err != nil {
			return nil, fmt.Errorf("emitter: %w", err)
		}
	}
	for _, m := range meshes {
		if b != nil {
			m.BSDF = b
		}
		if e != nil {
			m.Emitter = e
		}
	}
	return meshes, nil
}

func buildBSDF(d *bsdfDoc) (bsdf.BSDF, error) {
	switch d.Type {
	case "diffuse":
		return bsdf.NewDiffuse(vec3From(d.Albedo)), nil
	case "dielectric":
		intIOR, extIOR := d.IntIOR, d.ExtIOR
		if intIOR <= 0 {
			intIOR = 1.5046
		}
		if extIOR <= 0 {
			extIOR = 1.000277
		}
		return bsdf.NewDielectric(intIOR, extIOR), nil
	case "microfacet":
		intIOR, extIOR := d.IntIOR, d.ExtIOR
		if intIOR <= 0 {
			intIOR = 1.5046
		}
		if extIOR <= 0 {
			extIOR = 1.000277
		}
		alpha := d.Alpha
		if alpha <= 0 {
			alpha = 0.1
		}
		dist := bsdf.Beckmann
		if d.Distribution == "ggx" {
			dist = bsdf.GGX
		} else if d.Distribution != "" && d.Distribution != "beckmann" {
			return nil, fmt.Errorf("unknown microfacet distribution %q", d.Distribution)
		}
		return bsdf.NewMicrofacet(alpha, intIOR, extIOR, vec3From(d.Kd), dist, d.VNDF), nil
	default:
		return nil, fmt.Errorf("unknown bsdf type %q", d.Type)
	}
}

func buildEmitter(d *emitterDoc) (mesh.Emitter, error) {
	if d.Type != "" && d.Type != "area" {
		return nil, fmt.Errorf("unknown emitter type %q", d.Type)
	}
	return emitter.NewAreaLight(vec3From(d.Radiance)), nil
}

func vec3From(a [3]float64) core.Vec3 { return core.NewVec3(a[0], a[1], a[2]) }
