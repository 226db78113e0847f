// Package scene ties meshes, lights, the acceleration structure, camera and
// light-selection strategy together into the object an integrator renders
// against.
package scene

import (
	"fmt"

	"github.com/pathtrace/nori-go/pkg/accel"
	"github.com/pathtrace/nori-go/pkg/bsdf"
	"github.com/pathtrace/nori-go/pkg/camera"
	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/mesh"
)

// LightSelection controls how a light is picked for next-event estimation.
type LightSelection int

const (
	// Uniform picks among lights with equal probability.
	Uniform LightSelection = iota
	// PowerWeighted picks a light with probability proportional to its
	// total emitted power, reducing variance when lights differ greatly
	// in brightness.
	PowerWeighted
)

// Logger is the minimal structured-logging surface Scene needs to report
// build-time diagnostics without depending on a concrete logging package.
type Logger interface {
	Printf(format string, args ...any)
}

// Config holds scene-build-time options that don't belong on individual
// meshes or the camera.
type Config struct {
	Selection LightSelection
}

// Scene is a fully activated collection of meshes, lights, an acceleration
// structure and a camera, ready for an integrator to trace rays against.
type Scene struct {
	Meshes []*mesh.Mesh
	Lights []*mesh.Mesh
	Accel  accel.Accelerator
	Camera *camera.Camera

	lightDist   *core.Distribution1D
	selection   LightSelection
	defaultBSDF bsdf.BSDF
	built       bool
}

// New constructs an empty scene bound to the given camera. Meshes must be
// added with AddMesh before calling Build.
func New(cam *camera.Camera, cfg Config) (*Scene, error) {
	if cam == nil {
		return nil, fmt.Errorf("scene: no camera specified")
	}
	return &Scene{
		Camera:      cam,
		selection:   cfg.Selection,
		defaultBSDF: bsdf.NewDiffuse(core.NewVec3(0.5, 0.5, 0.5)),
	}, nil
}

// AddMesh registers a mesh with the scene. Must be called before Build.
func (s *Scene) AddMesh(m *mesh.Mesh) error {
	if s.built {
		return fmt.Errorf("scene: cannot add mesh after Build")
	}
	s.Meshes = append(s.Meshes, m)
	return nil
}

// Build activates every registered mesh, partitions out emitters as lights,
// constructs the acceleration structure and the light-selection
// distribution. Must be called exactly once before rendering.
func (s *Scene) Build(accelerator accel.Accelerator, logger Logger) error {
	if s.built {
		return fmt.Errorf("scene: already built")
	}
	if len(s.Meshes) == 0 {
		return fmt.Errorf("scene: no meshes")
	}
	if logger == nil {
		logger = noopLogger{}
	}

	for _, m := range s.Meshes {
		if err := m.Activate(s.defaultBSDF, logger); err != nil {
			return fmt.Errorf("scene: activating mesh %q: %w", m.Name, err)
		}
		if m.Emitter != nil {
			s.Lights = append(s.Lights, m)
		}
		accelerator.AddMesh(m)
	}
	if err := accelerator.Build(); err != nil {
		return fmt.Errorf("scene: building acceleration structure: %w", err)
	}
	s.Accel = accelerator

	s.buildLightDistribution()

	logger.Printf("scene: %d mesh(es), %d light(s), bounds %v", len(s.Meshes), len(s.Lights), s.Accel.Bounds())
	s.built = true
	return nil
}

func (s *Scene) buildLightDistribution() {
	if len(s.Lights) == 0 {
		return
	}
	weights := make([]float64, len(s.Lights))
	for i, light := range s.Lights {
		switch s.selection {
		case PowerWeighted:
			weights[i] = light.Emitter.Power()
		default:
			weights[i] = 1
		}
	}
	s.lightDist = core.NewDistribution1D(weights)
}

// NumLights returns the number of emitter meshes in the scene.
func (s *Scene) NumLights() int { return len(s.Lights) }

// SampleLight picks a light for next-event estimation given a single
// uniform random number, returning the light mesh and the discrete
// probability it was selected with.
func (s *Scene) SampleLight(u float64) (light *mesh.Mesh, pLight float64, ok bool) {
	if s.lightDist == nil {
		return nil, 0, false
	}
	idx, pdf, sampled := s.lightDist.Sample(u)
	if !sampled {
		return nil, 0, false
	}
	return s.Lights[idx], pdf, true
}

// LightSelectionPDF returns the discrete probability that light would be
// chosen by SampleLight, or zero if it isn't a registered light.
func (s *Scene) LightSelectionPDF(light *mesh.Mesh) float64 {
	if s.lightDist == nil {
		return 0
	}
	for i, l := range s.Lights {
		if l == light {
			return s.lightDist.PMF(i)
		}
	}
	return 0
}

// RayIntersect delegates to the scene's acceleration structure.
func (s *Scene) RayIntersect(ray core.Ray, shadow bool) (mesh.Intersection, bool) {
	return s.Accel.RayIntersect(ray, shadow)
}

// Bounds returns the world-space bounding box of the entire scene.
func (s *Scene) Bounds() core.BoundingBox { return s.Accel.Bounds() }

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}
