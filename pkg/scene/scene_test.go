package scene

import (
	"testing"

	"github.com/pathtrace/nori-go/pkg/accel"
	"github.com/pathtrace/nori-go/pkg/bsdf"
	"github.com/pathtrace/nori-go/pkg/camera"
	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/emitter"
	"github.com/pathtrace/nori-go/pkg/mesh"
)

func testCamera() *camera.Camera {
	toWorld := camera.Transform{Origin: core.NewVec3(0, 1, -5), Basis: core.NewFrame(core.NewVec3(0, 0, 1))}
	return camera.NewCamera(toWorld, 40, 0.01, 1000, 64, 64, camera.Box)
}

func quadMesh(t *testing.T, name string, v0, v1, v2, v3 core.Vec3) *mesh.Mesh {
	t.Helper()
	m, err := mesh.NewMesh(name, []core.Vec3{v0, v1, v2, v3}, nil, nil, []int{0, 1, 2, 0, 2, 3})
	if err != nil {
		t.Fatalf("NewMesh(%s): %v", name, err)
	}
	return m
}

// cornellBox builds a minimal Cornell-box style room (floor, ceiling, back
// wall, two side walls, one area light on the ceiling) exercising Scene's
// mesh/light bookkeeping end to end.
func cornellBox(t *testing.T) *Scene {
	t.Helper()
	s, err := New(testCamera(), Config{Selection: PowerWeighted})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	white := bsdf.NewDiffuse(core.NewVec3(0.73, 0.73, 0.73))
	red := bsdf.NewDiffuse(core.NewVec3(0.65, 0.05, 0.05))
	green := bsdf.NewDiffuse(core.NewVec3(0.12, 0.45, 0.15))

	floor := quadMesh(t, "floor", core.NewVec3(-1, 0, -1), core.NewVec3(1, 0, -1), core.NewVec3(1, 0, 1), core.NewVec3(-1, 0, 1))
	floor.BSDF = white
	ceiling := quadMesh(t, "ceiling", core.NewVec3(-1, 2, 1), core.NewVec3(1, 2, 1), core.NewVec3(1, 2, -1), core.NewVec3(-1, 2, -1))
	ceiling.BSDF = white
	back := quadMesh(t, "back", core.NewVec3(-1, 0, 1), core.NewVec3(1, 0, 1), core.NewVec3(1, 2, 1), core.NewVec3(-1, 2, 1))
	back.BSDF = white
	leftWall := quadMesh(t, "left", core.NewVec3(-1, 0, 1), core.NewVec3(-1, 0, -1), core.NewVec3(-1, 2, -1), core.NewVec3(-1, 2, 1))
	leftWall.BSDF = red
	rightWall := quadMesh(t, "right", core.NewVec3(1, 0, -1), core.NewVec3(1, 0, 1), core.NewVec3(1, 2, 1), core.NewVec3(1, 2, -1))
	rightWall.BSDF = green

	light := quadMesh(t, "light", core.NewVec3(-0.25, 1.99, -0.25), core.NewVec3(0.25, 1.99, -0.25), core.NewVec3(0.25, 1.99, 0.25), core.NewVec3(-0.25, 1.99, 0.25))
	light.Emitter = emitter.NewAreaLight(core.NewVec3(15, 15, 15))

	for _, m := range []*mesh.Mesh{floor, ceiling, back, leftWall, rightWall, light} {
		if err := s.AddMesh(m); err != nil {
			t.Fatalf("AddMesh(%s): %v", m.Name, err)
		}
	}
	return s
}

func TestSceneBuildPartitionsLights(t *testing.T) {
	s := cornellBox(t)
	if err := s.Build(accel.NewBVH(), nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got, want := len(s.Meshes), 6; got != want {
		t.Errorf("len(Meshes) = %d, want %d", got, want)
	}
	if got, want := s.NumLights(), 1; got != want {
		t.Errorf("NumLights() = %d, want %d", got, want)
	}
}

func TestSceneSampleLightSelectsRegisteredLight(t *testing.T) {
	s := cornellBox(t)
	if err := s.Build(accel.NewBVH(), nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	light, pdf, ok := s.SampleLight(0.5)
	if !ok {
		t.Fatal("SampleLight() ok = false, want true")
	}
	if light != s.Lights[0] {
		t.Errorf("SampleLight() returned unexpected mesh %q", light.Name)
	}
	if pdf <= 0 || pdf > 1 {
		t.Errorf("SampleLight() pdf = %v, want in (0,1]", pdf)
	}
	if got := s.LightSelectionPDF(light); got != pdf {
		t.Errorf("LightSelectionPDF() = %v, want %v", got, pdf)
	}
}

func TestSceneSampleLightWithoutLightsFails(t *testing.T) {
	s, err := New(testCamera(), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	floor := quadMesh(t, "floor", core.NewVec3(-1, 0, -1), core.NewVec3(1, 0, -1), core.NewVec3(1, 0, 1), core.NewVec3(-1, 0, 1))
	if err := s.AddMesh(floor); err != nil {
		t.Fatalf("AddMesh: %v", err)
	}
	if err := s.Build(accel.NewBVH(), nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, _, ok := s.SampleLight(0.5); ok {
		t.Error("SampleLight() ok = true, want false for scene with no lights")
	}
}

func TestSceneRayIntersectHitsFloor(t *testing.T) {
	s := cornellBox(t)
	if err := s.Build(accel.NewOctree(), nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	ray := core.NewRayRange(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0), core.Epsilon, 1000)
	hit, ok := s.RayIntersect(ray, false)
	if !ok {
		t.Fatal("RayIntersect() ok = false, want true")
	}
	if hit.Mesh.Name != "floor" {
		t.Errorf("RayIntersect() hit mesh %q, want floor", hit.Mesh.Name)
	}
}

func TestSceneBuildRejectsEmptyMeshList(t *testing.T) {
	s, err := New(testCamera(), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Build(accel.NewBVH(), nil); err == nil {
		t.Error("Build() err = nil, want error for scene with no meshes")
	}
}

func TestSceneBuildRejectsNilCamera(t *testing.T) {
	if _, err := New(nil, Config{}); err == nil {
		t.Error("New(nil, ...) err = nil, want error")
	}
}
