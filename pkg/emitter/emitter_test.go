package emitter

import (
	"math"
	"testing"

	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/mesh"
)

type fakeBSDF struct{}

func (fakeBSDF) IsDiffuse() bool { return true }

func unitQuadEmitter(t *testing.T, radiance core.Vec3) (*mesh.Mesh, *AreaLight) {
	t.Helper()
	v := []core.Vec3{
		core.NewVec3(-0.5, -0.5, 0),
		core.NewVec3(0.5, -0.5, 0),
		core.NewVec3(0.5, 0.5, 0),
		core.NewVec3(-0.5, 0.5, 0),
	}
	f := []int{0, 1, 2, 0, 2, 3}
	m, err := mesh.NewMesh("quad", v, nil, nil, f)
	if err != nil {
		t.Fatal(err)
	}
	light := NewAreaLight(radiance)
	m.Emitter = light
	if err := m.Activate(fakeBSDF{}, nil); err != nil {
		t.Fatal(err)
	}
	return m, light
}

func TestAreaLightEvalFrontFace(t *testing.T) {
	_, light := unitQuadEmitter(t, core.NewVec3(2, 2, 2))
	rec := HitRecord{P: core.NewVec3(0, 0, 0), N: core.NewVec3(0, 0, 1), Wi: core.NewVec3(0, 0, 1)}
	if got := light.Eval(rec); !got.Equals(core.NewVec3(2, 2, 2)) {
		t.Errorf("Eval() front face = %v, want radiance", got)
	}
	rec.Wi = core.NewVec3(0, 0, -1)
	if got := light.Eval(rec); !got.IsZero() {
		t.Errorf("Eval() back face = %v, want zero", got)
	}
}

func TestAreaLightSampleDirectlyAbove(t *testing.T) {
	_, light := unitQuadEmitter(t, core.NewVec3(1, 1, 1))
	ref := core.NewVec3(0, 0, 2)
	refN := core.NewVec3(0, 0, -1) // reference surface facing down toward the light

	// triSample 0.75 picks the second triangle (0, 2, 3); u = (0.25, 0) gives
	// barycentrics (0.5, 0.5, 0), the midpoint of its 0-2 diagonal, which is
	// the quad centre directly below ref.
	rec, ok := light.Sample(ref, refN, core.NewVec2(0.25, 0), 0.75)
	if !ok {
		t.Fatal("Sample() ok = false for a light directly below a facing reference point")
	}
	if math.Abs(rec.Wi.Z-(-1)) > 1e-6 {
		t.Errorf("Wi = %v, want (0,0,-1)", rec.Wi)
	}
	if rec.PDF <= 0 {
		t.Errorf("PDF = %v, want > 0", rec.PDF)
	}
	if rec.ShadowRay.TMax <= 0 || rec.ShadowRay.TMax >= 2 {
		t.Errorf("ShadowRay.TMax = %v, want in (0,2)", rec.ShadowRay.TMax)
	}
}

func TestAreaLightSampleBehindReference(t *testing.T) {
	_, light := unitQuadEmitter(t, core.NewVec3(1, 1, 1))
	ref := core.NewVec3(0, 0, 2)
	refN := core.NewVec3(0, 0, 1) // reference surface facing away from the light

	_, ok := light.Sample(ref, refN, core.NewVec2(0.5, 0.5), 0.5)
	if ok {
		t.Error("Sample() ok = true for a reference point facing away from the light, want false")
	}
}

func TestAreaLightPowerProportionalToArea(t *testing.T) {
	_, light := unitQuadEmitter(t, core.NewVec3(1, 1, 1))
	want := 1 * 1 * math.Pi // unit area * luminance(1,1,1)=1 * pi
	if got := light.Power(); math.Abs(got-want) > 1e-6 {
		t.Errorf("Power() = %v, want %v", got, want)
	}
}
