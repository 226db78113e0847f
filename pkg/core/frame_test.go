package core

import (
	"math"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	normals := []Vec3{
		NewVec3(0, 0, 1),
		NewVec3(0, 0, -1),
		NewVec3(1, 0, 0),
		NewVec3(0.5, 0.5, 0.7071).Normalize(),
	}
	for _, n := range normals {
		f := NewFrame(n)
		if !f.N.Equals(n) {
			t.Errorf("Frame.N = %v, want %v", f.N, n)
		}
		if math.Abs(f.S.Length()-1) > 1e-6 || math.Abs(f.T.Length()-1) > 1e-6 {
			t.Errorf("frame basis not unit length: s=%v t=%v", f.S, f.T)
		}
		if math.Abs(f.S.Dot(f.T)) > 1e-6 || math.Abs(f.S.Dot(f.N)) > 1e-6 || math.Abs(f.T.Dot(f.N)) > 1e-6 {
			t.Errorf("frame basis not orthogonal: s=%v t=%v n=%v", f.S, f.T, f.N)
		}

		v := NewVec3(0.3, -0.6, 0.2)
		local := f.ToLocal(v)
		back := f.ToWorld(local)
		if !back.Equals(v) {
			t.Errorf("ToWorld(ToLocal(v)) = %v, want %v", back, v)
		}
	}
}

func TestFrameCosTheta(t *testing.T) {
	f := NewFrame(NewVec3(0, 0, 1))
	local := f.ToLocal(NewVec3(0, 0, 1))
	if math.Abs(CosTheta(local)-1) > 1e-9 {
		t.Errorf("CosTheta() = %v, want 1", CosTheta(local))
	}
}
