package core

import (
	"math"
	"testing"
)

func TestVec3Dot(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -5, 6)
	if got := a.Dot(b); got != 12 {
		t.Errorf("Dot() = %v, want 12", got)
	}
}

func TestVec3Cross(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	got := x.Cross(y)
	want := NewVec3(0, 0, 1)
	if !got.Equals(want) {
		t.Errorf("Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := NewVec3(3, 4, 0)
	n := v.Normalize()
	if math.Abs(n.Length()-1) > 1e-9 {
		t.Errorf("Normalize() length = %v, want 1", n.Length())
	}

	zero := Vec3{}.Normalize()
	if !zero.IsZero() {
		t.Errorf("Normalize() of zero vector = %v, want zero", zero)
	}
}

func TestVec3Reflect(t *testing.T) {
	v := NewVec3(1, -1, 0)
	n := NewVec3(0, 1, 0)
	got := Reflect(v, n)
	want := NewVec3(1, 1, 0)
	if !got.Equals(want) {
		t.Errorf("Reflect() = %v, want %v", got, want)
	}
}

func TestVec3HasNaN(t *testing.T) {
	if NewVec3(1, 2, 3).HasNaN() {
		t.Error("HasNaN() = true for finite vector")
	}
	if !NewVec3(math.NaN(), 0, 0).HasNaN() {
		t.Error("HasNaN() = false for NaN vector")
	}
}

func TestVec3Luminance(t *testing.T) {
	white := NewVec3(1, 1, 1)
	if got := white.Luminance(); math.Abs(got-1) > 1e-9 {
		t.Errorf("Luminance(white) = %v, want 1", got)
	}
}

func TestDistribution1DUniform(t *testing.T) {
	d := NewDistribution1D([]float64{1, 1, 1, 1})
	counts := make([]int, 4)
	const n = 100000
	for i := 0; i < n; i++ {
		u := (float64(i) + 0.5) / n
		idx, pdf, ok := d.Sample(u)
		if !ok {
			t.Fatalf("Sample() ok = false")
		}
		if math.Abs(pdf-0.25) > 1e-9 {
			t.Errorf("Sample() pdf = %v, want 0.25", pdf)
		}
		counts[idx]++
	}
	for i, c := range counts {
		if math.Abs(float64(c)/n-0.25) > 0.01 {
			t.Errorf("bin %d fraction = %v, want ~0.25", i, float64(c)/n)
		}
	}
}

func TestDistribution1DWeighted(t *testing.T) {
	d := NewDistribution1D([]float64{1, 3})
	if got := d.PMF(0); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("PMF(0) = %v, want 0.25", got)
	}
	if got := d.PMF(1); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("PMF(1) = %v, want 0.75", got)
	}
}

func TestDistribution1DEmpty(t *testing.T) {
	d := NewDistribution1D(nil)
	if _, _, ok := d.Sample(0.5); ok {
		t.Error("Sample() on empty distribution should report ok=false")
	}
}
