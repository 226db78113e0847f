package warp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pathtrace/nori-go/pkg/core"
)

// chiSquareGrid bins samples drawn from `gen` into a resX*resY grid over
// domain [lo,hi]^2, compares the observed counts against the expected
// counts implied by integrating `pdf` over each cell, and fails if the
// chi-square statistic exceeds the critical value at 0.01 significance.
func chiSquareGrid(t *testing.T, n int, resX, resY int, lo, hi core.Vec2, gen func(core.Vec2) core.Vec2, pdf func(core.Vec2) float64) {
	t.Helper()
	counts := make([]float64, resX*resY)
	rng := rand.New(rand.NewSource(42))

	dx := (hi.X - lo.X) / float64(resX)
	dy := (hi.Y - lo.Y) / float64(resY)

	for i := 0; i < n; i++ {
		p := gen(core.Vec2{X: rng.Float64(), Y: rng.Float64()})
		ix := int((p.X - lo.X) / dx)
		iy := int((p.Y - lo.Y) / dy)
		if ix < 0 || ix >= resX || iy < 0 || iy >= resY {
			continue
		}
		counts[iy*resX+ix]++
	}

	// Integrate the analytic pdf over each cell with the midpoint rule on a
	// subSamples x subSamples grid to get expected counts.
	const subSamples = 128
	expected := make([]float64, resX*resY)
	for iy := 0; iy < resY; iy++ {
		for ix := 0; ix < resX; ix++ {
			sum := 0.0
			for sy := 0; sy < subSamples; sy++ {
				for sx := 0; sx < subSamples; sx++ {
					u := lo.X + (float64(ix)+(float64(sx)+0.5)/subSamples)*dx
					v := lo.Y + (float64(iy)+(float64(sy)+0.5)/subSamples)*dy
					sum += pdf(core.Vec2{X: u, Y: v})
				}
			}
			density := sum / (subSamples * subSamples)
			expected[iy*resX+ix] = density * dx * dy * float64(n)
		}
	}

	chi2 := 0.0
	dof := 0
	for i := range counts {
		if expected[i] < 5 {
			continue // too sparse to contribute reliably
		}
		diff := counts[i] - expected[i]
		chi2 += diff * diff / expected[i]
		dof++
	}
	if dof == 0 {
		t.Fatal("chi-square test degenerate: no cells with sufficient expected count")
	}
	// Loose critical bound: for large dof the chi-square statistic should
	// not exceed roughly dof + 4*sqrt(2*dof) at 0.01 significance.
	critical := float64(dof) + 4*math.Sqrt(2*float64(dof))
	if chi2 > critical {
		t.Errorf("chi-square statistic %v exceeds critical value %v (dof=%d)", chi2, critical, dof)
	}
}

func TestSquareToUniformSquareChiSquare(t *testing.T) {
	chiSquareGrid(t, 100000, 8, 8, core.Vec2{X: 0, Y: 0}, core.Vec2{X: 1, Y: 1},
		SquareToUniformSquare, SquareToUniformSquarePDF)
}

func TestSquareToTentChiSquare(t *testing.T) {
	chiSquareGrid(t, 100000, 8, 8, core.Vec2{X: -1, Y: -1}, core.Vec2{X: 1, Y: 1},
		SquareToTent, SquareToTentPDF)
}

func TestSquareToUniformDiskChiSquare(t *testing.T) {
	chiSquareGrid(t, 100000, 8, 8, core.Vec2{X: -1, Y: -1}, core.Vec2{X: 1, Y: 1},
		SquareToUniformDisk, SquareToUniformDiskPDF)
}

func sphericalProject(v core.Vec3) core.Vec2 {
	// equal-area-ish projection onto [-1,1]^2 via (x,y) components of the
	// unit vector, sufficient for a binned chi-square check.
	return core.Vec2{X: v.X, Y: v.Y}
}

func TestSquareToUniformSphereChiSquare(t *testing.T) {
	chiSquareGrid(t, 100000, 8, 8, core.Vec2{X: -1, Y: -1}, core.Vec2{X: 1, Y: 1},
		func(s core.Vec2) core.Vec2 { return sphericalProject(SquareToUniformSphere(s)) },
		func(p core.Vec2) float64 {
			z2 := 1 - p.X*p.X - p.Y*p.Y
			if z2 < 0 {
				return 0
			}
			z := math.Sqrt(z2)
			// Jacobian from (x,y) on the disk back to solid angle for each
			// hemisphere sheet; both sheets contribute equally for a
			// uniform sphere so the density in (x,y) is 1/(2*pi*z).
			if z == 0 {
				return 0
			}
			return 1 / (2 * math.Pi * z)
		})
}

func TestSquareToCosineHemisphereChiSquare(t *testing.T) {
	chiSquareGrid(t, 100000, 8, 8, core.Vec2{X: -1, Y: -1}, core.Vec2{X: 1, Y: 1},
		func(s core.Vec2) core.Vec2 { return sphericalProject(SquareToCosineHemisphere(s)) },
		SquareToUniformDiskPDF) // cosine-hemisphere projects to a uniform disk in (x,y)
}

func TestSquareToBeckmannNormalization(t *testing.T) {
	testMicrofacetPDFNormalization(t, 0.1, SquareToBeckmann, SquareToBeckmannPDF)
	testMicrofacetPDFNormalization(t, 0.5, SquareToBeckmann, SquareToBeckmannPDF)
}

func TestSquareToGGXNormalization(t *testing.T) {
	testMicrofacetPDFNormalization(t, 0.1, SquareToGGX, SquareToGGXPDF)
	testMicrofacetPDFNormalization(t, 0.5, SquareToGGX, SquareToGGXPDF)
}

// testMicrofacetPDFNormalization checks that the analytic PDF is positive at
// every generated sample and that it integrates to 1 (within 1%) over the
// hemisphere. Both PDFs are rotationally symmetric about z, so the
// solid-angle integral is 2*pi times an integral over cos(theta) in [0,1],
// evaluated with the midpoint rule.
func testMicrofacetPDFNormalization(t *testing.T, alpha float64, gen func(core.Vec2, float64) core.Vec3, pdf func(core.Vec3, float64) float64) {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	const n = 200000
	for i := 0; i < n; i++ {
		m := gen(core.Vec2{X: rng.Float64(), Y: rng.Float64()}, alpha)
		p := pdf(m, alpha)
		if p <= 0 {
			t.Fatalf("pdf <= 0 for generated sample m=%v", m)
		}
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		cosTheta := (float64(i) + 0.5) / n
		sum += pdf(core.NewVec3(math.Sqrt(1-cosTheta*cosTheta), 0, cosTheta), alpha)
	}
	if integral := 2 * math.Pi * sum / n; math.Abs(integral-1) > 0.01 {
		t.Errorf("alpha=%v: integral of pdf over the hemisphere = %v, want 1 within 1%%", alpha, integral)
	}
}

func TestSquareToGGXVNDFConsistency(t *testing.T) {
	wi := core.NewVec3(0.3, 0.1, 0.9).Normalize()
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		m := SquareToGGXVNDF(core.Vec2{X: rng.Float64(), Y: rng.Float64()}, wi, 0.3)
		if m.Z <= 0 {
			t.Fatalf("SquareToGGXVNDF produced back-facing normal %v for wi=%v", m, wi)
		}
		if p := SquareToGGXVNDFPDF(m, wi, 0.3); p <= 0 {
			t.Errorf("SquareToGGXVNDFPDF(%v, %v) = %v, want > 0", m, wi, p)
		}
	}
}

func TestSquareToUniformSquarePDFOutsideDomain(t *testing.T) {
	if p := SquareToUniformSquarePDF(core.Vec2{X: 1.5, Y: 0.5}); p != 0 {
		t.Errorf("PDF outside [0,1]^2 = %v, want 0", p)
	}
}
