// Package warp implements the canonical square-to-X samplers used by BSDFs,
// emitters and the camera: each function maps a uniform sample on [0,1)^2 (or
// a subset of it) to a point in some domain X, paired with a PDF function
// for the same measure, so that integrators can importance-sample and
// still compute unbiased Monte Carlo estimates (spec §4.2).
package warp

import (
	"math"

	"github.com/pathtrace/nori-go/pkg/core"
)

// SquareToUniformSquare is the identity map; its PDF is 1 inside [0,1]^2
// and 0 outside, included for symmetry with the other warps and for the
// χ² harness baseline.
func SquareToUniformSquare(sample core.Vec2) core.Vec2 { return sample }

// SquareToUniformSquarePDF returns the area-measure PDF of SquareToUniformSquare.
func SquareToUniformSquarePDF(p core.Vec2) float64 {
	if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
		return 0
	}
	return 1
}

// SquareToTent maps [0,1)^2 to [-1,1]^2 with a tent (triangular) density,
// via the per-axis inverse CDF: u<0.5 -> sqrt(2u)-1, else 1-sqrt(2-2u).
func SquareToTent(sample core.Vec2) core.Vec2 {
	return core.Vec2{X: tentInverseCDF(sample.X), Y: tentInverseCDF(sample.Y)}
}

func tentInverseCDF(u float64) float64 {
	if u < 0.5 {
		return math.Sqrt(2*u) - 1
	}
	return 1 - math.Sqrt(2-2*u)
}

// SquareToTentPDF returns the area-measure PDF of SquareToTent: (1-|x|)(1-|y|).
func SquareToTentPDF(p core.Vec2) float64 {
	if p.X < -1 || p.X > 1 || p.Y < -1 || p.Y > 1 {
		return 0
	}
	return (1 - math.Abs(p.X)) * (1 - math.Abs(p.Y))
}

// SquareToUniformDisk maps [0,1)^2 to the unit disk with uniform area density,
// using the concentric-mapping form to avoid the distortion of polar mapping.
func SquareToUniformDisk(sample core.Vec2) core.Vec2 {
	// Map to [-1,1]^2 first.
	a := 2*sample.X - 1
	b := 2*sample.Y - 1
	if a == 0 && b == 0 {
		return core.Vec2{}
	}

	var r, theta float64
	if math.Abs(a) > math.Abs(b) {
		r = a
		theta = (math.Pi / 4) * (b / a)
	} else {
		r = b
		theta = (math.Pi / 2) - (math.Pi/4)*(a/b)
	}
	return core.Vec2{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
}

// SquareToUniformDiskPDF returns the area-measure PDF of SquareToUniformDisk: 1/pi inside the disk.
func SquareToUniformDiskPDF(p core.Vec2) float64 {
	if p.X*p.X+p.Y*p.Y > 1 {
		return 0
	}
	return 1 / math.Pi
}

// SquareToUniformSphere maps [0,1)^2 to the unit sphere with uniform
// solid-angle density.
func SquareToUniformSphere(sample core.Vec2) core.Vec3 {
	z := 1 - 2*sample.X
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * sample.Y
	return core.Vec3{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

// SquareToUniformSpherePDF returns the solid-angle PDF of SquareToUniformSphere: 1/(4*pi).
func SquareToUniformSpherePDF(core.Vec3) float64 {
	return 1 / (4 * math.Pi)
}

// SquareToUniformHemisphere maps [0,1)^2 to the z>=0 hemisphere with uniform
// solid-angle density.
func SquareToUniformHemisphere(sample core.Vec2) core.Vec3 {
	z := sample.X
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * sample.Y
	return core.Vec3{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

// SquareToUniformHemispherePDF returns the solid-angle PDF of
// SquareToUniformHemisphere: 1/(2*pi) for z>=0, else 0.
func SquareToUniformHemispherePDF(v core.Vec3) float64 {
	if v.Z < 0 {
		return 0
	}
	return 1 / (2 * math.Pi)
}

// SquareToCosineHemisphere maps [0,1)^2 to the z>=0 hemisphere with a
// cosine-weighted solid-angle density, via Malley's method: sample a disk
// and project up onto the hemisphere.
func SquareToCosineHemisphere(sample core.Vec2) core.Vec3 {
	d := SquareToUniformDisk(sample)
	z := math.Sqrt(math.Max(0, 1-d.X*d.X-d.Y*d.Y))
	return core.Vec3{X: d.X, Y: d.Y, Z: z}
}

// SquareToCosineHemispherePDF returns the solid-angle PDF of
// SquareToCosineHemisphere: z/pi for z>=0, else 0.
func SquareToCosineHemispherePDF(v core.Vec3) float64 {
	if v.Z < 0 {
		return 0
	}
	return v.Z / math.Pi
}

// SquareToBeckmann samples a microfacet normal (z>=0) from the Beckmann
// distribution with roughness alpha.
func SquareToBeckmann(sample core.Vec2, alpha float64) core.Vec3 {
	phi := 2 * math.Pi * sample.X
	// tan^2(theta) = -alpha^2 * ln(1-u)
	tan2Theta := -alpha * alpha * math.Log(1-sample.Y)
	cosTheta := 1 / math.Sqrt(1+tan2Theta)
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	return core.Vec3{X: sinTheta * math.Cos(phi), Y: sinTheta * math.Sin(phi), Z: cosTheta}
}

// SquareToBeckmannPDF returns the solid-angle PDF of a Beckmann-distributed
// normal m: exp(-tan^2(theta)/alpha^2) / (pi*alpha^2*cos^3(theta)).
func SquareToBeckmannPDF(m core.Vec3, alpha float64) float64 {
	if m.Z <= 0 {
		return 0
	}
	cosTheta := m.Z
	cos3Theta := cosTheta * cosTheta * cosTheta
	tan2Theta := core.TanTheta2(m)
	return math.Exp(-tan2Theta/(alpha*alpha)) / (math.Pi * alpha * alpha * cos3Theta)
}

// SquareToGGX samples a microfacet normal (z>=0) from the GGX (Trowbridge-Reitz)
// distribution with roughness alpha.
func SquareToGGX(sample core.Vec2, alpha float64) core.Vec3 {
	phi := 2 * math.Pi * sample.X
	cos2Theta := (1 - sample.Y) / (1 + (alpha*alpha-1)*sample.Y)
	cosTheta := math.Sqrt(math.Max(0, cos2Theta))
	sinTheta := math.Sqrt(math.Max(0, 1-cos2Theta))
	return core.Vec3{X: sinTheta * math.Cos(phi), Y: sinTheta * math.Sin(phi), Z: cosTheta}
}

// SquareToGGXPDF returns the solid-angle PDF of a GGX-distributed normal m,
// D(m)*cos(theta): alpha^2*cos(theta) / (pi*(cos^2(theta)*(alpha^2-1)+1)^2).
func SquareToGGXPDF(m core.Vec3, alpha float64) float64 {
	if m.Z <= 0 {
		return 0
	}
	a2 := alpha * alpha
	cos2Theta := m.Z * m.Z
	denom := cos2Theta*(a2-1) + 1
	return a2 * m.Z / (math.Pi * denom * denom)
}

// SquareToGGXVNDF samples a microfacet normal from the distribution of
// visible normals (Heitz 2018) for the GGX distribution, given the local
// incident direction wi (wi.Z > 0 assumed). Importance-sampling the visible
// rather than the full normal distribution removes the need to reject
// back-facing microfacets and lowers variance at grazing angles.
func SquareToGGXVNDF(sample core.Vec2, wi core.Vec3, alpha float64) core.Vec3 {
	vh := core.Vec3{X: alpha * wi.X, Y: alpha * wi.Y, Z: wi.Z}.Normalize()

	lensq := vh.X*vh.X + vh.Y*vh.Y
	var t1 core.Vec3
	if lensq > 0 {
		invLen := 1 / math.Sqrt(lensq)
		t1 = core.Vec3{X: -vh.Y * invLen, Y: vh.X * invLen, Z: 0}
	} else {
		t1 = core.Vec3{X: 1, Y: 0, Z: 0}
	}
	t2 := vh.Cross(t1)

	r := math.Sqrt(sample.X)
	phi := 2 * math.Pi * sample.Y
	p1 := r * math.Cos(phi)
	p2 := r * math.Sin(phi)
	s := 0.5 * (1 + vh.Z)
	p2 = (1-s)*math.Sqrt(math.Max(0, 1-p1*p1)) + s*p2

	nh := t1.Multiply(p1).Add(t2.Multiply(p2)).Add(vh.Multiply(math.Sqrt(math.Max(0, 1-p1*p1-p2*p2))))

	ne := core.Vec3{X: alpha * nh.X, Y: alpha * nh.Y, Z: math.Max(1e-6, nh.Z)}.Normalize()
	return ne
}

// SquareToGGXVNDFPDF returns the solid-angle PDF of the visible normal m
// sampled by SquareToGGXVNDF for incident direction wi: D(m)*G1(wi,m)*|wi.m| / wi.z,
// converted from the visible-normal measure to the half-vector measure the
// BSDF reflection mapping wo=reflect(wi,m) consumes.
func SquareToGGXVNDFPDF(m, wi core.Vec3, alpha float64) float64 {
	if core.CosTheta(wi) <= 0 || m.Z <= 0 {
		return 0
	}
	d := SquareToGGXPDF(m, alpha) / m.Z // D(m): the GGX pdf without its cos(theta) factor
	g1 := smithG1GGX(wi, alpha)
	cosTheta := wi.AbsDot(m)
	return g1 * cosTheta * d / core.AbsCosTheta(wi)
}

// smithG1GGX is the Smith masking term for a single direction under the GGX
// distribution, used by SquareToGGXVNDFPDF.
func smithG1GGX(v core.Vec3, alpha float64) float64 {
	cosTheta := core.AbsCosTheta(v)
	if cosTheta <= 0 {
		return 0
	}
	tan2Theta := core.TanTheta2(v)
	if math.IsInf(tan2Theta, 1) {
		return 0
	}
	a2 := alpha * alpha
	return 2 / (1 + math.Sqrt(1+a2*tan2Theta))
}
