// Package bsdf implements bidirectional scattering distribution functions:
// diffuse (Lambertian), ideal dielectric, and the combined diffuse+specular
// microfacet model, each evaluated in the local shading frame.
package bsdf

import (
	"math"

	"github.com/pathtrace/nori-go/pkg/core"
)

// Measure distinguishes a solid-angle density (continuous BSDFs) from a
// discrete one (ideal specular reflection/refraction, which contributes no
// finite eval/pdf and must be special-cased by the integrator).
type Measure int

const (
	SolidAngle Measure = iota
	Discrete
)

// QueryRecord carries the incident/outgoing directions (in the local
// shading frame, both pointing away from the surface) for a single
// eval/pdf/sample call. Eta is written by Sample to the ratio of relative
// IORs taken along the chosen branch; integrators multiply it into the
// running index-of-refraction product used for Russian roulette throughput
// clamping.
type QueryRecord struct {
	Wi      core.Vec3
	Wo      core.Vec3
	Eta     float64
	Measure Measure
}

// NewQueryRecord creates a query record for an incident direction wi, with
// Eta defaulted to 1 (no IOR change) until Sample overwrites it.
func NewQueryRecord(wi core.Vec3) QueryRecord {
	return QueryRecord{Wi: wi, Eta: 1, Measure: SolidAngle}
}

// BSDF is implemented by every scattering model. Eval and PDF operate in
// the solid-angle measure and must agree on support: Eval == 0 wherever
// PDF == 0. Sample draws Wo, fills Eta and Measure, and returns the Monte
// Carlo sample weight f(wi,wo)*|cosTheta(wo)|/pdf(wi,wo) directly (already
// divided by the sampling density) so integrators never divide by a
// possibly-zero pdf themselves.
type BSDF interface {
	Eval(rec QueryRecord) core.Vec3
	PDF(rec QueryRecord) float64
	Sample(rec *QueryRecord, sample core.Vec2) core.Vec3
	IsDiffuse() bool
}

// fresnelDielectric evaluates the unpolarized Fresnel reflectance for a
// dielectric interface using the exact equations (not Schlick's
// approximation), swapping IORs when the ray is inside the medium and
// reporting total internal reflection as full reflectance.
func fresnelDielectric(cosThetaI, extIOR, intIOR float64) float64 {
	etaI, etaT := extIOR, intIOR
	if extIOR == intIOR {
		return 0
	}
	if cosThetaI < 0 {
		etaI, etaT = etaT, etaI
		cosThetaI = -cosThetaI
	}

	eta := etaI / etaT
	sinThetaTSqr := eta * eta * (1 - cosThetaI*cosThetaI)
	if sinThetaTSqr > 1 {
		return 1
	}
	cosThetaT := math.Sqrt(1 - sinThetaTSqr)

	rs := (etaI*cosThetaI - etaT*cosThetaT) / (etaI*cosThetaI + etaT*cosThetaT)
	rp := (etaT*cosThetaI - etaI*cosThetaT) / (etaT*cosThetaI + etaI*cosThetaT)
	return (rs*rs + rp*rp) / 2
}

// schlickApprox is the Schlick reflectance approximation, used only by
// tests that check the exact Fresnel term stays close to it near normal
// incidence.
func schlickApprox(cosine, extIOR, intIOR float64) float64 {
	r0 := (extIOR - intIOR) / (extIOR + intIOR)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
