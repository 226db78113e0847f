package bsdf

import (
	"math"

	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/warp"
)

// Distribution selects which microfacet normal distribution function a
// Microfacet BSDF samples from.
type Distribution int

const (
	Beckmann Distribution = iota
	GGX
)

// Microfacet is a Cook-Torrance-style BRDF combining a diffuse base layer
// with a specular microfacet lobe weighted by ks = 1 - max(kd); the diffuse
// term kd/pi is added unscaled.
type Microfacet struct {
	Alpha        float64
	IntIOR       float64
	ExtIOR       float64
	Kd           core.Vec3
	ks           float64
	Distribution Distribution
	// UseVNDF samples the specular lobe from the distribution of visible
	// normals instead of the full normal distribution; only meaningful when
	// Distribution == GGX, where a closed-form VNDF sampler exists.
	UseVNDF bool
}

// NewMicrofacet constructs a Microfacet BSDF, deriving the specular weight
// from the diffuse albedo so that kd + ks stays energy-conserving.
func NewMicrofacet(alpha, intIOR, extIOR float64, kd core.Vec3, dist Distribution, useVNDF bool) *Microfacet {
	return &Microfacet{
		Alpha:        alpha,
		IntIOR:       intIOR,
		ExtIOR:       extIOR,
		Kd:           kd,
		ks:           1 - kd.MaxComponent(),
		Distribution: dist,
		UseVNDF:      useVNDF,
	}
}

func (m *Microfacet) distD(wh core.Vec3) float64 {
	pdf := m.distPDF(wh)
	if core.CosTheta(wh) <= 0 {
		return 0
	}
	return pdf / core.CosTheta(wh)
}

func (m *Microfacet) distPDF(wh core.Vec3) float64 {
	if m.Distribution == GGX {
		return warp.SquareToGGXPDF(wh, m.Alpha)
	}
	return warp.SquareToBeckmannPDF(wh, m.Alpha)
}

// smithG1 is the Smith masking-shadowing term for a single direction wv
// against microfacet normal wh.
func (m *Microfacet) smithG1(wv, wh core.Vec3) float64 {
	if wv.Dot(wh)/core.CosTheta(wv) <= 0 {
		return 0
	}
	if m.Distribution == GGX {
		cosV := core.CosTheta(wv)
		tanV2 := 1/(cosV*cosV) - 1
		return 2 / (1 + math.Sqrt(1+m.Alpha*m.Alpha*tanV2))
	}
	// Beckmann: Smith-Schlick rational approximation to the exact G1.
	b := core.CosTheta(wv) / (m.Alpha * math.Sqrt(1-core.CosTheta2(wv)))
	if b >= 1.6 {
		return 1
	}
	b2 := b * b
	return (3.535*b + 2.181*b2) / (1 + 2.276*b + 2.577*b2)
}

func (m *Microfacet) microfacetTerm(wi, wo core.Vec3) float64 {
	wh := wi.Add(wo).Normalize()
	f := fresnelDielectric(wi.Dot(wh), m.ExtIOR, m.IntIOR)
	d := m.distD(wh)
	g := m.smithG1(wi, wh) * m.smithG1(wo, wh)
	return f * d * g / (4 * core.CosTheta(wi) * core.CosTheta(wo))
}

func (m *Microfacet) Eval(rec QueryRecord) core.Vec3 {
	if core.CosTheta(rec.Wi) <= 0 || core.CosTheta(rec.Wo) <= 0 {
		return core.Vec3{}
	}
	spec := m.microfacetTerm(rec.Wi, rec.Wo)
	return m.Kd.Multiply(1 / math.Pi).Add(core.NewVec3(m.ks*spec, m.ks*spec, m.ks*spec))
}

// visibleNormalDh is the PDF of the visible-normal half-vector distribution
// (Heitz 2018), used when the specular lobe is sampled via VNDF rather than
// the full normal distribution.
func (m *Microfacet) visibleNormalDh(wi, wh core.Vec3) float64 {
	return m.smithG1(wi, wh) / core.CosTheta(wi) * m.distD(wh) * math.Max(0, wi.Dot(wh))
}

func (m *Microfacet) PDF(rec QueryRecord) float64 {
	if core.CosTheta(rec.Wi) <= 0 || core.CosTheta(rec.Wo) <= 0 {
		return 0
	}
	wh := rec.Wi.Add(rec.Wo).Normalize()
	jacobian := 1 / (4 * math.Abs(wh.Dot(rec.Wo)))

	var ksPDF float64
	if m.UseVNDF && m.Distribution == GGX {
		ksPDF = m.ks * m.visibleNormalDh(rec.Wi, wh) * jacobian
	} else {
		ksPDF = m.ks * m.distPDF(wh) * jacobian
	}
	kdPDF := (1 - m.ks) * warp.SquareToCosineHemispherePDF(rec.Wo)
	return kdPDF + ksPDF
}

func (m *Microfacet) Sample(rec *QueryRecord, sample core.Vec2) core.Vec3 {
	if core.CosTheta(rec.Wi) <= 0 {
		return core.Vec3{}
	}
	rec.Measure = SolidAngle
	rec.Eta = 1

	if sample.X > m.ks {
		remapped := core.Vec2{X: (sample.X - m.ks) / (1 - m.ks), Y: sample.Y}
		rec.Wo = warp.SquareToCosineHemisphere(remapped)
	} else {
		remapped := core.Vec2{X: sample.X / m.ks, Y: sample.Y}
		var wh core.Vec3
		if m.UseVNDF && m.Distribution == GGX {
			wh = warp.SquareToGGXVNDF(remapped, rec.Wi, m.Alpha)
		} else if m.Distribution == GGX {
			wh = warp.SquareToGGX(remapped, m.Alpha)
		} else {
			wh = warp.SquareToBeckmann(remapped, m.Alpha)
		}
		rec.Wo = wh.Multiply(2 * wh.Dot(rec.Wi)).Subtract(rec.Wi)
	}

	if core.CosTheta(rec.Wo) <= 0 {
		return core.Vec3{}
	}
	pdf := m.PDF(*rec)
	if pdf <= 0 {
		return core.Vec3{}
	}
	return m.Eval(*rec).Multiply(core.CosTheta(rec.Wo) / pdf)
}

// IsDiffuse reports true: while the microfacet BRDF is not perfectly
// diffuse, integrators handle it with the same sampling strategy as
// diffuse/non-specular materials.
func (m *Microfacet) IsDiffuse() bool { return true }
