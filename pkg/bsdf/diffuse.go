package bsdf

import (
	"math"

	"github.com/pathtrace/nori-go/pkg/core"
	"github.com/pathtrace/nori-go/pkg/warp"
)

// Diffuse is an ideal Lambertian reflector: constant BRDF albedo/pi,
// sampled by cosine-weighted hemisphere importance sampling so that the
// sample weight reduces to the albedo itself.
type Diffuse struct {
	Albedo core.Vec3
}

// NewDiffuse constructs a Lambertian BSDF with the given reflectance.
func NewDiffuse(albedo core.Vec3) *Diffuse {
	return &Diffuse{Albedo: albedo}
}

func (d *Diffuse) Eval(rec QueryRecord) core.Vec3 {
	if core.CosTheta(rec.Wi) <= 0 || core.CosTheta(rec.Wo) <= 0 {
		return core.Vec3{}
	}
	return d.Albedo.Multiply(1 / math.Pi)
}

func (d *Diffuse) PDF(rec QueryRecord) float64 {
	if core.CosTheta(rec.Wo) <= 0 {
		return 0
	}
	return warp.SquareToCosineHemispherePDF(rec.Wo)
}

func (d *Diffuse) Sample(rec *QueryRecord, sample core.Vec2) core.Vec3 {
	if core.CosTheta(rec.Wi) <= 0 {
		return core.Vec3{}
	}
	rec.Wo = warp.SquareToCosineHemisphere(sample)
	rec.Eta = 1
	rec.Measure = SolidAngle
	return d.Albedo
}

func (d *Diffuse) IsDiffuse() bool { return true }
