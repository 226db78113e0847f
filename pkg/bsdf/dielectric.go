package bsdf

import (
	"math"

	"github.com/pathtrace/nori-go/pkg/core"
)

// Dielectric is an ideal (perfectly smooth) refractive interface: all
// energy goes to the discrete reflection or refraction branch chosen by
// sample, so Eval and PDF are identically zero under the solid-angle
// measure.
type Dielectric struct {
	IntIOR float64
	ExtIOR float64
}

// NewDielectric constructs an ideal dielectric with the given interior and
// exterior indices of refraction.
func NewDielectric(intIOR, extIOR float64) *Dielectric {
	return &Dielectric{IntIOR: intIOR, ExtIOR: extIOR}
}

func (d *Dielectric) Eval(QueryRecord) core.Vec3 { return core.Vec3{} }

func (d *Dielectric) PDF(QueryRecord) float64 { return 0 }

// Sample picks reflection with probability R (the Fresnel term at the
// incident angle) or refraction with probability 1-R. The reflected
// direction is the mirror image of wi about the local normal; the
// refracted direction follows Snell's law with the IORs swapped and the
// local normal flipped when the ray is leaving rather than entering the
// medium. Eta is set to the ratio of the IOR on the transmitted side to the
// IOR on the incident side (1 for the reflection branch).
func (d *Dielectric) Sample(rec *QueryRecord, sample core.Vec2) core.Vec3 {
	rec.Measure = Discrete
	cosThetaI := core.CosTheta(rec.Wi)

	r := fresnelDielectric(cosThetaI, d.ExtIOR, d.IntIOR)

	if sample.X <= r {
		rec.Wo = core.Vec3{X: -rec.Wi.X, Y: -rec.Wi.Y, Z: rec.Wi.Z}
		rec.Eta = 1
		return core.Vec3{X: 1, Y: 1, Z: 1}
	}

	normal := core.NewVec3(0, 0, 1)
	var eta float64
	cosTheta := cosThetaI
	if cosTheta > 0 {
		eta = d.ExtIOR / d.IntIOR
	} else {
		eta = d.IntIOR / d.ExtIOR
		cosTheta = -cosTheta
		normal = normal.Negate()
	}

	sinThetaTSqr := eta * eta * (1 - cosTheta*cosTheta)
	if sinThetaTSqr > 1 {
		// Total internal reflection: the refraction branch degenerates to
		// reflection even though it was selected by the Fresnel coin flip.
		rec.Wo = core.Vec3{X: -rec.Wi.X, Y: -rec.Wi.Y, Z: rec.Wi.Z}
		rec.Eta = 1
		return core.Vec3{X: 1, Y: 1, Z: 1}
	}
	cosThetaT := math.Sqrt(1 - sinThetaTSqr)

	rec.Wo = rec.Wi.Negate().Multiply(eta).Add(normal.Multiply(eta*cosTheta - cosThetaT))
	rec.Eta = 1 / eta
	return core.Vec3{X: 1, Y: 1, Z: 1}
}

func (d *Dielectric) IsDiffuse() bool { return false }
