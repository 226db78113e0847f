package core

import "math"

// BoundingBox is an axis-aligned bounding box with Min <= Max componentwise.
type BoundingBox struct {
	Min Vec3
	Max Vec3
}

// NewBoundingBox creates a bounding box from explicit min/max corners.
func NewBoundingBox(min, max Vec3) BoundingBox { return BoundingBox{Min: min, Max: max} }

// BoundingBoxFromPoints returns the smallest bounding box containing every point.
func BoundingBoxFromPoints(points ...Vec3) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	min, max := points[0], points[0]
	for _, p := range points[1:] {
		min = Vec3{math.Min(min.X, p.X), math.Min(min.Y, p.Y), math.Min(min.Z, p.Z)}
		max = Vec3{math.Max(max.X, p.X), math.Max(max.Y, p.Y), math.Max(max.Z, p.Z)}
	}
	return BoundingBox{Min: min, Max: max}
}

// RayIntersect intersects the box with the ray's [tMin, tMax] range using the
// slab method. It is robust to a direction component that is exactly zero
// (or negative zero): such an axis is treated as parallel to that slab
// rather than producing an Inf/NaN reciprocal sign flip.
func (b BoundingBox) RayIntersect(ray Ray, tMin, tMax float64) (tNear, tFar float64, hit bool) {
	tNear, tFar = tMin, tMax
	for axis := 0; axis < 3; axis++ {
		var lo, hi, origin, dir float64
		switch axis {
		case 0:
			lo, hi, origin, dir = b.Min.X, b.Max.X, ray.Origin.X, ray.Direction.X
		case 1:
			lo, hi, origin, dir = b.Min.Y, b.Max.Y, ray.Origin.Y, ray.Direction.Y
		default:
			lo, hi, origin, dir = b.Min.Z, b.Max.Z, ray.Origin.Z, ray.Direction.Z
		}

		if math.Abs(dir) < 1e-12 {
			if origin < lo || origin > hi {
				return 0, 0, false
			}
			continue
		}

		invDir := 1.0 / dir
		t1 := (lo - origin) * invDir
		t2 := (hi - origin) * invDir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tNear = math.Max(tNear, t1)
		tFar = math.Min(tFar, t2)
		if tNear > tFar {
			return 0, 0, false
		}
	}
	return tNear, tFar, true
}

// Hit is a boolean convenience wrapper around RayIntersect.
func (b BoundingBox) Hit(ray Ray, tMin, tMax float64) bool {
	_, _, ok := b.RayIntersect(ray, tMin, tMax)
	return ok
}

// Union returns a box bounding both b and other.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	return BoundingBox{
		Min: Vec3{math.Min(b.Min.X, other.Min.X), math.Min(b.Min.Y, other.Min.Y), math.Min(b.Min.Z, other.Min.Z)},
		Max: Vec3{math.Max(b.Max.X, other.Max.X), math.Max(b.Max.Y, other.Max.Y), math.Max(b.Max.Z, other.Max.Z)},
	}
}

// ExpandToPoint grows the box (if needed) to include p.
func (b BoundingBox) ExpandToPoint(p Vec3) BoundingBox {
	return b.Union(BoundingBox{Min: p, Max: p})
}

// Center returns the box's midpoint.
func (b BoundingBox) Center() Vec3 { return b.Min.Add(b.Max).Multiply(0.5) }

// Size returns the box's extent along each axis.
func (b BoundingBox) Size() Vec3 { return b.Max.Subtract(b.Min) }

// SurfaceArea returns the box's surface area, used by the SAH BVH builder.
func (b BoundingBox) SurfaceArea() float64 {
	s := b.Size()
	if s.X < 0 || s.Y < 0 || s.Z < 0 {
		return 0
	}
	return 2.0 * (s.X*s.Y + s.Y*s.Z + s.Z*s.X)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the largest extent.
func (b BoundingBox) LongestAxis() int {
	s := b.Size()
	if s.X > s.Y && s.X > s.Z {
		return 0
	}
	if s.Y > s.Z {
		return 1
	}
	return 2
}

// AxisValue returns the value of point p along the given axis (0,1,2).
func AxisValue(p Vec3, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// IsValid reports whether Min <= Max componentwise.
func (b BoundingBox) IsValid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Expand returns a box grown by amount in every direction.
func (b BoundingBox) Expand(amount float64) BoundingBox {
	e := NewVec3(amount, amount, amount)
	return BoundingBox{Min: b.Min.Subtract(e), Max: b.Max.Add(e)}
}
