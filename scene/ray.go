package scene

import "github.com/achilleasa/prism/types"

// Minimum accepted distance for ray hits. Hits closer than this are treated
// as self-intersections with the surface the ray originates from.
const RayEpsilon = 1e-6

type RayKind uint8

const (
	VisibilityRay RayKind = iota
	ReflectionRay
	RefractionRay
)

func (k RayKind) String() string {
	switch k {
	case ReflectionRay:
		return "reflection"
	case RefractionRay:
		return "refraction"
	default:
		return "visibility"
	}
}

// A ray with an accumulated contribution weight.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
	Weight types.Vec3
	Kind   RayKind
}

// Create a new ray with unit weight.
func NewRay(origin, dir types.Vec3, kind RayKind) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		Weight: types.Splat(1),
		Kind:   kind,
	}
}

// Get the point along the ray at parametric distance t.
func (r Ray) At(t float64) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Derive a new ray starting at origin with the given direction. The weight of
// the derived ray is the weight of r modulated by scale.
func (r Ray) Derive(origin, dir, scale types.Vec3, kind RayKind) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		Weight: r.Weight.MulVec(scale),
		Kind:   kind,
	}
}
