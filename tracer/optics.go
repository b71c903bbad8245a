package tracer

import (
	"math"

	"github.com/achilleasa/prism/types"
)

// Mirror d around the surface normal n.
func Reflect(d, n types.Vec3) types.Vec3 {
	return d.Sub(n.Mul(2 * n.Dot(d)))
}

// Refract d through a surface with normal n separating air from a medium with
// the given index of refraction. Rays travelling against the normal enter the
// medium; rays travelling along it exit. The returned direction is
// normalized. If ok is false the ray is totally internally reflected.
func Refract(d, n types.Vec3, index float64) (dir types.Vec3, ok bool) {
	i := d.Normalize().Neg()
	cosI := n.Dot(i)

	eta := 1.0 / index
	if cosI < 0 {
		// exiting the medium
		n = n.Neg()
		cosI = -cosI
		eta = index
	}

	k := 1 - eta*eta*(1-cosI*cosI)
	if k < 0 {
		return types.Vec3{}, false
	}

	return n.Mul(eta*cosI - math.Sqrt(k)).Sub(i.Mul(eta)).Normalize(), true
}
