package scene

import (
	"math"

	"github.com/achilleasa/prism/types"
)

// An axis-aligned bounding box. A box whose min corner is greater than its
// max corner along any axis is considered empty.
type BoundingBox struct {
	Min types.Vec3
	Max types.Vec3
}

// Create a new bounding box from its min and max corners.
func NewBoundingBox(min, max types.Vec3) BoundingBox {
	return BoundingBox{Min: min, Max: max}
}

// Create an empty bounding box that acts as the identity element for Union.
func EmptyBoundingBox() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{
		Min: types.Vec3{inf, inf, inf},
		Max: types.Vec3{-inf, -inf, -inf},
	}
}

// Returns true if the box does not enclose any point.
func (b BoundingBox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Return a box enclosing both b and other.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	return BoundingBox{
		Min: types.MinVec3(b.Min, other.Min),
		Max: types.MaxVec3(b.Max, other.Max),
	}
}

// Return the box side lengths.
func (b BoundingBox) Extent() types.Vec3 {
	return b.Max.Sub(b.Min)
}

// Return the box center.
func (b BoundingBox) Center() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Calculate the surface area of the box. Empty boxes have zero area.
func (b BoundingBox) SurfaceArea() float64 {
	if b.IsEmpty() {
		return 0
	}
	side := b.Extent()
	return 2.0 * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}

// Returns true if the two boxes share at least one point.
func (b BoundingBox) Overlaps(other BoundingBox) bool {
	for axis := 0; axis < 3; axis++ {
		if b.Min[axis] > other.Max[axis] || b.Max[axis] < other.Min[axis] {
			return false
		}
	}
	return true
}

// Split the box with an axis-aligned plane at pos and return the two halves.
// The split position is not clamped to the box extents.
func (b BoundingBox) Split(axis int, pos float64) (left, right BoundingBox) {
	left, right = b, b
	left.Max[axis] = pos
	right.Min[axis] = pos
	return left, right
}

// Intersect the box with a ray using the slab method and return the
// parametric interval where the ray is inside the box. Rays parallel to a
// slab only intersect the box if their origin lies within that slab.
func (b BoundingBox) Intersect(r Ray) (tEnter, tExit float64, ok bool) {
	return b.IntersectInterval(r, math.Inf(-1), math.Inf(1))
}

// Intersect the box with a ray and clip the resulting interval to [t0, t1].
func (b BoundingBox) IntersectInterval(r Ray, t0, t1 float64) (tEnter, tExit float64, ok bool) {
	if b.IsEmpty() {
		return 0, 0, false
	}

	tEnter, tExit = t0, t1
	for axis := 0; axis < 3; axis++ {
		origin, dir := r.Origin[axis], r.Dir[axis]
		if dir == 0 {
			if origin < b.Min[axis] || origin > b.Max[axis] {
				return 0, 0, false
			}
			continue
		}

		tNear := (b.Min[axis] - origin) / dir
		tFar := (b.Max[axis] - origin) / dir
		if tNear > tFar {
			tNear, tFar = tFar, tNear
		}

		if tNear > tEnter {
			tEnter = tNear
		}
		if tFar < tExit {
			tExit = tFar
		}
		if tEnter > tExit {
			return 0, 0, false
		}
	}

	return tEnter, tExit, true
}
