package scene

import "github.com/achilleasa/prism/types"

// Hit describes a ray-surface intersection.
type Hit struct {
	// Parametric distance along the ray.
	T float64

	// Surface normal at the hit point.
	N types.Vec3

	// Surface material.
	Material *Material

	// Parametric surface coordinates.
	UV types.Vec2

	// The intersected primitive.
	Primitive Primitive
}
