package scene

import (
	"math"

	"github.com/achilleasa/prism/types"
)

// The Light interface is implemented by all scene light sources.
type Light interface {
	// Light color.
	Color() types.Vec3

	// Unit direction from p towards the light.
	Direction(p types.Vec3) types.Vec3

	// Scalar falloff at p.
	DistanceAttenuation(p types.Vec3) float64

	// Visibility of the light from p. Issues a shadow ray against the scene.
	ShadowAttenuation(sc *Scene, r Ray, p types.Vec3) types.Vec3
}

// A light infinitely far away.
type DirectionalLight struct {
	// Direction the light travels along.
	Orientation types.Vec3
	Emission    types.Vec3
}

// Create a directional light.
func NewDirectionalLight(orientation, emission types.Vec3) *DirectionalLight {
	return &DirectionalLight{Orientation: orientation.Normalize(), Emission: emission}
}

func (l *DirectionalLight) Color() types.Vec3 {
	return l.Emission
}

func (l *DirectionalLight) Direction(_ types.Vec3) types.Vec3 {
	return l.Orientation.Neg()
}

func (l *DirectionalLight) DistanceAttenuation(_ types.Vec3) float64 {
	return 1.0
}

func (l *DirectionalLight) ShadowAttenuation(sc *Scene, r Ray, p types.Vec3) types.Vec3 {
	shadow := NewRay(shadowOrigin(r, p), l.Direction(p), VisibilityRay)
	var hit Hit
	if sc.Intersect(shadow, &hit) {
		return types.Vec3{}
	}
	return types.Splat(1)
}

// A point light with constant, linear and quadratic distance falloff.
type PointLight struct {
	Position types.Vec3
	Emission types.Vec3

	Constant  float64
	Linear    float64
	Quadratic float64
}

// Create a point light without distance falloff.
func NewPointLight(position, emission types.Vec3) *PointLight {
	return &PointLight{Position: position, Emission: emission, Constant: 1}
}

func (l *PointLight) Color() types.Vec3 {
	return l.Emission
}

func (l *PointLight) Direction(p types.Vec3) types.Vec3 {
	return l.Position.Sub(p).Normalize()
}

func (l *PointLight) DistanceAttenuation(p types.Vec3) float64 {
	d := l.Position.Sub(p).Len()
	return math.Min(1.0, 1.0/(l.Constant+l.Linear*d+l.Quadratic*d*d))
}

func (l *PointLight) ShadowAttenuation(sc *Scene, r Ray, p types.Vec3) types.Vec3 {
	origin := shadowOrigin(r, p)
	shadow := NewRay(origin, l.Direction(p), VisibilityRay)
	var hit Hit
	if sc.Intersect(shadow, &hit) && hit.T < l.Position.Sub(origin).Len() {
		return types.Vec3{}
	}
	return types.Splat(1)
}

// Nudge p back along the incoming ray so shadow rays do not hit the surface
// they start from.
func shadowOrigin(r Ray, p types.Vec3) types.Vec3 {
	return p.Sub(r.Dir.Normalize().Mul(RayEpsilon))
}
