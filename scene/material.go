package scene

import (
	"math"

	"github.com/achilleasa/prism/types"
)

// The TextureSampler interface is implemented by texture maps. Given a pair
// of parametric surface coordinates in [0, 1] it returns a color.
type TextureSampler interface {
	Sample(uv types.Vec2) types.Vec3
}

// A material parameter is either a constant value or a texture map.
type MaterialParam struct {
	Value   types.Vec3
	Texture TextureSampler
}

// Create a constant material parameter.
func Constant(v types.Vec3) MaterialParam {
	return MaterialParam{Value: v}
}

// Evaluate the parameter at a hit point.
func (p MaterialParam) At(hit *Hit) types.Vec3 {
	if p.Texture != nil {
		return p.Texture.Sample(hit.UV)
	}
	return p.Value
}

// Returns true if the parameter evaluates to black everywhere.
func (p MaterialParam) IsZero() bool {
	return p.Texture == nil && p.Value.IsZero()
}

// Defines a scene material using the Phong model plus reflective and
// transmissive coefficients.
type Material struct {
	Name string

	// Emissive color.
	Ke MaterialParam

	// Ambient color.
	Ka MaterialParam

	// Diffuse color.
	Kd MaterialParam

	// Specular color.
	Ks MaterialParam

	// Reflective coefficient.
	Kr MaterialParam

	// Transmissive coefficient.
	Kt MaterialParam

	// Phong exponent.
	Shininess float64

	// Index of refraction.
	Index float64
}

// Create a new material with a grey diffuse color and no reflection or
// transmission.
func NewMaterial(name string) *Material {
	return &Material{
		Name:  name,
		Kd:    Constant(types.Splat(0.7)),
		Index: 1.0,
	}
}

// Apply the Phong model at the hit point and return the surface color. Shadow
// rays are cast for each scene light.
func (m *Material) Shade(sc *Scene, r Ray, hit *Hit) types.Vec3 {
	color := m.Ke.At(hit).Add(m.Ka.At(hit).MulVec(sc.Ambient))
	if len(sc.Lights) == 0 {
		return color
	}

	p := r.At(hit.T)
	view := r.Dir.Neg().Normalize()
	kd := m.Kd.At(hit)
	ks := m.Ks.At(hit)

	for _, light := range sc.Lights {
		l := light.Direction(p)
		atten := light.ShadowAttenuation(sc, r, p).Mul(light.DistanceAttenuation(p))
		if atten.IsZero() {
			continue
		}

		diff := math.Max(0, l.Dot(hit.N))
		refl := hit.N.Mul(2 * hit.N.Dot(l)).Sub(l).Normalize()
		spec := math.Pow(math.Max(0, refl.Dot(view)), m.Shininess)

		contrib := kd.Mul(diff).Add(ks.Mul(spec))
		color = color.Add(light.Color().MulVec(atten).MulVec(contrib))
	}

	return color
}
