package scene

import (
	"math"

	"github.com/achilleasa/prism/types"
)

// The Primitive interface is implemented by all intersectable scene objects.
type Primitive interface {
	// Get the primitive's axis-aligned bounds.
	BBox() BoundingBox

	// Find the nearest intersection with r at a distance of at least tmin
	// and greater than RayEpsilon. On success the hit is populated and true
	// is returned.
	Intersect(r Ray, hit *Hit, tmin float64) bool
}

// The Planar interface is implemented by flat primitives. The plane normal is
// used to route primitives lying exactly on a kd-tree split plane.
type Planar interface {
	PlaneNormal() types.Vec3
}

// Get the plane normal for p or a zero vector if p is not flat.
func PlaneNormal(p Primitive) types.Vec3 {
	if planar, ok := p.(Planar); ok {
		return planar.PlaneNormal()
	}
	return types.Vec3{}
}

// Sphere primitive.
type Sphere struct {
	Center   types.Vec3
	Radius   float64
	Material *Material
}

// Create new sphere primitive.
func NewSphere(center types.Vec3, radius float64, material *Material) *Sphere {
	return &Sphere{Center: center, Radius: radius, Material: material}
}

func (s *Sphere) BBox() BoundingBox {
	r := types.Splat(s.Radius)
	return BoundingBox{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
}

func (s *Sphere) Intersect(r Ray, hit *Hit, tmin float64) bool {
	oc := r.Origin.Sub(s.Center)
	a := r.Dir.Dot(r.Dir)
	if a == 0 {
		return false
	}
	b := oc.Dot(r.Dir)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := b*b - a*c
	if disc < 0 {
		return false
	}

	sq := math.Sqrt(disc)
	t := (-b - sq) / a
	if !acceptDistance(t, tmin) {
		t = (-b + sq) / a
		if !acceptDistance(t, tmin) {
			return false
		}
	}

	n := r.At(t).Sub(s.Center).Normalize()
	hit.T = t
	hit.N = n
	hit.Material = s.Material
	hit.UV = types.Vec2{
		0.5 + math.Atan2(n[2], n[0])/(2*math.Pi),
		0.5 + math.Asin(clampUnit(n[1]))/math.Pi,
	}
	hit.Primitive = s
	return true
}

// Triangle primitive. Vertices are specified in counter-clockwise order when
// looking at the front face.
type Triangle struct {
	Vertices [3]types.Vec3

	// Optional per-vertex normals. If all are zero the face normal is used.
	Normals [3]types.Vec3

	// Optional per-vertex texture coordinates.
	UVs   [3]types.Vec2
	HasUV bool

	Material *Material

	normal types.Vec3
	bbox   BoundingBox
}

// Create new triangle primitive.
func NewTriangle(vertices [3]types.Vec3, material *Material) *Triangle {
	tri := &Triangle{Vertices: vertices, Material: material}
	tri.Update()
	return tri
}

// Recalculate cached face normal and bounds. Must be called after modifying
// the vertex list.
func (tri *Triangle) Update() {
	e1 := tri.Vertices[1].Sub(tri.Vertices[0])
	e2 := tri.Vertices[2].Sub(tri.Vertices[0])
	tri.normal = e1.Cross(e2).Normalize()
	tri.bbox = BoundingBox{
		Min: types.MinVec3(tri.Vertices[0], types.MinVec3(tri.Vertices[1], tri.Vertices[2])),
		Max: types.MaxVec3(tri.Vertices[0], types.MaxVec3(tri.Vertices[1], tri.Vertices[2])),
	}
}

func (tri *Triangle) BBox() BoundingBox {
	return tri.bbox
}

func (tri *Triangle) PlaneNormal() types.Vec3 {
	return tri.normal
}

// Möller-Trumbore intersection.
func (tri *Triangle) Intersect(r Ray, hit *Hit, tmin float64) bool {
	e1 := tri.Vertices[1].Sub(tri.Vertices[0])
	e2 := tri.Vertices[2].Sub(tri.Vertices[0])
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if det == 0 {
		return false
	}

	invDet := 1.0 / det
	s := r.Origin.Sub(tri.Vertices[0])
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return false
	}

	q := s.Cross(e1)
	v := r.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return false
	}

	t := e2.Dot(q) * invDet
	if !acceptDistance(t, tmin) {
		return false
	}

	w := 1 - u - v
	hit.T = t
	hit.N = tri.normal
	if !tri.Normals[0].IsZero() || !tri.Normals[1].IsZero() || !tri.Normals[2].IsZero() {
		hit.N = tri.Normals[0].Mul(w).Add(tri.Normals[1].Mul(u)).Add(tri.Normals[2].Mul(v)).Normalize()
	}
	if tri.HasUV {
		hit.UV = tri.UVs[0].Mul(w).Add(tri.UVs[1].Mul(u)).Add(tri.UVs[2].Mul(v))
	} else {
		hit.UV = types.Vec2{u, v}
	}
	hit.Material = tri.Material
	hit.Primitive = tri
	return true
}

// Axis-aligned box primitive.
type Box struct {
	Bounds   BoundingBox
	Material *Material
}

// Create new box primitive.
func NewBox(min, max types.Vec3, material *Material) *Box {
	return &Box{
		Bounds:   BoundingBox{Min: types.MinVec3(min, max), Max: types.MaxVec3(min, max)},
		Material: material,
	}
}

func (b *Box) BBox() BoundingBox {
	return b.Bounds
}

func (b *Box) Intersect(r Ray, hit *Hit, tmin float64) bool {
	tEnter, tExit, ok := b.Bounds.Intersect(r)
	if !ok {
		return false
	}

	t := tEnter
	if !acceptDistance(t, tmin) {
		t = tExit
		if !acceptDistance(t, tmin) {
			return false
		}
	}

	// The face normal belongs to the axis whose slab boundary is closest to
	// the hit point relative to the box size.
	p := r.At(t)
	side := b.Bounds.Extent()
	bestAxis, bestDist, sign := 0, math.Inf(1), 1.0
	for axis := 0; axis < 3; axis++ {
		scale := side[axis]
		if scale == 0 {
			scale = 1
		}
		if d := math.Abs(p[axis]-b.Bounds.Min[axis]) / scale; d < bestDist {
			bestAxis, bestDist, sign = axis, d, -1
		}
		if d := math.Abs(p[axis]-b.Bounds.Max[axis]) / scale; d < bestDist {
			bestAxis, bestDist, sign = axis, d, 1
		}
	}

	var n types.Vec3
	n[bestAxis] = sign

	// Project the hit point on the face plane for the UV coords
	uAxis, vAxis := (bestAxis+1)%3, (bestAxis+2)%3
	var uv types.Vec2
	if side[uAxis] > 0 {
		uv[0] = (p[uAxis] - b.Bounds.Min[uAxis]) / side[uAxis]
	}
	if side[vAxis] > 0 {
		uv[1] = (p[vAxis] - b.Bounds.Min[vAxis]) / side[vAxis]
	}

	hit.T = t
	hit.N = n
	hit.UV = uv
	hit.Material = b.Material
	hit.Primitive = b
	return true
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func acceptDistance(t, tmin float64) bool {
	return t > RayEpsilon && t >= tmin
}
