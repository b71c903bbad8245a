package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/prism/types"
)

// The Intersector interface is implemented by spatial indices that accelerate
// ray queries against the scene primitives.
type Intersector interface {
	// Find the nearest hit with t in [tmin, tmax]. The hit is only modified
	// when an intersection is found.
	Intersect(r Ray, hit *Hit, tmin, tmax float64) bool
}

type Scene struct {
	Camera *Camera

	Materials  []*Material
	Primitives []Primitive
	Lights     []Light

	Ambient types.Vec3

	// Optional environment map for rays escaping the scene.
	Environment *CubeMap

	index  Intersector
	bounds BoundingBox

	// Debug intersection cache; nil when disabled.
	cache *IntersectCache
}

func NewScene() *Scene {
	return &Scene{
		Camera:     NewCamera(45),
		Materials:  make([]*Material, 0),
		Primitives: make([]Primitive, 0),
		Lights:     make([]Light, 0),
		bounds:     EmptyBoundingBox(),
	}
}

// Add a material to the scene.
func (s *Scene) AddMaterial(material *Material) error {
	for _, mat := range s.Materials {
		if mat == material {
			return fmt.Errorf("scene: material already added")
		}
	}
	s.Materials = append(s.Materials, material)
	return nil
}

// Add a primitive to the scene.
func (s *Scene) AddPrimitive(primitive Primitive) error {
	if primitive == nil {
		return fmt.Errorf("scene: nil primitive")
	}
	bbox := primitive.BBox()
	if bbox.IsEmpty() {
		return fmt.Errorf("scene: primitive has an empty bounding box")
	}
	s.Primitives = append(s.Primitives, primitive)
	s.bounds = s.bounds.Union(bbox)
	return nil
}

// Add a light to the scene.
func (s *Scene) AddLight(light Light) {
	s.Lights = append(s.Lights, light)
}

// Get the bounds of all scene primitives.
func (s *Scene) Bounds() BoundingBox {
	return s.bounds
}

// Attach a spatial index. Without an index ray queries fall back to a linear
// scan over all primitives.
func (s *Scene) SetIndex(index Intersector) {
	s.index = index
}

// Get the attached spatial index.
func (s *Scene) Index() Intersector {
	return s.index
}

// Find the nearest hit along r.
func (s *Scene) Intersect(r Ray, hit *Hit) bool {
	var found bool
	if s.index != nil {
		found = s.index.Intersect(r, hit, RayEpsilon, math.Inf(1))
	} else {
		found = IntersectLinear(s.Primitives, r, hit, RayEpsilon, math.Inf(1))
	}

	if s.cache != nil {
		s.cache.record(r, hit, found)
	}
	return found
}

// Test r against every primitive in the list and keep the nearest hit with t
// in [tmin, tmax].
func IntersectLinear(prims []Primitive, r Ray, hit *Hit, tmin, tmax float64) bool {
	found := false
	for _, prim := range prims {
		var cur Hit
		if !prim.Intersect(r, &cur, tmin) || cur.T > tmax {
			continue
		}
		if !found || cur.T < hit.T {
			*hit = cur
			found = true
		}
	}
	return found
}
