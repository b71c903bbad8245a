package scene

import (
	"math"
	"testing"

	"github.com/achilleasa/prism/types"
)

func TestSphereIntersect(t *testing.T) {
	mat := NewMaterial("test")
	s := NewSphere(types.XYZ(0, 0, -5), 1, mat)

	var hit Hit
	if !s.Intersect(NewRay(types.XYZ(0, 0, 0), types.XYZ(0, 0, -1), VisibilityRay), &hit, RayEpsilon) {
		t.Fatal("expected ray to hit the sphere")
	}
	if math.Abs(hit.T-4) > 1e-12 {
		t.Fatalf("expected hit t 4; got %f", hit.T)
	}
	if hit.N != types.XYZ(0, 0, 1) {
		t.Fatalf("expected normal (0, 0, 1); got %v", hit.N)
	}
	if hit.Material != mat || hit.Primitive != s {
		t.Fatal("expected hit to reference the sphere and its material")
	}

	// From the inside we should hit the far side
	if !s.Intersect(NewRay(types.XYZ(0, 0, -5), types.XYZ(1, 0, 0), VisibilityRay), &hit, RayEpsilon) {
		t.Fatal("expected ray from inside to hit the sphere")
	}
	if math.Abs(hit.T-1) > 1e-12 {
		t.Fatalf("expected hit t 1; got %f", hit.T)
	}

	if s.Intersect(NewRay(types.XYZ(0, 2, 0), types.XYZ(0, 0, -1), VisibilityRay), &hit, RayEpsilon) {
		t.Fatal("expected ray to miss the sphere")
	}
	if s.Intersect(NewRay(types.XYZ(0, 0, -10), types.XYZ(0, 0, -1), VisibilityRay), &hit, RayEpsilon) {
		t.Fatal("expected sphere behind the ray origin to be ignored")
	}
}

func TestTriangleIntersect(t *testing.T) {
	tri := NewTriangle([3]types.Vec3{{-1, -1, -2}, {1, -1, -2}, {0, 1, -2}}, nil)
	if tri.PlaneNormal() != types.XYZ(0, 0, 1) {
		t.Fatalf("expected plane normal (0, 0, 1); got %v", tri.PlaneNormal())
	}

	var hit Hit
	if !tri.Intersect(NewRay(types.XYZ(0, 0, 0), types.XYZ(0, 0, -1), VisibilityRay), &hit, RayEpsilon) {
		t.Fatal("expected ray to hit the triangle")
	}
	if math.Abs(hit.T-2) > 1e-12 {
		t.Fatalf("expected hit t 2; got %f", hit.T)
	}

	if tri.Intersect(NewRay(types.XYZ(2, 0, 0), types.XYZ(0, 0, -1), VisibilityRay), &hit, RayEpsilon) {
		t.Fatal("expected ray to miss the triangle")
	}
	if tri.Intersect(NewRay(types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), VisibilityRay), &hit, RayEpsilon) {
		t.Fatal("expected parallel ray to miss the triangle")
	}

	// Interpolated vertex normals and uv coordinates
	tri.Normals = [3]types.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 1, 0}}
	tri.UVs = [3]types.Vec2{{0, 0}, {1, 0}, {0.5, 1}}
	tri.HasUV = true
	if !tri.Intersect(NewRay(types.XYZ(0, 1, 0), types.XYZ(0, 0, -1), VisibilityRay), &hit, RayEpsilon) {
		t.Fatal("expected ray to hit the triangle apex")
	}
	if math.Abs(hit.N[1]-1) > 1e-9 {
		t.Fatalf("expected apex normal (0, 1, 0); got %v", hit.N)
	}
	if math.Abs(hit.UV[0]-0.5) > 1e-9 || math.Abs(hit.UV[1]-1) > 1e-9 {
		t.Fatalf("expected apex uv (0.5, 1); got %v", hit.UV)
	}
}

func TestBoxIntersect(t *testing.T) {
	b := NewBox(types.XYZ(1, 1, 1), types.XYZ(-1, -1, -1), nil)
	if b.Bounds.Min != types.Splat(-1) || b.Bounds.Max != types.Splat(1) {
		t.Fatalf("expected box corners to be sorted; got [%v, %v]", b.Bounds.Min, b.Bounds.Max)
	}

	specs := []struct {
		origin, dir types.Vec3
		expT        float64
		expN        types.Vec3
	}{
		{types.XYZ(0, 0, 5), types.XYZ(0, 0, -1), 4, types.XYZ(0, 0, 1)},
		{types.XYZ(0, -5, 0), types.XYZ(0, 1, 0), 4, types.XYZ(0, -1, 0)},
		{types.XYZ(5, 0.2, 0.3), types.XYZ(-1, 0, 0), 4, types.XYZ(1, 0, 0)},
		// Inside the box we hit the exit face
		{types.XYZ(0, 0, 0), types.XYZ(0, 0, -1), 1, types.XYZ(0, 0, -1)},
	}

	for specIndex, spec := range specs {
		var hit Hit
		if !b.Intersect(NewRay(spec.origin, spec.dir, VisibilityRay), &hit, RayEpsilon) {
			t.Errorf("[spec %d] expected ray to hit the box", specIndex)
			continue
		}
		if math.Abs(hit.T-spec.expT) > 1e-12 {
			t.Errorf("[spec %d] expected hit t %f; got %f", specIndex, spec.expT, hit.T)
		}
		if hit.N != spec.expN {
			t.Errorf("[spec %d] expected normal %v; got %v", specIndex, spec.expN, hit.N)
		}
	}
}
