package types

import (
	"math"
	"testing"
)

func TestVec3Ops(t *testing.T) {
	a := XYZ(1, 2, 3)
	b := XYZ(4, -5, 6)

	if got := a.Add(b); got != XYZ(5, -3, 9) {
		t.Fatalf("expected add to return (5, -3, 9); got %v", got)
	}
	if got := a.Sub(b); got != XYZ(-3, 7, -3) {
		t.Fatalf("expected sub to return (-3, 7, -3); got %v", got)
	}
	if got := a.Dot(b); got != 12 {
		t.Fatalf("expected dot product to be 12; got %f", got)
	}
	if got := XYZ(1, 0, 0).Cross(XYZ(0, 1, 0)); got != XYZ(0, 0, 1) {
		t.Fatalf("expected x cross y to be z; got %v", got)
	}
	if got := a.MulVec(b); got != XYZ(4, -10, 18) {
		t.Fatalf("expected component-wise mul to return (4, -10, 18); got %v", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := XYZ(3, 0, 4).Normalize()
	if math.Abs(n.Len()-1) > 1e-12 {
		t.Fatalf("expected unit length; got %f", n.Len())
	}

	// Zero vectors must not produce NaNs
	z := Vec3{}.Normalize()
	if z != (Vec3{}) {
		t.Fatalf("expected zero vector to stay zero; got %v", z)
	}
}

func TestVec3Clamp(t *testing.T) {
	got := XYZ(-1, 0.5, 2).Clamp(0, 1)
	if got != XYZ(0, 0.5, 1) {
		t.Fatalf("expected clamped vector (0, 0.5, 1); got %v", got)
	}
}

func TestMinMaxVec3(t *testing.T) {
	a := XYZ(1, 5, -2)
	b := XYZ(0, 6, -3)

	if got := MinVec3(a, b); got != XYZ(0, 5, -3) {
		t.Fatalf("expected min (0, 5, -3); got %v", got)
	}
	if got := MaxVec3(a, b); got != XYZ(1, 6, -2) {
		t.Fatalf("expected max (1, 6, -2); got %v", got)
	}
}
