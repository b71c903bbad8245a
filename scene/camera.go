package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/prism/types"
	"github.com/go-gl/mathgl/mgl64"
)

// The camera type controls the scene camera.
type Camera struct {
	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3

	// Pending rotation angles in radians. They are applied and reset by Update.
	Pitch float64
	Yaw   float64

	// Vertical field of view in degrees.
	FOV float64

	// Frame width / height.
	Aspect float64

	// Camera basis
	forward types.Vec3
	right   types.Vec3
	up      types.Vec3
}

func NewCamera(fov float64) *Camera {
	c := &Camera{
		Eye:    types.Vec3{0, 0, 0},
		Look:   types.Vec3{0, 0, -1},
		Up:     types.Vec3{0, 1, 0},
		FOV:    fov,
		Aspect: 1,
	}
	c.Update()
	return c
}

func (c *Camera) String() string {
	return fmt.Sprintf(
		"eye (%3.3f, %3.3f, %3.3f), look (%3.3f, %3.3f, %3.3f), fov %3.1f, aspect %3.3f",
		c.Eye[0], c.Eye[1], c.Eye[2],
		c.Look[0], c.Look[1], c.Look[2],
		c.FOV, c.Aspect,
	)
}

// Setup camera aspect ratio.
func (c *Camera) SetupProjection(aspect float64) {
	c.Aspect = aspect
	c.Update()
}

// Rotate the view direction and update the camera basis.
func (c *Camera) Rotate(yaw, pitch float64) {
	c.Yaw = yaw
	c.Pitch = pitch
	c.Update()
}

// Apply pending rotations and recalculate the camera basis.
func (c *Camera) Update() {
	eye := mgl64.Vec3(c.Eye)
	up := mgl64.Vec3(c.Up).Normalize()
	dir := mgl64.Vec3(c.Look).Sub(eye).Normalize()

	if c.Pitch != 0 || c.Yaw != 0 {
		pitchAxis := dir.Cross(up).Normalize()
		pitchQuat := mgl64.QuatRotate(c.Pitch, pitchAxis)
		yawQuat := mgl64.QuatRotate(c.Yaw, up)
		orientQuat := pitchQuat.Mul(yawQuat).Normalize()

		dir = orientQuat.Rotate(dir)
		c.Look = types.Vec3(eye.Add(dir))
		c.Pitch, c.Yaw = 0, 0
	}

	// The rows of the view matrix hold the camera axes.
	view := mgl64.LookAtV(eye, eye.Add(dir), up)
	c.right = types.Vec3(view.Row(0).Vec3())
	c.up = types.Vec3(view.Row(1).Vec3())
	c.forward = types.Vec3(view.Row(2).Vec3()).Neg()
}

// Generate a primary ray through the normalized window coordinates (x, y).
// The point (0, 0) maps to the bottom-left corner of the view.
func (c *Camera) RayThrough(x, y float64) Ray {
	halfH := math.Tan(c.FOV * math.Pi / 360.0)
	halfW := halfH * c.Aspect

	dir := c.forward.
		Add(c.right.Mul((2*x - 1) * halfW)).
		Add(c.up.Mul((2*y - 1) * halfH)).
		Normalize()

	return NewRay(c.Eye, dir, VisibilityRay)
}
