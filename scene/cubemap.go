package scene

import (
	"math"

	"github.com/achilleasa/prism/types"
)

type CubeFace uint8

const (
	CubeFacePosX CubeFace = iota
	CubeFaceNegX
	CubeFacePosY
	CubeFaceNegY
	CubeFacePosZ
	CubeFaceNegZ
)

// An environment map for rays that leave the scene.
type CubeMap struct {
	Faces [6]TextureSampler
}

// Get the environment color along direction dir. Faces without a texture are
// black.
func (cm *CubeMap) Color(dir types.Vec3) types.Vec3 {
	face, uv := CubeFaceUV(dir)
	if cm.Faces[face] == nil {
		return types.Vec3{}
	}
	return cm.Faces[face].Sample(uv)
}

// Select the cube face pointed at by dir using its dominant axis and map the
// two remaining components to [0, 1] texture coordinates.
func CubeFaceUV(dir types.Vec3) (CubeFace, types.Vec2) {
	x, y, z := dir[0], dir[1], dir[2]
	ax, ay, az := math.Abs(x), math.Abs(y), math.Abs(z)

	switch {
	case ax == 0 && ay == 0 && az == 0:
		return CubeFaceNegZ, types.Vec2{0.5, 0.5}
	case ax >= ay && ax >= az:
		if x > 0 {
			return CubeFacePosX, faceUV(-z/ax, y/ax)
		}
		return CubeFaceNegX, faceUV(z/ax, y/ax)
	case ay >= az:
		if y > 0 {
			return CubeFacePosY, faceUV(x/ay, -z/ay)
		}
		return CubeFaceNegY, faceUV(x/ay, z/ay)
	default:
		if z > 0 {
			return CubeFacePosZ, faceUV(x/az, y/az)
		}
		return CubeFaceNegZ, faceUV(-x/az, y/az)
	}
}

func faceUV(u, v float64) types.Vec2 {
	return types.Vec2{(u + 1) / 2, (v + 1) / 2}
}
