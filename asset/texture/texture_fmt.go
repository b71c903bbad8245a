package texture

import "image"

type Format uint32

const (
	Luminance8 Format = iota
	Rgba8
	Rgba16
)

func (f Format) String() string {
	switch f {
	case Luminance8:
		return "luminance8"
	case Rgba16:
		return "rgba16"
	default:
		return "rgba8"
	}
}

// Detect the texel format of a decoded image.
func formatOf(img image.Image) Format {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return Luminance8
	case *image.RGBA64, *image.NRGBA64:
		return Rgba16
	default:
		return Rgba8
	}
}
