package texture

import (
	"fmt"
	"math"

	"github.com/achilleasa/prism/asset"
	"github.com/achilleasa/prism/types"
	"github.com/disintegration/imaging"
)

// A texture image and its metadata. Texels are stored as normalized RGB
// triplets with the top image row first.
type Texture struct {
	Name string

	// Format of the source image.
	Format Format

	Width  int
	Height int

	Data []float64
}

// Create a new texture from a Resource.
func New(res *asset.Resource) (*Texture, error) {
	img, err := imaging.Decode(res, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("texture: could not decode %s: %w", res.Path(), err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("texture: empty image while loading %s", res.Path())
	}

	// Normalize to 8-bit non-premultiplied RGBA
	nrgba := imaging.Clone(img)

	tex := &Texture{
		Name:   res.Path(),
		Format: formatOf(img),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Data:   make([]float64, 3*bounds.Dx()*bounds.Dy()),
	}

	wOffset := 0
	for y := 0; y < tex.Height; y++ {
		for x := 0; x < tex.Width; x++ {
			rOffset := nrgba.PixOffset(x, y)
			tex.Data[wOffset] = float64(nrgba.Pix[rOffset]) / 255.0
			tex.Data[wOffset+1] = float64(nrgba.Pix[rOffset+1]) / 255.0
			tex.Data[wOffset+2] = float64(nrgba.Pix[rOffset+2]) / 255.0
			wOffset += 3
		}
	}

	return tex, nil
}

// Get texel (x, y) where row 0 is the top image row. Coordinates are clamped
// to the image edges.
func (t *Texture) Texel(x, y int) types.Vec3 {
	x = clampInt(x, 0, t.Width-1)
	y = clampInt(y, 0, t.Height-1)
	offset := 3 * (y*t.Width + x)
	return types.Vec3{t.Data[offset], t.Data[offset+1], t.Data[offset+2]}
}

// Bilinearly sample the texture at uv. The v axis points upwards so (0, 0) is
// the bottom-left image corner. Coordinates outside [0, 1] are clamped.
func (t *Texture) Sample(uv types.Vec2) types.Vec3 {
	u := math.Max(0, math.Min(1, uv[0]))
	v := math.Max(0, math.Min(1, uv[1]))

	fx := u * float64(t.Width-1)
	fy := (1 - v) * float64(t.Height-1)
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	dx, dy := fx-float64(x0), fy-float64(y0)

	top := t.Texel(x0, y0).Mul(1 - dx).Add(t.Texel(x0+1, y0).Mul(dx))
	bottom := t.Texel(x0, y0+1).Mul(1 - dx).Add(t.Texel(x0+1, y0+1).Mul(dx))
	return top.Mul(1 - dy).Add(bottom.Mul(dy))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
