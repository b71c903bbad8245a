package renderer

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// An 8-bit RGB frame buffer. Pixels are stored row-major with row 0 at the
// bottom of the camera window.
type FrameBuffer struct {
	W, H int
	Pix  []uint8
}

func NewFrameBuffer(w, h int) *FrameBuffer {
	return &FrameBuffer{
		W:   w,
		H:   h,
		Pix: make([]uint8, 3*w*h),
	}
}

// Get the color of pixel (x, y).
func (fb *FrameBuffer) At(x, y int) [3]uint8 {
	offset := 3 * (y*fb.W + x)
	return [3]uint8{fb.Pix[offset], fb.Pix[offset+1], fb.Pix[offset+2]}
}

// Convert the frame to an image with the top row first.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.W, fb.H))
	for y := 0; y < fb.H; y++ {
		for x := 0; x < fb.W; x++ {
			src := 3 * (y*fb.W + x)
			dst := img.PixOffset(x, y)
			copy(img.Pix[dst:dst+3], fb.Pix[src:src+3])
			img.Pix[dst+3] = 0xff
		}
	}
	return imaging.FlipV(img)
}

// Get a copy of the frame scaled to the given width, keeping the aspect ratio.
func (fb *FrameBuffer) Thumbnail(width uint) image.Image {
	return resize.Resize(width, 0, fb.Image(), resize.Lanczos3)
}

// Encode the frame using the image format that matches the extension of
// filename.
func (fb *FrameBuffer) Encode(w io.Writer, filename string) error {
	return EncodeImage(w, fb.Image(), filename)
}

// Encode img using the image format that matches the extension of filename.
func EncodeImage(w io.Writer, img image.Image, filename string) error {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	return imaging.Encode(w, img, format)
}
