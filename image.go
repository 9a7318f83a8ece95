package chromakey

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit per channel color.
type RGB struct {
	R, G, B uint8
}

// Colorful converts c to a normalized colorful.Color.
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

func (c RGB) Hex() string {
	return c.Colorful().Hex()
}

// Image is a W×H grid of RGB pixels.
type Image struct {
	W, H int
	Pix  []uint8 // Interleaved RGB, len = W*H*3
}

// Mask marks each pixel as foreground (true) or background (false).
type Mask struct {
	W, H int
	Bits []bool // len = W*H
}

func pixOffset(w, x, y int) int {
	return (y*w + x) * 3
}

func maskOffset(w, x, y int) int {
	return y*w + x
}

func NewImage(w, h int) *Image {
	return &Image{
		W:   w,
		H:   h,
		Pix: make([]uint8, w*h*3),
	}
}

func NewMask(w, h int) *Mask {
	return &Mask{
		W:    w,
		H:    h,
		Bits: make([]bool, w*h),
	}
}

// FromImage copies any image.Image into an Image, dropping alpha.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	img := NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := pixOffset(w, x, y)
			img.Pix[off] = uint8(r >> 8)
			img.Pix[off+1] = uint8(g >> 8)
			img.Pix[off+2] = uint8(b >> 8)
		}
	}
	return img
}

// Filled returns a w×h image painted with c.
func Filled(w, h int, c RGB) *Image {
	img := NewImage(w, h)
	for off := 0; off < len(img.Pix); off += 3 {
		img.Pix[off] = c.R
		img.Pix[off+1] = c.G
		img.Pix[off+2] = c.B
	}
	return img
}

func (img *Image) Size() image.Point {
	return image.Pt(img.W, img.H)
}

func (img *Image) At(x, y int) RGB {
	off := pixOffset(img.W, x, y)
	return RGB{img.Pix[off], img.Pix[off+1], img.Pix[off+2]}
}

func (img *Image) Set(x, y int, c RGB) {
	off := pixOffset(img.W, x, y)
	img.Pix[off] = c.R
	img.Pix[off+1] = c.G
	img.Pix[off+2] = c.B
}

// RGBA returns an opaque copy suitable for the standard encoders.
func (img *Image) RGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.W, img.H))
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			c := img.At(x, y)
			out.SetRGBA(x, y, color.RGBA{c.R, c.G, c.B, 255})
		}
	}
	return out
}

func (m *Mask) At(x, y int) bool {
	return m.Bits[maskOffset(m.W, x, y)]
}

func (m *Mask) Set(x, y int, fg bool) {
	m.Bits[maskOffset(m.W, x, y)] = fg
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Gray renders the mask as 255 for foreground and 0 for background.
func (m *Mask) Gray() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.W, m.H))
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if m.At(x, y) {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}
