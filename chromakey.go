package chromakey

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"
)

// ReferenceSize is the image edge length the default sample geometry was tuned for.
const ReferenceSize = 256

type Options struct {
	// Column the center sample is taken from.
	// Assumes the subject sits roughly in the middle of the frame.
	SampleColumn int
	// Number of rows, starting at row 0, averaged for the center sample.
	SampleRows int
	// Pixels closer than this to the reference color are always background,
	// whatever the derived threshold says.
	Cutoff float64
}

func DefaultOptions() Options {
	return Options{
		SampleColumn: 130,
		SampleRows:   225,
		Cutoff:       50,
	}
}

// OptionsFromSize scales the default sample geometry to an image of the given size.
func OptionsFromSize(size image.Point) Options {
	opt := DefaultOptions()
	if size.X <= 0 || size.Y <= 0 {
		return opt
	}
	opt.SampleColumn = opt.SampleColumn * size.X / ReferenceSize
	opt.SampleRows = opt.SampleRows * size.Y / ReferenceSize
	return opt.clamp(size)
}

func (opt Options) clamp(size image.Point) Options {
	opt.SampleColumn = max(0, min(size.X-1, opt.SampleColumn))
	opt.SampleRows = max(1, min(size.Y, opt.SampleRows))
	return opt
}

// Sample is an averaged color on the 0..255 scale, without truncation.
type Sample struct {
	R, G, B float64
}

func (s Sample) Colorful() colorful.Color {
	return colorful.Color{R: s.R / 255.0, G: s.G / 255.0, B: s.B / 255.0}.Clamped()
}

// ReferenceColor averages the first row of img, truncating each channel.
func ReferenceColor(img *Image) RGB {
	if img.W == 0 || img.H == 0 {
		return RGB{}
	}
	var sum [3]int
	for x := 0; x < img.W; x++ {
		off := pixOffset(img.W, x, 0)
		sum[0] += int(img.Pix[off])
		sum[1] += int(img.Pix[off+1])
		sum[2] += int(img.Pix[off+2])
	}
	return RGB{
		R: uint8(sum[0] / img.W),
		G: uint8(sum[1] / img.W),
		B: uint8(sum[2] / img.W),
	}
}

// CenterSample averages the first opt.SampleRows rows of column opt.SampleColumn.
func CenterSample(img *Image, opt Options) Sample {
	if img.W == 0 || img.H == 0 {
		return Sample{}
	}
	opt = opt.clamp(img.Size())
	r := make([]float64, opt.SampleRows)
	g := make([]float64, opt.SampleRows)
	b := make([]float64, opt.SampleRows)
	for y := 0; y < opt.SampleRows; y++ {
		c := img.At(opt.SampleColumn, y)
		r[y] = float64(c.R)
		g[y] = float64(c.G)
		b[y] = float64(c.B)
	}
	return Sample{
		R: stat.Mean(r, nil),
		G: stat.Mean(g, nil),
		B: stat.Mean(b, nil),
	}
}

// Distance is the Euclidean RGB distance between c and ref.
func Distance(c, ref RGB) float64 {
	dr := float64(int(c.R) - int(ref.R))
	dg := float64(int(c.G) - int(ref.G))
	db := float64(int(c.B) - int(ref.B))
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// SampleDistance is the Euclidean distance between a sample and ref.
func SampleDistance(s Sample, ref RGB) float64 {
	dr := s.R - float64(ref.R)
	dg := s.G - float64(ref.G)
	db := s.B - float64(ref.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// AutoThreshold derives a distance threshold from the image content.
func AutoThreshold(img *Image, opt Options) float64 {
	return SampleDistance(CenterSample(img, opt), ReferenceColor(img))
}

// ClassifyFixed marks pixels within threshold of the reference color as background.
// A threshold <= 0 or NaN keeps every pixel.
func ClassifyFixed(img *Image, threshold float64) *Mask {
	ref := ReferenceColor(img)
	mask := NewMask(img.W, img.H)
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			mask.Set(x, y, !(Distance(img.At(x, y), ref) < threshold))
		}
	}
	return mask
}

// ClassifyAuto is ClassifyFixed with the threshold taken from AutoThreshold,
// plus a hard cutoff below which pixels are always background.
func ClassifyAuto(img *Image, opt Options) *Mask {
	ref := ReferenceColor(img)
	auto := SampleDistance(CenterSample(img, opt), ref)
	mask := NewMask(img.W, img.H)
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			d := Distance(img.At(x, y), ref)
			fg := !(d < auto)
			if d < opt.Cutoff {
				fg = false
			}
			mask.Set(x, y, fg)
		}
	}
	return mask
}

// Report summarizes what both classifiers see in an image.
type Report struct {
	Reference     RGB
	Center        Sample
	AutoThreshold float64
	Threshold     float64
	FixedKept     int
	AutoKept      int
	Pixels        int
}

func Inspect(img *Image, threshold float64, opt Options) Report {
	ref := ReferenceColor(img)
	center := CenterSample(img, opt)
	return Report{
		Reference:     ref,
		Center:        center,
		AutoThreshold: SampleDistance(center, ref),
		Threshold:     threshold,
		FixedKept:     ClassifyFixed(img, threshold).Count(),
		AutoKept:      ClassifyAuto(img, opt).Count(),
		Pixels:        img.W * img.H,
	}
}
