package utils

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/setanarut/chromakey"
	apperrors "github.com/setanarut/chromakey/internal/errors"
	"github.com/setanarut/chromakey/internal/logger"
	"golang.org/x/image/bmp"
)

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch s {
	case "dominantcolor":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	}
	return PaletteMethodDominantColor, fmt.Errorf("unknown palette method %q", s)
}

// SortPaletteByBrightness orders colors from darkest to brightest.
func SortPaletteByBrightness(palette []colorful.Color) {
	slices.SortFunc(palette, func(a, b colorful.Color) int {
		ri, gi, bi := a.LinearRgb()
		rj, gj, bj := b.LinearRgb()
		yi := 0.2126*ri + 0.7152*gi + 0.0722*bi
		yj := 0.2126*rj + 0.7152*gj + 0.0722*bj
		if yi < yj {
			return -1
		}
		if yi > yj {
			return 1
		}
		return 0
	})
}

func ExtractDominantPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}
	candidates := dominantcolor.FindWeight(img, k)
	out := make([]colorful.Color, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		out = append(out, col.Clamped())
	}
	return out
}

func ExtractKMeansPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Subsample to keep kmeans tractable.
	maxSamples := 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, min(k, len(dataset)))
	if err != nil || len(cc) == 0 {
		return nil
	}

	// Most populated clusters first.
	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	out := make([]colorful.Color, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		out = append(out, colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped())
	}
	return out
}

func ExtractPalette(img image.Image, k int, method PaletteMethod) []colorful.Color {
	switch method {
	case PaletteMethodKMeans:
		p := ExtractKMeansPalette(img, k)
		if len(p) != 0 {
			return p
		}
		logger.Warn("kmeans returned empty palette, falling back to dominantcolor")
		return ExtractDominantPalette(img, k)
	default:
		return ExtractDominantPalette(img, k)
	}
}

// KeyDistance is the RGB distance of c from ref on the 0..255 scale.
func KeyDistance(c colorful.Color, ref chromakey.RGB) float64 {
	r, g, b := c.RGB255()
	return chromakey.Distance(chromakey.RGB{R: r, G: g, B: b}, ref)
}

// ReadImage decodes a 24-bit BMP. A size > 0 requires a size×size image.
func ReadImage(path string, size int) (*chromakey.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewReadError(path, err)
	}
	defer file.Close()
	img, err := bmp.Decode(file)
	if err != nil {
		return nil, apperrors.NewReadError(path, err)
	}
	b := img.Bounds()
	if size > 0 && (b.Dx() != size || b.Dy() != size) {
		return nil, apperrors.NewReadError(path, fmt.Errorf("image is %vx%v, expected %vx%v", b.Dx(), b.Dy(), size, size))
	}
	return chromakey.FromImage(img), nil
}

func SaveImage(img *chromakey.Image, filename string) error {
	return encode(img.RGBA(), filename)
}

// SaveMask writes foreground as white and background as black.
func SaveMask(mask *chromakey.Mask, filename string) error {
	return encode(mask.Gray(), filename)
}

func SavePalette(palette []colorful.Color, tileSize int, filename string) error {
	if len(palette) == 0 {
		return apperrors.NewWriteError(filename, fmt.Errorf("empty palette"))
	}
	if tileSize <= 0 {
		tileSize = 64
	}

	w := tileSize * len(palette)
	h := tileSize
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for i, c := range palette {
		r, g, b := c.Clamped().RGB255()
		x0 := i * tileSize
		for y := 0; y < h; y++ {
			for x := x0; x < x0+tileSize; x++ {
				img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}
	return encode(img, filename)
}

func encode(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return apperrors.NewWriteError(filename, err)
	}
	if err := bmp.Encode(f, img); err != nil {
		f.Close()
		return apperrors.NewWriteError(filename, err)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewWriteError(filename, err)
	}
	return nil
}

// ParseThreshold parses a distance threshold. In lenient mode it behaves
// like C's atof: the longest decimal or hexadecimal prefix is used, "inf"
// and "nan" are recognized, and anything else is 0.
func ParseThreshold(s string, lenient bool) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err == nil && !math.IsNaN(v) {
		return v, nil
	}
	if err == nil {
		err = fmt.Errorf("not a number")
	}
	if !lenient {
		return 0, apperrors.NewValidationError(fmt.Sprintf("invalid threshold %q", s), err)
	}
	return atofPrefix(s), nil
}

func atofPrefix(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	sign := ""
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "inf"):
		return parsePrefix(sign + "inf")
	case strings.HasPrefix(lower, "nan"):
		return math.NaN()
	case strings.HasPrefix(lower, "0x"):
		if v, ok := hexPrefix(s[2:]); ok {
			return parsePrefix(sign + v)
		}
		// "0x" with no hex digits parses as the leading 0.
		return 0
	}

	i, digits := scanDigits(s, 0, isDecimal)
	if digits == 0 {
		return 0
	}
	end := scanExponent(s, i, 'e')
	return parsePrefix(sign + s[:end])
}

// hexPrefix returns the hex float prefix of s (after "0x") in a form
// strconv accepts, which always needs a binary exponent.
func hexPrefix(s string) (string, bool) {
	i, digits := scanDigits(s, 0, isHex)
	if digits == 0 {
		return "", false
	}
	end := scanExponent(s, i, 'p')
	if end == i {
		return "0x" + s[:i] + "p0", true
	}
	return "0x" + s[:end], true
}

// scanDigits consumes digits with an optional single '.' starting at i.
func scanDigits(s string, i int, digit func(byte) bool) (int, int) {
	digits := 0
	for i < len(s) && digit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && digit(s[i]) {
			i++
			digits++
		}
	}
	return i, digits
}

// scanExponent returns the end of an exponent starting at i, or i if there
// is no complete one.
func scanExponent(s string, i int, marker byte) int {
	if i >= len(s) || (s[i]|0x20) != marker {
		return i
	}
	j := i + 1
	if j < len(s) && (s[j] == '+' || s[j] == '-') {
		j++
	}
	if j >= len(s) || !isDecimal(s[j]) {
		return i
	}
	for j < len(s) && isDecimal(s[j]) {
		j++
	}
	return j
}

func isDecimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDecimal(c) || (c|0x20 >= 'a' && c|0x20 <= 'f')
}

// Out of range values come back as ±Inf with an error; keep them like atof.
func parsePrefix(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
