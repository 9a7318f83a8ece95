package utils

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/setanarut/chromakey"
	apperrors "github.com/setanarut/chromakey/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker(size int) *chromakey.Image {
	img := chromakey.NewImage(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/4+y/4)%2 == 0 {
				img.Set(x, y, chromakey.RGB{R: 20, G: 200, B: 40})
			} else {
				img.Set(x, y, chromakey.RGB{R: uint8(x), G: uint8(y), B: 250})
			}
		}
	}
	return img
}

func TestSaveAndReadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checker.bmp")
	img := checker(32)
	require.NoError(t, SaveImage(img, path))

	back, err := ReadImage(path, 32)
	require.NoError(t, err)
	assert.Equal(t, img, back)

	back, err = ReadImage(path, 0)
	require.NoError(t, err)
	assert.Equal(t, img, back)
}

func TestReadImageWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.bmp")
	require.NoError(t, SaveImage(checker(16), path))

	_, err := ReadImage(path, 256)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRead))
}

func TestReadImageErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadImage(filepath.Join(dir, "missing.bmp"), 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRead))

	junk := filepath.Join(dir, "junk.bmp")
	require.NoError(t, os.WriteFile(junk, []byte("not a bitmap"), 0644))
	_, err = ReadImage(junk, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRead))
}

func TestSaveImageUnwritable(t *testing.T) {
	err := SaveImage(checker(4), filepath.Join(t.TempDir(), "no", "such", "dir.bmp"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeWrite))
}

func TestSaveMask(t *testing.T) {
	img := checker(16)
	mask := chromakey.ClassifyFixed(img, 30)
	path := filepath.Join(t.TempDir(), "mask.bmp")
	require.NoError(t, SaveMask(mask, path))

	back, err := ReadImage(path, 16)
	require.NoError(t, err)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			want := chromakey.RGB{}
			if mask.At(x, y) {
				want = chromakey.RGB{R: 255, G: 255, B: 255}
			}
			require.Equal(t, want, back.At(x, y))
		}
	}
}

func TestSavePalette(t *testing.T) {
	dir := t.TempDir()
	palette := []colorful.Color{{R: 1}, {G: 1}, {B: 1}}
	path := filepath.Join(dir, "palette.bmp")
	require.NoError(t, SavePalette(palette, 8, path))

	back, err := ReadImage(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 24, back.W)
	assert.Equal(t, 8, back.H)
	assert.Equal(t, chromakey.RGB{R: 0, G: 255, B: 0}, back.At(12, 3))

	assert.Error(t, SavePalette(nil, 8, filepath.Join(dir, "empty.bmp")))
}

func TestExtractPalette(t *testing.T) {
	img := checker(64).RGBA()
	for _, method := range []PaletteMethod{PaletteMethodDominantColor, PaletteMethodKMeans} {
		t.Run(method.String(), func(t *testing.T) {
			p := ExtractPalette(img, 2, method)
			require.NotEmpty(t, p)
			assert.LessOrEqual(t, len(p), 2)
		})
	}
	assert.Nil(t, ExtractPalette(img, 0, PaletteMethodDominantColor))
}

func TestSortPaletteByBrightness(t *testing.T) {
	p := []colorful.Color{{R: 1, G: 1, B: 1}, {}, {R: 0.5, G: 0.5, B: 0.5}}
	SortPaletteByBrightness(p)
	assert.Equal(t, colorful.Color{}, p[0])
	assert.Equal(t, colorful.Color{R: 1, G: 1, B: 1}, p[2])
}

func TestKeyDistance(t *testing.T) {
	ref := chromakey.RGB{R: 0, G: 0, B: 0}
	assert.Equal(t, 0.0, KeyDistance(colorful.Color{}, ref))
	assert.InDelta(t, 255, KeyDistance(colorful.Color{R: 1}, ref), 1e-9)
}

func TestParsePaletteMethod(t *testing.T) {
	m, err := ParsePaletteMethod("kmeans")
	require.NoError(t, err)
	assert.Equal(t, PaletteMethodKMeans, m)
	_, err = ParsePaletteMethod("octree")
	assert.Error(t, err)
}

func TestParseThreshold(t *testing.T) {
	cases := []struct {
		in      string
		lenient bool
		want    float64
		wantErr bool
	}{
		{"42", false, 42, false},
		{" 12.5 ", false, 12.5, false},
		{"abc", false, 0, true},
		{"10px", false, 0, true},
		{"nan", false, 0, true},
		{"abc", true, 0, false},
		{"10px", true, 10, false},
		{"-3.5e1x", true, -35, false},
		{"7e", true, 7, false},
		{".5.5", true, 0.5, false},
		{"+", true, 0, false},
		{"0x10", true, 16, false},
		{"-0x10", true, -16, false},
		{"0x1.8p1", true, 3, false},
		{"0X1Fz", true, 31, false},
		{"0xg", true, 0, false},
		{"inf", true, math.Inf(1), false},
		{"-Infinity", true, math.Inf(-1), false},
	}
	for _, tc := range cases {
		got, err := ParseThreshold(tc.in, tc.lenient)
		if tc.wantErr {
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseThresholdLenientNaN(t *testing.T) {
	got, err := ParseThreshold("NaN%", true)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got))
}
