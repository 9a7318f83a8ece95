package chromakey

import (
	"errors"
	"fmt"
)

var ErrSizeMismatch = errors.New("image size mismatch")

// Composite keeps fg where mask is set and takes bg everywhere else.
func Composite(mask *Mask, fg, bg *Image) (*Image, error) {
	if fg.W != mask.W || fg.H != mask.H {
		return nil, fmt.Errorf("%w: mask is %vx%v, foreground is %vx%v", ErrSizeMismatch, mask.W, mask.H, fg.W, fg.H)
	}
	if bg.W != fg.W || bg.H != fg.H {
		return nil, fmt.Errorf("%w: foreground is %vx%v, background is %vx%v", ErrSizeMismatch, fg.W, fg.H, bg.W, bg.H)
	}
	w, h := fg.W, fg.H
	out := NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := bg
			if mask.At(x, y) {
				src = fg
			}
			off := pixOffset(w, x, y)
			copy(out.Pix[off:off+3], src.Pix[off:off+3])
		}
	}
	return out, nil
}
