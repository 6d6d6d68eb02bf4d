package engine

import (
	"errors"
	"image"
	"image/color"

	"github.com/disintegration/gift"
)

// smoothAlpha cleans the alpha channel of a cutout: a 3px Gaussian blur
// softens hard matte edges, then a morphological close (dilate, erode)
// fills pinholes and an open (erode, dilate) removes speckle. Color
// channels are untouched.
func smoothAlpha(img *image.NRGBA) (*image.NRGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errors.New("empty image")
	}

	alpha := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			alpha.SetGray(x, y, color.Gray{Y: img.NRGBAAt(b.Min.X+x, b.Min.Y+y).A})
		}
	}

	g := gift.New(
		gift.GaussianBlur(1.0),
		// close
		gift.Maximum(3, true),
		gift.Minimum(3, true),
		// open
		gift.Minimum(3, true),
		gift.Maximum(3, true),
	)
	cleaned := image.NewGray(g.Bounds(alpha.Bounds()))
	g.Draw(cleaned, alpha)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			px.A = cleaned.GrayAt(x, y).Y
			out.SetNRGBA(x, y, px)
		}
	}
	return out, nil
}
