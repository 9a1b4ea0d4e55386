package media

import (
	"bytes"
	"image"

	"github.com/evanoberholster/imagemeta"
	"github.com/evanoberholster/imagemeta/meta"
)

// readOrientation returns the EXIF orientation of data, or
// OrientationHorizontal when there is none.
var readOrientation = exifOrientation

func exifOrientation(data []byte) meta.Orientation {
	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil || exifData.Orientation < meta.OrientationHorizontal || exifData.Orientation > meta.OrientationRotate270 {
		return meta.OrientationHorizontal
	}
	return exifData.Orientation
}

// applyOrientation returns img as it should be displayed for EXIF
// orientation o. Re-encoded output carries no EXIF, so the transform must be
// baked into the pixels.
func applyOrientation(img image.Image, o meta.Orientation) image.Image {
	if o <= meta.OrientationHorizontal || o > meta.OrientationRotate270 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	swap := o >= meta.OrientationMirrorHorizontalRotate270
	dw, dh := w, h
	if swap {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch o {
			case meta.OrientationMirrorHorizontal:
				dx, dy = w-1-x, y
			case meta.OrientationRotate180:
				dx, dy = w-1-x, h-1-y
			case meta.OrientationMirrorVertical:
				dx, dy = x, h-1-y
			case meta.OrientationMirrorHorizontalRotate270:
				dx, dy = y, x
			case meta.OrientationRotate90:
				dx, dy = h-1-y, x
			case meta.OrientationMirrorHorizontalRotate90:
				dx, dy = h-1-y, w-1-x
			case meta.OrientationRotate270:
				dx, dy = y, w-1-x
			}
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
