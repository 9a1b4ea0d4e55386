package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	// Register decoders for the formats a browser or phone may hand us.
	_ "image/gif"
	_ "image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Resize bounds one Downscale call.
type Resize struct {
	MaxWidth int     `yaml:"max_width"`
	Quality  float64 `yaml:"quality"`
}

// Resize presets per call site.
var (
	QualityCheckResize = Resize{MaxWidth: 400, Quality: 0.7}
	AnalysisResize     = Resize{MaxWidth: 800, Quality: 0.8}
	EditResize         = Resize{MaxWidth: 1024, Quality: 0.85}
)

// Downscale shrinks an image so its width is at most maxWidth, preserving
// aspect ratio, and re-encodes it as JPEG at quality (0..1]. The EXIF
// orientation is applied first, so width means the displayed width and the
// output is upright.
//
// An image already within maxWidth is returned byte-identical. Any decode or
// encode failure also returns the original bytes.
func Downscale(data []byte, maxWidth int, quality float64) []byte {
	out, changed, err := downscale(data, maxWidth, quality)
	if err != nil {
		logDownscaleFailure(err, len(data))
		return data
	}
	if !changed {
		return data
	}
	return out
}

func logDownscaleFailure(err error, size int) {
	log.Warn().Err(err).Int("input_size", size).Msg("Image downscale failed, using original")
}

// downscale reports changed=false when no resize was needed.
func downscale(data []byte, maxWidth int, quality float64) ([]byte, bool, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode image: %w", err)
	}

	orientation := readOrientation(data)
	img = applyOrientation(img, orientation)

	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	if maxWidth <= 0 || origWidth <= maxWidth {
		return data, false, nil
	}

	newWidth, newHeight := scaledDimensions(origWidth, origHeight, maxWidth)

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return nil, false, fmt.Errorf("failed to encode image: %w", err)
	}

	log.Debug().
		Str("format", format).
		Stringer("orientation", orientation).
		Int("orig_width", origWidth).
		Int("orig_height", origHeight).
		Int("new_width", newWidth).
		Int("new_height", newHeight).
		Int("input_size", len(data)).
		Int("output_size", buf.Len()).
		Msg("Image downscaled")

	return buf.Bytes(), true, nil
}

// scaledDimensions scales width down to maxWidth and height by the same
// factor, rounded to the nearest pixel.
func scaledDimensions(width, height, maxWidth int) (int, int) {
	if width <= maxWidth {
		return width, height
	}
	scale := float64(maxWidth) / float64(width)
	newHeight := int(math.Round(float64(height) * scale))
	if newHeight < 1 {
		newHeight = 1
	}
	return maxWidth, newHeight
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	switch {
	case v < 1:
		return 1
	case v > 100:
		return 100
	}
	return v
}

// Dimensions returns the pixel size of an encoded image without decoding
// the full raster.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
