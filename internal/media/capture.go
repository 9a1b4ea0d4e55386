package media

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// Capture is the camera information embedded in a photo's EXIF block.
type Capture struct {
	CameraMake  string
	CameraModel string
	TakenAt     time.Time
}

// Empty reports whether no capture field was found.
func (c Capture) Empty() bool {
	return c.CameraMake == "" && c.CameraModel == "" && c.TakenAt.IsZero()
}

// Summary formats the capture as a single prompt line, or "" when empty.
func (c Capture) Summary() string {
	if c.Empty() {
		return ""
	}
	var parts []string
	if camera := strings.TrimSpace(c.CameraMake + " " + c.CameraModel); camera != "" {
		parts = append(parts, "camera "+camera)
	}
	if !c.TakenAt.IsZero() {
		parts = append(parts, "taken "+c.TakenAt.Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, ", ")
}

// ReadCapture extracts camera make, model and capture time from EXIF.
// JPEG, HEIC and TIFF carry EXIF; most PNG and WebP uploads return an error.
func ReadCapture(data []byte) (Capture, error) {
	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		return Capture{}, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	c := Capture{
		CameraMake:  strings.TrimSpace(exifData.Make),
		CameraModel: strings.TrimSpace(exifData.Model),
	}
	if !exifData.DateTimeOriginal().IsZero() {
		c.TakenAt = exifData.DateTimeOriginal()
	} else if !exifData.CreateDate().IsZero() {
		c.TakenAt = exifData.CreateDate()
	}

	log.Debug().
		Str("make", c.CameraMake).
		Str("model", c.CameraModel).
		Bool("has_date", !c.TakenAt.IsZero()).
		Msg("Capture metadata extracted")

	return c, nil
}
