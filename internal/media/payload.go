package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MIMETypeJPEG is assumed for bare base64 input and produced by Downscale.
const MIMETypeJPEG = "image/jpeg"

// ErrEmptyImage is returned when a payload carries no bytes.
var ErrEmptyImage = errors.New("image is empty")

// Payload is raw image bytes plus their MIME type. The data-URI prefix is
// never part of Data.
type Payload struct {
	Data     []byte
	MIMEType string
}

// DataURI renders the payload as a displayable data URI.
func (p Payload) DataURI() string {
	mime := p.MIMEType
	if mime == "" {
		mime = MIMETypeJPEG
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Downscaled returns a copy shrunk with Downscale. The MIME type becomes
// image/jpeg only when the bytes were actually re-encoded.
func (p Payload) Downscaled(r Resize) Payload {
	out, changed, err := downscale(p.Data, r.MaxWidth, r.Quality)
	if err != nil {
		logDownscaleFailure(err, len(p.Data))
		return p
	}
	if !changed {
		return p
	}
	return Payload{Data: out, MIMEType: MIMETypeJPEG}
}

// ParsePayload accepts either a data URI ("data:image/png;base64,...") or a
// bare base64 string, which is assumed to be JPEG.
func ParsePayload(s string) (Payload, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Payload{}, ErrEmptyImage
	}

	mime := MIMETypeJPEG
	encoded := s
	if strings.HasPrefix(s, "data:") {
		header, body, ok := strings.Cut(s, ",")
		if !ok {
			return Payload{}, fmt.Errorf("malformed data URI: missing ','")
		}
		meta := strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return Payload{}, fmt.Errorf("malformed data URI: only base64 encoding is supported")
		}
		if m := strings.TrimSuffix(meta, ";base64"); m != "" {
			mime = m
		}
		encoded = body
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	if len(data) == 0 {
		return Payload{}, ErrEmptyImage
	}
	return Payload{Data: data, MIMEType: mime}, nil
}

// FromBytes wraps raw file bytes, sniffing the MIME type.
func FromBytes(data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, ErrEmptyImage
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return Payload{}, fmt.Errorf("unsupported content type %q", mime)
	}
	return Payload{Data: data, MIMEType: mime}, nil
}
