package storage

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// DecodePayload turns a "data:<mime>;base64,<data>" URI or bare base64 text
// into raw bytes.
func DecodePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrInvalidImage
	}
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, fmt.Errorf("%w: expected a base64 data URI", ErrInvalidImage)
		}
		payload = payload[comma+1:]
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(payload); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: not base64", ErrInvalidImage)
}

// PreparedImage is an image ready for upload.
type PreparedImage struct {
	Data        []byte
	ContentType string
	Ext         string
}

var formats = map[string]struct {
	format      imaging.Format
	contentType string
	ext         string
}{
	"jpeg": {imaging.JPEG, "image/jpeg", ".jpg"},
	"png":  {imaging.PNG, "image/png", ".png"},
	"gif":  {imaging.GIF, "image/gif", ".gif"},
	"bmp":  {imaging.BMP, "image/bmp", ".bmp"},
	"tiff": {imaging.TIFF, "image/tiff", ".tiff"},
}

// PrepareImage validates data as an image and, when it is wider than
// maxWidth, downscales it keeping the aspect ratio. maxWidth <= 0 disables
// resizing.
func PrepareImage(data []byte, maxWidth int) (*PreparedImage, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	f, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidImage, name)
	}

	out := &PreparedImage{Data: data, ContentType: f.contentType, Ext: f.ext}
	if maxWidth <= 0 || cfg.Width <= maxWidth {
		return out, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	resized := imaging.Resize(img, maxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, f.format); err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}
	out.Data = buf.Bytes()
	return out, nil
}
