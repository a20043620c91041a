package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
)

var (
	ErrInvalidDataURI  = errors.New("invalid base64 image")
	ErrTooLarge        = errors.New("image exceeds upload limit")
	ErrUnsupportedType = errors.New("unsupported image type")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// DecodeDataURI splits "data:<mime>;base64,<payload>" and returns the raw bytes
// and the sniffed content type. A bare base64 payload is accepted too.
func DecodeDataURI(s string, maxBytes int64) ([]byte, string, error) {
	payload := s
	if strings.HasPrefix(s, "data:") {
		parts := strings.SplitN(s, ",", 2)
		if len(parts) != 2 || !strings.HasSuffix(parts[0], ";base64") {
			return nil, "", ErrInvalidDataURI
		}
		payload = parts[1]
	}
	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, "", ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", ErrTooLarge
	}
	ct := http.DetectContentType(data)
	if !allowedTypes[ct] {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return data, ct, nil
}

// MaxPixels caps decoded image area. A few hundred KB of compressed PNG can
// declare dimensions whose RGBA buffer runs into gigabytes.
const MaxPixels = 40_000_000

// Decode reads the header first and refuses images larger than MaxPixels
// before allocating any pixel data.
func Decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataURI, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataURI, err)
	}
	return img, nil
}
