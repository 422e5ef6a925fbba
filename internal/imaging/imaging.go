package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 85

var ErrUnsupportedType = errors.New("only image files (jpg, jpeg, png, gif, webp) are allowed")

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Extension returns the lower-cased extension of filename when it is an accepted image type.
func Extension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := mimeTypes[ext]; !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// MIMEType maps an accepted file name to its content type, defaulting to JPEG.
func MIMEType(filename string) string {
	if m, ok := mimeTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return m
	}
	return "image/jpeg"
}

type GPS struct {
	Latitude  float64
	Longitude float64
}

// ExtractGPS reads the GPS position from EXIF metadata, if the photo carries one.
func ExtractGPS(data []byte) (*GPS, bool) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	lat, lng, err := x.LatLong()
	if err != nil || math.IsNaN(lat) || math.IsNaN(lng) {
		return nil, false
	}
	if lat == 0 && lng == 0 {
		return nil, false
	}
	return &GPS{Latitude: lat, Longitude: lng}, true
}

// Downscale shrinks the image so its longest side is at most maxDim and
// re-encodes it as JPEG. Smaller images, or maxDim <= 0, are returned as is.
func Downscale(data []byte, mimeType string, maxDim int) ([]byte, string, error) {
	if maxDim <= 0 {
		return data, mimeType, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return data, mimeType, fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width <= maxDim && cfg.Height <= maxDim {
		return data, mimeType, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, mimeType, fmt.Errorf("failed to decode image: %w", err)
	}

	w, h := fit(cfg.Width, cfg.Height, maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return data, mimeType, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

func fit(width, height, maxDim int) (int, int) {
	if width >= height {
		h := int(math.Round(float64(height) * float64(maxDim) / float64(width)))
		return maxDim, max(h, 1)
	}
	w := int(math.Round(float64(width) * float64(maxDim) / float64(height)))
	return max(w, 1), maxDim
}

// EncodeJPEG decodes any supported image format and re-encodes it as JPEG.
func EncodeJPEG(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
