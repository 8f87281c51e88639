package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/digitgrid-mcp/internal/geometry"
)

// CropResult is an encoded image region.
type CropResult struct {
	X1          int    `json:"x1"`
	Y1          int    `json:"y1"`
	X2          int    `json:"x2"`
	Y2          int    `json:"y2"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CellRegion returns the pixel rectangle of a digit: halfWidth to either side
// of center, above and below it vertically, grown by pad and clipped to
// bounds. The result is empty when nothing of it lies inside bounds.
func CellRegion(center geometry.Dot, halfWidth, above, below float64, pad int, bounds image.Rectangle) image.Rectangle {
	r := image.Rect(
		int(math.Floor(center.X-halfWidth))-pad,
		int(math.Floor(center.Y-above))-pad,
		int(math.Ceil(center.X+halfWidth))+pad,
		int(math.Ceil(center.Y+below))+pad,
	)
	return r.Intersect(bounds)
}

// Crop copies rect out of img. The copy's bounds start at the origin.
func Crop(img image.Image, rect image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if rect.Empty() {
		return nil, fmt.Errorf("invalid crop region %v", rect)
	}
	if !rect.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", rect, bounds)
	}
	return imaging.Crop(img, rect), nil
}

// Encode crops rect out of img, scales it and encodes it as base64 PNG. A
// scale of 0 or 1 keeps the original size.
func Encode(img image.Image, rect image.Rectangle, scale float64) (*CropResult, error) {
	cropped, err := Crop(img, rect)
	if err != nil {
		return nil, err
	}

	if scale > 0 && scale != 1.0 {
		w := int(float64(cropped.Bounds().Dx()) * scale)
		h := int(float64(cropped.Bounds().Dy()) * scale)
		cropped = imaging.Resize(cropped, max(w, 1), max(h, 1), imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}

	return &CropResult{
		X1:          rect.Min.X,
		Y1:          rect.Min.Y,
		X2:          rect.Max.X,
		Y2:          rect.Max.Y,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
