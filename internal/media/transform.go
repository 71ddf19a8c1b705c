// Package media normalizes uploaded photographs for the OCR pipeline and
// produces the thumbnails shown in image listings.
package media

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// NormalizedExt is the single codec every stored image is re-encoded to.
const NormalizedExt = "png"

// NormalizedMIME is the content type matching NormalizedExt.
const NormalizedMIME = "image/png"

// NormalizeForOCR re-encodes an uploaded image as PNG, downscaling it so the
// longest side does not exceed maxDim. Pixel dimensions may change; aspect
// ratio is preserved.
func NormalizeForOCR(data []byte, maxDim int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail renders a listing thumbnail whose longest side is maxDim.
func Thumbnail(data []byte, maxDim int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
