package media

import (
	"bytes"
	"errors"
)

// The OCR pipeline works on raster photographs only.
var ErrUnsupportedType = errors.New("unsupported image type")

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// Detect sniffs the content type from the leading bytes, ignoring whatever
// the client declared.
func Detect(data []byte) (mime string, err error) {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return "image/png", nil
	case bytes.HasPrefix(data, jpegMagic):
		return "image/jpeg", nil
	default:
		return "", ErrUnsupportedType
	}
}
