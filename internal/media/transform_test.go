package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(t *testing.T, w, h int, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: uint8(x % 256), A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

func encodePNG(buf *bytes.Buffer, img image.Image) error {
	return png.Encode(buf, img)
}

func encodeJPEG(buf *bytes.Buffer, img image.Image) error {
	return jpeg.Encode(buf, img, nil)
}

func TestDetect(t *testing.T) {
	pngData := testImage(t, 4, 4, encodePNG)
	jpegData := testImage(t, 4, 4, encodeJPEG)

	mime, err := Detect(pngData)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	mime, err = Detect(jpegData)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	_, err = Detect([]byte("<svg></svg>"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = Detect(nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestNormalizeForOCRDownscalesAndReencodes(t *testing.T) {
	data := testImage(t, 800, 400, encodeJPEG)

	out, err := NormalizeForOCR(data, 200)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestNormalizeForOCRKeepsSmallImages(t *testing.T) {
	data := testImage(t, 100, 50, encodePNG)

	out, err := NormalizeForOCR(data, 200)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestThumbnailBounds(t *testing.T) {
	data := testImage(t, 600, 300, encodePNG)

	out, err := Thumbnail(data, 200)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 200)
	assert.LessOrEqual(t, img.Bounds().Dy(), 200)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := NormalizeForOCR([]byte("definitely not an image"), 200)
	assert.Error(t, err)
}
