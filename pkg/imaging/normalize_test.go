package imaging

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

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			canvas.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, canvas))
	return buf.Bytes()
}

func TestNormalizeDownscalesLongEdge(t *testing.T) {
	result, err := Normalize(pngBytes(t, 2200, 1100))
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", result.ContentType)
	assert.Equal(t, 1000, result.Width)
	assert.Equal(t, 500, result.Height)

	decoded, err := jpeg.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, 1000, decoded.Bounds().Dx())
}

func TestNormalizeNeverUpscales(t *testing.T) {
	result, err := Normalize(pngBytes(t, 40, 40))
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", result.ContentType)
	assert.Equal(t, 40, result.Width)
	assert.Equal(t, 40, result.Height)
	assert.LessOrEqual(t, len(result.Data), TargetBytes)
}

func TestNormalizePortraitOrientation(t *testing.T) {
	result, err := Normalize(pngBytes(t, 600, 1800))
	require.NoError(t, err)

	assert.Equal(t, 1000, result.Height)
	assert.Less(t, result.Width, 1000)
}

func TestNormalizePassesThroughNonImages(t *testing.T) {
	payload := []byte("not an image at all, just plain text content")
	result, err := Normalize(payload)
	require.NoError(t, err)

	assert.Equal(t, payload, result.Data)
	assert.NotEqual(t, "image/jpeg", result.ContentType)
}

func TestCropExtractsRectangle(t *testing.T) {
	result, err := Crop(pngBytes(t, 400, 300), CropOptions{Rect: image.Rect(50, 50, 150, 170)})
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", result.ContentType)
	assert.Equal(t, 100, result.Width)
	assert.Equal(t, 120, result.Height)
}

func TestCropCapsLongEdge(t *testing.T) {
	result, err := Crop(pngBytes(t, 1600, 1200), CropOptions{Rect: image.Rect(0, 0, 1600, 1200)})
	require.NoError(t, err)

	assert.Equal(t, 500, result.Width)
	assert.LessOrEqual(t, result.Height, 500)
}

func TestCropRejectsZeroAreaRect(t *testing.T) {
	_, err := Crop(pngBytes(t, 100, 100), CropOptions{Rect: image.Rect(10, 10, 10, 50)})
	require.Error(t, err)
}

func TestCropWithRotation(t *testing.T) {
	result, err := Crop(pngBytes(t, 300, 200), CropOptions{Rect: image.Rect(0, 0, 200, 300), Rotation: 90})
	require.NoError(t, err)

	assert.Equal(t, 200, result.Width)
	assert.Equal(t, 300, result.Height)
}
