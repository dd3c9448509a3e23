// Package imaging normalizes uploaded photos into bounded-size JPEGs and
// provides the passport-photo crop used for profile pictures.
package imaging

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"net/http"
	"strings"

	img "github.com/disintegration/imaging"
)

const (
	// MaxLongEdge caps the longer dimension of a normalized photo.
	MaxLongEdge = 1000
	// TargetBytes is the best-effort byte budget for normalized output.
	TargetBytes = 150 * 1024

	startQuality = 0.70
	floorQuality = 0.10
)

// Result carries a normalized payload and its final content type.
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Normalize converts an arbitrary upload into a bounded-size JPEG. Non-image
// payloads (and images the decoder cannot handle) pass through unchanged.
// Images are downscaled so the long edge is at most MaxLongEdge (never
// upscaled), flattened onto a white background, then re-encoded with a
// descending JPEG quality search: starting at 0.70, quality drops by 0.20
// while the result is more than twice over TargetBytes and by 0.10 otherwise,
// bottoming out at 0.10. The byte target is best-effort at the floor.
func Normalize(data []byte) (*Result, error) {
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return &Result{Data: data, ContentType: contentType}, nil
	}

	src, err := img.Decode(bytes.NewReader(data))
	if err != nil {
		return &Result{Data: data, ContentType: contentType}, nil
	}

	resized := shrinkToFit(src, MaxLongEdge)
	flat := flattenOnWhite(resized)

	quality := startQuality
	buf := &bytes.Buffer{}
	for {
		buf.Reset()
		if err := img.Encode(buf, flat, img.JPEG, img.JPEGQuality(percent(quality))); err != nil {
			return nil, err
		}
		if buf.Len() <= TargetBytes || quality <= floorQuality {
			break
		}
		if buf.Len() > 2*TargetBytes {
			quality -= 0.20
		} else {
			quality -= 0.10
		}
		if quality < floorQuality {
			quality = floorQuality
		}
	}

	bounds := flat.Bounds()
	return &Result{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

func shrinkToFit(src image.Image, longEdge int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= longEdge && h <= longEdge {
		return src
	}
	if w >= h {
		return img.Resize(src, longEdge, 0, img.Lanczos)
	}
	return img.Resize(src, 0, longEdge, img.Lanczos)
}

func flattenOnWhite(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	canvas := img.New(bounds.Dx(), bounds.Dy(), color.White)
	return img.Overlay(canvas, src, image.Pt(0, 0), 1.0)
}

func percent(quality float64) int {
	return int(math.Round(quality * 100))
}
