package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	img "github.com/disintegration/imaging"
)

const (
	cropMaxLongEdge = 500
	cropQuality     = 80
)

// CropOptions describes the requested crop region and orientation fixes.
// Rect is expressed in pixel coordinates of the rotated image.
type CropOptions struct {
	Rect     image.Rectangle
	Rotation float64
	FlipH    bool
	FlipV    bool
}

// Crop rotates the source image inside an expanded bounding box (white fill),
// extracts the requested rectangle, scales the result down to at most 500px
// on the long edge and re-encodes it as JPEG. The rectangle must have a
// positive area and intersect the rotated image.
func Crop(data []byte, opts CropOptions) (*Result, error) {
	if opts.Rect.Dx() <= 0 || opts.Rect.Dy() <= 0 {
		return nil, fmt.Errorf("crop rectangle must have positive width and height")
	}

	src, err := img.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if opts.FlipH {
		src = img.FlipH(src)
	}
	if opts.FlipV {
		src = img.FlipV(src)
	}
	if opts.Rotation != 0 {
		src = img.Rotate(src, -opts.Rotation, color.White)
	}

	rect := opts.Rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("crop rectangle outside image bounds")
	}
	cropped := img.Crop(src, rect)

	scaled := shrinkToFit(cropped, cropMaxLongEdge)
	flat := flattenOnWhite(scaled)

	buf := &bytes.Buffer{}
	if err := img.Encode(buf, flat, img.JPEG, img.JPEGQuality(cropQuality)); err != nil {
		return nil, fmt.Errorf("encode cropped image: %w", err)
	}

	bounds := flat.Bounds()
	return &Result{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}
