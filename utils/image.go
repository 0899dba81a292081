package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"
)

// ErrImageTooLarge is returned for images declaring more pixels than allowed
var ErrImageTooLarge = errors.New("image too large")

type ImageScaled struct {
	Data     []byte      // JPEG encoded, the original bytes if no scaling was needed
	Original image.Point // Size of the input image
	Scaled   image.Point // Size of Data
}

// ScaleForDetection fits the image into maxSize x maxSize, keeping the aspect ratio.
// maxSize 0 disables scaling, non-JPEG input is always re-encoded as JPEG.
// Images whose header declares more than maxPixels pixels are rejected before
// decoding, maxPixels <= 0 disables the check.
func ScaleForDetection(maxSize uint, maxPixels int, reader io.Reader) (result ImageScaled, err error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		err = fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
		return
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return
	}
	result.Original = img.Bounds().Size()
	result.Scaled = result.Original

	needsScaling := maxSize > 0 && (result.Original.X > int(maxSize) || result.Original.Y > int(maxSize))
	if !needsScaling && format == "jpeg" {
		result.Data = raw
		return
	}
	if needsScaling {
		img = resize.Thumbnail(maxSize, maxSize, img, resize.Bilinear)
		result.Scaled = img.Bounds().Size()
	}
	var buf bytes.Buffer
	if err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return
	}
	result.Data = buf.Bytes()
	return
}
