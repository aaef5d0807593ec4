package form

import (
	"bytes"
	"encoding/base64"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	_ "golang.org/x/image/webp"
)

const (
	previewWidth  = 320
	previewHeight = 180
)

var acceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// imageType sniffs data and reports whether it is an accepted image
func imageType(data []byte) (string, bool) {
	mt := mimetype.Detect(data).String()
	return mt, acceptedTypes[mt]
}

// buildPreview renders a small JPEG thumbnail as a data URI
func buildPreview(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}

	thumb := imaging.Fit(img, previewWidth, previewHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", err
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
