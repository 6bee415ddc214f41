// Package artifact serialises pipeline outputs into transportable form.
// Encoding is PNG only: sprites carry meaningful alpha edges and the
// reconstructed plates feed colour-sensitive downstream composition, so a
// lossy codec would corrupt both.
package artifact

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
)

// ErrEncodingFailure is returned when an image cannot be serialised. It is
// fatal for the single operation that hit it and never touches the source
// image.
var ErrEncodingFailure = errors.New("artifact encoding failed")

// dataURIPrefix is the scheme prepended by DataURI.
const dataURIPrefix = "data:image/png;base64,"

// EncodePNG returns the image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrEncodingFailure)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	return buf.Bytes(), nil
}

// DataURI returns the image as a base64 PNG data URI, ready to embed in a
// response payload.
func DataURI(img image.Image) (string, error) {
	raw, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(raw), nil
}
