// Package scan adapts uploaded label photos into item identifiers. The
// actual identifier decoding (barcode, QR, OCR) is an external capability
// injected as a Decoder; this package only normalizes the image and
// interprets whatever text the decoder produces.
package scan

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"net/http"

	"golang.org/x/image/draw"

	"custody-ledger-backend/internal/parse"
)

// MaxDimension is the maximum width or height handed to the decoder.
// Label photos straight off a phone are far larger than any decoder needs.
const MaxDimension = 1024

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Decoder extracts an identifier string from a label image. A false return
// means nothing decodable was found, which is a normal outcome rather than
// an error.
type Decoder interface {
	Decode(img image.Image) (string, bool)
}

// DecoderFunc adapts a plain function to the Decoder interface.
type DecoderFunc func(image.Image) (string, bool)

// Decode calls f.
func (f DecoderFunc) Decode(img image.Image) (string, bool) {
	return f(img)
}

// Unconfigured is the Decoder for deployments without a decoding backend.
// It never recognizes anything, which callers treat as a normal miss.
var Unconfigured = DecoderFunc(func(image.Image) (string, bool) {
	return "", false
})

// Scanner normalizes uploaded images and asks the decoder for an item id.
type Scanner struct {
	decoder Decoder
}

// NewScanner creates a scanner around the given decoder. A nil decoder
// falls back to Unconfigured.
func NewScanner(d Decoder) *Scanner {
	if d == nil {
		d = Unconfigured
	}
	return &Scanner{decoder: d}
}

// Lookup reads image data, validates the format by sniffing bytes,
// downscales oversized images, and asks the decoder for an identifier.
// The second return is false when the decoder found nothing usable or its
// output did not parse as an item id. An error is returned only for
// unreadable or unsupported image data.
func (s *Scanner) Lookup(r io.Reader) (int64, bool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read image data: %w", err)
	}

	// Sniff the actual MIME type from bytes, not client headers.
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return 0, false, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, false, fmt.Errorf("failed to decode image: %w", err)
	}

	text, ok := s.decoder.Decode(downscale(img, MaxDimension))
	if !ok {
		return 0, false, nil
	}

	id, err := parse.ItemID(text)
	if err != nil {
		// Decoded garbage is a miss, not a fault of the caller.
		return 0, false, nil
	}
	return id, true, nil
}

// downscale resizes the image so neither dimension exceeds maxDim,
// preserving aspect ratio. Returns the original image when already
// within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
