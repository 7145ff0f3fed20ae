package scan

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngBytes encodes a blank image of the given size as PNG.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestScanner_DecodedIdentifierIsParsed(t *testing.T) {
	scanner := NewScanner(DecoderFunc(func(img image.Image) (string, bool) {
		return "ITEM-000123", true
	}))

	id, found, err := scanner.Lookup(bytes.NewReader(pngBytes(t, 64, 64)))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(123), id)
}

func TestScanner_DecoderMissIsNotAnError(t *testing.T) {
	scanner := NewScanner(Unconfigured)

	_, found, err := scanner.Lookup(bytes.NewReader(pngBytes(t, 64, 64)))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestScanner_UnparsableDecoderOutputIsAMiss(t *testing.T) {
	scanner := NewScanner(DecoderFunc(func(img image.Image) (string, bool) {
		return "not an identifier", true
	}))

	_, found, err := scanner.Lookup(bytes.NewReader(pngBytes(t, 64, 64)))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestScanner_OversizedImageIsDownscaledBeforeDecoding(t *testing.T) {
	var seen image.Rectangle
	scanner := NewScanner(DecoderFunc(func(img image.Image) (string, bool) {
		seen = img.Bounds()
		return "1", true
	}))

	_, found, err := scanner.Lookup(bytes.NewReader(pngBytes(t, 2048, 512)))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, MaxDimension, seen.Dx())
	assert.Equal(t, 256, seen.Dy())
}

func TestScanner_RejectsNonImageData(t *testing.T) {
	scanner := NewScanner(Unconfigured)

	_, _, err := scanner.Lookup(strings.NewReader("definitely not an image"))
	assert.Error(t, err)
}
