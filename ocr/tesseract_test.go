//go:build tesseract

package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/oab/config"
)

func newTesseract(t *testing.T) *Tesseract {
	t.Helper()
	tess, err := NewTesseract("eng")
	if err != nil {
		t.Skipf("tesseract not usable here: %v", err)
	}
	return tess
}

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTesseract_BlankImageHasNoText(t *testing.T) {
	tess := newTesseract(t)

	_, err := tess.Recognize(context.Background(), whitePNG(t, 40, 12))
	assert.ErrorIs(t, err, ErrNoText)
}

func TestTesseract_CanceledContext(t *testing.T) {
	tess := newTesseract(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tess.Recognize(ctx, testPNG(t, 40, 12))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTesseract_MissingLanguage(t *testing.T) {
	newTesseract(t)

	_, err := NewTesseract("zz-none")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not installed")
}

func TestNew_AutoPrefersTesseract(t *testing.T) {
	newTesseract(t)

	r, err := New(config.OCRConfig{Engine: EngineAuto, APIKey: "k", Language: "eng"})
	require.NoError(t, err)
	assert.IsType(t, &Tesseract{}, r)
}
