package ocr

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// Status badges are tiny; OCR engines do much better at 3x.
	upscaleFactor = 3
	contrastBoost = 40
	sharpenSigma  = 1.0
)

// Preprocess converts an encoded image to an upscaled, high-contrast
// grayscale PNG.
func Preprocess(img []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	out := imaging.Grayscale(src)
	out = imaging.Resize(out, b.Dx()*upscaleFactor, b.Dy()*upscaleFactor, imaging.Lanczos)
	out = imaging.AdjustContrast(out, contrastBoost)
	out = imaging.Sharpen(out, sharpenSigma)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
