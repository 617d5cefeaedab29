//go:build !tesseract

package ocr

import (
	"context"
	"errors"
)

// ErrTesseractUnavailable is returned when the binary was built without
// the "tesseract" tag.
var ErrTesseractUnavailable = errors.New("ocr: built without tesseract support")

// Tesseract is unavailable in this build.
type Tesseract struct{}

func NewTesseract(string) (*Tesseract, error) {
	return nil, ErrTesseractUnavailable
}

func (*Tesseract) Recognize(context.Context, []byte) (string, error) {
	return "", ErrTesseractUnavailable
}
