//go:build tesseract

package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text with the local libtesseract.
type Tesseract struct {
	lang string
}

// NewTesseract checks that lang's traineddata is installed.
func NewTesseract(lang string) (*Tesseract, error) {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, fmt.Errorf("ocr: list tesseract languages: %w", err)
	}
	if !slices.Contains(langs, lang) {
		return nil, fmt.Errorf("ocr: tesseract language %q not installed (have %s)", lang, strings.Join(langs, ", "))
	}
	return &Tesseract{lang: lang}, nil
}

type tessResult struct {
	text string
	err  error
}

// Recognize reads img as a single line of text. A gosseract client is not
// safe for concurrent use, so each call gets its own.
func (t *Tesseract) Recognize(ctx context.Context, img []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	prepared := prepare(img)

	done := make(chan tessResult, 1)
	go func() {
		text, err := t.recognize(prepared)
		done <- tessResult{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		text := strings.TrimSpace(r.text)
		if text == "" {
			return "", ErrNoText
		}
		slog.Debug("ocr recognized text", "engine", EngineTesseract, "text", text)
		return text, nil
	}
}

func (t *Tesseract) recognize(img []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.lang); err != nil {
		return "", fmt.Errorf("ocr: tesseract language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("ocr: tesseract page mode: %w", err)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("ocr: tesseract image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: tesseract: %w", err)
	}
	return text, nil
}
