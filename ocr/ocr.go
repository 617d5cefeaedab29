// Package ocr reads the short status text the registry renders as an image.
//
// Two engines are available: a local Tesseract (gosseract, built with the
// "tesseract" tag) and the OCR.space web API. New picks one from config.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/oab/config"
)

// Engine names accepted by OAB_OCR_ENGINE.
const (
	EngineAuto      = "auto"
	EngineTesseract = "tesseract"
	EngineOCRSpace  = "ocrspace"
	EngineOff       = "off"
)

var (
	// ErrNoText is returned when recognition succeeded but found nothing.
	ErrNoText = errors.New("ocr: no text recognized")

	// ErrDisabled is returned by New when no engine is usable.
	ErrDisabled = errors.New("ocr: no recognition engine available")
)

// Recognizer reads text from an encoded image.
type Recognizer interface {
	Recognize(ctx context.Context, img []byte) (string, error)
}

// New builds the recognizer cfg.Engine names. "auto" prefers local
// Tesseract and falls back to OCR.space when an API key is configured.
func New(cfg config.OCRConfig) (Recognizer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case EngineOff:
		return nil, fmt.Errorf("%w: disabled by configuration", ErrDisabled)

	case EngineTesseract:
		t, err := NewTesseract(cfg.Language)
		if err != nil {
			return nil, err
		}
		return t, nil

	case EngineOCRSpace:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("ocr: engine %q requires OAB_OCR_API_KEY", EngineOCRSpace)
		}
		return NewClient(cfg.URL, cfg.APIKey, cfg.Language, cfg.Timeout), nil

	case EngineAuto, "":
		t, err := NewTesseract(cfg.Language)
		if err == nil {
			return t, nil
		}
		if cfg.APIKey != "" {
			slog.Debug("tesseract unavailable, using OCR.space", "error", err)
			return NewClient(cfg.URL, cfg.APIKey, cfg.Language, cfg.Timeout), nil
		}
		return nil, fmt.Errorf("%w: %v and OAB_OCR_API_KEY is not set", ErrDisabled, err)

	default:
		return nil, fmt.Errorf("ocr: unknown engine %q", cfg.Engine)
	}
}

// prepare runs Preprocess, keeping the original bytes when it fails.
func prepare(img []byte) []byte {
	out, err := Preprocess(img)
	if err != nil {
		slog.Debug("ocr preprocessing failed, using original image", "error", err)
		return img
	}
	return out
}
