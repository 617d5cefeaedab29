package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultOCRSpaceURL is the OCR.space parse endpoint.
const DefaultOCRSpaceURL = "https://api.ocr.space/parse/image"

// Client recognizes text through the OCR.space API.
type Client struct {
	endpoint string
	apiKey   string
	lang     string
	client   *http.Client
}

// parseResponse is the subset of the OCR.space reply the client reads.
type parseResponse struct {
	ParsedResults []struct {
		ParsedText   string `json:"ParsedText"`
		ErrorMessage string `json:"ErrorMessage"`
	} `json:"ParsedResults"`
	OCRExitCode           int             `json:"OCRExitCode"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"` // string or []string
}

// NewClient creates an OCR.space client. lang is a three-letter code such
// as "por"; an empty endpoint uses DefaultOCRSpaceURL.
func NewClient(endpoint, apiKey, lang string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultOCRSpaceURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		lang:     lang,
		client:   &http.Client{Timeout: timeout},
	}
}

// Recognize preprocesses img and submits it as a base64 data URI. The
// returned text is trimmed; an empty result is reported as ErrNoText.
func (c *Client) Recognize(ctx context.Context, img []byte) (string, error) {
	form := url.Values{}
	form.Set("base64Image", "data:image/png;base64,"+base64.StdEncoding.EncodeToString(prepare(img)))
	form.Set("language", c.lang)
	form.Set("OCREngine", "2")
	form.Set("scale", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("ocr: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr: call OCR.space: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("ocr: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("ocr: OCR.space returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out parseResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("ocr: parse response: %w", err)
	}
	if out.IsErroredOnProcessing || len(out.ParsedResults) == 0 {
		return "", fmt.Errorf("ocr: OCR.space error (exit code %d): %s", out.OCRExitCode, errorText(out))
	}

	text := strings.TrimSpace(out.ParsedResults[0].ParsedText)
	if text == "" {
		return "", ErrNoText
	}
	slog.Debug("ocr recognized text", "engine", EngineOCRSpace, "text", text)
	return text, nil
}

// errorText flattens the top-level ErrorMessage, falling back to the first
// per-page message.
func errorText(r parseResponse) string {
	var many []string
	if err := json.Unmarshal(r.ErrorMessage, &many); err == nil && len(many) > 0 {
		return strings.Join(many, "; ")
	}
	var one string
	if err := json.Unmarshal(r.ErrorMessage, &one); err == nil && one != "" {
		return one
	}
	for _, p := range r.ParsedResults {
		if p.ErrorMessage != "" {
			return p.ErrorMessage
		}
	}
	return "unknown error"
}
