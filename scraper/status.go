package scraper

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/oab/ocr"
)

// detailImageSelector is the status image shown in the registration detail modal.
const detailImageSelector = "#imgDetail"

var (
	// ErrNoDetailImage means the detail modal never showed a usable image.
	ErrNoDetailImage = errors.New("detail image not available")

	// ErrStatusUnrecognized means OCR produced no text.
	ErrStatusUnrecognized = errors.New("status text not recognized")
)

// StatusResolver reads the registration status the site renders as an
// image inside the detail view.
type StatusResolver struct {
	baseURL    string
	timeout    time.Duration
	fetcher    Fetcher
	recognizer ocr.Recognizer
}

// NewStatusResolver creates a resolver. baseURL resolves site-relative
// image paths; timeout bounds the wait for the image to appear.
func NewStatusResolver(baseURL string, timeout time.Duration, fetcher Fetcher, recognizer ocr.Recognizer) *StatusResolver {
	return &StatusResolver{
		baseURL:    baseURL,
		timeout:    timeout,
		fetcher:    fetcher,
		recognizer: recognizer,
	}
}

// OpenDetail clicks row to open its detail view. A covered or detached row
// would otherwise keep the click waiting for interactability indefinitely.
func (r *StatusResolver) OpenDetail(ctx context.Context, row Element) error {
	timeout := r.timeout
	if timeout <= 0 {
		timeout = actionTimeout
	}
	clickCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return row.Click(clickCtx)
}

// Resolve waits for the detail image, downloads it with the session's
// cookies and recognizes its text. It returns the first status keyword in
// the text, or the raw text when none matches.
func (r *StatusResolver) Resolve(ctx context.Context, sess Session) (string, error) {
	img, err := sess.WaitVisible(ctx, detailImageSelector, r.timeout)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDetailImage, err)
	}
	src, ok, err := img.Attribute(ctx, "src")
	if err != nil {
		return "", fmt.Errorf("%w: read src: %v", ErrNoDetailImage, err)
	}
	src = strings.TrimSpace(src)
	if !ok || src == "" {
		return "", ErrNoDetailImage
	}

	data, err := r.load(ctx, sess, src)
	if err != nil {
		return "", err
	}

	text, err := r.recognizer.Recognize(ctx, data)
	if err != nil {
		if errors.Is(err, ocr.ErrNoText) {
			return "", ErrStatusUnrecognized
		}
		return "", fmt.Errorf("recognize detail image: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrStatusUnrecognized
	}

	if kw := MatchStatus(text); kw != "" {
		return kw, nil
	}
	return text, nil
}

// load returns the image bytes for src, decoding inline data URIs and
// downloading everything else.
func (r *StatusResolver) load(ctx context.Context, sess Session, src string) ([]byte, error) {
	if strings.HasPrefix(src, "data:") {
		_, payload, found := strings.Cut(src, ";base64,")
		if !found {
			return nil, fmt.Errorf("%w: unsupported data URI", ErrNoDetailImage)
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: decode data URI: %v", ErrNoDetailImage, err)
		}
		return data, nil
	}

	imageURL, err := r.resolveURL(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDetailImage, err)
	}

	cookies, err := sess.Cookies(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("read session cookies: %w", err)
	}

	data, err := r.fetcher.Fetch(ctx, imageURL, cookies)
	if err != nil {
		return nil, fmt.Errorf("download detail image: %w", err)
	}
	return data, nil
}

// resolveURL makes a site-relative src absolute against the base URL.
func (r *StatusResolver) resolveURL(src string) (string, error) {
	ref, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(r.baseURL)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
