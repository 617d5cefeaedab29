package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// actionTimeout bounds each form interaction (fill, select, click).
const actionTimeout = 10 * time.Second

// findByTextJS returns every element under <body> whose rendered text
// contains the needle (case-insensitive), deepest elements first.
const findByTextJS = `(needle) => {
	const skip = new Set(['SCRIPT', 'STYLE', 'NOSCRIPT']);
	const want = needle.toLowerCase();
	const depth = (el) => {
		let d = 0;
		for (let n = el; n.parentElement; n = n.parentElement) d++;
		return d;
	};
	const hits = [];
	for (const el of document.body.querySelectorAll('*')) {
		if (skip.has(el.tagName)) continue;
		const text = (el.innerText || el.textContent || '').toLowerCase();
		if (text.includes(want)) hits.push(el);
	}
	return hits.sort((a, b) => depth(b) - depth(a));
}`

// rodSession owns one Chromium process, its browser connection and a
// single page.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
}

func (s *rodSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := s.page.Context(navCtx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

func (s *rodSession) Fill(ctx context.Context, selector, value string) error {
	return s.withElement(ctx, selector, func(el *rod.Element) error {
		if err := el.SelectAllText(); err != nil {
			slog.Debug("select all text failed, typing anyway", "selector", selector, "error", err)
		}
		return el.Input(value)
	})
}

func (s *rodSession) Select(ctx context.Context, selector, value string) error {
	return s.withElement(ctx, selector, func(el *rod.Element) error {
		return el.Select([]string{fmt.Sprintf(`[value="%s"]`, value)}, true, rod.SelectorTypeCSSSector)
	})
}

func (s *rodSession) Click(ctx context.Context, selector string) error {
	return s.withElement(ctx, selector, func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

// withElement waits for selector under its own deadline and runs fn on it.
func (s *rodSession) withElement(ctx context.Context, selector string, fn func(*rod.Element) error) error {
	actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	el, err := s.page.Context(actionCtx).Element(selector)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", selector, err)
	}
	if err := fn(el); err != nil {
		return fmt.Errorf("element %q: %w", selector, err)
	}
	return nil
}

func (s *rodSession) Query(ctx context.Context, selector string) (Element, error) {
	ok, el, err := s.page.Context(ctx).Has(selector)
	if err != nil || !ok {
		return nil, err
	}
	return &rodElement{el: el}, nil
}

func (s *rodSession) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

func (s *rodSession) FindByText(ctx context.Context, text string) ([]Element, error) {
	els, err := s.page.Context(ctx).ElementsByJS(rod.Eval(findByTextJS, text))
	if err != nil {
		return nil, fmt.Errorf("text search %q: %w", text, err)
	}
	return wrapElements(els), nil
}

func (s *rodSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := s.page.Context(waitCtx).Element(selector)
	if err != nil {
		return nil, err
	}
	if err := el.WaitVisible(); err != nil {
		return nil, err
	}
	return &rodElement{el: el.Context(ctx)}, nil
}

func (s *rodSession) Cookies(ctx context.Context, rawURL string) ([]*http.Cookie, error) {
	cookies, err := s.page.Context(ctx).Cookies([]string{rawURL})
	if err != nil {
		return nil, err
	}
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return out, nil
}

// Close runs every teardown step even when an earlier one fails and
// reports the first error.
func (s *rodSession) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.router != nil {
		keep(s.router.Stop())
	}
	if s.page != nil {
		keep(s.page.Close())
	}
	if s.browser != nil {
		keep(s.browser.Close())
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	if firstErr != nil {
		slog.Debug("session teardown reported an error", "error", firstErr)
	}
	return firstErr
}

// rodElement adapts a live *rod.Element.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Query(ctx context.Context, selector string) (Element, error) {
	ok, el, err := e.el.Context(ctx).Has(selector)
	if err != nil || !ok {
		return nil, err
	}
	return &rodElement{el: el}, nil
}

func (e *rodElement) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *rodElement) HTML(ctx context.Context) (string, error) {
	return e.el.Context(ctx).HTML()
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func wrapElements(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[strings.TrimSpace(k)] = gson.New(v)
	}
	return m
}
