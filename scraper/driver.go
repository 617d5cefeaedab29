package scraper

import (
	"context"
	"net/http"
	"time"
)

// Element is a node on the registry page, either live in a browser or
// parsed from an HTML snapshot.
type Element interface {
	// Query returns the first descendant matching selector, or nil when
	// nothing matches. It never waits.
	Query(ctx context.Context, selector string) (Element, error)

	// QueryAll returns every descendant matching selector in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// Text returns the element's rendered text.
	Text(ctx context.Context) (string, error)

	// Attribute returns the named attribute and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)

	// HTML returns the element's outer HTML.
	HTML(ctx context.Context) (string, error)

	Click(ctx context.Context) error
}

// Session is one isolated browsing context. A Session is owned by a single
// lookup and must be closed by it.
type Session interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// Fill types value into the input matched by selector.
	Fill(ctx context.Context, selector, value string) error

	// Select chooses the option whose value attribute equals value.
	Select(ctx context.Context, selector, value string) error

	Click(ctx context.Context, selector string) error

	Query(ctx context.Context, selector string) (Element, error)
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// FindByText returns every element whose text contains text,
	// deepest elements first.
	FindByText(ctx context.Context, text string) ([]Element, error)

	// WaitVisible blocks until selector matches a visible element or the
	// timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) (Element, error)

	// Cookies returns the cookies the browser would send to rawURL.
	Cookies(ctx context.Context, rawURL string) ([]*http.Cookie, error)

	// Close tears down every browser resource owned by the session.
	Close() error
}

// Driver opens browser sessions.
type Driver interface {
	NewSession(ctx context.Context) (Session, error)
}
