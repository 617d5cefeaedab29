package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// fakeSession is a Session over a static HTML page.
type fakeSession struct {
	mu sync.Mutex

	doc     Element
	steps   []string
	clicks  int
	closed  int
	cookies []*http.Cookie

	navErr     error
	queryErr   error
	panicOn    string
	blockClick bool // row clicks hang until their context ends
}

func newFakeSession(page string) *fakeSession {
	doc, err := ParseDocument(page)
	if err != nil {
		panic(err)
	}
	return &fakeSession{doc: doc}
}

func (f *fakeSession) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, step)
}

func (f *fakeSession) Navigate(_ context.Context, url string, _ time.Duration) error {
	f.record("navigate " + url)
	return f.navErr
}

func (f *fakeSession) Fill(_ context.Context, selector, value string) error {
	f.record(fmt.Sprintf("fill %s=%s", selector, value))
	return nil
}

func (f *fakeSession) Select(_ context.Context, selector, value string) error {
	f.record(fmt.Sprintf("select %s=%s", selector, value))
	return nil
}

func (f *fakeSession) Click(_ context.Context, selector string) error {
	f.record("click " + selector)
	return nil
}

func (f *fakeSession) Query(ctx context.Context, selector string) (Element, error) {
	if f.panicOn == selector {
		panic("query exploded")
	}
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	el, err := f.doc.Query(ctx, selector)
	if err != nil || el == nil {
		return nil, err
	}
	return &clickable{Element: el, sess: f}, nil
}

func (f *fakeSession) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	return f.doc.QueryAll(ctx, selector)
}

func (f *fakeSession) FindByText(ctx context.Context, text string) ([]Element, error) {
	all, err := f.doc.QueryAll(ctx, "body *")
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(text)
	var hits []Element
	for _, el := range all {
		n := el.(*domElement).node
		if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
			continue
		}
		t, _ := el.Text(ctx)
		if strings.Contains(strings.ToLower(t), want) {
			hits = append(hits, &clickable{Element: el, sess: f})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return nodeDepth(hits[i]) > nodeDepth(hits[j])
	})
	return hits, nil
}

func (f *fakeSession) WaitVisible(ctx context.Context, selector string, _ time.Duration) (Element, error) {
	el, err := f.doc.Query(ctx, selector)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, context.DeadlineExceeded
	}
	return el, nil
}

func (f *fakeSession) Cookies(context.Context, string) ([]*http.Cookie, error) {
	return f.cookies, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// clickable lets snapshot elements returned by the fake be clicked.
type clickable struct {
	Element
	sess *fakeSession
}

func (c *clickable) Click(ctx context.Context) error {
	c.sess.mu.Lock()
	c.sess.clicks++
	block := c.sess.blockClick
	c.sess.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func nodeDepth(el Element) int {
	var n *html.Node
	switch e := el.(type) {
	case *clickable:
		n = e.Element.(*domElement).node
	case *domElement:
		n = e.node
	}
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// fakeDriver hands out one prepared session.
type fakeDriver struct {
	mu     sync.Mutex
	sess   *fakeSession
	err    error
	opened int
}

func (d *fakeDriver) NewSession(context.Context) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened++
	if d.err != nil {
		return nil, d.err
	}
	return d.sess, nil
}

type fakeFetcher struct {
	gotURL     string
	gotCookies []*http.Cookie
	data       []byte
	err        error
}

func (f *fakeFetcher) Fetch(_ context.Context, targetURL string, cookies []*http.Cookie) ([]byte, error) {
	f.gotURL = targetURL
	f.gotCookies = cookies
	return f.data, f.err
}

type fakeRecognizer struct {
	text string
	err  error
	got  []byte
}

func (r *fakeRecognizer) Recognize(_ context.Context, img []byte) (string, error) {
	r.got = img
	return r.text, r.err
}

var errFake = errors.New("fake failure")
