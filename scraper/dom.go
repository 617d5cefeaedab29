package scraper

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// ErrEmptySnapshot is returned when snapshot HTML holds no element.
	ErrEmptySnapshot = errors.New("snapshot contains no element")

	// ErrSnapshotReadOnly is returned by interactions on a parsed snapshot.
	ErrSnapshotReadOnly = errors.New("snapshot elements cannot be interacted with")
)

// domElement is an Element backed by parsed HTML. It is detached from the
// browser, so reads never race with page updates.
type domElement struct {
	node *html.Node
}

// Snapshot parses the outer HTML of a single element and returns it as an
// Element rooted at that element.
func Snapshot(rawHTML string) (Element, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(rawHTML), body)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return &domElement{node: n}, nil
		}
	}
	return nil, ErrEmptySnapshot
}

// ParseDocument parses a whole page and returns its document node.
func ParseDocument(rawHTML string) (Element, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	return &domElement{node: doc}, nil
}

func (e *domElement) Query(_ context.Context, selector string) (Element, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, err
	}
	if n := cascadia.Query(e.node, sel); n != nil {
		return &domElement{node: n}, nil
	}
	return nil, nil
}

func (e *domElement) QueryAll(_ context.Context, selector string) ([]Element, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, err
	}
	matches := cascadia.QueryAll(e.node, sel)
	out := make([]Element, 0, len(matches))
	for _, n := range matches {
		out = append(out, &domElement{node: n})
	}
	return out, nil
}

func (e *domElement) Text(context.Context) (string, error) {
	return e.selection().Text(), nil
}

func (e *domElement) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.selection().Attr(name)
	return v, ok, nil
}

func (e *domElement) HTML(context.Context) (string, error) {
	if e.node.Type == html.DocumentNode {
		var buf bytes.Buffer
		if err := html.Render(&buf, e.node); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return goquery.OuterHtml(e.selection())
}

func (e *domElement) Click(context.Context) error {
	return ErrSnapshotReadOnly
}

func (e *domElement) selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(e.node).Selection
}
