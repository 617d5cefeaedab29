package scraper

import (
	"context"
	"log/slog"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// resultAreaSelectors are tried in order to find what the page showed
// instead of a result row.
var resultAreaSelectors = []string{"#divResult", ".resultado", "body"}

// maxDiagnosticChars keeps a drift report readable in the log.
const maxDiagnosticChars = 4000

var markdownConv = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal)),
	),
)

// RenderMarkdown converts an HTML fragment into compact Markdown.
func RenderMarkdown(rawHTML, domain string) (string, error) {
	return markdownConv.ConvertString(rawHTML, converter.WithDomain(domain))
}

// logResultArea logs the visible result area as Markdown.
func (s *Scraper) logResultArea(ctx context.Context, sess Session) {
	for _, sel := range resultAreaSelectors {
		el, err := sess.Query(ctx, sel)
		if err != nil || el == nil {
			continue
		}
		raw, err := el.HTML(ctx)
		if err != nil {
			slog.Debug("result area unreadable", "selector", sel, "error", err)
			return
		}
		md, err := RenderMarkdown(raw, s.cfg.TargetURL)
		if err != nil {
			slog.Debug("result area not convertible", "selector", sel, "error", err)
			return
		}
		if len(md) > maxDiagnosticChars {
			md = strings.ToValidUTF8(md[:maxDiagnosticChars], "") + "\n…"
		}
		slog.Debug("no result row; page shows", "selector", sel, "markdown", md)
		return
	}
}
