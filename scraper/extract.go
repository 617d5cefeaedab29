package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/use-agent/oab/models"
)

// minFieldsBeforeHeuristic is the number of populated fields below which the
// span heuristic pass runs.
const minFieldsBeforeHeuristic = 4

var (
	reDate   = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	reDigits = regexp.MustCompile(`^\d+$`)
)

// StatusKeywords are the registration statuses recognized in free text,
// in match priority order.
var StatusKeywords = []string{"ATIVO", "INATIVO", "SUSPENSO", "CANCELADO", "REGULAR"}

var statusPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(StatusKeywords))
	for i, kw := range StatusKeywords {
		out[i] = regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])` + kw + `($|[^\p{L}\p{N}])`)
	}
	return out
}()

var categoryKeywords = map[string]struct{}{
	"ADVOGADO":    {},
	"ADVOGADA":    {},
	"ESTAGIÁRIO":  {},
	"ESTAGIARIO":  {},
	"ESTAGIÁRIA":  {},
	"ESTAGIARIA":  {},
	"SUPLEMENTAR": {},
}

// TextExtractor pulls one candidate value out of a result row.
// An empty string means nothing was found.
type TextExtractor func(ctx context.Context, row Element) string

// SelectorText returns the trimmed text of the first element matching
// selector under the row.
func SelectorText(selector string) TextExtractor {
	return func(ctx context.Context, row Element) string {
		el, err := row.Query(ctx, selector)
		if err != nil || el == nil {
			return ""
		}
		text, err := el.Text(ctx)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(text)
	}
}

// Matching keeps only the part of ex's value that matches re.
func Matching(re *regexp.Regexp, ex TextExtractor) TextExtractor {
	return func(ctx context.Context, row Element) string {
		return re.FindString(ex(ctx, row))
	}
}

// fieldRule is the ordered list of extractors tried for one field.
type fieldRule struct {
	field      models.Field
	extractors []TextExtractor
}

func selectors(sels ...string) []TextExtractor {
	out := make([]TextExtractor, len(sels))
	for i, s := range sels {
		out[i] = SelectorText(s)
	}
	return out
}

func dateSelectors(sels ...string) []TextExtractor {
	out := selectors(sels...)
	for i, ex := range out {
		out[i] = Matching(reDate, ex)
	}
	return out
}

// fieldRules follow the CNA result row layout, most specific selector first.
var fieldRules = []fieldRule{
	{models.FieldName, selectors(".rowName span:nth-child(2)", ".rowName span:last-child", ".rowName .nome", ".nome")},
	{models.FieldNumber, selectors(".rowInsc span:last-child", ".rowInsc .inscricao", ".inscricao")},
	{models.FieldRegion, selectors(".rowUf span:last-child", ".rowUf .uf", ".uf")},
	{models.FieldCategory, selectors(".rowTipoInsc span:last-child", ".rowTipoInsc .tipo", ".tipo", ".categoria")},
	{models.FieldInscribedAt, dateSelectors(".rowData span:last-child", ".rowData .data", ".data", ".dataInscricao")},
	{models.FieldStatus, selectors(".rowSituacao span:last-child", ".rowSituacao .situacao", ".situacao", ".status", ".rowStatus span:last-child")},
}

// Extract reads whatever fields it can from a result row. It never fails:
// problems are logged and the partial mapping is returned.
func Extract(ctx context.Context, row Element) (fields models.Fields) {
	fields = models.Fields{}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("extractor panic recovered", "panic", fmt.Sprint(r))
		}
	}()

	for _, rule := range fieldRules {
		for _, ex := range rule.extractors {
			if fields.Set(rule.field, ex(ctx, row)) {
				break
			}
		}
	}

	if !fields.Has(models.FieldStatus) {
		if text, err := row.Text(ctx); err != nil {
			slog.Warn("row text unavailable for status inference", "error", err)
		} else {
			fields.Set(models.FieldStatus, MatchStatus(text))
		}
	}

	if len(fields) < minFieldsBeforeHeuristic {
		applySpanHeuristics(ctx, row, fields)
	}
	return fields
}

// MatchStatus returns the first status keyword found in text as a whole
// word, case-insensitively, or "" when none is present.
func MatchStatus(text string) string {
	for i, re := range statusPatterns {
		if re.MatchString(text) {
			return StatusKeywords[i]
		}
	}
	return ""
}

// applySpanHeuristics classifies every non-empty span text in the row.
// For each span the first classifier whose field is still empty wins.
func applySpanHeuristics(ctx context.Context, row Element, fields models.Fields) {
	spans, err := row.QueryAll(ctx, "span")
	if err != nil {
		slog.Warn("span heuristic skipped", "error", err)
		return
	}
	for _, span := range spans {
		raw, err := span.Text(ctx)
		if err != nil {
			continue
		}
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		upper := strings.ToUpper(text)
		_, isCategory := categoryKeywords[upper]

		switch {
		case reDate.MatchString(text) && !fields.Has(models.FieldInscribedAt):
			fields.Set(models.FieldInscribedAt, reDate.FindString(text))
		case reDigits.MatchString(text) && !fields.Has(models.FieldNumber):
			fields.Set(models.FieldNumber, text)
		case isRegionShaped(text) && !fields.Has(models.FieldRegion):
			fields.Set(models.FieldRegion, text)
		case isCategory && !fields.Has(models.FieldCategory):
			fields.Set(models.FieldCategory, text)
		case isStatusWord(upper) && !fields.Has(models.FieldStatus):
			fields.Set(models.FieldStatus, text)
		case len(strings.Fields(text)) >= 2 && !fields.Has(models.FieldName):
			fields.Set(models.FieldName, text)
		}
	}
}

// isRegionShaped reports whether s is exactly two uppercase letters.
func isRegionShaped(s string) bool {
	runes := []rune(s)
	return len(runes) == 2 && unicode.IsUpper(runes[0]) && unicode.IsUpper(runes[1])
}

func isStatusWord(upper string) bool {
	for _, kw := range StatusKeywords {
		if upper == kw {
			return true
		}
	}
	return false
}
