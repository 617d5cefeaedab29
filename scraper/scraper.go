package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/oab/config"
	"github.com/use-agent/oab/metrics"
	"github.com/use-agent/oab/models"
	"github.com/use-agent/oab/ocr"
)

// Search form selectors on the registry page.
const (
	nameInputSelector    = "#txtName"
	regionSelectSelector = "#cmbSeccional"
	searchButtonSelector = "#btnFind"
)

// rowSelectors locate a result row, most specific first.
var rowSelectors = []string{"#divResult .row", ".resultado .row", ".row", ".result-item"}

// Scraper looks up registration records on the registry website.
// It holds no per-lookup state and is safe for concurrent use.
type Scraper struct {
	driver   Driver
	cfg      config.ScraperConfig
	status   *StatusResolver
	metrics  *metrics.Metrics
	diagnose bool
}

// Option customizes a Scraper.
type Option func(*Scraper)

// WithStatusResolver enables reading the image-rendered status from the
// detail view.
func WithStatusResolver(r *StatusResolver) Option {
	return func(s *Scraper) { s.status = r }
}

// WithMetrics records lookup outcomes and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scraper) { s.metrics = m }
}

// WithDiagnostics logs a Markdown rendering of the result area when no row
// is found, to spot layout changes on the site.
func WithDiagnostics(enabled bool) Option {
	return func(s *Scraper) { s.diagnose = enabled }
}

// New creates a Scraper that opens sessions through driver.
func New(driver Driver, cfg config.ScraperConfig, opts ...Option) *Scraper {
	s := &Scraper{driver: driver, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig wires the go-rod driver and, whenever an OCR engine is
// usable, the status resolver.
func NewFromConfig(cfg *config.Config, m *metrics.Metrics) *Scraper {
	opts := []Option{
		WithMetrics(m),
		WithDiagnostics(strings.EqualFold(cfg.Log.Level, "debug")),
	}
	recognizer, err := ocr.New(cfg.OCR)
	if err != nil {
		slog.Info("status resolver disabled, statuses come from the result row only", "reason", err)
	} else {
		opts = append(opts, WithStatusResolver(NewStatusResolver(
			cfg.Scraper.TargetURL,
			cfg.Scraper.DetailTimeout,
			newHTTPFetcher(cfg.Browser.Proxy),
			recognizer,
		)))
	}
	return New(NewRodDriver(cfg.Browser), cfg.Scraper, opts...)
}

// Lookup searches the registry for name within region and returns either a
// normalized record or an error result. It blocks until done, never panics
// and can be called from any goroutine.
//
// Lifecycle:
//
//  1. Validate            – rejects bad input before any browser work
//  2. Open session        – a fresh, exclusively owned browser
//  3. DEFER: teardown     – always runs, whatever happens below
//  4. Navigate            – bounded by the navigation timeout
//  5. Submit search form  – name, region, search button
//  6. Settle              – fixed delay for the result list to render
//  7. Locate row          – selector cascade, then text search
//  8. Extract             – from a snapshot of the row
//  9. Resolve status      – optional, degrades silently
//  10. Normalize          – backfill sentinels
func (s *Scraper) Lookup(ctx context.Context, name, region string) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("lookup panic recovered", "panic", fmt.Sprint(r))
			res = failed(models.ErrCodeInternal, fmt.Sprintf("internal error: %v", r), nil)
		}
		s.metrics.ObserveLookup(outcomeOf(res), start)
	}()

	// ── 1. Validate ──────────────────────────────────────────────────
	q, err := Validate(name, region)
	if err != nil {
		var se *models.ScrapeError
		if errors.As(err, &se) {
			return Result{Err: se}
		}
		return failed(models.ErrCodeValidation, err.Error(), err)
	}

	log := slog.With("name", q.Name, "region", q.Region)
	log.Info("lookup started")

	// ── 2. Open session ──────────────────────────────────────────────
	sess, err := s.driver.NewSession(ctx)
	if err != nil {
		log.Error("failed to open browser session", "error", err)
		return navigationFailure(err)
	}

	// ── 3. DEFER: teardown ───────────────────────────────────────────
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.Warn("session teardown failed", "error", closeErr)
		}
	}()

	// ── 4-6. Navigate, submit, settle ────────────────────────────────
	if err := s.search(ctx, sess, q); err != nil {
		log.Error("search failed", "error", err)
		return navigationFailure(err)
	}

	// ── 7. Locate row ────────────────────────────────────────────────
	row, err := s.findRow(ctx, sess, q)
	if err != nil {
		log.Error("result lookup failed", "error", err)
		return navigationFailure(err)
	}
	if row == nil {
		log.Info("no result row found")
		if s.diagnose {
			s.logResultArea(ctx, sess)
		}
		return failed(models.ErrCodeNotFound,
			fmt.Sprintf("no result found for: %s - %s", q.Name, q.Region), nil)
	}

	// ── 8. Extract ───────────────────────────────────────────────────
	fields := Extract(ctx, snapshotOrLive(ctx, row))

	// ── 9. Resolve status ────────────────────────────────────────────
	if s.status != nil {
		s.resolveStatus(ctx, sess, row, fields)
	}

	// ── 10. Normalize ────────────────────────────────────────────────
	rec := fields.Normalize()
	log.Info("lookup finished", "inscricao", rec.Number, "situacao", rec.Status)
	return Result{Record: rec}
}

// LookupAsync runs Lookup on its own goroutine. The returned channel
// delivers exactly one Result and is then closed.
func (s *Scraper) LookupAsync(ctx context.Context, name, region string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- s.Lookup(ctx, name, region)
	}()
	return ch
}

// search loads the registry page, submits the form and waits for results.
func (s *Scraper) search(ctx context.Context, sess Session, q models.Query) error {
	if err := sess.Navigate(ctx, s.cfg.TargetURL, s.cfg.NavigationTimeout); err != nil {
		return err
	}
	if err := sess.Fill(ctx, nameInputSelector, q.Name); err != nil {
		return err
	}
	if err := sess.Select(ctx, regionSelectSelector, q.Region); err != nil {
		return err
	}
	if err := sess.Click(ctx, searchButtonSelector); err != nil {
		return err
	}

	// The result list is filled by XHR with no completion signal.
	select {
	case <-time.After(s.cfg.SettleDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// findRow tries the row selectors in order, then falls back to searching
// the page for the first name token and keeping the deepest candidate that
// also mentions the region. It returns nil, nil when nothing matches.
func (s *Scraper) findRow(ctx context.Context, sess Session, q models.Query) (Element, error) {
	for _, sel := range rowSelectors {
		el, err := sess.Query(ctx, sel)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Debug("row selector failed", "selector", sel, "error", err)
			continue
		}
		if el != nil {
			slog.Debug("result row matched", "selector", sel)
			return el, nil
		}
	}

	firstName := strings.Fields(q.Name)[0]
	candidates, err := sess.FindByText(ctx, firstName)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Debug("text search failed", "text", firstName, "error", err)
		return nil, nil
	}
	for _, c := range candidates {
		text, err := c.Text(ctx)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToUpper(text), q.Region) {
			slog.Debug("result row matched by text search", "text", firstName)
			return c, nil
		}
	}
	return nil, nil
}

// snapshotOrLive detaches the row from the page when possible so the
// extraction cascade runs without a browser round trip per selector.
func snapshotOrLive(ctx context.Context, row Element) Element {
	raw, err := row.HTML(ctx)
	if err != nil {
		slog.Debug("row snapshot unavailable, extracting from live element", "error", err)
		return row
	}
	snap, err := Snapshot(raw)
	if err != nil {
		slog.Debug("row snapshot unparsable, extracting from live element", "error", err)
		return row
	}
	return snap
}

// resolveStatus opens the detail view and overrides the extracted status
// with the recognized one. Failures keep whatever was extracted.
func (s *Scraper) resolveStatus(ctx context.Context, sess Session, row Element, fields models.Fields) {
	if err := s.status.OpenDetail(ctx, row); err != nil {
		slog.Warn("could not open detail view", "error", err)
		s.metrics.IncrementStatusResolution("failed")
		return
	}
	status, err := s.status.Resolve(ctx, sess)
	if err != nil {
		slog.Warn("status resolution failed, keeping extracted status", "error", err)
		s.metrics.IncrementStatusResolution("failed")
		return
	}
	fields[models.FieldStatus] = status
	s.metrics.IncrementStatusResolution("ok")
}

func navigationFailure(err error) Result {
	code := models.ErrCodeNavigation
	var se *models.ScrapeError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		code = models.ErrCodeTimeout
	case errors.As(err, &se):
		code = se.Code
	}
	return failed(code, "error during navigation or search: "+causeText(err), err)
}

// causeText prefers the human message of a ScrapeError over its full chain.
func causeText(err error) string {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		if se.Err != nil {
			return se.Message + ": " + se.Err.Error()
		}
		return se.Message
	}
	return err.Error()
}

func outcomeOf(res Result) string {
	if res.Err == nil {
		return metrics.OutcomeFound
	}
	switch res.Err.Code {
	case models.ErrCodeNotFound:
		return metrics.OutcomeNotFound
	case models.ErrCodeValidation:
		return metrics.OutcomeInvalid
	case models.ErrCodeTimeout:
		return metrics.OutcomeTimeout
	case models.ErrCodeInternal:
		return metrics.OutcomeInternal
	default:
		return metrics.OutcomeNavigation
	}
}
