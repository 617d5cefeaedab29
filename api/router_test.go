package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/oab/config"
	"github.com/use-agent/oab/metrics"
	"github.com/use-agent/oab/models"
	"github.com/use-agent/oab/scraper"
)

type fakeLooker struct {
	mu    sync.Mutex
	calls []models.Query
	res   scraper.Result
	panic bool

	// started and release, when set, hold the lookup open until released.
	started chan struct{}
	release chan struct{}
}

func (f *fakeLooker) Lookup(_ context.Context, name, region string) scraper.Result {
	f.mu.Lock()
	f.calls = append(f.calls, models.Query{Name: name, Region: region})
	f.mu.Unlock()
	if f.panic {
		panic("browser exploded")
	}
	if f.release != nil {
		f.started <- struct{}{}
		<-f.release
	}
	return f.res
}

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100}
	return cfg
}

func newTestRouter(t *testing.T, l *fakeLooker, cfg *config.Config) http.Handler {
	t.Helper()
	h, _ := newMeteredRouter(t, l, cfg)
	return h
}

func newMeteredRouter(t *testing.T, l *fakeLooker, cfg *config.Config) (http.Handler, *metrics.Metrics) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m := metrics.New()
	return NewRouter(ctx, l, cfg, m, time.Now()), m
}

func post(t *testing.T, h http.Handler, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/fetch_oab", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestFetchOAB_Success(t *testing.T) {
	l := &fakeLooker{res: scraper.Result{Record: &models.Record{
		Name:        "MARIA SOUZA",
		Number:      "123456",
		Region:      "SP",
		Category:    "ADVOGADA",
		InscribedAt: "01/02/2003",
		Status:      "REGULAR",
	}}}
	h := newTestRouter(t, l, testConfig())

	rec := post(t, h, `{"name":"  Maria Souza ","uf":"sp"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.LookupResponse](t, rec)
	assert.Equal(t, models.LookupResponse{
		OAB:           "123456",
		Name:          "MARIA SOUZA",
		UF:            "SP",
		Categoria:     "ADVOGADA",
		DataInscricao: "01/02/2003",
		Situacao:      "REGULAR",
	}, got)
	require.Len(t, l.calls, 1)
	assert.Equal(t, models.Query{Name: "Maria Souza", Region: "SP"}, l.calls[0])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestFetchOAB_ErrorResultIs200(t *testing.T) {
	l := &fakeLooker{res: scraper.Result{Err: models.NewScrapeError(
		models.ErrCodeNotFound, "no result found for: Maria Souza - SP", nil)}}
	h := newTestRouter(t, l, testConfig())

	rec := post(t, h, `{"name":"Maria Souza","uf":"SP"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, map[string]any{"error": "no result found for: Maria Souza - SP"}, got)
}

func TestFetchOAB_InvalidRegionNeverReachesCore(t *testing.T) {
	l := &fakeLooker{}
	h := newTestRouter(t, l, testConfig())

	rec := post(t, h, `{"name":"Maria Souza","uf":"XX"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	got := decode[models.ErrorResponse](t, rec)
	assert.True(t, strings.HasPrefix(got.Error, "invalid region: XX. valid regions: AC, AL"), got.Error)
	assert.Empty(t, l.calls)
}

func TestFetchOAB_RequestShape(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"name":`, http.StatusUnprocessableEntity},
		{"missing uf", `{"name":"Maria Souza"}`, http.StatusUnprocessableEntity},
		{"empty name", `{"name":"","uf":"SP"}`, http.StatusUnprocessableEntity},
		{"blank name", `{"name":"   ","uf":"SP"}`, http.StatusBadRequest},
		{"blank uf", `{"name":"Maria Souza","uf":"  "}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLooker{}
			h := newTestRouter(t, l, testConfig())

			rec := post(t, h, tt.body)

			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Empty(t, l.calls)
		})
	}
}

func TestFetchOAB_PanicIs500(t *testing.T) {
	h := newTestRouter(t, &fakeLooker{panic: true}, testConfig())

	rec := post(t, h, `{"name":"Maria Souza","uf":"SP"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	got := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, models.ErrCodeInternal, got.Code)
	assert.Equal(t, "browser exploded", got.Detail)
}

func TestFetchOAB_PanicIsCountedAs500(t *testing.T) {
	h, m := newMeteredRouter(t, &fakeLooker{panic: true}, testConfig())

	rec := post(t, h, `{"name":"Maria Souza","uf":"SP"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/fetch_oab", "500")))
	assert.Zero(t, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/fetch_oab", "200")))
}

func TestFetchOAB_Auth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"secret"}}
	l := &fakeLooker{res: scraper.Result{Record: &models.Record{Name: "A B"}}}
	h := newTestRouter(t, l, cfg)

	assert.Equal(t, http.StatusUnauthorized, post(t, h, `{"name":"A B","uf":"SP"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(t, h, `{"name":"A B","uf":"SP"}`, "X-API-Key", "wrong").Code)
	assert.Equal(t, http.StatusOK, post(t, h, `{"name":"A B","uf":"SP"}`, "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusOK, post(t, h, `{"name":"A B","uf":"SP"}`, "Authorization", "Bearer secret").Code)
	assert.Equal(t, http.StatusOK, post(t, h, `{"name":"A B","uf":"SP"}`, "Authorization", "bearer secret").Code)
	assert.Equal(t, http.StatusUnauthorized, post(t, h, `{"name":"A B","uf":"SP"}`, "Authorization", "Basic secret").Code)
}

func TestFetchOAB_AuthRejection(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"first", "second"}}
	l := &fakeLooker{res: scraper.Result{Record: &models.Record{Name: "A B"}}}
	h := newTestRouter(t, l, cfg)

	rec := post(t, h, `{"name":"A B","uf":"SP"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	assert.Equal(t, models.ErrCodeUnauthorized, decode[models.ErrorResponse](t, rec).Code)

	rec = post(t, h, `{"name":"A B","uf":"SP"}`, "X-API-Key", "secon")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")

	assert.Equal(t, http.StatusOK, post(t, h, `{"name":"A B","uf":"SP"}`, "X-API-Key", "second").Code)
	assert.Len(t, l.calls, 1, "rejected requests never start a lookup")
}

func TestFetchOAB_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	h := newTestRouter(t, &fakeLooker{res: scraper.Result{Record: &models.Record{}}}, cfg)

	assert.Equal(t, http.StatusOK, post(t, h, `{"name":"A B","uf":"SP"}`).Code)
	rec := post(t, h, `{"name":"A B","uf":"SP"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	got := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, models.ErrCodeRateLimited, got.Code)

	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retry, 900, "one token per 1000s leaves most of the interval to wait")
	assert.Equal(t, fmt.Sprintf("retry after %ds", retry), got.Detail)
}

func TestFetchOAB_RateLimitIsPerAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"alpha", "beta"}}
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	h := newTestRouter(t, &fakeLooker{res: scraper.Result{Record: &models.Record{}}}, cfg)

	assert.Equal(t, http.StatusOK, post(t, h, `{"name":"A B","uf":"SP"}`, "X-API-Key", "alpha").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(t, h, `{"name":"A B","uf":"SP"}`, "X-API-Key", "alpha").Code)
	assert.Equal(t, http.StatusOK, post(t, h, `{"name":"A B","uf":"SP"}`, "X-API-Key", "beta").Code)
}

func TestFetchOAB_LookupSlotsBusy(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxConcurrent = 1
	l := &fakeLooker{
		res:     scraper.Result{Record: &models.Record{Name: "A B"}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	h := newTestRouter(t, l, cfg)

	first := make(chan int, 1)
	go func() { first <- post(t, h, `{"name":"A B","uf":"SP"}`).Code }()
	<-l.started

	rec := post(t, h, `{"name":"C D","uf":"RJ"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("Retry-After"))
	assert.Equal(t, models.ErrCodeBusy, decode[models.ErrorResponse](t, rec).Code)

	close(l.release)
	assert.Equal(t, http.StatusOK, <-first)

	// the slot is free again
	l.started, l.release = nil, nil
	assert.Equal(t, http.StatusOK, post(t, h, `{"name":"C D","uf":"RJ"}`).Code)
}

func TestRootHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, &fakeLooker{}, testConfig())

	for _, path := range []string{"/", "/health", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	health := decode[models.HealthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, &fakeLooker{}, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/fetch_oab", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
