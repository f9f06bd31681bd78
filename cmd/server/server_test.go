package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/cleanquote/internal/config"
	"github.com/Simplici0/cleanquote/internal/db"
	"github.com/Simplici0/cleanquote/internal/httpx"
	"github.com/Simplici0/cleanquote/internal/migrations"
	"github.com/Simplici0/cleanquote/internal/obs"
	"github.com/Simplici0/cleanquote/internal/pricing"
	"github.com/Simplici0/cleanquote/internal/quotes"
	"github.com/Simplici0/cleanquote/internal/rates"
	"github.com/Simplici0/cleanquote/internal/suburbs"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	database, err := db.Open(context.Background(), db.SQLite, filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, migrations.Up(database))

	dataset, err := suburbs.LoadFile(filepath.Join("..", "..", "internal", "suburbs", "testdata", "suburb_income.json"))
	require.NoError(t, err)
	lookup := suburbs.NewLookup(dataset)

	srv := newServer(serverDeps{
		Logger:   obs.Discard(),
		Engine:   pricing.NewEngine(nil),
		Lookup:   lookup,
		Resolver: lookup,
		Quotes:   quotes.NewStore(database),
		Rates:    rates.NewStore(database),
		Metrics:  obs.NewMetrics(),
	})
	return srv.routes(config.Config{AppEnv: "development"})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

type regionBody struct {
	Multiplier float64 `json:"multiplier"`
	Found      bool    `json:"found"`
	Message    string  `json:"message"`
	Info       *struct {
		Suburb string `json:"suburb"`
		State  string `json:"state"`
	} `json:"info"`
}

type quoteBody struct {
	ID                 int64       `json:"id"`
	Reference          string      `json:"reference"`
	Service            string      `json:"service"`
	MainServiceHours   float64     `json:"mainServiceHours"`
	HourlyRate         float64     `json:"hourlyRate"`
	SuburbMultiplier   float64     `json:"suburbMultiplier"`
	Subtotal           float64     `json:"subtotal"`
	DiscountApplied    bool        `json:"discountApplied"`
	DiscountType       string      `json:"discountType"`
	DiscountPercentage float64     `json:"discountPercentage"`
	DiscountAmount     float64     `json:"discountAmount"`
	NetRevenue         float64     `json:"netRevenue"`
	GST                float64     `json:"gst"`
	Total              float64     `json:"total"`
	CleanerPay         float64     `json:"cleanerPay"`
	Profit             float64     `json:"profit"`
	Margin             float64     `json:"margin"`
	CustomerName       string      `json:"customerName"`
	Region             *regionBody `json:"region"`
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestCalculateQuoteUsesStoredDefaults(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodPost, "/api/calculate-quote", `{"service":"general","bedrooms":1,"bathrooms":1}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	q := decode[quoteBody](t, rr)
	assert.InDelta(t, 1.6, q.MainServiceHours, 1e-9)
	assert.Equal(t, 60.0, q.HourlyRate)
	assert.Equal(t, 1.0, q.SuburbMultiplier)
	assert.InDelta(t, 96.0, q.Subtotal, 1e-9)
	assert.False(t, q.DiscountApplied)
	assert.Equal(t, "none", q.DiscountType)
	assert.InDelta(t, 9.6, q.GST, 1e-9)
	assert.InDelta(t, 105.6, q.Total, 1e-9)
	assert.InDelta(t, 56.0, q.CleanerPay, 1e-9)
	assert.InDelta(t, 40.0, q.Profit, 1e-9)
	assert.Nil(t, q.Region)
}

func TestCalculateQuoteResolvesPostcode(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodPost, "/api/calculate-quote",
		`{"service":"general","bedrooms":1,"bathrooms":1,"customerName":"Alex","customerPostcode":"2001"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	q := decode[quoteBody](t, rr)
	require.NotNil(t, q.Region)
	assert.True(t, q.Region.Found)
	assert.Equal(t, "Hillcrest", q.Region.Info.Suburb)
	assert.Equal(t, 1.25, q.SuburbMultiplier)
	assert.InDelta(t, 120.0, q.Subtotal, 1e-9)
	assert.Equal(t, "Alex", q.CustomerName)
}

func TestCalculateQuoteExplicitMultiplierWins(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodPost, "/api/calculate-quote",
		`{"service":"general","bedrooms":1,"bathrooms":1,"suburbMultiplier":1.5,"customerPostcode":"2001"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	q := decode[quoteBody](t, rr)
	assert.Nil(t, q.Region)
	assert.InDelta(t, 144.0, q.Subtotal, 1e-9)
}

func TestCalculateQuoteDiscountModes(t *testing.T) {
	h := newTestHandler(t)

	t.Run("default percentage", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/api/calculate-quote",
			`{"service":"general","bedrooms":1,"bathrooms":1,"discountApplied":true}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		q := decode[quoteBody](t, rr)
		assert.Equal(t, "percentage", q.DiscountType)
		assert.Equal(t, 20.0, q.DiscountPercentage)
		assert.InDelta(t, 19.2, q.DiscountAmount, 1e-9)
		assert.InDelta(t, 76.8, q.NetRevenue, 1e-9)
	})

	t.Run("legacy amount capped at subtotal", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/api/calculate-quote",
			`{"service":"general","bedrooms":1,"bathrooms":1,"discountApplied":true,"discountAmount":500}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		q := decode[quoteBody](t, rr)
		assert.Equal(t, "amount", q.DiscountType)
		assert.Equal(t, 0.0, q.DiscountPercentage)
		assert.InDelta(t, 96.0, q.DiscountAmount, 1e-9)
		assert.Equal(t, 0.0, q.NetRevenue)
		assert.Equal(t, 0.0, q.Margin)
	})

	t.Run("explicit percentage ignores amount", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/api/calculate-quote",
			`{"service":"general","bedrooms":1,"bathrooms":1,"discountApplied":true,"discountType":"percentage","discountPercentage":50,"discountAmount":10}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		q := decode[quoteBody](t, rr)
		assert.InDelta(t, 48.0, q.DiscountAmount, 1e-9)
	})
}

func TestCalculateQuoteRejections(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name  string
		body  string
		kind  string
		field string
	}{
		{"unknown addon", `{"service":"deep","bedrooms":2,"bathrooms":1,"addons":["laundry"]}`, "InvalidAddonKey", "addons[0]"},
		{"unknown service", `{"service":"spring","bedrooms":2,"bathrooms":1}`, "InvalidServiceType", "service"},
		{"zero bedrooms", `{"service":"deep","bedrooms":0,"bathrooms":1}`, "InvalidPropertyConfiguration", "bedrooms"},
		{"hourly rate too high", `{"service":"deep","bedrooms":2,"bathrooms":1,"hourlyRate":201}`, "InvalidRate", "hourlyRate"},
		{"custom addon without price", `{"service":"deep","bedrooms":2,"bathrooms":1,"customAddons":[{"name":"Pet hair","price":0}]}`, "InvalidCustomAddon", "customAddons[0].price"},
		{"discount over 100", `{"service":"deep","bedrooms":2,"bathrooms":1,"discountApplied":true,"discountPercentage":120}`, "InvalidPercentage", "discountPercentage"},
		{"zero multiplier", `{"service":"deep","bedrooms":2,"bathrooms":1,"suburbMultiplier":0}`, "InvalidRate", "suburbMultiplier"},
		{"huge multiplier", `{"service":"general","bedrooms":1,"bathrooms":1,"suburbMultiplier":1e308,"discountApplied":true}`, "InvalidRate", "suburbMultiplier"},
		{"huge custom addons", `{"service":"general","bedrooms":1,"bathrooms":1,"customAddons":[{"name":"A","price":1e308},{"name":"B","price":1e308}]}`, "InvalidCustomAddon", "customAddons[0].price"},
		{"missing service", `{"bedrooms":2,"bathrooms":1}`, httpx.KindInvalidRequest, "service"},
		{"bad email", `{"service":"deep","bedrooms":2,"bathrooms":1,"customerEmail":"nope"}`, httpx.KindInvalidRequest, "customerEmail"},
		{"bad discount type", `{"service":"deep","bedrooms":2,"bathrooms":1,"discountType":"coupon"}`, httpx.KindInvalidRequest, "discountType"},
		{"malformed json", `{"service":`, httpx.KindInvalidRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/api/calculate-quote", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

			p := decode[httpx.ProblemDetail](t, rr)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.field, p.Field)
		})
	}
}

func TestSaveGetListAndTextQuote(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodPost, "/api/quotes",
		`{"service":"general","bedrooms":1,"bathrooms":1,"customerName":"Alex Doe","customerPostcode":"3002"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	saved := decode[quoteBody](t, rr)
	require.Positive(t, saved.ID)
	assert.NotEmpty(t, saved.Reference)
	assert.Equal(t, "/api/quotes/1", rr.Header().Get("Location"))
	require.NotNil(t, saved.Region)
	assert.Equal(t, 1.15, saved.SuburbMultiplier)

	rr = do(t, h, http.MethodGet, "/api/quotes/1", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[quoteBody](t, rr)
	assert.Equal(t, saved.Reference, got.Reference)
	assert.Equal(t, saved.Total, got.Total)
	assert.Equal(t, "Alex Doe", got.CustomerName)

	rr = do(t, h, http.MethodGet, "/api/quotes?q=alex", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[[]quoteBody](t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)

	rr = do(t, h, http.MethodGet, "/api/quotes?q=nobody", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]quoteBody](t, rr))

	rr = do(t, h, http.MethodGet, "/api/quotes/1/text", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rr.Body.String(), "Customer: Alex Doe")
	assert.Contains(t, rr.Body.String(), "Total: $121.44")
}

func TestGetQuoteErrors(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodGet, "/api/quotes/999", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/quotes/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/quotes?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSaveQuoteRejectsOutOfRangeMultiplier(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodPost, "/api/quotes",
		`{"service":"general","bedrooms":1,"bathrooms":1,"suburbMultiplier":1e308,"discountApplied":true}`)
	require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
	p := decode[httpx.ProblemDetail](t, rr)
	assert.Equal(t, "InvalidRate", p.Kind)
	assert.Equal(t, "suburbMultiplier", p.Field)

	rr = do(t, h, http.MethodGet, "/api/quotes", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestPostcodeAndSuburbLookups(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodGet, "/api/postcodes/3002", "")
	require.Equal(t, http.StatusOK, rr.Code)
	region := decode[regionBody](t, rr)
	assert.True(t, region.Found)
	assert.Equal(t, 1.15, region.Multiplier)
	assert.Equal(t, "Riverbend", region.Info.Suburb)

	rr = do(t, h, http.MethodGet, "/api/postcodes/abc", "")
	require.Equal(t, http.StatusOK, rr.Code)
	region = decode[regionBody](t, rr)
	assert.False(t, region.Found)
	assert.Equal(t, 1.0, region.Multiplier)
	assert.Equal(t, "invalid postcode format", region.Message)

	rr = do(t, h, http.MethodGet, "/api/suburbs?q=hill", "")
	require.Equal(t, http.StatusOK, rr.Code)
	matches := decode[[]suburbs.Suburb](t, rr)
	require.Len(t, matches, 2)
	assert.Equal(t, "Hillcrest", matches[0].Name)
	assert.Equal(t, "Hillside", matches[1].Name)

	rr = do(t, h, http.MethodGet, "/api/suburbs/oakridge", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "QLD", decode[regionBody](t, rr).Info.State)

	rr = do(t, h, http.MethodGet, "/api/suburbs/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAddonCatalog(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodGet, "/api/addons", "")
	require.Equal(t, http.StatusOK, rr.Code)
	catalog := decode[[]pricing.Addon](t, rr)
	require.Len(t, catalog, 11)
	assert.Equal(t, "inside_oven_clean", catalog[0].Key)
}

func TestRatesEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodGet, "/api/rates", "")
	require.Equal(t, http.StatusOK, rr.Code)
	cfg := decode[rates.Config](t, rr)
	assert.Equal(t, 60.0, cfg.HourlyRate)
	assert.Equal(t, 20.0, cfg.DefaultDiscountPercent)

	rr = do(t, h, http.MethodPut, "/api/rates",
		`{"hourlyRate":80,"cleanerRate":40,"defaultDiscountPercentage":10,"defaultDepositPercentage":25}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, h, http.MethodPost, "/api/calculate-quote", `{"service":"general","bedrooms":1,"bathrooms":1}`)
	require.Equal(t, http.StatusOK, rr.Code)
	q := decode[quoteBody](t, rr)
	assert.Equal(t, 80.0, q.HourlyRate)
	assert.InDelta(t, 128.0, q.Subtotal, 1e-9)

	rr = do(t, h, http.MethodPut, "/api/rates",
		`{"hourlyRate":500,"cleanerRate":40,"defaultDiscountPercentage":10,"defaultDepositPercentage":25}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	p := decode[httpx.ProblemDetail](t, rr)
	assert.Equal(t, "InvalidRate", p.Kind)
	assert.Equal(t, "hourlyRate", p.Field)

	rr = do(t, h, http.MethodPut, "/api/rates", `{"hourlyRate":80}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, httpx.KindInvalidRequest, decode[httpx.ProblemDetail](t, rr).Kind)
}

func TestMetricsExposeQuoteCounters(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodPost, "/api/calculate-quote", `{"service":"deep","bedrooms":2,"bathrooms":1}`)
	require.Equal(t, http.StatusOK, rr.Code)
	do(t, h, http.MethodPost, "/api/calculate-quote", `{"service":"deep","bedrooms":2,"bathrooms":1,"addons":["nope"]}`)

	rr = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `cleanquote_quotes_calculated_total{service="deep"} 1`)
	assert.Contains(t, rr.Body.String(), `cleanquote_validation_failures_total{kind="InvalidAddonKey"} 1`)
	assert.Contains(t, rr.Body.String(), `cleanquote_http_requests_total{code="200",route="/api/calculate-quote"} 1`)
}
