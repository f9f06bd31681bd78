package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/cleanquote/internal/httpx"
	"github.com/Simplici0/cleanquote/internal/pricing"
	"github.com/Simplici0/cleanquote/internal/quotes"
	"github.com/Simplici0/cleanquote/internal/suburbs"
)

type customAddonBody struct {
	Name  string  `json:"name" validate:"max=100"`
	Price float64 `json:"price"`
}

// quoteRequest is the wire shape of a quote. Pointer fields fall back to
// the stored rate defaults when omitted.
type quoteRequest struct {
	Service      string            `json:"service" validate:"required"`
	Bedrooms     int               `json:"bedrooms"`
	Bathrooms    int               `json:"bathrooms"`
	Addons       []string          `json:"addons" validate:"max=50"`
	CustomAddons []customAddonBody `json:"customAddons" validate:"max=50,dive"`

	DiscountApplied    bool     `json:"discountApplied"`
	DiscountType       string   `json:"discountType" validate:"omitempty,oneof=none percentage amount"`
	DiscountPercentage *float64 `json:"discountPercentage"`
	DiscountAmount     *float64 `json:"discountAmount"`

	HourlyRate        *float64 `json:"hourlyRate"`
	CleanerRate       *float64 `json:"cleanerRate"`
	DepositPercentage *float64 `json:"depositPercentage"`
	SuburbMultiplier  *float64 `json:"suburbMultiplier"`

	CustomerName     string `json:"customerName" validate:"max=200"`
	CustomerPhone    string `json:"customerPhone" validate:"max=50"`
	CustomerEmail    string `json:"customerEmail" validate:"omitempty,email,max=254"`
	CustomerSuburb   string `json:"customerSuburb" validate:"max=100"`
	CustomerPostcode string `json:"customerPostcode" validate:"max=10"`
}

type quoteResponse struct {
	pricing.Result
	Region *suburbs.Resolution `json:"region,omitempty"`
}

type savedQuoteResponse struct {
	quotes.Record
	Region *suburbs.Resolution `json:"region,omitempty"`
}

func (s *server) handleCalculateQuote(w http.ResponseWriter, r *http.Request) {
	res, region, err := s.calculate(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quoteResponse{Result: res, Region: region})
}

func (s *server) handleSaveQuote(w http.ResponseWriter, r *http.Request) {
	res, region, err := s.calculate(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rec, err := s.quotes.Save(r.Context(), res)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.QuoteSaved()
	s.logger.Info("quote saved",
		slog.Int64("id", rec.ID),
		slog.String("reference", rec.Reference),
		slog.Float64("total", rec.Total),
	)

	w.Header().Set("Location", "/api/quotes/"+strconv.FormatInt(rec.ID, 10))
	httpx.JSON(w, http.StatusCreated, savedQuoteResponse{Record: rec, Region: region})
}

func (s *server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	filter := quotes.Filter{Query: strings.TrimSpace(r.URL.Query().Get("q"))}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.fail(w, r, fmt.Errorf("%w: limit must be a positive integer", httpx.ErrBadRequest))
			return
		}
		filter.Limit = limit
	}

	records, err := s.quotes.List(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (s *server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	rec, err := s.loadQuote(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	rec, err := s.loadQuote(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.Text(w, http.StatusOK, quotes.Summary(rec))
}

func (s *server) loadQuote(r *http.Request) (quotes.Record, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return quotes.Record{}, fmt.Errorf("%w: invalid quote id", httpx.ErrBadRequest)
	}
	rec, err := s.quotes.Get(r.Context(), id)
	if errors.Is(err, quotes.ErrNotFound) {
		return quotes.Record{}, fmt.Errorf("%w: quote %d", httpx.ErrNotFound, id)
	}
	return rec, err
}

// calculate decodes and validates the body, resolves the regional multiplier
// and runs the engine.
func (s *server) calculate(w http.ResponseWriter, r *http.Request) (pricing.Result, *suburbs.Resolution, error) {
	var body quoteRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		return pricing.Result{}, nil, err
	}
	if err := s.validate.Struct(body); err != nil {
		return pricing.Result{}, nil, err
	}

	req, region, err := s.buildRequest(r.Context(), body)
	if err != nil {
		return pricing.Result{}, nil, err
	}

	res, err := s.engine.Calculate(req)
	if err != nil {
		return pricing.Result{}, nil, err
	}
	s.metrics.QuoteCalculated(string(res.Service))
	return res, region, nil
}

func (s *server) buildRequest(ctx context.Context, body quoteRequest) (pricing.Request, *suburbs.Resolution, error) {
	needDefaults := body.HourlyRate == nil || body.CleanerRate == nil || body.DepositPercentage == nil ||
		(body.DiscountApplied && body.DiscountPercentage == nil)

	var hourly, cleaner, deposit, discountPct float64
	if needDefaults {
		defaults, err := s.rates.Get(ctx)
		if err != nil {
			return pricing.Request{}, nil, fmt.Errorf("load rate defaults: %w", err)
		}
		hourly, cleaner = defaults.HourlyRate, defaults.CleanerRate
		deposit, discountPct = defaults.DefaultDepositPercent, defaults.DefaultDiscountPercent
	}
	hourly = orDefault(body.HourlyRate, hourly)
	cleaner = orDefault(body.CleanerRate, cleaner)
	deposit = orDefault(body.DepositPercentage, deposit)
	discountPct = orDefault(body.DiscountPercentage, discountPct)

	customAddons := make([]pricing.CustomAddon, 0, len(body.CustomAddons))
	for _, c := range body.CustomAddons {
		customAddons = append(customAddons, pricing.CustomAddon{Name: c.Name, Price: c.Price})
	}

	req := pricing.Request{
		Service:           pricing.Service(body.Service),
		Bedrooms:          body.Bedrooms,
		Bathrooms:         body.Bathrooms,
		Addons:            body.Addons,
		CustomAddons:      customAddons,
		Discount:          discountFromBody(body, discountPct),
		HourlyRate:        hourly,
		CleanerRate:       cleaner,
		DepositPercentage: deposit,
		Customer: pricing.Customer{
			Name:     body.CustomerName,
			Phone:    body.CustomerPhone,
			Email:    body.CustomerEmail,
			Suburb:   body.CustomerSuburb,
			Postcode: body.CustomerPostcode,
		},
	}

	var region *suburbs.Resolution
	switch {
	case body.SuburbMultiplier != nil:
		req.SuburbMultiplier = body.SuburbMultiplier
	case strings.TrimSpace(body.CustomerPostcode) != "":
		res := s.resolver.ResolveMultiplier(ctx, body.CustomerPostcode)
		s.metrics.PostcodeLookup(res.Found)
		req.SuburbMultiplier = pricing.Multiplier(res.Multiplier)
		region = &res
	}

	return req, region, nil
}

// discountFromBody applies the legacy rule when discountType is omitted:
// a positive amount is a fixed discount, otherwise the percentage applies.
func discountFromBody(body quoteRequest, percent float64) pricing.Discount {
	if !body.DiscountApplied {
		return pricing.NoDiscount()
	}
	amount := orDefault(body.DiscountAmount, 0)
	switch body.DiscountType {
	case "none":
		return pricing.NoDiscount()
	case "amount":
		return pricing.FixedAmountDiscount(amount)
	case "percentage":
		return pricing.PercentageDiscount(percent)
	}
	if amount > 0 {
		return pricing.FixedAmountDiscount(amount)
	}
	return pricing.PercentageDiscount(percent)
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
