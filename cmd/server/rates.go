package main

import (
	"log/slog"
	"net/http"

	"github.com/Simplici0/cleanquote/internal/httpx"
	"github.com/Simplici0/cleanquote/internal/rates"
)

type ratesBody struct {
	HourlyRate             *float64 `json:"hourlyRate" validate:"required"`
	CleanerRate            *float64 `json:"cleanerRate" validate:"required"`
	DefaultDiscountPercent *float64 `json:"defaultDiscountPercentage" validate:"required"`
	DefaultDepositPercent  *float64 `json:"defaultDepositPercentage" validate:"required"`
}

func (s *server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.rates.Get(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

func (s *server) handleUpdateRates(w http.ResponseWriter, r *http.Request) {
	var body ratesBody
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.validate.Struct(body); err != nil {
		s.fail(w, r, err)
		return
	}

	cfg, err := s.rates.Update(r.Context(), rates.Config{
		HourlyRate:             *body.HourlyRate,
		CleanerRate:            *body.CleanerRate,
		DefaultDiscountPercent: *body.DefaultDiscountPercent,
		DefaultDepositPercent:  *body.DefaultDepositPercent,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info("rate defaults updated",
		slog.Float64("hourly_rate", cfg.HourlyRate),
		slog.Float64("cleaner_rate", cfg.CleanerRate),
	)
	httpx.JSON(w, http.StatusOK, cfg)
}
