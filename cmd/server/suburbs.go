package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/cleanquote/internal/httpx"
	"github.com/Simplici0/cleanquote/internal/pricing"
)

const maxSuburbResults = 100

func (s *server) handleAddons(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, pricing.Catalog())
}

// handlePostcode always answers 200: an unknown postcode still has a usable multiplier.
func (s *server) handlePostcode(w http.ResponseWriter, r *http.Request) {
	res := s.resolver.ResolveMultiplier(r.Context(), chi.URLParam(r, "postcode"))
	s.metrics.PostcodeLookup(res.Found)
	httpx.JSON(w, http.StatusOK, res)
}

func (s *server) handleSuburb(w http.ResponseWriter, r *http.Request) {
	res := s.lookup.BySuburb(chi.URLParam(r, "name"))
	if !res.Found {
		s.fail(w, r, fmt.Errorf("%w: %s", httpx.ErrNotFound, res.Message))
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (s *server) handleSuburbSearch(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.fail(w, r, fmt.Errorf("%w: limit must be a positive integer", httpx.ErrBadRequest))
			return
		}
		limit = min(n, maxSuburbResults)
	}
	httpx.JSON(w, http.StatusOK, s.lookup.Search(r.URL.Query().Get("q"), limit))
}
