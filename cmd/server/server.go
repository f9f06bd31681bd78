package main

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/unrolled/secure"

	"github.com/Simplici0/cleanquote/internal/config"
	"github.com/Simplici0/cleanquote/internal/httpx"
	"github.com/Simplici0/cleanquote/internal/obs"
	"github.com/Simplici0/cleanquote/internal/pricing"
	"github.com/Simplici0/cleanquote/internal/quotes"
	"github.com/Simplici0/cleanquote/internal/rates"
	"github.com/Simplici0/cleanquote/internal/suburbs"
)

type serverDeps struct {
	Logger   *slog.Logger
	Engine   *pricing.Engine
	Lookup   *suburbs.Lookup
	Resolver suburbs.Resolver
	Quotes   *quotes.Store
	Rates    *rates.Store
	Metrics  *obs.Metrics
}

type server struct {
	logger   *slog.Logger
	engine   *pricing.Engine
	lookup   *suburbs.Lookup
	resolver suburbs.Resolver
	quotes   *quotes.Store
	rates    *rates.Store
	metrics  *obs.Metrics
	validate *validator.Validate
}

func newServer(deps serverDeps) *server {
	s := &server{
		logger:   deps.Logger,
		engine:   deps.Engine,
		lookup:   deps.Lookup,
		resolver: deps.Resolver,
		quotes:   deps.Quotes,
		rates:    deps.Rates,
		metrics:  deps.Metrics,
		validate: httpx.NewValidator(),
	}
	if s.logger == nil {
		s.logger = obs.Discard()
	}
	if s.engine == nil {
		s.engine = pricing.NewEngine(nil)
	}
	if s.lookup == nil {
		s.lookup = suburbs.NewLookup(nil)
	}
	if s.resolver == nil {
		s.resolver = s.lookup
	}
	return s
}

func (s *server) routes(cfg config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(secureHeaders(s.logger, !cfg.IsDev()))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(cfg.RateLimitPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}

		r.Get("/addons", s.handleAddons)
		r.Post("/calculate-quote", s.handleCalculateQuote)

		r.Post("/quotes", s.handleSaveQuote)
		r.Get("/quotes", s.handleListQuotes)
		r.Get("/quotes/{id}", s.handleGetQuote)
		r.Get("/quotes/{id}/text", s.handleQuoteText)

		r.Get("/postcodes/{postcode}", s.handlePostcode)
		r.Get("/suburbs", s.handleSuburbSearch)
		r.Get("/suburbs/{name}", s.handleSuburb)

		r.Get("/rates", s.handleGetRates)
		r.Put("/rates", s.handleUpdateRates)
	})

	return r
}

func secureHeaders(logger *slog.Logger, production bool) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'",
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !production,
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sm.Process(w, r); err != nil {
				logger.Warn("secure headers blocked request", slog.Any("error", err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// fail writes err as a problem response. Unexpected errors are logged.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *pricing.ValidationError
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		s.metrics.ValidationFailed(string(verr.Kind))
	case errors.As(err, &fieldErrs):
		s.metrics.ValidationFailed(httpx.KindInvalidRequest)
	case errors.Is(err, httpx.ErrNotFound), errors.Is(err, httpx.ErrMalformedBody), errors.Is(err, httpx.ErrBadRequest):
	default:
		s.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
	}
	httpx.RespondError(w, err)
}
