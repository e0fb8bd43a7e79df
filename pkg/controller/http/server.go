package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/taxon-lab/linnaeus/pkg/usecase"
	"github.com/taxon-lab/linnaeus/pkg/utils/logging"
	"golang.org/x/time/rate"
)

// MaxBatchSize bounds the number of documents in one batch request.
const MaxBatchSize = 50

// DefaultRateLimit allows 1000 requests per hour per client.
const DefaultRateLimit = 1000

type Server struct {
	router    *chi.Mux
	uc        *usecase.UseCases
	apiKey    string
	rateLimit rate.Limit
	rateBurst int
	version   string
}

type Options func(*Server)

// WithAPIKey enables X-API-Key authentication. Health endpoints stay open.
func WithAPIKey(key string) Options {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithRateLimit overrides the per-client request budget. perHour <= 0
// disables rate limiting.
func WithRateLimit(perHour int) Options {
	return func(s *Server) {
		if perHour <= 0 {
			s.rateLimit = rate.Inf
			s.rateBurst = 0
			return
		}
		s.rateLimit = rate.Limit(float64(perHour) / time.Hour.Seconds())
		s.rateBurst = perHour
	}
}

func WithVersion(version string) Options {
	return func(s *Server) {
		s.version = version
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:    r,
		uc:        uc,
		rateLimit: rate.Limit(float64(DefaultRateLimit) / time.Hour.Seconds()),
		rateBurst: DefaultRateLimit,
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	// Health endpoints are exempt from auth and rate limiting
	r.Get("/health", s.handleHealth)
	r.Get("/health/detailed", s.handleHealthDetailed)

	r.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(apiKeyAuth(s.apiKey))
		}
		if s.rateLimit != rate.Inf {
			r.Use(rateLimiter(s.rateLimit, s.rateBurst))
		}

		r.Route("/classify", func(r chi.Router) {
			r.Post("/document", s.handleClassifyDocument)
			r.Post("/chunk", s.handleClassifyChunk)
			r.Post("/batch", s.handleClassifyBatch)
		})

		r.Route("/relationships", func(r chi.Router) {
			r.Post("/query", s.handleQueryRelationships)
			r.Get("/dependencies/{documentID}", s.handleGetDependencies)
			r.Get("/{documentID}", s.handleGetRelationships)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
