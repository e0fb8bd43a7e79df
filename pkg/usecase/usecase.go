package usecase

import (
	"context"
	"time"

	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/service/extractor"
	"github.com/taxon-lab/linnaeus/pkg/service/fallback"
	"github.com/taxon-lab/linnaeus/pkg/service/openrouter"
	"github.com/taxon-lab/linnaeus/pkg/service/report"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL keeps classification results for one day.
const DefaultCacheTTL = 24 * time.Hour

// ModelClient classifies a document via a language model.
// *openrouter.Client satisfies this.
type ModelClient interface {
	Classify(ctx context.Context, input *openrouter.ClassifyInput) (*model.Classification, error)
}

type UseCases struct {
	repo      interfaces.Repository
	client    ModelClient
	extractor *extractor.Extractor
	fallback  *fallback.Classifier
	reporter  *report.Writer
	taxonomy  model.Taxonomy
	cacheTTL  time.Duration
	now       func() time.Time

	// group collapses concurrent classifications of the same cache key
	// into a single in-flight model call.
	group singleflight.Group
}

type Option func(*UseCases)

// WithFallback enables the rule-based classifier for documents whose model
// candidates were all exhausted.
func WithFallback(clf *fallback.Classifier) Option {
	return func(uc *UseCases) {
		uc.fallback = clf
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(uc *UseCases) {
		uc.cacheTTL = ttl
	}
}

func WithExtractor(x *extractor.Extractor) Option {
	return func(uc *UseCases) {
		uc.extractor = x
	}
}

// WithReportWriter enables saving enriched classification reports after each
// successful document classification.
func WithReportWriter(w *report.Writer) Option {
	return func(uc *UseCases) {
		uc.reporter = w
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, client ModelClient, taxonomy model.Taxonomy, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		client:    client,
		extractor: extractor.NewDefault(),
		taxonomy:  taxonomy,
		cacheTTL:  DefaultCacheTTL,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
