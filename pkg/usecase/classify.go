package usecase

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
	"github.com/taxon-lab/linnaeus/pkg/service/openrouter"
	"github.com/taxon-lab/linnaeus/pkg/utils/logging"
	"github.com/taxon-lab/linnaeus/pkg/utils/textproc"
)

// CacheKey derives the cache key for a document from its source and raw
// content. The same (source, content) pair always yields the same key.
func CacheKey(source, content string) string {
	return fmt.Sprintf("%s_%x", source, sha256.Sum256([]byte(content)))
}

// ClassifyDocument classifies a single document, consulting the cache first.
// Relationships are extracted from the raw content and, when the document
// carries an ID, persisted to the relationship store.
func (uc *UseCases) ClassifyDocument(ctx context.Context, doc *model.Document) (*model.ClassificationResult, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	key := CacheKey(doc.Source, doc.Content)
	v, err, _ := uc.group.Do(key, func() (any, error) {
		return uc.classify(ctx, doc, key, true)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.ClassificationResult), nil
}

// ClassifyChunk classifies a fragment of a larger document. The chunk result
// is cached like any other classification, but relationship facts are not
// persisted; instead the parent document is recorded as related_to in the
// returned set.
func (uc *UseCases) ClassifyChunk(ctx context.Context, chunk *model.Document, parentID string) (*model.ClassificationResult, error) {
	if err := chunk.Validate(); err != nil {
		return nil, err
	}

	key := CacheKey(chunk.Source, chunk.Content)
	v, err, _ := uc.group.Do(key, func() (any, error) {
		return uc.classify(ctx, chunk, key, false)
	})
	if err != nil {
		return nil, err
	}

	// The flight result is shared with every caller that joined it; copy
	// before adding the parent link.
	result := *v.(*model.ClassificationResult)
	result.Relationships = result.Relationships.Clone()
	if parentID != "" {
		result.Relationships.Add(types.RelRelatedTo, parentID)
	}
	return &result, nil
}

// BatchItem is the per-document outcome of ClassifyBatch.
type BatchItem struct {
	Source string
	Result *model.ClassificationResult
	Err    error
}

// ClassifyBatch classifies documents in order. A failing document does not
// abort the batch; its error is recorded in the corresponding item.
func (uc *UseCases) ClassifyBatch(ctx context.Context, docs []*model.Document) ([]BatchItem, error) {
	if len(docs) == 0 {
		return nil, goerr.New("batch is empty")
	}

	items := make([]BatchItem, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return items, goerr.Wrap(err, "batch aborted")
		}

		result, err := uc.ClassifyDocument(ctx, doc)
		items = append(items, BatchItem{
			Source: doc.Source,
			Result: result,
			Err:    err,
		})
	}
	return items, nil
}

func (uc *UseCases) classify(ctx context.Context, doc *model.Document, key string, persist bool) (*model.ClassificationResult, error) {
	logger := logging.From(ctx)

	cached, err := uc.repo.Cache().Get(ctx, key)
	if err == nil {
		logger.Debug("classification cache hit", "key", key, "source", doc.Source)
		return cached, nil
	}
	if !errors.Is(err, interfaces.ErrCacheMiss) {
		logger.Warn("cache lookup failed, classifying anyway", "key", key, "error", err)
	}

	normalized := textproc.Normalize(doc.Content)

	start := uc.now()
	classification, clsErr := uc.client.Classify(ctx, &openrouter.ClassifyInput{
		Content: normalized,
		Role:    doc.Role,
		Title:   doc.Title,
		Source:  doc.Source,
		URL:     doc.URL(),
	})
	elapsed := uc.now().Sub(start)

	degraded := false
	if clsErr != nil {
		var exhausted *openrouter.ExhaustedError
		if uc.fallback == nil || !errors.As(clsErr, &exhausted) {
			return nil, clsErr
		}
		logger.Warn("model candidates exhausted, using rule-based fallback",
			"source", doc.Source, "error", clsErr)
		fb := uc.fallback.Classify(doc.Content, doc.Title)
		classification = &fb
		degraded = true
	}

	// Relationship extraction works on the raw content. Normalization strips
	// the code fences and markup the patterns match against.
	relationships := uc.extractor.Extract(doc.Content)

	result := &model.ClassificationResult{
		Classification: *classification,
		Relationships:  relationships,
		ProcessingTime: elapsed.Seconds(),
	}

	// Fallback results stay out of the cache so a later attempt can reach
	// the real model.
	if !degraded {
		if err := uc.repo.Cache().Set(ctx, key, result, uc.cacheTTL); err != nil {
			logger.Warn("failed to cache classification", "key", key, "error", err)
		}
	}

	if persist && doc.ID != "" && len(relationships) > 0 {
		if err := uc.repo.Relationship().Store(ctx, doc.ID, relationships); err != nil {
			logger.Warn("failed to store relationships", "documentID", doc.ID, "error", err)
		}
	}

	if persist && uc.reporter != nil {
		if path, err := uc.reporter.Save(ctx, doc, result, doc.Metadata["filename"]); err != nil {
			logger.Warn("failed to save classification report", "source", doc.Source, "error", err)
		} else {
			logger.Debug("saved classification report", "path", path)
		}
	}

	return result, nil
}
