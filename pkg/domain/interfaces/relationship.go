package interfaces

import (
	"context"

	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
)

// MaxQueryResults caps unfiltered relationship queries.
const MaxQueryResults = 1000

// RelationshipQuery filters relationship facts. All set filters are ANDed.
// DocumentID and RelationshipType match exactly; Target matches as a
// substring.
type RelationshipQuery struct {
	DocumentID       string                 `json:"document_id,omitempty"`
	RelationshipType types.RelationshipType `json:"relationship_type,omitempty"`
	Target           string                 `json:"target,omitempty"`
}

// RelationshipRepository persists (document, type, target) facts.
type RelationshipRepository interface {
	// Store upserts one fact per (type, target) pair of the set, refreshing
	// timestamps. Pairs absent from the set are left untouched: the store is
	// additive and never purges stale facts implicitly.
	Store(ctx context.Context, documentID string, relationships model.RelationshipSet) error

	// Get returns all facts for the document grouped by type. An unknown
	// document yields an empty set.
	Get(ctx context.Context, documentID string) (model.RelationshipSet, error)

	// Query returns facts matching the filters, capped at MaxQueryResults.
	Query(ctx context.Context, query *RelationshipQuery) ([]*model.RelationshipFact, error)

	// Clear removes all facts for the document and returns the count.
	Clear(ctx context.Context, documentID string) (int, error)
}
