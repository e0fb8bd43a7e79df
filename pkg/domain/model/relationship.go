package model

import (
	"sort"
	"time"

	"github.com/taxon-lab/linnaeus/pkg/domain/types"
)

// RelationshipSet maps a relationship type to its deduplicated targets.
// Types with no targets are absent from the map: absence means "no evidence
// found", not "checked and empty".
type RelationshipSet map[types.RelationshipType][]string

// Add inserts a target under the given type, keeping set semantics.
func (s RelationshipSet) Add(relType types.RelationshipType, target string) {
	if target == "" {
		return
	}
	for _, existing := range s[relType] {
		if existing == target {
			return
		}
	}
	s[relType] = append(s[relType], target)
}

// Merge adds every pair of other into the set.
func (s RelationshipSet) Merge(other RelationshipSet) {
	for relType, targets := range other {
		for _, target := range targets {
			s.Add(relType, target)
		}
	}
}

// Clone returns an independent copy preserving target order.
func (s RelationshipSet) Clone() RelationshipSet {
	out := make(RelationshipSet, len(s))
	for relType, targets := range s {
		copied := make([]string, len(targets))
		copy(copied, targets)
		out[relType] = copied
	}
	return out
}

// Sorted returns a copy with targets in lexical order. Match ordering is not
// significant, so canonical ordering keeps results comparable.
func (s RelationshipSet) Sorted() RelationshipSet {
	out := make(RelationshipSet, len(s))
	for relType, targets := range s {
		copied := make([]string, len(targets))
		copy(copied, targets)
		sort.Strings(copied)
		out[relType] = copied
	}
	return out
}

// Has reports whether the set contains the given pair.
func (s RelationshipSet) Has(relType types.RelationshipType, target string) bool {
	for _, existing := range s[relType] {
		if existing == target {
			return true
		}
	}
	return false
}

// RelationshipFact is one persisted (document, type, target) triple.
// Re-storing the same fact refreshes CreatedAt only.
type RelationshipFact struct {
	DocumentID       string                 `json:"document_id"`
	RelationshipType types.RelationshipType `json:"relationship_type"`
	Target           string                 `json:"target"`
	CreatedAt        time.Time              `json:"created_at"`
}
