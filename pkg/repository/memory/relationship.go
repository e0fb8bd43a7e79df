package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
)

type factKey struct {
	relType types.RelationshipType
	target  string
}

type relationshipRepository struct {
	mu    sync.RWMutex
	facts map[string]map[factKey]time.Time
}

func newRelationshipRepository() *relationshipRepository {
	return &relationshipRepository{
		facts: make(map[string]map[factKey]time.Time),
	}
}

func (r *relationshipRepository) Store(ctx context.Context, documentID string, relationships model.RelationshipSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, exists := r.facts[documentID]
	if !exists {
		bucket = make(map[factKey]time.Time)
		r.facts[documentID] = bucket
	}

	now := time.Now().UTC()
	for relType, targets := range relationships {
		for _, target := range targets {
			// Upsert: an existing fact only gets its timestamp refreshed
			bucket[factKey{relType: relType, target: target}] = now
		}
	}
	return nil
}

func (r *relationshipRepository) Get(ctx context.Context, documentID string) (model.RelationshipSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := model.RelationshipSet{}
	for key := range r.facts[documentID] {
		set.Add(key.relType, key.target)
	}
	return set.Sorted(), nil
}

func (r *relationshipRepository) Query(ctx context.Context, query *interfaces.RelationshipQuery) ([]*model.RelationshipFact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if query == nil {
		query = &interfaces.RelationshipQuery{}
	}

	var results []*model.RelationshipFact
	for documentID, bucket := range r.facts {
		if query.DocumentID != "" && documentID != query.DocumentID {
			continue
		}
		for key, createdAt := range bucket {
			if query.RelationshipType != "" && key.relType != query.RelationshipType {
				continue
			}
			if query.Target != "" && !strings.Contains(key.target, query.Target) {
				continue
			}
			results = append(results, &model.RelationshipFact{
				DocumentID:       documentID,
				RelationshipType: key.relType,
				Target:           key.target,
				CreatedAt:        createdAt,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].DocumentID != results[j].DocumentID {
			return results[i].DocumentID < results[j].DocumentID
		}
		if results[i].RelationshipType != results[j].RelationshipType {
			return results[i].RelationshipType < results[j].RelationshipType
		}
		return results[i].Target < results[j].Target
	})

	if len(results) > interfaces.MaxQueryResults {
		results = results[:interfaces.MaxQueryResults]
	}
	return results, nil
}

func (r *relationshipRepository) Clear(ctx context.Context, documentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := len(r.facts[documentID])
	delete(r.facts, documentID)
	return count, nil
}
