package memory

import (
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
)

// Repository is an in-memory implementation of interfaces.Repository for
// development and testing.
type Repository struct {
	cache        *cacheRepository
	relationship *relationshipRepository
}

var _ interfaces.Repository = &Repository{}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		cache:        newCacheRepository(),
		relationship: newRelationshipRepository(),
	}
}

func (r *Repository) Cache() interfaces.CacheRepository {
	return r.cache
}

func (r *Repository) Relationship() interfaces.RelationshipRepository {
	return r.relationship
}

func (r *Repository) Close() error {
	return nil
}
