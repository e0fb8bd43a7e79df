package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
)

// GetRelationships returns all stored relationship facts of a document,
// grouped by type.
func (uc *UseCases) GetRelationships(ctx context.Context, documentID string) (model.RelationshipSet, error) {
	if documentID == "" {
		return nil, goerr.New("document ID is required")
	}
	return uc.repo.Relationship().Get(ctx, documentID)
}

// GetDependencies returns the union of a document's requires and
// prerequisites targets.
func (uc *UseCases) GetDependencies(ctx context.Context, documentID string) ([]string, error) {
	set, err := uc.GetRelationships(ctx, documentID)
	if err != nil {
		return nil, err
	}

	deps := model.RelationshipSet{}
	for _, relType := range []types.RelationshipType{types.RelRequires, types.RelPrerequisites} {
		for _, target := range set[relType] {
			deps.Add(types.RelRequires, target)
		}
	}
	return deps.Sorted()[types.RelRequires], nil
}

// QueryRelationships searches stored facts by document, type and target
// substring. Results are capped at interfaces.MaxQueryResults.
func (uc *UseCases) QueryRelationships(ctx context.Context, query *interfaces.RelationshipQuery) ([]*model.RelationshipFact, error) {
	if query != nil && query.RelationshipType != "" && !query.RelationshipType.IsValid() {
		return nil, goerr.New("unknown relationship type", goerr.V("type", query.RelationshipType))
	}
	return uc.repo.Relationship().Query(ctx, query)
}

// ClearCache removes cached classification results matching pattern and
// returns the number of removed entries.
func (uc *UseCases) ClearCache(ctx context.Context, pattern string) (int, error) {
	return uc.repo.Cache().Clear(ctx, pattern)
}

// Taxonomy returns the active collection taxonomy.
func (uc *UseCases) Taxonomy() model.Taxonomy {
	return uc.taxonomy
}
