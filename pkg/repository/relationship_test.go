package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
)

func runRelationshipRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Get on unknown document returns empty set", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		set, err := repo.Relationship().Get(ctx, fmt.Sprintf("missing-%d", time.Now().UnixNano()))
		gt.NoError(t, err).Required()
		gt.Value(t, len(set)).Equal(0)
	})

	t.Run("Store then Get round-trips sorted targets", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		docID := fmt.Sprintf("doc-%d", time.Now().UnixNano())
		set := model.RelationshipSet{
			types.RelRequires: {"WP_Widget", "WP_Block"},
			types.RelExtends:  {"WP_REST_Controller"},
		}

		gt.NoError(t, repo.Relationship().Store(ctx, docID, set)).Required()

		got, err := repo.Relationship().Get(ctx, docID)
		gt.NoError(t, err).Required()

		requires := got[types.RelRequires]
		gt.Array(t, requires).Length(2).Required()
		gt.Value(t, requires[0]).Equal("WP_Block")
		gt.Value(t, requires[1]).Equal("WP_Widget")
		gt.Array(t, got[types.RelExtends]).Length(1)
	})

	t.Run("Store is additive across calls", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		docID := fmt.Sprintf("doc-%d", time.Now().UnixNano())
		first := model.RelationshipSet{types.RelRequires: {"WP_Block"}}
		second := model.RelationshipSet{types.RelIntegratesWith: {"mw_properties_init"}}

		gt.NoError(t, repo.Relationship().Store(ctx, docID, first)).Required()
		gt.NoError(t, repo.Relationship().Store(ctx, docID, second)).Required()

		got, err := repo.Relationship().Get(ctx, docID)
		gt.NoError(t, err).Required()
		gt.Array(t, got[types.RelRequires]).Length(1)
		gt.Array(t, got[types.RelIntegratesWith]).Length(1)
	})

	t.Run("Storing a duplicate fact does not duplicate it", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		docID := fmt.Sprintf("doc-%d", time.Now().UnixNano())
		set := model.RelationshipSet{types.RelRequires: {"WP_Block"}}

		gt.NoError(t, repo.Relationship().Store(ctx, docID, set)).Required()
		gt.NoError(t, repo.Relationship().Store(ctx, docID, set)).Required()

		got, err := repo.Relationship().Get(ctx, docID)
		gt.NoError(t, err).Required()
		gt.Array(t, got[types.RelRequires]).Length(1)
	})

	t.Run("Query filters by document, type and target substring", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		stamp := time.Now().UnixNano()
		docA := fmt.Sprintf("doc-a-%d", stamp)
		docB := fmt.Sprintf("doc-b-%d", stamp)

		gt.NoError(t, repo.Relationship().Store(ctx, docA, model.RelationshipSet{
			types.RelRequires:       {"WP_Block", "WP_Widget"},
			types.RelIntegratesWith: {"mw_properties_init"},
		})).Required()
		gt.NoError(t, repo.Relationship().Store(ctx, docB, model.RelationshipSet{
			types.RelRequires: {"WP_Block"},
		})).Required()

		byDoc, err := repo.Relationship().Query(ctx, &interfaces.RelationshipQuery{DocumentID: docA})
		gt.NoError(t, err).Required()
		gt.Array(t, byDoc).Length(3)

		byType, err := repo.Relationship().Query(ctx, &interfaces.RelationshipQuery{
			DocumentID:       docA,
			RelationshipType: types.RelIntegratesWith,
		})
		gt.NoError(t, err).Required()
		gt.Array(t, byType).Length(1).Required()
		gt.Value(t, byType[0].Target).Equal("mw_properties_init")

		byTarget, err := repo.Relationship().Query(ctx, &interfaces.RelationshipQuery{
			DocumentID: docA,
			Target:     "Widget",
		})
		gt.NoError(t, err).Required()
		gt.Array(t, byTarget).Length(1).Required()
		gt.Value(t, byTarget[0].Target).Equal("WP_Widget")
	})

	t.Run("Query results are ordered deterministically", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		docID := fmt.Sprintf("doc-%d", time.Now().UnixNano())
		gt.NoError(t, repo.Relationship().Store(ctx, docID, model.RelationshipSet{
			types.RelRequires: {"WP_Widget", "WP_Block", "WP_Query"},
		})).Required()

		got, err := repo.Relationship().Query(ctx, &interfaces.RelationshipQuery{DocumentID: docID})
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(3).Required()

		gt.Value(t, got[0].Target).Equal("WP_Block")
		gt.Value(t, got[1].Target).Equal("WP_Query")
		gt.Value(t, got[2].Target).Equal("WP_Widget")
		for _, fact := range got {
			gt.Bool(t, fact.CreatedAt.IsZero()).False()
		}
	})

	t.Run("Clear removes only the given document", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		stamp := time.Now().UnixNano()
		docA := fmt.Sprintf("doc-a-%d", stamp)
		docB := fmt.Sprintf("doc-b-%d", stamp)

		gt.NoError(t, repo.Relationship().Store(ctx, docA, model.RelationshipSet{
			types.RelRequires: {"WP_Block", "WP_Widget"},
		})).Required()
		gt.NoError(t, repo.Relationship().Store(ctx, docB, model.RelationshipSet{
			types.RelRequires: {"WP_Block"},
		})).Required()

		count, err := repo.Relationship().Clear(ctx, docA)
		gt.NoError(t, err).Required()
		gt.Number(t, count).Equal(2)

		gotA, err := repo.Relationship().Get(ctx, docA)
		gt.NoError(t, err).Required()
		gt.Value(t, len(gotA)).Equal(0)

		gotB, err := repo.Relationship().Get(ctx, docB)
		gt.NoError(t, err).Required()
		gt.Array(t, gotB[types.RelRequires]).Length(1)
	})
}

func TestMemoryRelationshipRepository(t *testing.T) {
	runRelationshipRepositoryTest(t, newMemoryRepo)
}

func TestSQLiteRelationshipRepository(t *testing.T) {
	runRelationshipRepositoryTest(t, newSQLiteRepo)
}

func TestFirestoreRelationshipRepository(t *testing.T) {
	runRelationshipRepositoryTest(t, newFirestoreRepo)
}
