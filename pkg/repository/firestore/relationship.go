package firestore

import (
	"context"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
	"google.golang.org/api/iterator"
)

// relationshipDoc is the Firestore document representation of a single
// relationship fact. The document ID is derived from the (DocumentID,
// RelationshipType, Target) triple, so re-storing the same fact only
// refreshes CreatedAt.
type relationshipDoc struct {
	DocumentID       string    `firestore:"DocumentID"`
	RelationshipType string    `firestore:"RelationshipType"`
	Target           string    `firestore:"Target"`
	CreatedAt        time.Time `firestore:"CreatedAt"`
}

func fromRelationshipDoc(d *relationshipDoc) *model.RelationshipFact {
	return &model.RelationshipFact{
		DocumentID:       d.DocumentID,
		RelationshipType: types.RelationshipType(d.RelationshipType),
		Target:           d.Target,
		CreatedAt:        d.CreatedAt,
	}
}

type relationshipRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRelationshipRepository(client *firestore.Client) *relationshipRepository {
	return &relationshipRepository{
		client: client,
	}
}

func (r *relationshipRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + relationshipCollection)
}

func (r *relationshipRepository) Store(ctx context.Context, documentID string, relationships model.RelationshipSet) error {
	now := time.Now().UTC()
	for relType, targets := range relationships {
		for _, target := range targets {
			d := &relationshipDoc{
				DocumentID:       documentID,
				RelationshipType: string(relType),
				Target:           target,
				CreatedAt:        now,
			}
			ref := r.collection().Doc(docID(documentID, string(relType), target))
			if _, err := ref.Set(ctx, d); err != nil {
				return goerr.Wrap(err, "failed to store relationship",
					goerr.V("documentID", documentID),
					goerr.V("type", relType),
					goerr.V("target", target),
				)
			}
		}
	}
	return nil
}

func (r *relationshipRepository) Get(ctx context.Context, documentID string) (model.RelationshipSet, error) {
	iter := r.collection().
		Where("DocumentID", "==", documentID).
		Documents(ctx)
	defer iter.Stop()

	set := model.RelationshipSet{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate relationships", goerr.V("documentID", documentID))
		}

		var d relationshipDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal relationship")
		}
		set.Add(types.RelationshipType(d.RelationshipType), d.Target)
	}
	return set.Sorted(), nil
}

func (r *relationshipRepository) Query(ctx context.Context, query *interfaces.RelationshipQuery) ([]*model.RelationshipFact, error) {
	if query == nil {
		query = &interfaces.RelationshipQuery{}
	}

	q := r.collection().Query
	if query.DocumentID != "" {
		q = q.Where("DocumentID", "==", query.DocumentID)
	}
	if query.RelationshipType != "" {
		q = q.Where("RelationshipType", "==", string(query.RelationshipType))
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var results []*model.RelationshipFact
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate relationship facts")
		}

		var d relationshipDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal relationship fact")
		}
		// Substring matching has no Firestore query operator, filter here
		if query.Target != "" && !strings.Contains(d.Target, query.Target) {
			continue
		}
		results = append(results, fromRelationshipDoc(&d))
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
	iter := r.collection().
		Where("DocumentID", "==", documentID).
		Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return count, goerr.Wrap(err, "failed to iterate relationships", goerr.V("documentID", documentID))
		}

		if _, err := doc.Ref.Delete(ctx); err != nil {
			return count, goerr.Wrap(err, "failed to delete relationship", goerr.V("documentID", documentID))
		}
		count++
	}
	return count, nil
}
