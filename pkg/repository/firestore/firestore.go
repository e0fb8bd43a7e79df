package firestore

import (
	"context"
	"crypto/sha256"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
)

const (
	cacheCollection        = "classification_cache"
	relationshipCollection = "relationships"
)

type Firestore struct {
	client       *firestore.Client
	cache        *cacheRepository
	relationship *relationshipRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prepends prefix to the collection names, so that
// multiple deployments can share a Firestore database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.cache.collectionPrefix = prefix
		f.relationship.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID string, opts ...Option) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	f := &Firestore{
		client:       client,
		cache:        newCacheRepository(client),
		relationship: newRelationshipRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Cache() interfaces.CacheRepository {
	return f.cache
}

func (f *Firestore) Relationship() interfaces.RelationshipRepository {
	return f.relationship
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// docID derives a Firestore-safe document ID from arbitrary parts. Cache keys
// and relationship targets may contain characters such as "/" that document
// IDs do not allow.
func docID(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
