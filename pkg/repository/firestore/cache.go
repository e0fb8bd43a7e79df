package firestore

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// cacheDoc is the Firestore document representation of a cached
// classification result. The result is stored as a JSON string so that the
// wire shape stays identical across storage backends.
type cacheDoc struct {
	Key       string    `firestore:"Key"`
	Result    string    `firestore:"Result"`
	ExpiresAt time.Time `firestore:"ExpiresAt"`
}

type cacheRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCacheRepository(client *firestore.Client) *cacheRepository {
	return &cacheRepository{
		client: client,
	}
}

func (r *cacheRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + cacheCollection)
}

func (r *cacheRepository) Get(ctx context.Context, key string) (*model.ClassificationResult, error) {
	doc, err := r.collection().Doc(docID(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrCacheMiss, "key not found", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to get cache entry", goerr.V("key", key))
	}

	var d cacheDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal cache entry", goerr.V("key", key))
	}

	if time.Now().After(d.ExpiresAt) {
		// Lazy removal: expired entries behave as absent
		_, _ = doc.Ref.Delete(ctx)
		return nil, goerr.Wrap(interfaces.ErrCacheMiss, "key expired", goerr.V("key", key))
	}

	var result model.ClassificationResult
	if err := json.Unmarshal([]byte(d.Result), &result); err != nil {
		return nil, goerr.Wrap(err, "failed to decode cached result", goerr.V("key", key))
	}
	return &result, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, result *model.ClassificationResult, ttl time.Duration) error {
	value, err := json.Marshal(result)
	if err != nil {
		return goerr.Wrap(err, "failed to encode result", goerr.V("key", key))
	}

	d := &cacheDoc{
		Key:       key,
		Result:    string(value),
		ExpiresAt: time.Now().Add(ttl).UTC(),
	}
	if _, err := r.collection().Doc(docID(key)).Set(ctx, d); err != nil {
		return goerr.Wrap(err, "failed to write cache entry", goerr.V("key", key))
	}
	return nil
}

func (r *cacheRepository) Clear(ctx context.Context, pattern string) (int, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return count, goerr.Wrap(err, "failed to iterate cache entries", goerr.V("pattern", pattern))
		}

		var d cacheDoc
		if err := doc.DataTo(&d); err != nil {
			return count, goerr.Wrap(err, "failed to unmarshal cache entry")
		}
		if !matchKey(pattern, d.Key) {
			continue
		}

		if _, err := doc.Ref.Delete(ctx); err != nil {
			return count, goerr.Wrap(err, "failed to delete cache entry", goerr.V("key", d.Key))
		}
		count++
	}
	return count, nil
}

// matchKey implements the Clear pattern semantics: "*" matches everything, a
// pattern containing "*" is an anchored wildcard, anything else matches as a
// substring.
func matchKey(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	if strings.Contains(pattern, "*") {
		parts := strings.Split(pattern, "*")
		for i := range parts {
			parts[i] = regexp.QuoteMeta(parts[i])
		}
		re, err := regexp.Compile("^" + strings.Join(parts, ".*") + "$")
		if err != nil {
			return false
		}
		return re.MatchString(key)
	}
	return strings.Contains(key, pattern)
}
