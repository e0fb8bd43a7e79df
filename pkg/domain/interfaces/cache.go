package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/taxon-lab/linnaeus/pkg/domain/model"
)

// ErrCacheMiss is returned by Get when a key is absent or past expiry.
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository stores computed classification results keyed by a document
// fingerprint. Expiry is passive: an expired entry behaves as absent on read.
type CacheRepository interface {
	// Get retrieves a cached result. Returns ErrCacheMiss if the key was
	// never set or its entry has expired.
	Get(ctx context.Context, key string) (*model.ClassificationResult, error)

	// Set stores a result unconditionally and resets the expiry to now+ttl.
	Set(ctx context.Context, key string, result *model.ClassificationResult, ttl time.Duration) error

	// Clear removes entries whose keys match pattern and returns the count.
	// Pattern "*" clears everything; otherwise "*" acts as a wildcard and a
	// bare string matches as a substring.
	Clear(ctx context.Context, pattern string) (int, error)
}
