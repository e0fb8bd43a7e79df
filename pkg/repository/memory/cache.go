package memory

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

type cacheRepository struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newCacheRepository() *cacheRepository {
	return &cacheRepository{
		entries: make(map[string]cacheEntry),
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) (*model.ClassificationResult, error) {
	r.mu.RLock()
	entry, exists := r.entries[key]
	r.mu.RUnlock()

	if !exists {
		return nil, goerr.Wrap(interfaces.ErrCacheMiss, "key not found", goerr.V("key", key))
	}
	if time.Now().After(entry.expiresAt) {
		// Lazy removal: expired entries behave as absent
		r.mu.Lock()
		if current, ok := r.entries[key]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		return nil, goerr.Wrap(interfaces.ErrCacheMiss, "key expired", goerr.V("key", key))
	}

	var result model.ClassificationResult
	if err := json.Unmarshal(entry.value, &result); err != nil {
		return nil, goerr.Wrap(err, "failed to decode cached result", goerr.V("key", key))
	}
	return &result, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, result *model.ClassificationResult, ttl time.Duration) error {
	value, err := json.Marshal(result)
	if err != nil {
		return goerr.Wrap(err, "failed to encode result", goerr.V("key", key))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (r *cacheRepository) Clear(ctx context.Context, pattern string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for key := range r.entries {
		if matchKey(pattern, key) {
			delete(r.entries, key)
			count++
		}
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
