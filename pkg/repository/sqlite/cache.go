package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
)

type cacheRepository struct {
	db *sql.DB
}

func (r *cacheRepository) Get(ctx context.Context, key string) (*model.ClassificationResult, error) {
	var value string
	var expiresAt int64
	err := r.db.QueryRowContext(ctx,
		"SELECT result, expires_at FROM classification_cache WHERE cache_key = ?", key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrCacheMiss, "key not found", goerr.V("key", key))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read cache", goerr.V("key", key))
	}

	if time.Now().UnixMilli() > expiresAt {
		// Lazy removal of expired rows
		_, _ = r.db.ExecContext(ctx,
			"DELETE FROM classification_cache WHERE cache_key = ? AND expires_at = ?", key, expiresAt)
		return nil, goerr.Wrap(interfaces.ErrCacheMiss, "key expired", goerr.V("key", key))
	}

	var result model.ClassificationResult
	if err := json.Unmarshal([]byte(value), &result); err != nil {
		return nil, goerr.Wrap(err, "failed to decode cached result", goerr.V("key", key))
	}
	return &result, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, result *model.ClassificationResult, ttl time.Duration) error {
	value, err := json.Marshal(result)
	if err != nil {
		return goerr.Wrap(err, "failed to encode result", goerr.V("key", key))
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO classification_cache (cache_key, result, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET result = excluded.result, expires_at = excluded.expires_at`,
		key, string(value), time.Now().Add(ttl).UnixMilli(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to write cache", goerr.V("key", key))
	}
	return nil
}

func (r *cacheRepository) Clear(ctx context.Context, pattern string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM classification_cache WHERE cache_key LIKE ? ESCAPE '\'`, likePattern(pattern))
	if err != nil {
		return 0, goerr.Wrap(err, "failed to clear cache", goerr.V("pattern", pattern))
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count cleared entries")
	}
	return int(count), nil
}

// likePattern maps the Clear pattern semantics to SQL LIKE: "*" becomes the
// wildcard "%", a plain string matches as a substring.
func likePattern(pattern string) string {
	if pattern == "" || pattern == "*" {
		return "%"
	}
	escaped := strings.NewReplacer("%", `\%`, "_", `\_`).Replace(pattern)
	if strings.Contains(escaped, "*") {
		return strings.ReplaceAll(escaped, "*", "%")
	}
	return "%" + escaped + "%"
}
