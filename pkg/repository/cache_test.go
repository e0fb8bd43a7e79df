package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
	"github.com/taxon-lab/linnaeus/pkg/repository/firestore"
	"github.com/taxon-lab/linnaeus/pkg/repository/memory"
	"github.com/taxon-lab/linnaeus/pkg/repository/sqlite"
)

func testResult(collection string) *model.ClassificationResult {
	return &model.ClassificationResult{
		Classification: model.Classification{
			SectionHierarchy: []string{"Guides", "Blocks"},
			Tags:             []string{"blocks", "api"},
			RefinedSource:    "wp_blocks/guides",
			Collection:       collection,
			Topics:           []string{"Block Development"},
			Confidence:       0.92,
			ModelUsed:        "deepseek/deepseek-chat-v3",
		},
		Relationships: model.RelationshipSet{
			types.RelRequires: {"WP_Block"},
		},
		ProcessingTime: 1.25,
	}
}

func runCacheRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Get on empty cache misses", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Cache().Get(ctx, fmt.Sprintf("missing-%d", time.Now().UnixNano()))
		gt.Bool(t, errors.Is(err, interfaces.ErrCacheMiss)).True()
	})

	t.Run("Set then Get round-trips the result", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		key := fmt.Sprintf("wp_blocks_%d", time.Now().UnixNano())
		want := testResult("wordpress_block_development")

		gt.NoError(t, repo.Cache().Set(ctx, key, want, time.Hour)).Required()

		got, err := repo.Cache().Get(ctx, key)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Classification.Collection).Equal(want.Classification.Collection)
		gt.Value(t, got.Classification.Confidence).Equal(want.Classification.Confidence)
		gt.Array(t, got.Relationships[types.RelRequires]).Length(1)
		gt.Array(t, got.Relationships[types.RelRequires]).Has("WP_Block")
	})

	t.Run("Set overwrites an existing entry", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		key := fmt.Sprintf("wp_themes_%d", time.Now().UnixNano())
		gt.NoError(t, repo.Cache().Set(ctx, key, testResult("wordpress_block_development"), time.Hour)).Required()
		gt.NoError(t, repo.Cache().Set(ctx, key, testResult("wordpress_theme_development"), time.Hour)).Required()

		got, err := repo.Cache().Get(ctx, key)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Classification.Collection).Equal("wordpress_theme_development")
	})

	t.Run("Expired entries miss", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		key := fmt.Sprintf("expiring_%d", time.Now().UnixNano())
		gt.NoError(t, repo.Cache().Set(ctx, key, testResult("wordpress_block_development"), 10*time.Millisecond)).Required()

		time.Sleep(50 * time.Millisecond)

		_, err := repo.Cache().Get(ctx, key)
		gt.Bool(t, errors.Is(err, interfaces.ErrCacheMiss)).True()
	})

	t.Run("Clear with wildcard removes everything", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		prefix := fmt.Sprintf("all_%d", time.Now().UnixNano())
		for i := 0; i < 3; i++ {
			key := fmt.Sprintf("%s_doc%d", prefix, i)
			gt.NoError(t, repo.Cache().Set(ctx, key, testResult("wordpress_block_development"), time.Hour)).Required()
		}

		count, err := repo.Cache().Clear(ctx, "*")
		gt.NoError(t, err).Required()
		gt.Number(t, count).Equal(3)

		_, err = repo.Cache().Get(ctx, prefix+"_doc0")
		gt.Bool(t, errors.Is(err, interfaces.ErrCacheMiss)).True()
	})

	t.Run("Clear with substring pattern removes matching keys only", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		stamp := time.Now().UnixNano()
		blockKey := fmt.Sprintf("wp_blocks_%d_a", stamp)
		themeKey := fmt.Sprintf("wp_themes_%d_a", stamp)
		for _, key := range []string{blockKey, themeKey} {
			gt.NoError(t, repo.Cache().Set(ctx, key, testResult("wordpress_block_development"), time.Hour)).Required()
		}

		count, err := repo.Cache().Clear(ctx, fmt.Sprintf("wp_blocks_%d", stamp))
		gt.NoError(t, err).Required()
		gt.Number(t, count).Equal(1)

		_, err = repo.Cache().Get(ctx, blockKey)
		gt.Bool(t, errors.Is(err, interfaces.ErrCacheMiss)).True()

		_, err = repo.Cache().Get(ctx, themeKey)
		gt.NoError(t, err)
	})

	t.Run("Clear with wildcard pattern anchors the match", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		stamp := time.Now().UnixNano()
		matching := fmt.Sprintf("chunk_%d_end", stamp)
		other := fmt.Sprintf("doc_%d_end", stamp)
		for _, key := range []string{matching, other} {
			gt.NoError(t, repo.Cache().Set(ctx, key, testResult("wordpress_block_development"), time.Hour)).Required()
		}

		count, err := repo.Cache().Clear(ctx, fmt.Sprintf("chunk_%d*", stamp))
		gt.NoError(t, err).Required()
		gt.Number(t, count).Equal(1)

		_, err = repo.Cache().Get(ctx, other)
		gt.NoError(t, err)
	})
}

func newMemoryRepo(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

func newSQLiteRepo(t *testing.T) interfaces.Repository {
	t.Helper()
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "linnaeus.db"))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func newFirestoreRepo(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID,
		firestore.WithCollectionPrefix(fmt.Sprintf("test_%d_", time.Now().UnixNano())))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func TestMemoryCacheRepository(t *testing.T) {
	runCacheRepositoryTest(t, newMemoryRepo)
}

func TestSQLiteCacheRepository(t *testing.T) {
	runCacheRepositoryTest(t, newSQLiteRepo)
}

func TestFirestoreCacheRepository(t *testing.T) {
	runCacheRepositoryTest(t, newFirestoreRepo)
}
