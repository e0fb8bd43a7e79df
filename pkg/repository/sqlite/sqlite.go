package sqlite

import (
	"database/sql"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS classification_cache (
	cache_key  TEXT PRIMARY KEY,
	result     TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS relationships (
	document_id       TEXT NOT NULL,
	relationship_type TEXT NOT NULL,
	target            TEXT NOT NULL,
	created_at        INTEGER NOT NULL,
	PRIMARY KEY (document_id, relationship_type, target)
);
`

// Repository is a SQLite-backed implementation of interfaces.Repository.
type Repository struct {
	db           *sql.DB
	cache        *cacheRepository
	relationship *relationshipRepository
}

var _ interfaces.Repository = &Repository{}

// New opens (or creates) the SQLite database at path and ensures the schema
// exists.
func New(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to initialize sqlite schema", goerr.V("path", path))
	}

	return &Repository{
		db:           db,
		cache:        &cacheRepository{db: db},
		relationship: &relationshipRepository{db: db},
	}, nil
}

func (r *Repository) Cache() interfaces.CacheRepository {
	return r.cache
}

func (r *Repository) Relationship() interfaces.RelationshipRepository {
	return r.relationship
}

func (r *Repository) Close() error {
	return r.db.Close()
}
