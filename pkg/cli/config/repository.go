package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/repository/firestore"
	"github.com/taxon-lab/linnaeus/pkg/repository/memory"
	"github.com/taxon-lab/linnaeus/pkg/repository/sqlite"
	"github.com/taxon-lab/linnaeus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository holds CLI flags for storage backend configuration
type Repository struct {
	backend          string
	projectID        string
	collectionPrefix string
	sqlitePath       string
}

func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Storage backend (memory, sqlite or firestore)",
			Value:       "memory",
			Sources:     cli.EnvVars("LINNAEUS_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Sources:     cli.EnvVars("LINNAEUS_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix for Firestore collection names",
			Sources:     cli.EnvVars("LINNAEUS_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "SQLite database file (required when using sqlite backend)",
			Value:       "linnaeus.db",
			Sources:     cli.EnvVars("LINNAEUS_SQLITE_PATH"),
			Destination: &r.sqlitePath,
		},
	}
}

// Configure initializes the repository for the configured backend. The caller
// is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case "firestore":
		if r.projectID == "" {
			return nil, goerr.New("firestore-project-id is required when using firestore backend")
		}
		var opts []firestore.Option
		if r.collectionPrefix != "" {
			opts = append(opts, firestore.WithCollectionPrefix(r.collectionPrefix))
		}
		repo, err := firestore.New(ctx, r.projectID, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"collection_prefix", r.collectionPrefix,
		)
		return repo, nil

	case "sqlite":
		if r.sqlitePath == "" {
			return nil, goerr.New("sqlite-path is required when using sqlite backend")
		}
		repo, err := sqlite.New(r.sqlitePath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sqlite repository")
		}
		logging.Default().Info("Using SQLite repository", "path", r.sqlitePath)
		return repo, nil

	case "memory":
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.New("invalid repository backend", goerr.V("backend", r.backend))
	}
}
