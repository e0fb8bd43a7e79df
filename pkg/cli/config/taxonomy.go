package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Taxonomy holds CLI flags for the collection taxonomy
type Taxonomy struct {
	path string
}

// taxonomyFile is the TOML document shape:
//
//	[collections.wordpress_block_development]
//	description = "..."
//	topics = ["..."]
//	tags = ["..."]
type taxonomyFile struct {
	Collections map[string]model.Collection `toml:"collections"`
}

func (t *Taxonomy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "taxonomy-path",
			Usage:       "TOML file overriding the built-in collection taxonomy",
			Sources:     cli.EnvVars("LINNAEUS_TAXONOMY_PATH"),
			Destination: &t.path,
		},
	}
}

// Configure loads the taxonomy from the configured TOML file, or returns the
// built-in WordPress taxonomy when no file is given.
func (t *Taxonomy) Configure() (model.Taxonomy, error) {
	if t.path == "" {
		return model.DefaultTaxonomy(), nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(t.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read taxonomy file", goerr.V("path", t.path))
	}

	var file taxonomyFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse taxonomy TOML", goerr.V("path", t.path))
	}

	taxonomy := model.Taxonomy(file.Collections)
	if err := taxonomy.Validate(); err != nil {
		return nil, goerr.Wrap(err, "taxonomy validation failed", goerr.V("path", t.path))
	}

	logging.Default().Info("Loaded taxonomy", "path", t.path, "collections", taxonomy.Names())
	return taxonomy, nil
}
