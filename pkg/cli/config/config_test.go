package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/taxon-lab/linnaeus/pkg/cli/config"
)

func TestTaxonomyConfigure(t *testing.T) {
	t.Run("returns the built-in taxonomy without a file", func(t *testing.T) {
		var cfg config.Taxonomy

		taxonomy, err := cfg.Configure()
		gt.NoError(t, err).Required()
		gt.Array(t, taxonomy.Names()).Has("wordpress_block_development")
	})

	t.Run("loads collections from a TOML file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "taxonomy.toml")
		content := `
[collections.api_reference]
description = "REST and PHP API reference material"
topics = ["Endpoints", "Authentication"]
tags = ["rest-api", "reference"]

[collections.tutorials]
description = "Step by step guides"
topics = ["Getting Started"]
tags = ["tutorial"]
`
		gt.NoError(t, os.WriteFile(path, []byte(content), 0o644)).Required()

		cfg := config.NewTaxonomy(path)
		taxonomy, err := cfg.Configure()
		gt.NoError(t, err).Required()

		gt.Array(t, taxonomy.Names()).Length(2)
		gt.Array(t, taxonomy.Names()).Has("api_reference")
		gt.Array(t, taxonomy["api_reference"].Topics).Has("Endpoints")
	})

	t.Run("rejects collections without descriptions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "taxonomy.toml")
		content := `
[collections.broken]
topics = ["Whatever"]
`
		gt.NoError(t, os.WriteFile(path, []byte(content), 0o644)).Required()

		cfg := config.NewTaxonomy(path)
		_, err := cfg.Configure()
		gt.Error(t, err)
	})

	t.Run("rejects missing files", func(t *testing.T) {
		cfg := config.NewTaxonomy(filepath.Join(t.TempDir(), "absent.toml"))
		_, err := cfg.Configure()
		gt.Error(t, err)
	})
}

func TestLoggerConfigure(t *testing.T) {
	t.Run("accepts valid settings", func(t *testing.T) {
		var cfg config.Logger

		closer, err := config.ConfigureLogger(&cfg, "info", "json", "stderr")
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("rejects unknown levels", func(t *testing.T) {
		var cfg config.Logger

		_, err := config.ConfigureLogger(&cfg, "verbose", "json", "stderr")
		gt.Error(t, err)
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		var cfg config.Logger

		_, err := config.ConfigureLogger(&cfg, "info", "xml", "stderr")
		gt.Error(t, err)
	})
}
