package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/taxon-lab/linnaeus/pkg/cli/config"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
	"github.com/taxon-lab/linnaeus/pkg/service/fallback"
	"github.com/taxon-lab/linnaeus/pkg/service/report"
	"github.com/taxon-lab/linnaeus/pkg/usecase"
	"github.com/taxon-lab/linnaeus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// documentFile is the JSON input shape accepted by the classify command.
// Plain text and markdown files are read as raw content instead.
type documentFile struct {
	Content  string            `json:"content"`
	Title    string            `json:"title"`
	Source   string            `json:"source"`
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

var classifiableExts = map[string]bool{
	".json": true,
	".md":   true,
	".txt":  true,
	".html": true,
}

func cmdClassify() *cli.Command {
	var file string
	var dir string
	var recursive bool
	var roleName string
	var outputDir string
	var cacheTTL time.Duration
	var repoCfg config.Repository
	var llmCfg config.LLM
	var taxonomyCfg config.Taxonomy

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "Classify a single document file",
			Destination: &file,
		},
		&cli.StringFlag{
			Name:        "directory",
			Aliases:     []string{"d"},
			Usage:       "Classify every document in a directory",
			Destination: &dir,
		},
		&cli.BoolFlag{
			Name:        "recursive",
			Aliases:     []string{"r"},
			Usage:       "Descend into subdirectories",
			Destination: &recursive,
		},
		&cli.StringFlag{
			Name:        "role",
			Usage:       "Classification role perspective (CODE or ARCHITECT)",
			Sources:     cli.EnvVars("LINNAEUS_ROLE"),
			Destination: &roleName,
		},
		&cli.StringFlag{
			Name:        "output-dir",
			Aliases:     []string{"o"},
			Usage:       "Directory (or gs://bucket/prefix) for enriched classification reports",
			Sources:     cli.EnvVars("LINNAEUS_OUTPUT_DIR"),
			Destination: &outputDir,
		},
		&cli.DurationFlag{
			Name:        "cache-ttl",
			Usage:       "How long classification results stay cached",
			Value:       usecase.DefaultCacheTTL,
			Sources:     cli.EnvVars("LINNAEUS_CACHE_TTL"),
			Destination: &cacheTTL,
		},
	}

	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, taxonomyCfg.Flags()...)

	return &cli.Command{
		Name:    "classify",
		Aliases: []string{"c"},
		Usage:   "Classify documents from files",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if file == "" && dir == "" {
				return goerr.New("either --file or --directory is required")
			}

			role, err := types.ParseRole(roleName)
			if err != nil {
				return err
			}

			paths, err := collectInputs(file, dir, recursive)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return goerr.New("no classifiable documents found", goerr.V("directory", dir))
			}

			taxonomy, err := taxonomyCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load taxonomy")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			client, err := llmCfg.Configure(taxonomy)
			if err != nil {
				return goerr.Wrap(err, "failed to configure model client")
			}

			ucOpts := []usecase.Option{
				usecase.WithCacheTTL(cacheTTL),
			}
			if llmCfg.EnableFallback() {
				ucOpts = append(ucOpts, usecase.WithFallback(fallback.New(taxonomy)))
			}
			if outputDir != "" {
				dest, err := newDestination(ctx, outputDir)
				if err != nil {
					return goerr.Wrap(err, "failed to configure report destination")
				}
				ucOpts = append(ucOpts, usecase.WithReportWriter(report.NewWriter(dest)))
			}

			uc := usecase.New(repo, client, taxonomy, ucOpts...)

			batchID := uuid.NewString()
			logging.Default().Info("Starting classification batch",
				"batch_id", batchID, "documents", len(paths), "role", role)

			succeeded := 0
			failed := 0
			for _, path := range paths {
				doc, err := loadDocument(path, role)
				if err != nil {
					color.Red("✗ %s: %v", path, err)
					failed++
					continue
				}

				result, err := uc.ClassifyDocument(ctx, doc)
				if err != nil {
					color.Red("✗ %s: %v", path, err)
					failed++
					continue
				}

				color.Green("✓ %s → %s (%.2f, %s)",
					path,
					result.Classification.Collection,
					result.Classification.Confidence,
					result.Classification.ModelUsed,
				)
				succeeded++
			}

			fmt.Printf("\nBatch %s: %d classified, %d failed\n", batchID, succeeded, failed)
			if failed > 0 {
				return goerr.New("some documents failed to classify",
					goerr.V("batch_id", batchID), goerr.V("failed", failed))
			}
			return nil
		},
	}
}

func collectInputs(file, dir string, recursive bool) ([]string, error) {
	if file != "" {
		return []string{file}, nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if classifiableExts[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to scan directory", goerr.V("directory", dir))
	}
	return paths, nil
}

func loadDocument(path string, role types.Role) (*model.Document, error) {
	// #nosec G304 - path comes from CLI arguments
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read document", goerr.V("path", path))
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := &model.Document{
		Title:  stem,
		Source: filepath.Base(filepath.Dir(path)),
		Role:   role,
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var df documentFile
		if err := json.Unmarshal(data, &df); err != nil {
			return nil, goerr.Wrap(err, "failed to parse document JSON", goerr.V("path", path))
		}
		doc.Content = df.Content
		doc.ID = df.ID
		doc.Metadata = df.Metadata
		if df.Title != "" {
			doc.Title = df.Title
		}
		if df.Source != "" {
			doc.Source = df.Source
		}
	} else {
		doc.Content = string(data)
	}

	if doc.Metadata == nil {
		doc.Metadata = map[string]string{}
	}
	doc.Metadata["filename"] = filepath.Base(path)

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// newDestination resolves an output location: gs://bucket/prefix goes to
// Cloud Storage, everything else is a local directory.
func newDestination(ctx context.Context, outputDir string) (report.Destination, error) {
	if rest, ok := strings.CutPrefix(outputDir, "gs://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, goerr.New("invalid GCS output location", goerr.V("output", outputDir))
		}
		return report.NewGCSDestination(ctx, bucket, strings.TrimSuffix(prefix, "/"))
	}
	return report.NewDirDestination(outputDir), nil
}
