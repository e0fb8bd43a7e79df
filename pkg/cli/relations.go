package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taxon-lab/linnaeus/pkg/cli/config"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
	"github.com/taxon-lab/linnaeus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdRelations() *cli.Command {
	var documentID string
	var relType string
	var target string
	var dependencies bool
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "document-id",
			Aliases:     []string{"i"},
			Usage:       "Filter by document ID",
			Destination: &documentID,
		},
		&cli.StringFlag{
			Name:        "type",
			Aliases:     []string{"t"},
			Usage:       "Filter by relationship type (requires, integrates_with, extends, related_to, prerequisites)",
			Destination: &relType,
		},
		&cli.StringFlag{
			Name:        "target",
			Usage:       "Filter by target substring",
			Destination: &target,
		},
		&cli.BoolFlag{
			Name:        "dependencies",
			Usage:       "Print only the dependency targets (requires and prerequisites) of --document-id",
			Destination: &dependencies,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "relations",
		Aliases: []string{"r"},
		Usage:   "Query stored document relationships",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			if dependencies {
				if documentID == "" {
					return goerr.New("document-id is required with --dependencies")
				}
				set, err := repo.Relationship().Get(ctx, documentID)
				if err != nil {
					return err
				}
				deps := map[string]bool{}
				for _, t := range set[types.RelRequires] {
					deps[t] = true
				}
				for _, t := range set[types.RelPrerequisites] {
					deps[t] = true
				}
				for _, t := range sortedKeys(deps) {
					fmt.Println(t)
				}
				return nil
			}

			query := &interfaces.RelationshipQuery{
				DocumentID:       documentID,
				RelationshipType: types.RelationshipType(relType),
				Target:           target,
			}
			if query.RelationshipType != "" && !query.RelationshipType.IsValid() {
				return goerr.New("unknown relationship type", goerr.V("type", relType))
			}

			facts, err := repo.Relationship().Query(ctx, query)
			if err != nil {
				return err
			}
			return enc.Encode(facts)
		},
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
