package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taxon-lab/linnaeus/pkg/cli/config"
	"github.com/taxon-lab/linnaeus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdCache() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the classification cache",
		Commands: []*cli.Command{
			cmdCacheClear(),
		},
	}
}

func cmdCacheClear() *cli.Command {
	var pattern string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "pattern",
			Aliases:     []string{"p"},
			Usage:       "Key pattern to clear (\"*\" clears everything, plain text matches as substring)",
			Value:       "*",
			Destination: &pattern,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "clear",
		Usage: "Remove cached classification results",
		Flags: flags,
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

			count, err := repo.Cache().Clear(ctx, pattern)
			if err != nil {
				return goerr.Wrap(err, "failed to clear cache", goerr.V("pattern", pattern))
			}

			fmt.Printf("Cleared %d cached entries\n", count)
			return nil
		},
	}
}
