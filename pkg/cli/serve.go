package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taxon-lab/linnaeus/pkg/cli/config"
	httpctrl "github.com/taxon-lab/linnaeus/pkg/controller/http"
	"github.com/taxon-lab/linnaeus/pkg/service/fallback"
	"github.com/taxon-lab/linnaeus/pkg/usecase"
	"github.com/taxon-lab/linnaeus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var apiKey string
	var rateLimit int
	var cacheTTL time.Duration
	var repoCfg config.Repository
	var llmCfg config.LLM
	var taxonomyCfg config.Taxonomy

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("LINNAEUS_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "api-key",
			Usage:       "API key required in the X-API-Key header (auth disabled when empty)",
			Sources:     cli.EnvVars("LINNAEUS_API_KEY"),
			Destination: &apiKey,
		},
		&cli.IntFlag{
			Name:        "rate-limit",
			Usage:       "Per-client requests per hour (0 disables rate limiting)",
			Value:       httpctrl.DefaultRateLimit,
			Sources:     cli.EnvVars("LINNAEUS_RATE_LIMIT"),
			Destination: &rateLimit,
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
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the classification HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
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
				logging.Default().Info("Rule-based fallback classifier enabled")
			}

			uc := usecase.New(repo, client, taxonomy, ucOpts...)

			httpOpts := []httpctrl.Options{
				httpctrl.WithRateLimit(rateLimit),
				httpctrl.WithVersion(c.Root().Version),
			}
			if apiKey != "" {
				httpOpts = append(httpOpts, httpctrl.WithAPIKey(apiKey))
				logging.Default().Info("API key authentication enabled")
			} else {
				logging.Default().Warn("API key not configured, endpoints are open")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
