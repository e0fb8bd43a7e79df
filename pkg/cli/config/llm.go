package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/service/openrouter"
	"github.com/urfave/cli/v3"
)

// LLM holds CLI flags for the OpenRouter model client
type LLM struct {
	apiKey         string
	baseURL        string
	model          string
	fallbackModels []string
	timeout        time.Duration
	maxAttempts    int
	backoffFloor   time.Duration
	backoffCeil    time.Duration
	referer        string
	title          string
	enableFallback bool
}

func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "openrouter-api-key",
			Usage:       "OpenRouter API key",
			Required:    true,
			Sources:     cli.EnvVars("LINNAEUS_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"),
			Destination: &l.apiKey,
		},
		&cli.StringFlag{
			Name:        "openrouter-base-url",
			Usage:       "OpenRouter chat completions endpoint",
			Value:       openrouter.DefaultBaseURL,
			Sources:     cli.EnvVars("LINNAEUS_OPENROUTER_BASE_URL"),
			Destination: &l.baseURL,
		},
		&cli.StringFlag{
			Name:        "model",
			Usage:       "Primary model for classification",
			Value:       openrouter.DefaultPrimaryModel,
			Sources:     cli.EnvVars("LINNAEUS_MODEL"),
			Destination: &l.model,
		},
		&cli.StringSliceFlag{
			Name:        "fallback-model",
			Usage:       "Fallback models tried in order when the primary is exhausted",
			Value:       openrouter.DefaultFallbackModels(),
			Sources:     cli.EnvVars("LINNAEUS_FALLBACK_MODELS"),
			Destination: &l.fallbackModels,
		},
		&cli.DurationFlag{
			Name:        "model-timeout",
			Usage:       "Per-request timeout for model calls",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("LINNAEUS_MODEL_TIMEOUT"),
			Destination: &l.timeout,
		},
		&cli.IntFlag{
			Name:        "model-max-attempts",
			Usage:       "Attempts per model before moving to the next candidate",
			Value:       3,
			Sources:     cli.EnvVars("LINNAEUS_MODEL_MAX_ATTEMPTS"),
			Destination: &l.maxAttempts,
		},
		&cli.DurationFlag{
			Name:        "model-backoff-floor",
			Usage:       "Initial retry backoff",
			Value:       4 * time.Second,
			Sources:     cli.EnvVars("LINNAEUS_MODEL_BACKOFF_FLOOR"),
			Destination: &l.backoffFloor,
		},
		&cli.DurationFlag{
			Name:        "model-backoff-ceil",
			Usage:       "Maximum retry backoff",
			Value:       10 * time.Second,
			Sources:     cli.EnvVars("LINNAEUS_MODEL_BACKOFF_CEIL"),
			Destination: &l.backoffCeil,
		},
		&cli.StringFlag{
			Name:        "app-referer",
			Usage:       "HTTP-Referer header sent to OpenRouter",
			Value:       "https://github.com/taxon-lab/linnaeus",
			Sources:     cli.EnvVars("LINNAEUS_APP_REFERER"),
			Destination: &l.referer,
		},
		&cli.StringFlag{
			Name:        "app-title",
			Usage:       "X-Title header sent to OpenRouter",
			Value:       "linnaeus",
			Sources:     cli.EnvVars("LINNAEUS_APP_TITLE"),
			Destination: &l.title,
		},
		&cli.BoolFlag{
			Name:        "enable-fallback-classifier",
			Usage:       "Use the rule-based classifier when all model candidates fail",
			Value:       true,
			Sources:     cli.EnvVars("LINNAEUS_ENABLE_FALLBACK_CLASSIFIER"),
			Destination: &l.enableFallback,
		},
	}
}

// EnableFallback reports whether the rule-based fallback classifier is
// enabled.
func (l *LLM) EnableFallback() bool {
	return l.enableFallback
}

// Configure builds the OpenRouter client from the flags.
func (l *LLM) Configure(taxonomy model.Taxonomy) (*openrouter.Client, error) {
	if l.apiKey == "" {
		return nil, goerr.New("openrouter-api-key is required")
	}

	return openrouter.New(l.apiKey, taxonomy,
		openrouter.WithBaseURL(l.baseURL),
		openrouter.WithModels(l.model, l.fallbackModels...),
		openrouter.WithTimeout(l.timeout),
		openrouter.WithRetry(l.maxAttempts, l.backoffFloor, l.backoffCeil),
		openrouter.WithAppIdentity(l.referer, l.title),
	)
}
