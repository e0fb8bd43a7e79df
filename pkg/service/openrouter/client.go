package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/utils/logging"
	"github.com/taxon-lab/linnaeus/pkg/utils/safe"
)

const (
	// DefaultBaseURL is the OpenRouter chat-completions endpoint
	DefaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"

	// DefaultPrimaryModel is tried first unless the request overrides it
	DefaultPrimaryModel = "deepseek/deepseek-chat-v3"

	defaultMaxAttempts  = 3
	defaultBackoffFloor = 4 * time.Second
	defaultBackoffCeil  = 10 * time.Second
	defaultTimeout      = 30 * time.Second

	maxTokens   = 1000
	temperature = 0.1
)

// DefaultFallbackModels are tried in order after the primary model fails.
func DefaultFallbackModels() []string {
	return []string{
		"anthropic/claude-3-opus",
		"anthropic/claude-3-sonnet",
		"openai/gpt-4-turbo-preview",
	}
}

// Client talks to the OpenRouter chat-completions API with a primary model
// plus ordered fallback strategy and bounded retry per candidate.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	taxonomy     model.Taxonomy
	prompt       PromptBuilder
	primaryModel string
	fallbacks    []string
	maxAttempts  int
	backoffFloor time.Duration
	backoffCeil  time.Duration
	referer      string
	appTitle     string
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each network call to the model provider. Exceeding it
// counts as a failed attempt within the candidate's retry budget.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithModels(primary string, fallbacks ...string) Option {
	return func(c *Client) {
		if primary != "" {
			c.primaryModel = primary
		}
		c.fallbacks = fallbacks
	}
}

func WithRetry(maxAttempts int, floor, ceil time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if floor > 0 {
			c.backoffFloor = floor
		}
		if ceil > 0 {
			c.backoffCeil = ceil
		}
	}
}

// WithAppIdentity sets the descriptive headers OpenRouter uses to attribute
// traffic to a calling application.
func WithAppIdentity(referer, title string) Option {
	return func(c *Client) {
		c.referer = referer
		c.appTitle = title
	}
}

func WithPromptBuilder(builder PromptBuilder) Option {
	return func(c *Client) {
		c.prompt = builder
	}
}

// New creates an OpenRouter client. The taxonomy is rendered into every
// classification prompt and never mutated.
func New(apiKey string, taxonomy model.Taxonomy, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.New("openrouter API key is required")
	}
	if err := taxonomy.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid taxonomy")
	}

	c := &Client{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		taxonomy:     taxonomy,
		prompt:       NewPromptBuilder(),
		primaryModel: DefaultPrimaryModel,
		fallbacks:    DefaultFallbackModels(),
		maxAttempts:  defaultMaxAttempts,
		backoffFloor: defaultBackoffFloor,
		backoffCeil:  defaultBackoffCeil,
		referer:      "https://github.com/taxon-lab/linnaeus",
		appTitle:     "Linnaeus Classification Service",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Classify runs the candidate-model loop: the requested (or primary) model
// first, then each fallback in order. The first candidate that answers wins;
// when every candidate exhausts its retries the returned error is an
// *ExhaustedError aggregating each candidate's failure.
func (c *Client) Classify(ctx context.Context, input *ClassifyInput) (*model.Classification, error) {
	logger := logging.From(ctx)

	requested := input.Model
	if requested == "" {
		requested = c.primaryModel
	}
	candidates := append([]string{requested}, c.fallbacks...)

	prompt, err := c.prompt.Build(input, c.taxonomy)
	if err != nil {
		return nil, err
	}

	var candidateErrs []error
	for _, candidate := range candidates {
		classification, err := c.classifyWithModel(ctx, candidate, prompt)
		if err == nil {
			return classification, nil
		}

		logger.Warn("model candidate failed",
			"model", candidate,
			"error", err.Error(),
		)
		candidateErrs = append(candidateErrs, err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, &ExhaustedError{
		Candidates: candidates[:len(candidateErrs)],
		Errs:       candidateErrs,
	}
}

// classifyWithModel performs one candidate's bounded retry loop.
func (c *Client) classifyWithModel(ctx context.Context, modelID, prompt string) (*model.Classification, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, goerr.Wrap(ctx.Err(), "classification cancelled", goerr.V("model", modelID))
			case <-time.After(c.backoffDelay(attempt)):
			}
		}

		reply, err := c.send(ctx, modelID, prompt)
		if err != nil {
			lastErr = err
			// A rejected credential will not heal within the retry budget
			if goerr.HasTag(err, tagUnauthorized) {
				break
			}
			continue
		}

		classification := parseClassification(reply, modelID)
		return &classification, nil
	}

	return nil, goerr.Wrap(lastErr, "model attempts exhausted",
		goerr.V("model", modelID),
		goerr.V("attempts", c.maxAttempts),
	)
}

// backoffDelay doubles from the floor per attempt, capped at the ceiling.
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.backoffFloor << (attempt - 1)
	if delay > c.backoffCeil {
		return c.backoffCeil
	}
	return delay
}

var tagUnauthorized = goerr.NewTag("unauthorized")

// send performs one chat-completions call and returns the reply text.
func (c *Client) send(ctx context.Context, modelID, prompt string) (string, error) {
	body, err := json.Marshal(&chatRequest{
		Model:       modelID,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", goerr.Wrap(err, "failed to build chat request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.referer)
	req.Header.Set("X-Title", c.appTitle)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "chat request failed", goerr.V("model", modelID))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return "", goerr.Wrap(ErrUnauthorized, "chat request rejected",
			goerr.V("model", modelID),
			goerr.T(tagUnauthorized),
		)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", goerr.New("unexpected status from model provider",
			goerr.V("model", modelID),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(snippet)),
		)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", goerr.Wrap(err, "failed to decode chat response", goerr.V("model", modelID))
	}
	if len(parsed.Choices) == 0 {
		return "", goerr.New("chat response has no choices", goerr.V("model", modelID))
	}

	return parsed.Choices[0].Message.Content, nil
}
