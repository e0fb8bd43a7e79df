package openrouter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taxon-lab/linnaeus/pkg/domain/types"
)

// ClassifyInput carries one classification request. Model overrides the
// configured primary model when set.
type ClassifyInput struct {
	Content string
	Role    types.Role
	Title   string
	Source  string
	URL     string
	Model   string
}

// chatRequest is the OpenRouter chat-completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the chat-completions response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ErrUnauthorized indicates the API rejected our credentials (HTTP 401).
// It is not retried: a bad key does not heal within a retry budget.
var ErrUnauthorized = errors.New("openrouter: unauthorized")

// ExhaustedError is returned when every candidate model exhausted its retry
// budget. It aggregates each candidate's terminal error.
type ExhaustedError struct {
	Candidates []string
	Errs       []error
}

func (e *ExhaustedError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for i, err := range e.Errs {
		msgs = append(msgs, fmt.Sprintf("%s: %v", e.Candidates[i], err))
	}
	return fmt.Sprintf("all %d model candidates exhausted: [%s]", len(e.Candidates), strings.Join(msgs, "; "))
}

func (e *ExhaustedError) Unwrap() []error {
	return e.Errs
}
