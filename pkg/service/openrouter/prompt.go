package openrouter

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
)

// PromptContentLimit caps how much document content is embedded in the
// prompt. Truncated content is marked with an ellipsis.
const PromptContentLimit = 2000

//go:embed prompt/classify.md
var classifyPromptTmpl string

var classifyPrompt = template.Must(
	template.New("classify").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(classifyPromptTmpl),
)

// PromptBuilder renders a classification prompt from a request and the
// taxonomy. It is isolated behind an interface so the prompt format can be
// swapped or tested without touching retry/fallback logic.
type PromptBuilder interface {
	Build(input *ClassifyInput, taxonomy model.Taxonomy) (string, error)
}

type templatePromptBuilder struct{}

// NewPromptBuilder returns the default template-based prompt builder.
func NewPromptBuilder() PromptBuilder {
	return &templatePromptBuilder{}
}

type promptCollection struct {
	Name        string
	Description string
	Topics      []string
	Tags        []string
}

type promptData struct {
	Collections     []promptCollection
	Title           string
	Source          string
	URL             string
	Content         string
	RoleInstruction string
}

func (b *templatePromptBuilder) Build(input *ClassifyInput, taxonomy model.Taxonomy) (string, error) {
	collections := make([]promptCollection, 0, len(taxonomy))
	for _, name := range taxonomy.Names() {
		c := taxonomy[name]
		collections = append(collections, promptCollection{
			Name:        name,
			Description: c.Description,
			Topics:      c.Topics,
			Tags:        c.Tags,
		})
	}

	content := input.Content
	if runes := []rune(content); len(runes) > PromptContentLimit {
		content = string(runes[:PromptContentLimit]) + "..."
	}

	title := input.Title
	if title == "" {
		title = "Untitled"
	}

	data := promptData{
		Collections:     collections,
		Title:           title,
		Source:          input.Source,
		URL:             input.URL,
		Content:         content,
		RoleInstruction: roleInstruction(input.Role),
	}

	var buf bytes.Buffer
	if err := classifyPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render classification prompt")
	}
	return buf.String(), nil
}

func roleInstruction(role types.Role) string {
	switch role {
	case types.RoleCode:
		return "Focus on implementation details, code quality, and production readiness."
	case types.RoleArchitect:
		return "Focus on system design patterns and architectural considerations."
	default:
		return "Provide a general classification of the content."
	}
}
