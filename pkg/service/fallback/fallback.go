package fallback

import (
	"strings"

	"github.com/taxon-lab/linnaeus/pkg/domain/model"
)

// ModelName flags results produced without any model call.
const ModelName = "rule-based-fallback"

// Confidence is the fixed low confidence of keyword-based results.
const Confidence = 0.3

// Classifier is the deterministic last resort when every model candidate is
// unavailable. It scores collections by keyword hits of their topics and tags
// against the document content and title.
type Classifier struct {
	taxonomy model.Taxonomy
	keywords map[string][]string
}

// New builds a fallback classifier from the taxonomy. Keywords are the
// lowercased topics and tags of each collection.
func New(taxonomy model.Taxonomy) *Classifier {
	keywords := make(map[string][]string, len(taxonomy))
	for name, c := range taxonomy {
		var words []string
		for _, topic := range c.Topics {
			words = append(words, strings.ToLower(topic))
		}
		for _, tag := range c.Tags {
			words = append(words, strings.ToLower(strings.ReplaceAll(tag, "-", " ")))
		}
		keywords[name] = words
	}
	return &Classifier{taxonomy: taxonomy, keywords: keywords}
}

// Classify produces a clearly flagged low-confidence classification. An
// unmatched document yields an empty collection rather than a guess.
func (c *Classifier) Classify(content, title string) model.Classification {
	haystack := strings.ToLower(content + " " + title)

	var bestName string
	bestScore := 0
	for _, name := range c.taxonomy.Names() {
		score := 0
		for _, keyword := range c.keywords[name] {
			if strings.Contains(haystack, keyword) {
				score++
			}
		}
		if score > bestScore {
			bestName = name
			bestScore = score
		}
	}

	classification := model.Classification{
		Topics:     []string{"General", "Unknown", "Fallback"},
		Tags:       []string{"fallback-classification", "requires-review"},
		Confidence: Confidence,
		ModelUsed:  ModelName,
	}
	if bestName != "" {
		classification.Collection = bestName
		// A collection may declare tags only; there is no topic to prepend then.
		if topics := c.taxonomy[bestName].Topics; len(topics) > 0 {
			classification.Topics = append(topics[:1:1], classification.Topics...)
		}
	}
	return classification
}
