package openrouter

import (
	"encoding/json"
	"strings"

	"github.com/taxon-lab/linnaeus/pkg/domain/model"
)

// replySchema is the JSON shape the model is instructed to produce.
type replySchema struct {
	SectionHierarchy []string `json:"section_hierarchy"`
	Tags             []string `json:"tags"`
	RefinedSource    string   `json:"refined_source"`
	Collection       string   `json:"collection"`
	Topics           []string `json:"topics"`
	Confidence       float64  `json:"confidence"`
}

// parseClassification turns a model reply into a Classification. The reply
// may be wrapped in a fenced code block. A malformed reply degrades to a
// zero-valued classification with confidence 0.0 instead of failing: the
// pipeline must not abort on a model that answered badly.
func parseClassification(reply, modelID string) model.Classification {
	var parsed replySchema
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &parsed); err != nil {
		return model.Classification{ModelUsed: modelID}
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return model.Classification{
		SectionHierarchy: parsed.SectionHierarchy,
		Tags:             parsed.Tags,
		RefinedSource:    parsed.RefinedSource,
		Collection:       parsed.Collection,
		Topics:           parsed.Topics,
		Confidence:       confidence,
		ModelUsed:        modelID,
	}
}

// stripCodeFence removes a surrounding markdown code fence, with or without a
// language marker.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop a language marker like "json" on the opening fence line
		if !strings.ContainsAny(s[:idx], "{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
