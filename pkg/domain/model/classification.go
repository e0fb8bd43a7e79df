package model

// Classification is the structured output of a model call.
type Classification struct {
	SectionHierarchy []string `json:"section_hierarchy"`
	Tags             []string `json:"tags"`
	RefinedSource    string   `json:"refined_source"`
	Collection       string   `json:"collection"`
	Topics           []string `json:"topics"`
	Confidence       float64  `json:"confidence"`
	ModelUsed        string   `json:"model_used"`
}

// ClassificationResult is the unit returned to callers and stored in the
// cache. A cache hit is indistinguishable in shape from a fresh result.
type ClassificationResult struct {
	Classification Classification  `json:"classification"`
	Relationships  RelationshipSet `json:"relationships"`
	ProcessingTime float64         `json:"processing_time_seconds"`
}
