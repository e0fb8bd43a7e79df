package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
)

// Document is a unit of input for classification. Documents are owned by the
// caller and never mutated by the pipeline.
type Document struct {
	Content  string            `json:"content"`
	Title    string            `json:"title,omitempty"`
	Source   string            `json:"source"`
	ID       string            `json:"id,omitempty"`
	Role     types.Role        `json:"role,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks that the document carries the fields the pipeline requires.
// Validation failures must be rejected before any model call is made.
func (d *Document) Validate() error {
	if d.Content == "" {
		return goerr.New("document content is required", goerr.V("source", d.Source), goerr.V("id", d.ID))
	}
	if !d.Role.IsValid() {
		return goerr.New("invalid document role", goerr.V("role", d.Role), goerr.V("source", d.Source))
	}
	return nil
}

// URL returns the document URL from metadata, if the caller provided one.
func (d *Document) URL() string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata["url"]
}
