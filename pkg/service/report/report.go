package report

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
)

// Report is the enriched JSON document persisted after classification:
// the original content plus classification, relationships and processing
// metadata.
type Report struct {
	OriginalDocument   map[string]any        `json:"original_document"`
	OriginalMetadata   OriginalMetadata      `json:"original_metadata"`
	Classification     model.Classification  `json:"classification_results"`
	Relationships      model.RelationshipSet `json:"relationships"`
	ProcessingMetadata ProcessingMetadata    `json:"processing_metadata"`
}

type OriginalMetadata struct {
	SourcePath         string `json:"source_path"`
	OriginalFilename   string `json:"original_filename"`
	TimestampProcessed string `json:"timestamp_processed"`
}

type ProcessingMetadata struct {
	ModelUsed             string  `json:"model_used"`
	Confidence            float64 `json:"confidence"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

// Destination persists a rendered report under a relative path.
type Destination interface {
	Write(ctx context.Context, relPath string, data []byte) error
}

// Writer renders classification results into reports and hands them to a
// destination. The target directory is derived from the document source.
type Writer struct {
	dest Destination
	now  func() time.Time
}

type Option func(*Writer)

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

func NewWriter(dest Destination, opts ...Option) *Writer {
	w := &Writer{
		dest: dest,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Save writes the enriched report and returns the relative path it was
// stored under.
func (w *Writer) Save(ctx context.Context, doc *model.Document, result *model.ClassificationResult, originalFilename string) (string, error) {
	now := w.now()

	original := map[string]any{"content": doc.Content}
	if doc.Title != "" {
		original["title"] = doc.Title
	}

	rpt := &Report{
		OriginalDocument: original,
		OriginalMetadata: OriginalMetadata{
			SourcePath:         doc.Source,
			OriginalFilename:   originalFilename,
			TimestampProcessed: now.Format(time.RFC3339),
		},
		Classification: result.Classification,
		Relationships:  result.Relationships,
		ProcessingMetadata: ProcessingMetadata{
			ModelUsed:             result.Classification.ModelUsed,
			Confidence:            result.Classification.Confidence,
			ProcessingTimeSeconds: result.ProcessingTime,
		},
	}

	data, err := json.MarshalIndent(rpt, "", "  ")
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode report", goerr.V("source", doc.Source))
	}

	dir := SanitizeName(doc.Source)
	if dir == "" {
		dir = "unknown_source"
	}
	stem := SanitizeName(strings.TrimSuffix(originalFilename, path.Ext(originalFilename)))
	if stem == "" {
		stem = "untitled"
	}
	relPath := path.Join(dir, stem+"_"+now.Format("20060102_150405")+".json")

	if err := w.dest.Write(ctx, relPath, data); err != nil {
		return "", goerr.Wrap(err, "failed to write report", goerr.V("path", relPath))
	}
	return relPath, nil
}

// SanitizeName reduces a source or filename to a safe path segment: only
// alphanumerics and ". _ -" survive, and spaces become underscores.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
}
