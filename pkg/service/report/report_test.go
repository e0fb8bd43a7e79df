package report_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
	"github.com/taxon-lab/linnaeus/pkg/service/report"
)

func TestSave(t *testing.T) {
	ctx := context.Background()
	fixedNow := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	doc := &model.Document{
		Content: "function register_property_block() {}",
		Title:   "Property Block",
		Source:  "wp blocks/guides",
	}
	rels := model.RelationshipSet{}
	rels.Add(types.RelIntegratesWith, "mw_properties_init")
	result := &model.ClassificationResult{
		Classification: model.Classification{
			Collection: "wordpress_block_development",
			Confidence: 0.9,
			ModelUsed:  "deepseek/deepseek-chat-v3",
		},
		Relationships:  rels,
		ProcessingTime: 1.23,
	}

	t.Run("writes enriched report under sanitized source dir", func(t *testing.T) {
		baseDir := t.TempDir()
		w := report.NewWriter(report.NewDirDestination(baseDir),
			report.WithClock(func() time.Time { return fixedNow }))

		relPath, err := w.Save(ctx, doc, result, "property-block.md")
		gt.NoError(t, err).Required()
		gt.Value(t, relPath).Equal("wp_blocksguides/property-block_20260314_092653.json")

		raw, err := os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(relPath)))
		gt.NoError(t, err).Required()

		var rpt report.Report
		gt.NoError(t, json.Unmarshal(raw, &rpt)).Required()

		gt.Value(t, rpt.OriginalDocument["content"]).Equal(doc.Content)
		gt.Value(t, rpt.OriginalMetadata.SourcePath).Equal(doc.Source)
		gt.Value(t, rpt.OriginalMetadata.OriginalFilename).Equal("property-block.md")
		gt.Value(t, rpt.Classification.Collection).Equal("wordpress_block_development")
		gt.Value(t, rpt.ProcessingMetadata.ModelUsed).Equal("deepseek/deepseek-chat-v3")
		gt.Value(t, rpt.ProcessingMetadata.ProcessingTimeSeconds).Equal(1.23)
		gt.Array(t, rpt.Relationships[types.RelIntegratesWith]).Length(1)
	})

	t.Run("empty source and filename fall back to placeholders", func(t *testing.T) {
		baseDir := t.TempDir()
		w := report.NewWriter(report.NewDirDestination(baseDir),
			report.WithClock(func() time.Time { return fixedNow }))

		bare := &model.Document{Content: "x"}
		relPath, err := w.Save(ctx, bare, result, "???")
		gt.NoError(t, err).Required()
		gt.Value(t, relPath).Equal("unknown_source/untitled_20260314_092653.json")
	})
}

func TestSanitizeName(t *testing.T) {
	gt.Value(t, report.SanitizeName("wp blocks/guides")).Equal("wp_blocksguides")
	gt.Value(t, report.SanitizeName("safe-name_1.0")).Equal("safe-name_1.0")
	gt.Value(t, report.SanitizeName("///")).Equal("")
}
