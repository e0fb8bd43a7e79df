package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/taxon-lab/linnaeus/pkg/controller/http"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
	"github.com/taxon-lab/linnaeus/pkg/repository/memory"
	"github.com/taxon-lab/linnaeus/pkg/service/openrouter"
	"github.com/taxon-lab/linnaeus/pkg/usecase"
)

type stubClient struct {
	err error
}

func (s *stubClient) Classify(ctx context.Context, input *openrouter.ClassifyInput) (*model.Classification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Classification{
		SectionHierarchy: []string{"Guides"},
		Tags:             []string{"blocks"},
		RefinedSource:    input.Source + "/guides",
		Collection:       "wordpress_block_development",
		Topics:           []string{"Block Development"},
		Confidence:       0.9,
		ModelUsed:        "deepseek/deepseek-chat-v3",
	}, nil
}

func newTestServer(t *testing.T, opts ...httpctrl.Options) (*httptest.Server, *memory.Repository) {
	t.Helper()

	repo := memory.New()
	uc := usecase.New(repo, &stubClient{}, model.DefaultTaxonomy())
	srv := httptest.NewServer(httpctrl.New(uc, opts...))
	t.Cleanup(srv.Close)
	return srv, repo
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	gt.NoError(t, err).Required()

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	gt.NoError(t, err).Required()
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	defer resp.Body.Close()
	var body map[string]any
	gt.NoError(t, json.NewDecoder(resp.Body).Decode(&body)).Required()
	return body
}

func TestClassifyDocumentEndpoint(t *testing.T) {
	t.Run("classifies a document and wraps the result", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp := postJSON(t, srv.URL+"/api/v1/classify/document", map[string]any{
			"content": "Use add_action('mw_properties_init', 'cb') for registration.",
			"title":   "Hooking property registration",
			"source":  "wp_blocks",
			"id":      "doc1",
		})
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)

		body := decodeBody(t, resp)
		gt.Value(t, body["status"]).Equal("success")

		data := body["data"].(map[string]any)
		classification := data["classification"].(map[string]any)
		gt.Value(t, classification["collection"]).Equal("wordpress_block_development")

		meta := body["metadata"].(map[string]any)
		gt.Value(t, meta["model_used"]).Equal("deepseek/deepseek-chat-v3")
	})

	t.Run("persists extracted relationships", func(t *testing.T) {
		srv, repo := newTestServer(t)

		resp := postJSON(t, srv.URL+"/api/v1/classify/document", map[string]any{
			"content": "Call add_action('mw_properties_init', 'cb') on init.",
			"source":  "wp_blocks",
			"id":      "doc1",
		})
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
		resp.Body.Close()

		set, err := repo.Relationship().Get(context.Background(), "doc1")
		gt.NoError(t, err).Required()
		gt.Array(t, set[types.RelIntegratesWith]).Has("mw_properties_init")
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp, err := http.Post(srv.URL+"/api/v1/classify/document", "application/json",
			strings.NewReader("{not json"))
		gt.NoError(t, err).Required()
		defer resp.Body.Close()
		gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
	})

	t.Run("rejects documents without content", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp := postJSON(t, srv.URL+"/api/v1/classify/document", map[string]any{
			"source": "wp_blocks",
		})
		defer resp.Body.Close()
		gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp := postJSON(t, srv.URL+"/api/v1/classify/document", map[string]any{
			"content": "some content",
			"source":  "wp_blocks",
			"role":    "MANAGER",
		})
		defer resp.Body.Close()
		gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
	})
}

func TestClassifyChunkEndpoint(t *testing.T) {
	t.Run("links the chunk to its parent", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp := postJSON(t, srv.URL+"/api/v1/classify/chunk", map[string]any{
			"content":   "The render callback requires WP_Block.",
			"source":    "wp_blocks",
			"parent_id": "parent-doc",
		})
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)

		body := decodeBody(t, resp)
		data := body["data"].(map[string]any)
		rels := data["relationships"].(map[string]any)
		related := rels["related_to"].([]any)
		gt.Value(t, related[0]).Equal("parent-doc")
	})
}

func TestClassifyBatchEndpoint(t *testing.T) {
	t.Run("classifies all documents", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp := postJSON(t, srv.URL+"/api/v1/classify/batch", map[string]any{
			"documents": []map[string]any{
				{"content": "Block registration.", "source": "wp_blocks"},
				{"content": "Theme templates.", "source": "wp_themes"},
			},
		})
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)

		body := decodeBody(t, resp)
		items := body["data"].([]any)
		gt.Value(t, len(items)).Equal(2)
		first := items[0].(map[string]any)
		gt.Value(t, first["status"]).Equal("success")
	})

	t.Run("rejects oversized batches", func(t *testing.T) {
		srv, _ := newTestServer(t)

		docs := make([]map[string]any, httpctrl.MaxBatchSize+1)
		for i := range docs {
			docs[i] = map[string]any{
				"content": fmt.Sprintf("document %d", i),
				"source":  "wp_blocks",
			}
		}
		resp := postJSON(t, srv.URL+"/api/v1/classify/batch", map[string]any{"documents": docs})
		defer resp.Body.Close()
		gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
	})

	t.Run("rejects empty batches", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp := postJSON(t, srv.URL+"/api/v1/classify/batch", map[string]any{"documents": []any{}})
		defer resp.Body.Close()
		gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
	})
}

func TestRelationshipEndpoints(t *testing.T) {
	seed := func(t *testing.T, repo *memory.Repository) {
		t.Helper()
		gt.NoError(t, repo.Relationship().Store(context.Background(), "doc1", model.RelationshipSet{
			types.RelRequires:      {"WP_Block"},
			types.RelPrerequisites: {"PHP 8.0"},
			types.RelExtends:       {"WP_REST_Controller"},
		})).Required()
	}

	t.Run("GET relationships returns the grouped set", func(t *testing.T) {
		srv, repo := newTestServer(t)
		seed(t, repo)

		resp, err := http.Get(srv.URL + "/api/v1/relationships/doc1")
		gt.NoError(t, err).Required()
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)

		body := decodeBody(t, resp)
		data := body["data"].(map[string]any)
		gt.Value(t, data["document_id"]).Equal("doc1")
		rels := data["relationships"].(map[string]any)
		requires := rels["requires"].([]any)
		gt.Value(t, requires[0]).Equal("WP_Block")
	})

	t.Run("GET dependencies merges requires and prerequisites", func(t *testing.T) {
		srv, repo := newTestServer(t)
		seed(t, repo)

		resp, err := http.Get(srv.URL + "/api/v1/relationships/dependencies/doc1")
		gt.NoError(t, err).Required()
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)

		body := decodeBody(t, resp)
		data := body["data"].(map[string]any)
		deps := data["dependencies"].([]any)
		gt.Value(t, len(deps)).Equal(2)
	})

	t.Run("POST query filters facts", func(t *testing.T) {
		srv, repo := newTestServer(t)
		seed(t, repo)

		resp := postJSON(t, srv.URL+"/api/v1/relationships/query", map[string]any{
			"document_id":       "doc1",
			"relationship_type": "requires",
		})
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)

		body := decodeBody(t, resp)
		data := body["data"].(map[string]any)
		gt.Value(t, data["count"]).Equal(float64(1))
		results := data["results"].([]any)
		fact := results[0].(map[string]any)
		gt.Value(t, fact["target"]).Equal("WP_Block")
	})

	t.Run("POST query rejects unknown types", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp := postJSON(t, srv.URL+"/api/v1/relationships/query", map[string]any{
			"relationship_type": "depends_on",
		})
		defer resp.Body.Close()
		gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
	})

	t.Run("POST query surfaces storage failures as server errors", func(t *testing.T) {
		repo := &failingRepo{Repository: memory.New()}
		uc := usecase.New(repo, &stubClient{}, model.DefaultTaxonomy())
		srv := httptest.NewServer(httpctrl.New(uc))
		t.Cleanup(srv.Close)

		resp := postJSON(t, srv.URL+"/api/v1/relationships/query", map[string]any{
			"document_id": "doc1",
		})
		gt.Value(t, resp.StatusCode).Equal(http.StatusInternalServerError)

		body := decodeBody(t, resp)
		gt.Value(t, body["status"]).Equal("error")
	})
}

type failingRepo struct {
	interfaces.Repository
}

func (f *failingRepo) Relationship() interfaces.RelationshipRepository {
	return &failingRelationships{}
}

type failingRelationships struct {
	interfaces.RelationshipRepository
}

func (f *failingRelationships) Query(ctx context.Context, query *interfaces.RelationshipQuery) ([]*model.RelationshipFact, error) {
	return nil, errors.New("storage unavailable")
}

func TestAPIKeyAuth(t *testing.T) {
	t.Run("rejects requests without the key", func(t *testing.T) {
		srv, _ := newTestServer(t, httpctrl.WithAPIKey("secret-key"))

		resp := postJSON(t, srv.URL+"/api/v1/classify/document", map[string]any{
			"content": "some content",
			"source":  "wp_blocks",
		})
		defer resp.Body.Close()
		gt.Value(t, resp.StatusCode).Equal(http.StatusUnauthorized)
	})

	t.Run("accepts requests with the key", func(t *testing.T) {
		srv, _ := newTestServer(t, httpctrl.WithAPIKey("secret-key"))

		data, err := json.Marshal(map[string]any{
			"content": "some content",
			"source":  "wp_blocks",
		})
		gt.NoError(t, err).Required()

		req, err := http.NewRequest(http.MethodPost,
			srv.URL+"/api/v1/classify/document", bytes.NewReader(data))
		gt.NoError(t, err).Required()
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", "secret-key")

		resp, err := http.DefaultClient.Do(req)
		gt.NoError(t, err).Required()
		defer resp.Body.Close()
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
	})

	t.Run("health stays open", func(t *testing.T) {
		srv, _ := newTestServer(t, httpctrl.WithAPIKey("secret-key"))

		resp, err := http.Get(srv.URL + "/health")
		gt.NoError(t, err).Required()
		defer resp.Body.Close()
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("throttles a client over its budget", func(t *testing.T) {
		srv, _ := newTestServer(t, httpctrl.WithRateLimit(2))

		var last int
		for i := 0; i < 3; i++ {
			resp, err := http.Get(srv.URL + "/api/v1/relationships/doc1")
			gt.NoError(t, err).Required()
			resp.Body.Close()
			last = resp.StatusCode
		}
		gt.Value(t, last).Equal(http.StatusTooManyRequests)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("basic health", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp, err := http.Get(srv.URL + "/health")
		gt.NoError(t, err).Required()
		body := decodeBody(t, resp)
		gt.Value(t, body["status"]).Equal("healthy")
	})

	t.Run("detailed health reports collections", func(t *testing.T) {
		srv, _ := newTestServer(t, httpctrl.WithVersion("v1.2.3"))

		resp, err := http.Get(srv.URL + "/health/detailed")
		gt.NoError(t, err).Required()
		body := decodeBody(t, resp)
		gt.Value(t, body["status"]).Equal("healthy")
		gt.Value(t, body["version"]).Equal("v1.2.3")
		collections := body["collections"].([]any)
		gt.Value(t, len(collections)).Equal(3)
	})
}
