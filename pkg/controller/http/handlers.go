package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
	"github.com/taxon-lab/linnaeus/pkg/utils/errutil"
)

type documentRequest struct {
	Content  string            `json:"content"`
	Title    string            `json:"title"`
	Source   string            `json:"source"`
	ID       string            `json:"id"`
	Role     string            `json:"role"`
	ParentID string            `json:"parent_id"`
	Metadata map[string]string `json:"metadata"`
}

type batchRequest struct {
	Documents []documentRequest `json:"documents"`
}

type queryRequest struct {
	DocumentID       string `json:"document_id"`
	RelationshipType string `json:"relationship_type"`
	Target           string `json:"target"`
}

type responseMetadata struct {
	ProcessingTime float64 `json:"processing_time_seconds"`
	Timestamp      string  `json:"timestamp"`
	ModelUsed      string  `json:"model_used,omitempty"`
}

type successResponse struct {
	Status   string            `json:"status"`
	Data     any               `json:"data"`
	Metadata *responseMetadata `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, data any, meta *responseMetadata) {
	writeJSON(w, http.StatusOK, successResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

func writeError(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  msg,
	})
}

func (r *documentRequest) toDocument() (*model.Document, error) {
	role, err := types.ParseRole(r.Role)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		Content:  r.Content,
		Title:    r.Title,
		Source:   r.Source,
		ID:       r.ID,
		Role:     role,
		Metadata: r.Metadata,
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func resultMetadata(result *model.ClassificationResult) *responseMetadata {
	return &responseMetadata{
		ProcessingTime: result.ProcessingTime,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		ModelUsed:      result.Classification.ModelUsed,
	}
}

func (s *Server) handleClassifyDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := req.toDocument()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.uc.ClassifyDocument(r.Context(), doc)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadGateway)
		return
	}

	writeSuccess(w, result, resultMetadata(result))
}

func (s *Server) handleClassifyChunk(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chunk, err := req.toDocument()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.uc.ClassifyChunk(r.Context(), chunk, req.ParentID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadGateway)
		return
	}

	writeSuccess(w, result, resultMetadata(result))
}

type batchItemResponse struct {
	Source string                      `json:"source"`
	Status string                      `json:"status"`
	Result *model.ClassificationResult `json:"result,omitempty"`
	Error  string                      `json:"error,omitempty"`
}

func (s *Server) handleClassifyBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "batch is empty")
		return
	}
	if len(req.Documents) > MaxBatchSize {
		writeError(w, http.StatusBadRequest,
			goerr.New("batch too large", goerr.V("max", MaxBatchSize)).Error())
		return
	}

	docs := make([]*model.Document, 0, len(req.Documents))
	for _, item := range req.Documents {
		doc, err := item.toDocument()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		docs = append(docs, doc)
	}

	start := time.Now()
	items, err := s.uc.ClassifyBatch(r.Context(), docs)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadGateway)
		return
	}

	resp := make([]batchItemResponse, 0, len(items))
	for _, item := range items {
		out := batchItemResponse{
			Source: item.Source,
			Status: "success",
			Result: item.Result,
		}
		if item.Err != nil {
			out.Status = "error"
			out.Error = item.Err.Error()
		}
		resp = append(resp, out)
	}

	writeSuccess(w, resp, &responseMetadata{
		ProcessingTime: time.Since(start).Seconds(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetRelationships(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	set, err := s.uc.GetRelationships(r.Context(), documentID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	writeSuccess(w, map[string]any{
		"document_id":   documentID,
		"relationships": set,
	}, nil)
}

func (s *Server) handleGetDependencies(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	deps, err := s.uc.GetDependencies(r.Context(), documentID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	if deps == nil {
		deps = []string{}
	}

	writeSuccess(w, map[string]any{
		"document_id":  documentID,
		"dependencies": deps,
	}, nil)
}

func (s *Server) handleQueryRelationships(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	relType := types.RelationshipType(req.RelationshipType)
	if relType != "" && !relType.IsValid() {
		writeError(w, http.StatusBadRequest,
			goerr.New("unknown relationship type", goerr.V("type", relType)).Error())
		return
	}

	facts, err := s.uc.QueryRelationships(r.Context(), &interfaces.RelationshipQuery{
		DocumentID:       req.DocumentID,
		RelationshipType: relType,
		Target:           req.Target,
	})
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	if facts == nil {
		facts = []*model.RelationshipFact{}
	}

	writeSuccess(w, map[string]any{
		"count":   len(facts),
		"results": facts,
	}, nil)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"version":     s.version,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"collections": s.uc.Taxonomy().Names(),
		"components": map[string]string{
			"classifier": "ok",
			"storage":    "ok",
		},
	})
}
