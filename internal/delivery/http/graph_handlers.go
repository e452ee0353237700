package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/netgraph/backend/internal/domain"
	"github.com/netgraph/backend/internal/usecase"
)

// Graph handlers: parameter shaping only, the queries run in Neo4j.

func (h *Handler) SearchNodes(w http.ResponseWriter, r *http.Request) {
	params, ok := h.parseSearchParams(w, r, nil)
	if !ok {
		return
	}
	h.runSearch(w, r, params)
}

func (h *Handler) SearchNodesByLabel(w http.ResponseWriter, r *http.Request) {
	label, ok := domain.ParseNodeLabel(chi.URLParam(r, "label"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid node label")
		return
	}
	params, okParams := h.parseSearchParams(w, r, &label)
	if !okParams {
		return
	}
	h.runSearch(w, r, params)
}

func (h *Handler) parseSearchParams(w http.ResponseWriter, r *http.Request, label *domain.NodeLabel) (usecase.SearchParams, bool) {
	params := usecase.SearchParams{
		Name:   r.URL.Query().Get("name"),
		Label:  label,
		Limit:  parseIntQuery(r, "limit", 0),
		Offset: parseIntQuery(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("node_id"); raw != "" {
		nodeID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "node_id must be an integer")
			return params, false
		}
		params.NodeID = &nodeID
	}
	return params, true
}

func (h *Handler) runSearch(w http.ResponseWriter, r *http.Request, params usecase.SearchParams) {
	result, err := h.graphUsecase.SearchNodes(r.Context(), params)
	switch {
	case errors.Is(err, usecase.ErrSearchParamRequired):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, usecase.ErrGraphUnavailable):
		writeError(w, http.StatusBadGateway, "Graph query failed")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to search nodes")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetNeighbors(w http.ResponseWriter, r *http.Request) {
	nodeID, err := strconv.ParseInt(chi.URLParam(r, "nodeID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "node_id must be an integer")
		return
	}

	var label *domain.NodeLabel
	if raw := r.URL.Query().Get("label"); raw != "" {
		parsed, ok := domain.ParseNodeLabel(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid node label")
			return
		}
		label = &parsed
	}

	subgraph, err := h.graphUsecase.Neighbors(r.Context(), nodeID, label, parseIntQuery(r, "limit", 0))
	switch {
	case errors.Is(err, usecase.ErrNodeNotFound):
		writeError(w, http.StatusNotFound, "Node not found")
		return
	case errors.Is(err, usecase.ErrGraphUnavailable):
		writeError(w, http.StatusBadGateway, "Graph query failed")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to get neighbors")
		return
	}
	writeJSON(w, http.StatusOK, subgraph)
}

func (h *Handler) GetShortestPath(w http.ResponseWriter, r *http.Request) {
	startID, err := strconv.ParseInt(r.URL.Query().Get("start_node_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_node_id must be an integer")
		return
	}
	endID, err := strconv.ParseInt(r.URL.Query().Get("end_node_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_node_id must be an integer")
		return
	}
	maxHops := parseIntQuery(r, "max_hops", 5)

	subgraph, err := h.graphUsecase.ShortestPath(r.Context(), startID, endID, maxHops)
	switch {
	case errors.Is(err, usecase.ErrNoPath):
		writeError(w, http.StatusNotFound, "No path found between the given nodes")
		return
	case errors.Is(err, usecase.ErrGraphUnavailable):
		writeError(w, http.StatusBadGateway, "Graph query failed")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to find shortest path")
		return
	}
	writeJSON(w, http.StatusOK, subgraph)
}

func (h *Handler) GetRelationshipTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"relationship_types": h.graphUsecase.RelationshipTypes(),
	})
}

type cypherRequest struct {
	Query      string         `json:"query"`
	Parameters map[string]any `json:"parameters"`
}

func (h *Handler) ExecuteCypher(w http.ResponseWriter, r *http.Request) {
	var req cypherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.graphUsecase.RunCypher(r.Context(), req.Query, req.Parameters)
	switch {
	case errors.Is(err, usecase.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "Query cannot be empty")
		return
	case errors.Is(err, usecase.ErrForbiddenQuery):
		writeError(w, http.StatusForbidden, "Query contains a forbidden operation. Only read operations are allowed.")
		return
	case errors.Is(err, usecase.ErrGraphUnavailable):
		writeError(w, http.StatusBadGateway, "Query execution failed")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Query execution failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.graphUsecase.Schema(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to retrieve schema")
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.graphUsecase.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to retrieve statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return defaultValue
}
