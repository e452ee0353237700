package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/netgraph/backend/internal/usecase"
)

type createFlagRequest struct {
	FlagID     string    `json:"flag_id"`
	SubjectIDs []string  `json:"subject_ids"`
	RuleID     string    `json:"rule_id"`
	Score      int       `json:"score"`
	Parameter  string    `json:"parameter"`
	CreateDate time.Time `json:"create_date"`
	CreateBy   string    `json:"create_by"`
}

func (h *Handler) CreateFlag(w http.ResponseWriter, r *http.Request) {
	var req createFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.FlagID == "" || req.RuleID == "" || len(req.SubjectIDs) == 0 {
		writeError(w, http.StatusBadRequest, "flag_id, rule_id and at least one subject_id are required")
		return
	}
	if req.Score < 0 {
		writeError(w, http.StatusBadRequest, "score must not be negative")
		return
	}

	group, err := h.flagUsecase.Create(usecase.CreateFlagParams{
		FlagID:     req.FlagID,
		SubjectIDs: req.SubjectIDs,
		RuleID:     req.RuleID,
		Score:      req.Score,
		Parameter:  req.Parameter,
		CreateDate: req.CreateDate,
		CreateBy:   req.CreateBy,
	})
	switch {
	case errors.Is(err, usecase.ErrFlagExists):
		writeError(w, http.StatusConflict, "Flag with this flag_id already exists")
		return
	case errors.Is(err, usecase.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to create flag")
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (h *Handler) GetFlagsBySubject(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")

	groups, err := h.flagUsecase.GetBySubject(subjectID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"flags": groups,
		"total": len(groups),
	})
}

func (h *Handler) DeleteFlag(w http.ResponseWriter, r *http.Request) {
	flagID := chi.URLParam(r, "flagID")

	count, err := h.flagUsecase.Delete(flagID)
	switch {
	case errors.Is(err, usecase.ErrFlagNotFound):
		writeError(w, http.StatusNotFound, "Flag not found")
		return
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"flag_id":       flagID,
		"deleted_count": count,
	})
}
