package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"nanodraw/internal/domain"
)

type recordResponse struct {
	ID             string   `json:"id"`
	Kind           string   `json:"kind"`
	Prompt         string   `json:"prompt"`
	InputImages    []string `json:"input_images,omitempty"`
	ProviderJobID  string   `json:"provider_job_id,omitempty"`
	Status         string   `json:"status"`
	OutputImageURL string   `json:"output_image_url,omitempty"`
	ErrorDetail    string   `json:"error_detail,omitempty"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

func toRecordResponse(rec domain.GenerationRecord) recordResponse {
	return recordResponse{
		ID:             rec.ID,
		Kind:           string(rec.Kind),
		Prompt:         rec.Prompt,
		InputImages:    rec.InputImages,
		ProviderJobID:  rec.ProviderJobID,
		Status:         string(rec.Status),
		OutputImageURL: rec.OutputImageURL,
		ErrorDetail:    rec.ErrorDetail,
		CreatedAt:      rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// RecordsList returns the caller's generation history, newest first.
func (a *App) RecordsList(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	records, err := a.Records.ListByOwner(r.Context(), userID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load records")
		return
	}
	items := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, toRecordResponse(rec))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// RecordsGet returns a single record owned by the caller.
func (a *App) RecordsGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	recordID := chi.URLParam(r, "id")
	if recordID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "record id required")
		return
	}
	rec, err := a.Records.GetByID(r.Context(), recordID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load record")
		return
	}
	a.json(w, http.StatusOK, toRecordResponse(*rec))
}

// RecordsDelete removes a record owned by the caller.
func (a *App) RecordsDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	recordID := chi.URLParam(r, "id")
	if recordID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "record id required")
		return
	}
	if err := a.Deleter.DeleteRecord(r.Context(), recordID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete record")
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"success": true})
}
