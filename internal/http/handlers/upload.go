package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"nanodraw/internal/domain"
)

type uploadRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
}

// Upload stores a base64-encoded file in the object store and returns its
// public URL.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	if a.Storage == nil {
		a.error(w, http.StatusInternalServerError, "internal", "object storage is not configured")
		return
	}
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.FileName == "" || req.ContentType == "" || req.Data == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "fileName, contentType and base64 data are required")
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "data is not valid base64")
		return
	}
	url, err := a.Storage.Upload(r.Context(), req.FileName, data, req.ContentType)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to upload")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "url": url})
}

// ObjectProxy streams an object from the store, so reference images stay
// reachable even when the bucket has no public host.
func (a *App) ObjectProxy(w http.ResponseWriter, r *http.Request) {
	if a.Storage == nil {
		a.error(w, http.StatusInternalServerError, "internal", "object storage is not configured")
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/api/r2/")
	if key == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "object key required")
		return
	}
	data, contentType, err := a.Storage.Fetch(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "object not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch object")
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
