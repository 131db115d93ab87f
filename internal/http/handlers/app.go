package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"nanodraw/internal/domain"
	"nanodraw/internal/generation"
	"nanodraw/internal/infra"
	"nanodraw/internal/middleware"
)

// Generator runs one generation submission to a terminal outcome.
type Generator interface {
	SubmitAndAwait(ctx context.Context, req generation.Request) (*generation.Result, error)
}

// ObjectStore persists and serves user-uploaded reference images.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Fetch(ctx context.Context, key string) ([]byte, string, error)
}

type App struct {
	Config    *infra.Config
	Logger    *infra.Logger
	Generator Generator
	Records   domain.RecordReader
	Deleter   domain.RecordDeleter
	Analytics domain.AnalyticsRecorder
	Storage   ObjectStore
	Country   middleware.CountryLookup
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, detail string) {
	a.json(w, code, map[string]string{"error": errCode, "detail": detail})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// requireUser resolves the authenticated principal or writes a 401.
func (a *App) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", domain.ErrUnauthorized.Error())
		return "", false
	}
	return userID, true
}
