package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"nanodraw/internal/domain"
	"nanodraw/internal/generation"
	"nanodraw/internal/middleware"
)

type generateRequest struct {
	Prompt       string `json:"prompt"`
	WebHook      string `json:"webHook"`
	ShutProgress *bool  `json:"shutProgress"`
}

type img2imgRequest struct {
	Prompt       string   `json:"prompt"`
	URL          string   `json:"url"`
	URLs         []string `json:"urls"`
	WebHook      string   `json:"webHook"`
	ShutProgress *bool    `json:"shutProgress"`
}

type generateResponse struct {
	Success  bool   `json:"success"`
	Image    string `json:"image"`
	RecordID string `json:"record_id,omitempty"`
}

// ImagesGenerate produces an image from a text prompt, holding the request
// open until the provider reaches a terminal state.
func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	a.runGeneration(w, r, generation.Request{
		Kind:             domain.KindTextToImage,
		Prompt:           req.Prompt,
		CallbackHook:     req.WebHook,
		SuppressProgress: req.ShutProgress,
		OwnerID:          a.currentUserID(r),
	})
}

// ImagesImg2Img produces an image from a prompt plus one or more reference
// image URLs.
func (a *App) ImagesImg2Img(w http.ResponseWriter, r *http.Request) {
	var req img2imgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	inputs := req.URLs
	if len(inputs) == 0 && req.URL != "" {
		inputs = []string{req.URL}
	}
	a.runGeneration(w, r, generation.Request{
		Kind:             domain.KindImageToImage,
		Prompt:           req.Prompt,
		InputImages:      inputs,
		CallbackHook:     req.WebHook,
		SuppressProgress: req.ShutProgress,
		OwnerID:          a.currentUserID(r),
	})
}

func (a *App) runGeneration(w http.ResponseWriter, r *http.Request, req generation.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	country := middleware.CountryFromContext(r.Context())

	result, err := a.Generator.SubmitAndAwait(r.Context(), req)
	if err != nil {
		kind := domain.FailureKindOf(err)
		a.recordUsage(country, false)
		status := http.StatusInternalServerError
		if kind == domain.FailureValidation {
			status = http.StatusBadRequest
		}
		detail := ""
		var genErr *domain.GenerationError
		if errors.As(err, &genErr) {
			detail = genErr.Detail
		}
		a.error(w, status, failureMessage(kind, locale), detail)
		return
	}

	a.recordUsage(country, true)
	a.json(w, http.StatusOK, generateResponse{
		Success:  true,
		Image:    result.OutputImageURL,
		RecordID: result.RecordID,
	})
}

// recordUsage bumps the daily counters. Failures are logged and ignored;
// analytics never affects the response.
func (a *App) recordUsage(country string, succeeded bool) {
	if a.Analytics == nil {
		return
	}
	counters := map[string]int{"requests": 1}
	if succeeded {
		counters["succeeded"] = 1
	} else {
		counters["failed"] = 1
	}
	day := time.Now().UTC().Format("2006-01-02")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Analytics.IncrementDaily(ctx, day, country, counters); err != nil && a.Logger != nil {
		a.Logger.Warn().Err(err).Str("day", day).Msg("usage counter update failed")
	}
}
