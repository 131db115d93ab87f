package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nanodraw/internal/domain"
	"nanodraw/internal/generation"
	"nanodraw/internal/middleware"
)

type stubGenerator struct {
	lastRequest generation.Request
	result      *generation.Result
	err         error
}

func (s *stubGenerator) SubmitAndAwait(ctx context.Context, req generation.Request) (*generation.Result, error) {
	s.lastRequest = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubAnalytics struct {
	days      []string
	countries []string
	counters  []map[string]int
}

func (s *stubAnalytics) IncrementDaily(ctx context.Context, day, country string, counters map[string]int) error {
	s.days = append(s.days, day)
	s.countries = append(s.countries, country)
	s.counters = append(s.counters, counters)
	return nil
}

func newTestApp(gen Generator) (*App, *stubAnalytics) {
	analytics := &stubAnalytics{}
	return &App{Generator: gen, Analytics: analytics}, analytics
}

func TestImagesGenerateReturnsImageURL(t *testing.T) {
	gen := &stubGenerator{result: &generation.Result{OutputImageURL: "https://cdn/out.png", RecordID: "rec-1"}}
	app, analytics := newTestApp(gen)

	body := bytes.NewBufferString(`{"prompt":"a red fox"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	rec := httptest.NewRecorder()
	app.ImagesGenerate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Image != "https://cdn/out.png" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gen.lastRequest.Kind != domain.KindTextToImage {
		t.Fatalf("kind = %q, want %q", gen.lastRequest.Kind, domain.KindTextToImage)
	}
	if len(analytics.counters) != 1 || analytics.counters[0]["succeeded"] != 1 {
		t.Fatalf("analytics counters = %+v", analytics.counters)
	}
}

func TestImagesGenerateValidationErrorIs400(t *testing.T) {
	gen := &stubGenerator{err: domain.NewGenerationError(domain.FailureValidation, "prompt is required")}
	app, analytics := newTestApp(gen)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(`{"prompt":""}`))
	rec := httptest.NewRecorder()
	app.ImagesGenerate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(analytics.counters) != 1 || analytics.counters[0]["failed"] != 1 {
		t.Fatalf("analytics counters = %+v", analytics.counters)
	}
}

func TestImagesGenerateProviderFailureIs500WithDetail(t *testing.T) {
	gen := &stubGenerator{err: domain.NewGenerationError(domain.FailureJobFailed, `{"status":"failed"}`)}
	app, _ := newTestApp(gen)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(`{"prompt":"x"}`))
	rec := httptest.NewRecorder()
	app.ImagesGenerate(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["detail"] != `{"status":"failed"}` {
		t.Fatalf("detail = %q, want raw provider payload", resp["detail"])
	}
}

func TestImagesGenerateLocalizesErrorMessage(t *testing.T) {
	gen := &stubGenerator{err: domain.NewGenerationError(domain.FailureJobFailed, "boom")}
	app, _ := newTestApp(gen)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(`{"prompt":"x"}`))
	req = req.WithContext(context.WithValue(req.Context(), middleware.LocaleKey, "zh"))
	rec := httptest.NewRecorder()
	app.ImagesGenerate(rec, req)

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "图片生成失败" {
		t.Fatalf("error = %q, want localized message", resp["error"])
	}
}

func TestImagesImg2ImgCollectsInputURLs(t *testing.T) {
	gen := &stubGenerator{result: &generation.Result{OutputImageURL: "https://cdn/out.png"}}
	app, _ := newTestApp(gen)

	body := bytes.NewBufferString(`{"prompt":"restyle","url":"https://cdn/in.png","shutProgress":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/img2img", body)
	rec := httptest.NewRecorder()
	app.ImagesImg2Img(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if gen.lastRequest.Kind != domain.KindImageToImage {
		t.Fatalf("kind = %q, want %q", gen.lastRequest.Kind, domain.KindImageToImage)
	}
	if len(gen.lastRequest.InputImages) != 1 || gen.lastRequest.InputImages[0] != "https://cdn/in.png" {
		t.Fatalf("input images = %v", gen.lastRequest.InputImages)
	}
	if gen.lastRequest.SuppressProgress == nil || !*gen.lastRequest.SuppressProgress {
		t.Fatal("shutProgress was not forwarded")
	}
}

func TestImagesImg2ImgPrefersURLList(t *testing.T) {
	gen := &stubGenerator{result: &generation.Result{OutputImageURL: "https://cdn/out.png"}}
	app, _ := newTestApp(gen)

	body := bytes.NewBufferString(`{"prompt":"restyle","url":"https://cdn/one.png","urls":["https://cdn/a.png","https://cdn/b.png"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/img2img", body)
	rec := httptest.NewRecorder()
	app.ImagesImg2Img(rec, req)

	if len(gen.lastRequest.InputImages) != 2 {
		t.Fatalf("input images = %v, want the urls list", gen.lastRequest.InputImages)
	}
}

func TestImagesGenerateForwardsOwner(t *testing.T) {
	gen := &stubGenerator{result: &generation.Result{OutputImageURL: "https://cdn/out.png"}}
	app, _ := newTestApp(gen)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(`{"prompt":"x"}`))
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-9"))
	rec := httptest.NewRecorder()
	app.ImagesGenerate(rec, req)

	if gen.lastRequest.OwnerID != "user-9" {
		t.Fatalf("owner id = %q, want %q", gen.lastRequest.OwnerID, "user-9")
	}
}

func TestImagesGenerateRejectsBadJSON(t *testing.T) {
	app, analytics := newTestApp(&stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(`{`))
	rec := httptest.NewRecorder()
	app.ImagesGenerate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(analytics.counters) != 0 {
		t.Fatalf("analytics should not run for malformed payloads, got %+v", analytics.counters)
	}
}
