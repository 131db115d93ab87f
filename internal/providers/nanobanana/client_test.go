package nanobanana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nanodraw/internal/domain"
)

func TestSubmitBufferedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		var payload submitRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Model != "nano-banana-fast" {
			t.Fatalf("unexpected model: %s", payload.Model)
		}
		if payload.Prompt != "a red fox in snow" {
			t.Fatalf("unexpected prompt: %s", payload.Prompt)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"code":0,"data":{"id":"abc"}}`)
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	id, err := client.Submit(context.Background(), TaskRequest{Prompt: "a red fox in snow"})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if id != "abc" {
		t.Fatalf("unexpected task id: %s", id)
	}
}

func TestSubmitBufferedResponseRejections(t *testing.T) {
	cases := map[string]string{
		"nonzero code": `{"code":1}`,
		"missing id":   `{"code":0,"data":{}}`,
		"not json":     `oops`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, body)
			}))
			defer ts.Close()

			client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
			_, err := client.Submit(context.Background(), TaskRequest{Prompt: "p"})
			if err == nil {
				t.Fatalf("expected submission failure")
			}
			if kind := domain.FailureKindOf(err); kind != domain.FailureSubmission {
				t.Fatalf("failure kind = %q, want %q", kind, domain.FailureSubmission)
			}
		})
	}
}

func TestSubmitStreamTakesFirstIDAndStopsReading(t *testing.T) {
	release := make(chan struct{})

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatalf("response writer is not flushable")
		}
		fmt.Fprint(w, "data: {\"progress\":10}\n\n")
		flusher.Flush()
		fmt.Fprint(w, "data: {\"id\":\"job-42\"}\n\n")
		flusher.Flush()
		// Hold the stream open. If the client waited for EOF instead of
		// stopping at the first id, Submit would hang here.
		<-release
	}))
	// Unblock the handler before the server's Close waits on it.
	defer ts.Close()
	defer close(release)

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})

	done := make(chan struct{})
	var id string
	var err error
	go func() {
		defer close(done)
		id, err = client.Submit(context.Background(), TaskRequest{Prompt: "p"})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Submit did not return before the stream ended")
	}
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if id != "job-42" {
		t.Fatalf("unexpected task id: %s", id)
	}
}

func TestSubmitStreamWithoutIDFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"progress\":50}\n\ndata: not-json\n\n")
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.Submit(context.Background(), TaskRequest{Prompt: "p"})
	if err == nil {
		t.Fatalf("expected submission failure")
	}
	if kind := domain.FailureKindOf(err); kind != domain.FailureSubmission {
		t.Fatalf("failure kind = %q, want %q", kind, domain.FailureSubmission)
	}
}

func TestSubmitSendsInputURLsAndOptions(t *testing.T) {
	var captured submitRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"code":0,"data":{"id":"xyz"}}`)
	}))
	defer ts.Close()

	shut := true
	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.Submit(context.Background(), TaskRequest{
		Prompt:       "restyle",
		InputURLs:    []string{"https://cdn/in1.png", "https://cdn/in2.png"},
		WebHook:      "https://hook.example.com/cb",
		ShutProgress: &shut,
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if len(captured.URLs) != 2 || captured.URLs[0] != "https://cdn/in1.png" {
		t.Fatalf("urls not forwarded: %#v", captured.URLs)
	}
	if captured.WebHook != "https://hook.example.com/cb" {
		t.Fatalf("webHook not forwarded: %s", captured.WebHook)
	}
	if captured.ShutProgress == nil || !*captured.ShutProgress {
		t.Fatalf("shutProgress not forwarded")
	}
}

func TestSubmitMissingKey(t *testing.T) {
	client := NewClient(Options{BaseURL: "https://api.example.com"})
	if _, err := client.Submit(context.Background(), TaskRequest{Prompt: "p"}); err == nil {
		t.Fatalf("expected error when api key missing")
	}
}

func TestResultDecodesStatusAndResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["id"] != "job-42" {
			t.Fatalf("unexpected task id: %s", payload["id"])
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"status":"succeeded","results":[{"url":"https://cdn/out.png"}]}}`)
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	res, err := client.Result(context.Background(), "job-42")
	if err != nil {
		t.Fatalf("Result error: %v", err)
	}
	if res.Status != "succeeded" {
		t.Fatalf("unexpected status: %s", res.Status)
	}
	if got := res.FirstURL(); got != "https://cdn/out.png" {
		t.Fatalf("unexpected url: %s", got)
	}
}

func TestResultRejectsMalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>bad gateway</html>`)
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.Result(context.Background(), "job-42")
	if err == nil {
		t.Fatalf("expected parse failure")
	}
	if kind := domain.FailureKindOf(err); kind != domain.FailureInvalidResponse {
		t.Fatalf("failure kind = %q, want %q", kind, domain.FailureInvalidResponse)
	}
}
