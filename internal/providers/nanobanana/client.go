package nanobanana

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"nanodraw/internal/domain"
	"nanodraw/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("nanobanana: api key is required")

// Options configures the nano-banana drawing API client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the nano-banana submission and result endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// TaskRequest captures the inputs of one generation submission. InputURLs is
// empty for text-to-image tasks.
type TaskRequest struct {
	Prompt       string
	InputURLs    []string
	WebHook      string
	ShutProgress *bool
}

// TaskImage is a single generated output.
type TaskImage struct {
	URL string `json:"url"`
}

// TaskResult is the decoded body of the result endpoint. Raw preserves the
// provider payload for diagnostics.
type TaskResult struct {
	Status  string
	Results []TaskImage
	Raw     json.RawMessage
}

// FirstURL returns the first non-empty result URL, if any.
func (r *TaskResult) FirstURL() string {
	for _, res := range r.Results {
		if url := strings.TrimSpace(res.URL); url != "" {
			return url
		}
	}
	return ""
}

type submitRequest struct {
	Model        string   `json:"model"`
	Prompt       string   `json:"prompt"`
	URLs         []string `json:"urls,omitempty"`
	WebHook      string   `json:"webHook,omitempty"`
	ShutProgress *bool    `json:"shutProgress,omitempty"`
}

type submitResponse struct {
	Code int `json:"code"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type resultEnvelope struct {
	Data struct {
		Status  string      `json:"status"`
		Results []TaskImage `json:"results"`
	} `json:"data"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "nano-banana-fast"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Submit posts a generation task and resolves the provider's task id. The
// submission endpoint answers in one of two shapes: a buffered JSON object
// carrying {code, data:{id}}, or an event stream whose frames are scanned
// incrementally until the first object with an id appears. Scanning stops
// as soon as an id is found; the remainder of the stream is not read.
func (c *Client) Submit(ctx context.Context, req TaskRequest) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	payload := submitRequest{
		Model:        c.model,
		Prompt:       req.Prompt,
		WebHook:      strings.TrimSpace(req.WebHook),
		ShutProgress: req.ShutProgress,
	}
	if len(req.InputURLs) > 0 {
		payload.URLs = req.InputURLs
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("nanobanana: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/draw/nano-banana", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("nanobanana: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.WrapGenerationError(domain.FailureTransport, err, "submission request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return "", domain.NewGenerationError(domain.FailureSubmission,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	if isEventStream(resp.Header.Get("Content-Type")) {
		return c.scanTaskID(resp.Body)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.WrapGenerationError(domain.FailureTransport, err, "read submission response")
	}
	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", domain.NewGenerationError(domain.FailureSubmission, strings.TrimSpace(string(raw)))
	}
	if decoded.Code != 0 || strings.TrimSpace(decoded.Data.ID) == "" {
		return "", domain.NewGenerationError(domain.FailureSubmission, strings.TrimSpace(string(raw)))
	}
	c.logger.Debug().Str("task_id", decoded.Data.ID).Msg("nanobanana: task submitted")
	return decoded.Data.ID, nil
}

// scanTaskID reads "data: {...}" frames from an event stream and returns the
// id of the first frame that carries one. Frames that fail to decode are
// skipped, matching the provider's habit of mixing progress text into the
// stream.
func (c *Client) scanTaskID(body io.Reader) (string, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		frame := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if !strings.HasPrefix(frame, "{") {
			continue
		}
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(frame), &obj); err != nil {
			c.logger.Debug().Err(err).Msg("nanobanana: skipping undecodable stream frame")
			continue
		}
		if id := strings.TrimSpace(obj.ID); id != "" {
			c.logger.Debug().Str("task_id", id).Msg("nanobanana: task id from stream")
			return id, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", domain.WrapGenerationError(domain.FailureTransport, err, "read submission stream")
	}
	return "", domain.NewGenerationError(domain.FailureSubmission, "no job id returned")
}

// Result fetches the current state of a submitted task.
func (c *Client) Result(ctx context.Context, taskID string) (*TaskResult, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	body, err := json.Marshal(map[string]string{"id": taskID})
	if err != nil {
		return nil, fmt.Errorf("nanobanana: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/draw/result", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("nanobanana: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.WrapGenerationError(domain.FailureTransport, err, "result request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapGenerationError(domain.FailureTransport, err, "read result response")
	}
	var decoded resultEnvelope
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, domain.NewGenerationError(domain.FailureInvalidResponse, strings.TrimSpace(string(raw)))
	}
	return &TaskResult{
		Status:  decoded.Data.Status,
		Results: decoded.Data.Results,
		Raw:     json.RawMessage(raw),
	}, nil
}

func isEventStream(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/event-stream")
}
