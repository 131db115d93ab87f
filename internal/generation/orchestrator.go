package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"nanodraw/internal/domain"
	"nanodraw/internal/infra"
	"nanodraw/internal/providers/nanobanana"
)

// Provider statuses observed at the result endpoint. Anything else counts
// as still in progress.
const (
	providerStatusSucceeded = "succeeded"
	providerStatusFailed    = "failed"
)

// ProviderClient is the slice of the nano-banana client the orchestrator needs.
type ProviderClient interface {
	Submit(ctx context.Context, req nanobanana.TaskRequest) (string, error)
	Result(ctx context.Context, taskID string) (*nanobanana.TaskResult, error)
}

// Options configures the orchestrator.
type Options struct {
	Provider     ProviderClient
	Records      domain.RecordWriterResolver
	Logger       *infra.Logger
	MaxAttempts  int
	PollInterval time.Duration
}

// Request is one generation submission.
type Request struct {
	Kind             domain.RecordKind
	Prompt           string
	InputImages      []string
	CallbackHook     string
	SuppressProgress *bool
	OwnerID          string
}

// Result is the successful outcome of SubmitAndAwait.
type Result struct {
	OutputImageURL string
	RecordID       string
}

// Orchestrator drives one generation task from submission through polling to
// a terminal outcome, mirroring each transition into a persisted record.
// Persistence is observability only: a store failure never changes the
// generation result.
type Orchestrator struct {
	provider     ProviderClient
	records      domain.RecordWriterResolver
	logger       *infra.Logger
	maxAttempts  int
	pollInterval time.Duration
}

// NewOrchestrator builds an orchestrator with the original defaults of
// 2000 attempts spaced 1.5s apart.
func NewOrchestrator(opts Options) *Orchestrator {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 2000
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Orchestrator{
		provider:     opts.Provider,
		records:      opts.Records,
		logger:       logger,
		maxAttempts:  maxAttempts,
		pollInterval: interval,
	}
}

// SubmitAndAwait validates the request, submits it to the provider, polls
// the result endpoint until a terminal state, and returns the output image
// URL. The record store is updated best-effort at every transition:
// queued on creation, processing once the provider acknowledges the task,
// then exactly one of succeeded or failed.
func (o *Orchestrator) SubmitAndAwait(ctx context.Context, req Request) (*Result, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, domain.NewGenerationError(domain.FailureValidation, "prompt is required")
	}
	inputs := req.InputImages
	switch req.Kind {
	case domain.KindImageToImage:
		if len(inputs) == 0 {
			return nil, domain.NewGenerationError(domain.FailureValidation, "image url is required for image-to-image")
		}
	default:
		inputs = nil
	}

	m := o.newMirror(req.OwnerID)
	m.create(ctx, &domain.GenerationRecord{
		OwnerID:     req.OwnerID,
		Kind:        req.Kind,
		Prompt:      prompt,
		InputImages: inputs,
		Status:      domain.StatusQueued,
	})

	taskID, err := o.provider.Submit(ctx, nanobanana.TaskRequest{
		Prompt:       prompt,
		InputURLs:    inputs,
		WebHook:      req.CallbackHook,
		ShutProgress: req.SuppressProgress,
	})
	if err != nil {
		m.fail(ctx, failureDetail(err))
		return nil, err
	}
	m.processing(ctx, taskID)

	url, err := o.awaitResult(ctx, taskID, m)
	if err != nil {
		return nil, err
	}
	m.succeed(ctx, url)
	return &Result{OutputImageURL: url, RecordID: m.recordID}, nil
}

func (o *Orchestrator) awaitResult(ctx context.Context, taskID string, m *mirror) (string, error) {
	var lastStatus string
	var lastRaw string
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		res, err := o.provider.Result(ctx, taskID)
		if err != nil {
			m.fail(ctx, failureDetail(err))
			return "", err
		}
		lastStatus = res.Status
		lastRaw = string(res.Raw)

		switch res.Status {
		case providerStatusSucceeded:
			if url := res.FirstURL(); url != "" {
				return url, nil
			}
			// The provider sometimes reports success before the result
			// is attached; treat it as in progress and keep polling.
			o.logger.Debug().Str("task_id", taskID).Int("attempt", attempt).
				Msg("generation: succeeded status without result url, continuing")
		case providerStatusFailed:
			failErr := domain.NewGenerationError(domain.FailureJobFailed, lastRaw)
			m.fail(ctx, lastRaw)
			return "", failErr
		}

		if attempt == o.maxAttempts {
			break
		}
		if err := o.waitInterval(ctx); err != nil {
			m.fail(ctx, "cancelled while polling")
			return "", err
		}
	}

	detail := fmt.Sprintf("no image url after %d attempts, last status %q: %s", o.maxAttempts, lastStatus, lastRaw)
	timeoutErr := domain.NewGenerationError(domain.FailurePollTimeout, detail)
	m.fail(ctx, detail)
	return "", timeoutErr
}

// waitInterval sleeps one poll interval, returning early when the caller's
// context is cancelled so no further provider calls accrue.
func (o *Orchestrator) waitInterval(ctx context.Context) error {
	timer := time.NewTimer(o.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return domain.WrapGenerationError(domain.FailureTransport, ctx.Err(), "generation cancelled")
	case <-timer.C:
		return nil
	}
}

func failureDetail(err error) string {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) && genErr.Detail != "" {
		return genErr.Detail
	}
	return err.Error()
}
