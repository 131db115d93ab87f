package generation

import (
	"context"

	"nanodraw/internal/domain"
	"nanodraw/internal/infra"
)

// mirror owns the best-effort persistence of one generation run. Every
// method swallows store errors after logging them, so the orchestration
// logic stays free of persistence concerns. A nil writer (no principal and
// no service credential) disables recording entirely.
type mirror struct {
	writer   domain.RecordWriter
	logger   *infra.Logger
	recordID string
	terminal bool
}

func (o *Orchestrator) newMirror(ownerID string) *mirror {
	var writer domain.RecordWriter
	if o.records != nil {
		writer = o.records.WriterFor(ownerID)
	}
	return &mirror{writer: writer, logger: o.logger}
}

func (m *mirror) create(ctx context.Context, record *domain.GenerationRecord) {
	if m.writer == nil {
		return
	}
	id, err := m.writer.CreateRecord(writeContext(ctx), record)
	if err != nil {
		m.logger.Warn().Err(err).Msg("generation: record create failed, continuing without mirror")
		return
	}
	m.recordID = id
}

func (m *mirror) processing(ctx context.Context, providerJobID string) {
	m.apply(ctx, domain.RecordUpdate{
		Status:        domain.StatusProcessing,
		ProviderJobID: &providerJobID,
	})
}

func (m *mirror) succeed(ctx context.Context, outputURL string) {
	if m.terminal {
		return
	}
	m.terminal = true
	m.apply(ctx, domain.RecordUpdate{
		Status:         domain.StatusSucceeded,
		OutputImageURL: &outputURL,
	})
}

func (m *mirror) fail(ctx context.Context, detail string) {
	if m.terminal {
		return
	}
	m.terminal = true
	m.apply(ctx, domain.RecordUpdate{
		Status:      domain.StatusFailed,
		ErrorDetail: &detail,
	})
}

func (m *mirror) apply(ctx context.Context, update domain.RecordUpdate) {
	if m.writer == nil || m.recordID == "" {
		return
	}
	if err := m.writer.UpdateRecord(writeContext(ctx), m.recordID, update); err != nil {
		m.logger.Warn().Err(err).Str("record_id", m.recordID).
			Str("status", string(update.Status)).Msg("generation: record update failed")
	}
}

// writeContext detaches record writes from caller cancellation so a
// terminal transition can still be recorded after the caller went away.
func writeContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
