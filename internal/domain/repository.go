package domain

import "context"

// RecordWriter persists generation records within a single credential
// scope. Both calls are best-effort from the orchestrator's point of view:
// a write failure never decides the generation outcome.
type RecordWriter interface {
	CreateRecord(ctx context.Context, record *GenerationRecord) (string, error)
	UpdateRecord(ctx context.Context, recordID string, update RecordUpdate) error
}

// RecordReader serves the caller-facing record listing endpoints.
type RecordReader interface {
	ListByOwner(ctx context.Context, ownerID string) ([]GenerationRecord, error)
	GetByID(ctx context.Context, recordID, ownerID string) (*GenerationRecord, error)
}

// RecordDeleter removes records. Deletion is a caller concern; the
// orchestrator never deletes.
type RecordDeleter interface {
	DeleteRecord(ctx context.Context, recordID, ownerID string) error
}

// RecordWriterResolver picks the persistence scope for a submission.
// Authenticated principals write through an owner-scoped writer; anonymous
// submissions require the elevated service scope. A nil writer means the
// submission cannot be recorded and mirroring is skipped entirely.
type RecordWriterResolver interface {
	WriterFor(ownerID string) RecordWriter
}

// AnalyticsRecorder updates daily usage counters, keyed by day and country.
type AnalyticsRecorder interface {
	IncrementDaily(ctx context.Context, day, country string, counters map[string]int) error
}
