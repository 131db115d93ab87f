package repo

import (
	"context"

	"nanodraw/internal/domain"
	"nanodraw/internal/infra"
)

const insertRecordSQL = `
INSERT INTO generation_records (user_id, kind, prompt, input_images, status)
VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5)
RETURNING id;
`

// provider_job_id is written once and kept thereafter; terminal fields are
// only filled when the transition supplies them.
const updateRecordSQL = `
UPDATE generation_records
SET status = $2,
    provider_job_id = COALESCE(provider_job_id, $3),
    output_image_url = COALESCE($4, output_image_url),
    error_detail = COALESCE($5, error_detail),
    updated_at = NOW()
WHERE id = $1
`

const selectRecordSQL = `
SELECT id, COALESCE(user_id::text, ''), kind, prompt, input_images, COALESCE(provider_job_id, ''),
       status, COALESCE(output_image_url, ''), COALESCE(error_detail, ''), created_at, updated_at
FROM generation_records
`

// RecordRepositoryPG persists generation records with owner-scoped access:
// every mutation and read is filtered by user_id, mirroring row-level
// security on the hosted store.
type RecordRepositoryPG struct {
	db infra.SQLExecutor
}

// NewRecordRepository creates an owner-scoped record repository.
func NewRecordRepository(db infra.SQLExecutor) *RecordRepositoryPG {
	return &RecordRepositoryPG{db: db}
}

// CreateFor inserts a record owned by the given principal.
func (r *RecordRepositoryPG) CreateFor(ctx context.Context, ownerID string, record *domain.GenerationRecord) (string, error) {
	row := r.db.QueryRow(ctx, insertRecordSQL,
		ownerID,
		record.Kind,
		record.Prompt,
		record.InputImages,
		record.Status,
	)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateFor applies a transition to a record the principal owns. A missing
// record or an owner mismatch is reported as domain.ErrNotFound, never as a
// hard failure.
func (r *RecordRepositoryPG) UpdateFor(ctx context.Context, ownerID, recordID string, update domain.RecordUpdate) error {
	tag, err := r.db.Exec(ctx, updateRecordSQL+"  AND user_id = $6::uuid;",
		recordID,
		update.Status,
		update.ProviderJobID,
		update.OutputImageURL,
		update.ErrorDetail,
		ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByOwner returns the principal's records, newest first.
func (r *RecordRepositoryPG) ListByOwner(ctx context.Context, ownerID string) ([]domain.GenerationRecord, error) {
	rows, err := r.db.Query(ctx, selectRecordSQL+"WHERE user_id = $1::uuid ORDER BY created_at DESC;", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.GenerationRecord
	for rows.Next() {
		var rec domain.GenerationRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.OwnerID,
			&rec.Kind,
			&rec.Prompt,
			&rec.InputImages,
			&rec.ProviderJobID,
			&rec.Status,
			&rec.OutputImageURL,
			&rec.ErrorDetail,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetByID fetches one record the principal owns.
func (r *RecordRepositoryPG) GetByID(ctx context.Context, recordID, ownerID string) (*domain.GenerationRecord, error) {
	row := r.db.QueryRow(ctx, selectRecordSQL+"WHERE id = $1 AND user_id = $2::uuid;", recordID, ownerID)
	var rec domain.GenerationRecord
	if err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Kind,
		&rec.Prompt,
		&rec.InputImages,
		&rec.ProviderJobID,
		&rec.Status,
		&rec.OutputImageURL,
		&rec.ErrorDetail,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// DeleteRecord removes a record the principal owns.
func (r *RecordRepositoryPG) DeleteRecord(ctx context.Context, recordID, ownerID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM generation_records WHERE id = $1 AND user_id = $2::uuid;`, recordID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ServiceRecordRepositoryPG writes records through the elevated service
// credential. It is the only path that can persist anonymous submissions,
// since the regular credential cannot write rows without an owner.
type ServiceRecordRepositoryPG struct {
	db infra.SQLExecutor
}

// NewServiceRecordRepository creates the service-scoped writer.
func NewServiceRecordRepository(db infra.SQLExecutor) *ServiceRecordRepositoryPG {
	return &ServiceRecordRepositoryPG{db: db}
}

// CreateRecord inserts a record with a nullable owner.
func (r *ServiceRecordRepositoryPG) CreateRecord(ctx context.Context, record *domain.GenerationRecord) (string, error) {
	row := r.db.QueryRow(ctx, insertRecordSQL,
		record.OwnerID,
		record.Kind,
		record.Prompt,
		record.InputImages,
		record.Status,
	)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateRecord applies a transition by record id alone.
func (r *ServiceRecordRepositoryPG) UpdateRecord(ctx context.Context, recordID string, update domain.RecordUpdate) error {
	tag, err := r.db.Exec(ctx, updateRecordSQL+";",
		recordID,
		update.Status,
		update.ProviderJobID,
		update.OutputImageURL,
		update.ErrorDetail,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ownerBoundWriter adapts the owner-scoped repository to domain.RecordWriter
// for a single principal.
type ownerBoundWriter struct {
	repo    *RecordRepositoryPG
	ownerID string
}

func (w *ownerBoundWriter) CreateRecord(ctx context.Context, record *domain.GenerationRecord) (string, error) {
	return w.repo.CreateFor(ctx, w.ownerID, record)
}

func (w *ownerBoundWriter) UpdateRecord(ctx context.Context, recordID string, update domain.RecordUpdate) error {
	return w.repo.UpdateFor(ctx, w.ownerID, recordID, update)
}

// WriterResolverPG selects the write scope per submission: owner-scoped for
// authenticated principals, service-scoped for anonymous ones, nil when no
// service credential is configured.
type WriterResolverPG struct {
	owner   *RecordRepositoryPG
	service domain.RecordWriter
}

// NewWriterResolver builds the resolver. serviceRepo may be nil, which
// disables recording of anonymous submissions.
func NewWriterResolver(ownerRepo *RecordRepositoryPG, serviceRepo *ServiceRecordRepositoryPG) *WriterResolverPG {
	resolver := &WriterResolverPG{owner: ownerRepo}
	if serviceRepo != nil {
		resolver.service = serviceRepo
	}
	return resolver
}

// WriterFor implements domain.RecordWriterResolver.
func (r *WriterResolverPG) WriterFor(ownerID string) domain.RecordWriter {
	if ownerID != "" && r.owner != nil {
		return &ownerBoundWriter{repo: r.owner, ownerID: ownerID}
	}
	return r.service
}
