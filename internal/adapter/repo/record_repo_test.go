package repo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"nanodraw/internal/domain"
)

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return errors.New("no row")
	}
	return r.scan(dest...)
}

type stubExecutor struct {
	lastQuery string
	lastArgs  []any
	execTag   pgconn.CommandTag
	execErr   error
	row       stubRow
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.lastQuery = query
	s.lastArgs = args
	return s.execTag, s.execErr
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.lastQuery = query
	s.lastArgs = args
	return s.row
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.lastQuery = query
	s.lastArgs = args
	return nil, errors.New("unsupported query")
}

func TestCreateForReturnsGeneratedID(t *testing.T) {
	db := &stubExecutor{row: stubRow{scan: func(dest ...any) error {
		if ptr, ok := dest[0].(*string); ok {
			*ptr = "rec-123"
			return nil
		}
		return errors.New("unsupported scan target")
	}}}
	r := NewRecordRepository(db)

	id, err := r.CreateFor(context.Background(), "user-1", &domain.GenerationRecord{
		Kind:   domain.KindTextToImage,
		Prompt: "a castle",
		Status: domain.StatusQueued,
	})
	if err != nil {
		t.Fatalf("CreateFor error: %v", err)
	}
	if id != "rec-123" {
		t.Fatalf("unexpected id: %s", id)
	}
	if len(db.lastArgs) == 0 || db.lastArgs[0] != "user-1" {
		t.Fatalf("owner not passed: %#v", db.lastArgs)
	}
}

func TestUpdateForScopesByOwner(t *testing.T) {
	db := &stubExecutor{execTag: pgconn.NewCommandTag("UPDATE 1")}
	r := NewRecordRepository(db)

	jobID := "job-42"
	err := r.UpdateFor(context.Background(), "user-1", "rec-1", domain.RecordUpdate{
		Status:        domain.StatusProcessing,
		ProviderJobID: &jobID,
	})
	if err != nil {
		t.Fatalf("UpdateFor error: %v", err)
	}
	if !strings.Contains(db.lastQuery, "user_id = $6") {
		t.Fatalf("owner filter missing from query: %s", db.lastQuery)
	}
	if db.lastArgs[len(db.lastArgs)-1] != "user-1" {
		t.Fatalf("owner arg missing: %#v", db.lastArgs)
	}
}

func TestUpdateForMissingRowIsNotFound(t *testing.T) {
	db := &stubExecutor{execTag: pgconn.NewCommandTag("UPDATE 0")}
	r := NewRecordRepository(db)

	err := r.UpdateFor(context.Background(), "user-1", "rec-1", domain.RecordUpdate{Status: domain.StatusFailed})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRecordMissingRowIsNotFound(t *testing.T) {
	db := &stubExecutor{execTag: pgconn.NewCommandTag("DELETE 0")}
	r := NewRecordRepository(db)

	err := r.DeleteRecord(context.Background(), "rec-1", "user-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWriterResolverScopes(t *testing.T) {
	ownerRepo := NewRecordRepository(&stubExecutor{})
	serviceRepo := NewServiceRecordRepository(&stubExecutor{})

	resolver := NewWriterResolver(ownerRepo, serviceRepo)
	if w := resolver.WriterFor("user-1"); w == nil {
		t.Fatalf("expected owner writer for principal")
	} else if _, ok := w.(*ownerBoundWriter); !ok {
		t.Fatalf("expected owner-bound writer, got %T", w)
	}
	if w := resolver.WriterFor(""); w != serviceRepo {
		t.Fatalf("expected service writer for anonymous submission, got %T", w)
	}

	unrecorded := NewWriterResolver(ownerRepo, nil)
	if w := unrecorded.WriterFor(""); w != nil {
		t.Fatalf("expected nil writer without service credential, got %T", w)
	}
}

func TestServiceUpdateRecordHasNoOwnerFilter(t *testing.T) {
	db := &stubExecutor{execTag: pgconn.NewCommandTag("UPDATE 1")}
	r := NewServiceRecordRepository(db)

	url := "https://cdn/out.png"
	err := r.UpdateRecord(context.Background(), "rec-1", domain.RecordUpdate{
		Status:         domain.StatusSucceeded,
		OutputImageURL: &url,
	})
	if err != nil {
		t.Fatalf("UpdateRecord error: %v", err)
	}
	if strings.Contains(db.lastQuery, "user_id =") {
		t.Fatalf("service update must not filter by owner: %s", db.lastQuery)
	}
}
