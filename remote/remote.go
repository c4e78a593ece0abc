// Package remote defines the contract for the cloud mirror that backs
// multi-device sync, plus its implementations.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound signals that no record exists for the requested key.
	ErrNotFound = errors.New("remote record not found")

	// ErrPreconditionFailed signals that a conditional write or delete
	// lost against a concurrent modification.
	ErrPreconditionFailed = errors.New("remote record changed concurrently")

	// errNotProvisioned marks benign first-run conditions: the mirror has
	// never been written to, so there is nothing to pull yet.
	errNotProvisioned = errors.New("remote store not provisioned yet")
)

// IsFirstRun reports whether the error is a benign first-run condition
// rather than a real failure.
func IsFirstRun(err error) bool {
	return errors.Is(err, errNotProvisioned)
}

// NotProvisioned wraps err as a benign first-run condition.
func NotProvisioned(err error) error {
	return fmt.Errorf("%w: %w", errNotProvisioned, err)
}

// Record is the mirror's unit of storage: a flat field map plus the
// metadata needed for optimistic concurrency.
type Record struct {
	// Type is the logical record type ("Project", "WorkSession", ...).
	Type string
	// Key is the stable identity, derived as "{Type}_{localID}".
	Key string
	// Fields holds the record payload as JSON-safe values.
	Fields map[string]any
	// ChangeTag is the store's concurrency token for this record version.
	// Zero means the record has never been written.
	ChangeTag int64
	// ModifiedAt is the store-side modification time.
	ModifiedAt time.Time
}

// NewRecord returns an empty record for the given type and local id.
func NewRecord(recordType, localID string) *Record {
	return &Record{
		Type:   recordType,
		Key:    RecordKey(recordType, localID),
		Fields: make(map[string]any),
	}
}

// RecordKey derives the stable remote key for a record.
func RecordKey(recordType, localID string) string {
	return fmt.Sprintf("%s_%s", recordType, localID)
}

// LocalID extracts the local id portion of a record key.
func LocalID(key string) string {
	_, id, found := strings.Cut(key, "_")
	if !found {
		return ""
	}

	return id
}

// WriteResult is the per-record outcome of a batch write.
type WriteResult struct {
	Key string
	Err error
}

// Store is the per-record cloud mirror consumed by the sync engine.
type Store interface {
	// GetRecord fetches the current version of a record, or ErrNotFound.
	GetRecord(ctx context.Context, key string) (*Record, error)

	// BatchWrite saves and deletes records in one call. When atomic is
	// false, each record's outcome is independent: a stale record fails
	// with ErrPreconditionFailed without affecting the rest. A saved
	// record with ChangeTag zero must not already exist.
	BatchWrite(
		ctx context.Context,
		save []*Record,
		del []string,
		atomic bool,
	) []WriteResult

	// QueryPage returns one page of records of the given type, plus the
	// cursor for the next page ("" when exhausted). Each record appears at
	// most once across a full listing. Records are ordered by store-side
	// modification time ascending within a page only; there is no ordering
	// guarantee across pages, so callers must reconcile per record rather
	// than rely on a globally sorted stream.
	QueryPage(
		ctx context.Context,
		recordType, cursor string,
		pageSize int,
	) ([]*Record, string, error)

	// DeleteRecord removes a record only if its ChangeTag still matches.
	DeleteRecord(ctx context.Context, key string, ifMatch int64) error
}
