package remote

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and by the sync engine when
// no cloud backend is configured. Safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	records map[string]*Record
	gen     int64
}

// NewMemory returns an empty in-memory mirror.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]*Record),
	}
}

func cloneRecord(rec *Record) *Record {
	clone := *rec
	clone.Fields = maps.Clone(rec.Fields)

	return &clone
}

func (m *Memory) GetRecord(_ context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}

	return cloneRecord(rec), nil
}

func (m *Memory) BatchWrite(
	_ context.Context,
	save []*Record,
	del []string,
	atomic bool,
) []WriteResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]WriteResult, 0, len(save)+len(del))

	if atomic {
		// Check every precondition up front so an atomic batch either
		// fully applies or fully fails.
		for _, rec := range save {
			if err := m.checkTag(rec.Key, rec.ChangeTag); err != nil {
				for _, r := range save {
					results = append(
						results,
						WriteResult{Key: r.Key, Err: err},
					)
				}

				return results
			}
		}
	}

	for _, rec := range save {
		err := m.checkTag(rec.Key, rec.ChangeTag)
		if err == nil {
			m.gen++

			stored := cloneRecord(rec)
			stored.ChangeTag = m.gen
			stored.ModifiedAt = time.Now()
			m.records[rec.Key] = stored
		}

		results = append(results, WriteResult{Key: rec.Key, Err: err})
	}

	for _, key := range del {
		_, ok := m.records[key]
		if !ok {
			results = append(results, WriteResult{Key: key, Err: ErrNotFound})
			continue
		}

		delete(m.records, key)
		results = append(results, WriteResult{Key: key})
	}

	return results
}

func (m *Memory) checkTag(key string, tag int64) error {
	existing, ok := m.records[key]

	if !ok {
		if tag != 0 {
			return ErrPreconditionFailed
		}

		return nil
	}

	if existing.ChangeTag != tag {
		return ErrPreconditionFailed
	}

	return nil
}

func (m *Memory) QueryPage(
	_ context.Context,
	recordType, cursor string,
	pageSize int,
) ([]*Record, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*Record

	for key, rec := range m.records {
		if strings.HasPrefix(key, recordType+"_") {
			matched = append(matched, rec)
		}
	}

	slices.SortFunc(matched, func(a, b *Record) int {
		if c := a.ModifiedAt.Compare(b.ModifiedAt); c != 0 {
			return c
		}

		return strings.Compare(a.Key, b.Key)
	})

	start := 0

	if cursor != "" {
		for i, rec := range matched {
			if rec.Key == cursor {
				start = i + 1
				break
			}
		}
	}

	end := min(start+pageSize, len(matched))

	page := make([]*Record, 0, end-start)
	for _, rec := range matched[start:end] {
		page = append(page, cloneRecord(rec))
	}

	next := ""
	if end < len(matched) && len(page) > 0 {
		next = page[len(page)-1].Key
	}

	return page, next, nil
}

func (m *Memory) DeleteRecord(
	_ context.Context,
	key string,
	ifMatch int64,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}

	if existing.ChangeTag != ifMatch {
		return ErrPreconditionFailed
	}

	delete(m.records, key)

	return nil
}

// Len reports the number of stored records, for tests.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.records)
}
