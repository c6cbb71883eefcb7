package records

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/qagate/pkg/pagination"
	"github.com/JaimeStill/qagate/pkg/query"
)

// MemoryStore is a Store held entirely in memory. It backs offline CLI
// analysis and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[uuid.UUID]Record
	revisions map[uuid.UUID][]Revision
	batches   []BatchSummary
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[uuid.UUID]Record),
		revisions: make(map[uuid.UUID][]Revision),
	}
}

func (m *MemoryStore) Find(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.records[id]
	return ok, nil
}

func (m *MemoryStore) Upsert(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryStore) Supersede(_ context.Context, rev Revision) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rev.RecordID]; !ok {
		return ErrNotFound
	}
	m.records[rev.RecordID] = rev.Current
	m.revisions[rev.RecordID] = append(m.revisions[rev.RecordID], rev)
	return nil
}

func (m *MemoryStore) Query(_ context.Context, filter Filter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.match(filter, nil)
	slices.SortFunc(out, compareRecords)
	return out, nil
}

func (m *MemoryStore) List(_ context.Context, page pagination.PageRequest, filter Filter) (*pagination.PageResult[Record], error) {
	m.mu.RLock()
	matched := m.match(filter, page.Search)
	m.mu.RUnlock()

	sortRecords(matched, page.Sort)

	result := pagination.NewPageResult(window(matched, page), len(matched), page)
	return &result, nil
}

func (m *MemoryStore) Count(_ context.Context, filter Filter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.match(filter, nil)), nil
}

func (m *MemoryStore) Revisions(_ context.Context, id uuid.UUID) ([]Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.records[id]; !ok {
		return nil, ErrNotFound
	}
	out := slices.Clone(m.revisions[id])
	if out == nil {
		out = []Revision{}
	}
	return out, nil
}

func (m *MemoryStore) SaveBatch(_ context.Context, b BatchSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.batches {
		if existing.ID == b.ID {
			return ErrDuplicate
		}
	}
	m.batches = append(m.batches, b)
	return nil
}

func (m *MemoryStore) Batches(_ context.Context, page pagination.PageRequest) (*pagination.PageResult[BatchSummary], error) {
	m.mu.RLock()
	all := slices.Clone(m.batches)
	m.mu.RUnlock()

	if page.Search != nil && *page.Search != "" {
		needle := strings.ToLower(*page.Search)
		all = slices.DeleteFunc(all, func(b BatchSummary) bool {
			return !strings.Contains(strings.ToLower(b.Source), needle)
		})
	}

	slices.SortStableFunc(all, func(a, b BatchSummary) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	result := pagination.NewPageResult(window(all, page), len(all), page)
	return &result, nil
}

func (m *MemoryStore) match(filter Filter, search *string) []Record {
	var needle string
	if search != nil {
		needle = strings.ToLower(*search)
	}

	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		if !filter.Match(rec) {
			continue
		}
		if needle != "" && !containsFold(needle, rec.LotNumber, rec.Assignee, rec.Process) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func compareRecords(a, b Record) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

var recordComparators = map[string]func(a, b Record) int{
	"ID":         func(a, b Record) int { return bytes.Compare(a.ID[:], b.ID[:]) },
	"LotNumber":  func(a, b Record) int { return cmp.Compare(a.LotNumber, b.LotNumber) },
	"Process":    func(a, b Record) int { return cmp.Compare(a.Process, b.Process) },
	"Assignee":   func(a, b Record) int { return cmp.Compare(a.Assignee, b.Assignee) },
	"YieldPct":   func(a, b Record) int { return cmp.Compare(a.YieldPct, b.YieldPct) },
	"Timestamp":  func(a, b Record) int { return a.Timestamp.Compare(b.Timestamp) },
	"IngestedAt": func(a, b Record) int { return a.IngestedAt.Compare(b.IngestedAt) },
}

// sortRecords orders recs by the known fields in sort, falling back to
// timestamp then id.
func sortRecords(recs []Record, sort []query.SortField) {
	slices.SortFunc(recs, func(a, b Record) int {
		for _, f := range sort {
			fn, ok := recordComparators[f.Field]
			if !ok {
				continue
			}
			c := fn(a, b)
			if f.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return compareRecords(a, b)
	})
}

func window[T any](items []T, page pagination.PageRequest) []T {
	start := min(page.Offset(), len(items))
	end := min(start+page.PageSize, len(items))
	return items[start:end]
}
