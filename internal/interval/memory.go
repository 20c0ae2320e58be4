package interval

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fakeyudi/pomo/internal/timer"
)

// MemoryStore keeps records in process memory. It backs tests and the
// --ephemeral mode of the command line.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]*Record
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		records: make(map[int64]*Record),
		now:     time.Now,
	}
}

// Begin inserts a new in-progress record.
func (m *MemoryStore) Begin(ctx context.Context, kind timer.Kind, start time.Time, plannedSeconds uint32) (int64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("insert interval: unknown kind %q", kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.records[id] = &Record{
		ID:                     id,
		Kind:                   kind,
		StartTime:              start.UTC(),
		PlannedDurationSeconds: plannedSeconds,
		Status:                 StatusInProgress,
		CreatedAt:              m.now().UTC(),
	}
	return id, nil
}

// Finalize closes an in-progress record.
func (m *MemoryStore) Finalize(ctx context.Context, id int64, end time.Time, actualSeconds uint32, outcome timer.Outcome) error {
	status, err := statusFor(outcome)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("finalize interval %d: %w", id, ErrNotFound)
	}
	if r.Status != StatusInProgress {
		return fmt.Errorf("finalize interval %d: %w", id, ErrAlreadyFinalized)
	}
	endUTC := end.UTC()
	secs := actualSeconds
	r.EndTime = &endUTC
	r.DurationSeconds = &secs
	r.Status = status
	return nil
}

// Get returns a copy of the record with id.
func (m *MemoryStore) Get(ctx context.Context, id int64) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return Record{}, fmt.Errorf("get interval %d: %w", id, ErrNotFound)
	}
	return *r, nil
}

// List returns matching records, most recent start first.
func (m *MemoryStore) List(ctx context.Context, f Filter) ([]Record, error) {
	m.mu.RLock()
	var out []Record
	for _, r := range m.records {
		if f.match(*r) {
			out = append(out, *r)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartTime.After(out[j].StartTime)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
