package storage

import (
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process memory.
// With a positive TTL, snapshots older than TTL (by GeneratedAt) are reported as missing.
type MemoryStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]Snapshot
	now   func() time.Time
}

// NewMemoryStore creates an in-memory store. A zero ttl keeps snapshots forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		items: make(map[string]Snapshot),
		now:   time.Now,
	}
}

// Put replaces the snapshot for s.Workload.
func (m *MemoryStore) Put(s Snapshot) error {
	if err := validate(s); err != nil {
		return err
	}
	s = cloneSnapshot(s)

	m.mu.Lock()
	m.items[s.Workload] = s
	m.mu.Unlock()
	return nil
}

// GetLatest returns a copy of the stored snapshot.
func (m *MemoryStore) GetLatest(workload string) (Snapshot, bool, error) {
	m.mu.RLock()
	s, ok := m.items[workload]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, false, nil
	}
	if m.ttl > 0 && m.now().Sub(s.GeneratedAt) > m.ttl {
		return Snapshot{}, false, nil
	}
	return cloneSnapshot(s), true, nil
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := s
	out.Mean = append([]float64(nil), s.Mean...)
	out.P10 = append([]float64(nil), s.P10...)
	out.P90 = append([]float64(nil), s.P90...)
	if s.Samples != nil {
		out.Samples = make([][]float64, len(s.Samples))
		for i, row := range s.Samples {
			out.Samples[i] = append([]float64(nil), row...)
		}
	}
	return out
}
