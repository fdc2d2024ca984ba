package store

import (
	"context"
	"sort"
	"sync"

	"github.com/zsiec/abxclient/internal/abx/packet"
)

// MemoryStore is a map-backed Store.
type MemoryStore struct {
	mu      sync.RWMutex
	packets map[int32]packet.Packet
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{packets: make(map[int32]packet.Packet)}
}

func (m *MemoryStore) Upsert(_ context.Context, p packet.Packet) error {
	m.mu.Lock()
	m.packets[p.Sequence] = p
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, seq int32) (packet.Packet, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.packets[seq]
	return p, ok, nil
}

func (m *MemoryStore) Len(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.packets), nil
}

func (m *MemoryStore) Sequences(context.Context) ([]int32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedKeys(), nil
}

func (m *MemoryStore) Ascending(context.Context) ([]packet.Packet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seqs := m.sortedKeys()
	out := make([]packet.Packet, 0, len(seqs))
	for _, seq := range seqs {
		out = append(out, m.packets[seq])
	}
	return out, nil
}

// sortedKeys must be called with mu held.
func (m *MemoryStore) sortedKeys() []int32 {
	seqs := make([]int32, 0, len(m.packets))
	for seq := range m.packets {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	return seqs
}

func (m *MemoryStore) Close() error { return nil }
