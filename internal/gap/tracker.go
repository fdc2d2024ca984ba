package gap

import (
	"sync"
)

// Tracker observes sequences as they arrive on a stream and keeps loss
// statistics. It does not replace FindMissing; the store stays the source
// of truth for which sequences are held.
type Tracker struct {
	mu sync.Mutex

	initialized bool
	highestSeq  int32
	received    uint64
	duplicates  uint64
	reordered   uint64
	lossEvents  uint64
	maxBurst    int32
	seen        map[int32]struct{}
}

// Stats is a snapshot of a Tracker.
type Stats struct {
	HighestSeq int32
	Received   uint64
	Duplicates uint64
	Reordered  uint64
	// LossEvents counts forward jumps of more than one sequence.
	LossEvents uint64
	// MaxBurst is the longest run of sequences skipped in one jump.
	MaxBurst int32
	// Lost is the number of sequences in [1, HighestSeq] never observed.
	Lost uint64
	// LossRate is Lost / HighestSeq.
	LossRate float64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[int32]struct{})}
}

// Observe records one arriving sequence.
func (t *Tracker) Observe(seq int32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.seen[seq]; dup {
		t.duplicates++
		return
	}
	t.seen[seq] = struct{}{}
	t.received++

	expected := t.highestSeq + 1
	switch {
	case !t.initialized || seq > t.highestSeq:
		if seq > expected {
			t.lossEvents++
			if burst := seq - expected; burst > t.maxBurst {
				t.maxBurst = burst
			}
		}
		t.highestSeq = seq
		t.initialized = true
	default:
		t.reordered++
	}
}

// Stats returns the current statistics.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Stats{
		HighestSeq: t.highestSeq,
		Received:   t.received,
		Duplicates: t.duplicates,
		Reordered:  t.reordered,
		LossEvents: t.lossEvents,
		MaxBurst:   t.maxBurst,
	}
	var inRange uint64
	for seq := range t.seen {
		if seq >= 1 && seq <= t.highestSeq {
			inRange++
		}
	}
	if t.highestSeq > 0 {
		s.Lost = uint64(t.highestSeq) - inRange
		s.LossRate = float64(s.Lost) / float64(t.highestSeq)
	}
	return s
}

// Reset clears all state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.initialized = false
	t.highestSeq = 0
	t.received = 0
	t.duplicates = 0
	t.reordered = 0
	t.lossEvents = 0
	t.maxBurst = 0
	t.seen = make(map[int32]struct{})
}
