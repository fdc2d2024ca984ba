// Package gap finds sequence numbers missing from a received stream.
//
// Sequences are assumed to form a dense range starting at 1. Only gaps below
// the highest received sequence are visible; packets dropped after the last
// one received cannot be detected.
package gap

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// SequenceSource lists the sequence numbers currently held.
type SequenceSource interface {
	Sequences(ctx context.Context) ([]int32, error)
}

// FindMissing returns every i in [1, max(present)] not in present, in
// ascending order. present need not be sorted and may contain duplicates.
func FindMissing(present []int32) []int32 {
	if len(present) == 0 {
		return []int32{}
	}

	var maxSeq int32
	seen := make(map[int32]struct{}, len(present))
	for _, seq := range present {
		seen[seq] = struct{}{}
		if seq > maxSeq {
			maxSeq = seq
		}
	}

	return appendMissing([]int32{}, seen, 1, maxSeq)
}

// appendMissing appends every sequence in [from, to] absent from seen. The
// counter is int64 so the loop ends when to is math.MaxInt32.
func appendMissing(dst []int32, seen map[int32]struct{}, from, to int32) []int32 {
	for i := int64(from); i <= int64(to); i++ {
		if _, ok := seen[int32(i)]; !ok {
			dst = append(dst, int32(i))
		}
	}
	return dst
}

// Scan reads the keys from src and returns the missing sequences.
func Scan(ctx context.Context, src SequenceSource) ([]int32, error) {
	seqs, err := src.Sequences(ctx)
	if err != nil {
		return nil, fmt.Errorf("gap scan: %w", err)
	}
	return FindMissing(seqs), nil
}

// Summary joins sequences with ", " for log lines.
func Summary(seqs []int32) string {
	parts := make([]string, len(seqs))
	for i, seq := range seqs {
		parts[i] = strconv.FormatInt(int64(seq), 10)
	}
	return strings.Join(parts, ", ")
}
