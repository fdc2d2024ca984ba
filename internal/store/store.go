// Package store holds the packets received during one run, keyed by
// sequence number.
package store

import (
	"context"

	"github.com/zsiec/abxclient/internal/abx/packet"
)

// Store maps sequence numbers to packets. Upsert overwrites any packet
// already held under the same sequence, so merging the same packet twice
// leaves the store unchanged.
type Store interface {
	Upsert(ctx context.Context, p packet.Packet) error
	Get(ctx context.Context, seq int32) (packet.Packet, bool, error)
	Len(ctx context.Context) (int, error)
	// Sequences returns every key in ascending order.
	Sequences(ctx context.Context) ([]int32, error)
	// Ascending returns every packet ordered by sequence.
	Ascending(ctx context.Context) ([]packet.Packet, error)
	Close() error
}
