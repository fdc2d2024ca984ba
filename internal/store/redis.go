package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zsiec/abxclient/internal/abx/packet"
)

// RedisStore keeps each packet as a JSON string under <prefix>packet:<seq>
// and its sequence in the sorted set <prefix>sequences.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	owns   bool
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Prefix string        // namespace, normally unique per run
	TTL    time.Duration // 0 keeps keys forever
	// OwnClient makes Close close the underlying client.
	OwnClient bool
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, opts RedisOptions) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
		owns:   opts.OwnClient,
	}
}

func (r *RedisStore) packetKey(seq int32) string {
	return r.prefix + "packet:" + strconv.FormatInt(int64(seq), 10)
}

func (r *RedisStore) indexKey() string {
	return r.prefix + "sequences"
}

// Upsert writes the packet and its index entry in one MULTI/EXEC.
func (r *RedisStore) Upsert(ctx context.Context, p packet.Packet) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal packet %d: %w", p.Sequence, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.packetKey(p.Sequence), data, r.ttl)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(p.Sequence), Member: strconv.FormatInt(int64(p.Sequence), 10)})
		if r.ttl > 0 {
			pipe.Expire(ctx, r.indexKey(), r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store packet %d: %w", p.Sequence, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, seq int32) (packet.Packet, bool, error) {
	data, err := r.client.Get(ctx, r.packetKey(seq)).Bytes()
	if err == redis.Nil {
		return packet.Packet{}, false, nil
	}
	if err != nil {
		return packet.Packet{}, false, fmt.Errorf("failed to get packet %d: %w", seq, err)
	}

	var p packet.Packet
	if err := json.Unmarshal(data, &p); err != nil {
		return packet.Packet{}, false, fmt.Errorf("failed to unmarshal packet %d: %w", seq, err)
	}
	return p, true, nil
}

func (r *RedisStore) Len(ctx context.Context) (int, error) {
	n, err := r.client.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count packets: %w", err)
	}
	return int(n), nil
}

func (r *RedisStore) Sequences(ctx context.Context) ([]int32, error) {
	members, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sequences: %w", err)
	}

	seqs := make([]int32, 0, len(members))
	for _, m := range members {
		seq, err := strconv.ParseInt(m, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("corrupt sequence index entry %q: %w", m, err)
		}
		seqs = append(seqs, int32(seq))
	}
	return seqs, nil
}

func (r *RedisStore) Ascending(ctx context.Context) ([]packet.Packet, error) {
	seqs, err := r.Sequences(ctx)
	if err != nil {
		return nil, err
	}
	if len(seqs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(seqs))
	for i, seq := range seqs {
		keys[i] = r.packetKey(seq)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load packets: %w", err)
	}

	out := make([]packet.Packet, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// Expired between ZRANGE and MGET.
			continue
		}
		var p packet.Packet
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal packet %d: %w", seqs[i], err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Close closes the client when the store owns it.
func (r *RedisStore) Close() error {
	if r.owns {
		return r.client.Close()
	}
	return nil
}
