package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/abxclient/internal/abx/packet"
	"github.com/zsiec/abxclient/internal/config"
	"github.com/zsiec/abxclient/internal/logger"
	"github.com/zsiec/abxclient/internal/store"
)

// mockChecker is a mock implementation of Checker for testing
type mockChecker struct {
	name  string
	err   error
	delay time.Duration
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

func TestManager(t *testing.T) {
	log := logger.NewNullLogger()

	t.Run("Register and RunChecks", func(t *testing.T) {
		manager := NewManager(log)
		manager.Register(&mockChecker{name: "checker1"})
		manager.Register(&mockChecker{name: "checker2", err: errors.New("checker2 failed")})

		results := manager.RunChecks(context.Background())
		require.Len(t, results, 2)

		assert.Equal(t, StatusOK, results["checker1"].Status)
		assert.Empty(t, results["checker1"].Message)
		assert.Equal(t, StatusDown, results["checker2"].Status)
		assert.Contains(t, results["checker2"].Message, "checker2 failed")
		assert.Equal(t, StatusDown, manager.GetOverallStatus())
	})

	t.Run("GetResults returns copies", func(t *testing.T) {
		manager := NewManager(log)
		manager.Register(&mockChecker{name: "test"})
		manager.RunChecks(context.Background())

		results := manager.GetResults()
		require.Contains(t, results, "test")
		results["test"].Status = StatusDown

		assert.Equal(t, StatusOK, manager.GetResults()["test"].Status)
		assert.Equal(t, StatusOK, manager.GetOverallStatus())
	})

	t.Run("No results is down", func(t *testing.T) {
		assert.Equal(t, StatusDown, NewManager(log).GetOverallStatus())
	})

	t.Run("Timeout", func(t *testing.T) {
		manager := NewManager(log)
		manager.timeout = 20 * time.Millisecond
		manager.Register(&mockChecker{name: "slow", delay: time.Second})

		results := manager.RunChecks(context.Background())
		assert.Equal(t, StatusDown, results["slow"].Status)
		assert.Equal(t, "Health check timed out", results["slow"].Message)
	})
}

func TestStoreChecker(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	require.NoError(t, mem.Upsert(ctx, packet.Packet{Symbol: "IBM", Side: packet.Buy, Quantity: 1, Price: 1, Sequence: 1}))

	c := NewStoreChecker(mem, config.StoreBackendMemory)
	assert.Equal(t, "store_memory", c.Name())
	assert.NoError(t, c.Check(ctx))
}

type downStore struct {
	store.Store
}

func (downStore) Len(context.Context) (int, error) {
	return 0, errors.New("connection refused")
}

func TestStoreChecker_Failure(t *testing.T) {
	c := NewStoreChecker(downStore{}, config.StoreBackendRedis)
	err := c.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
