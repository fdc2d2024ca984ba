package client

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/abxclient/internal/abx/abxtest"
	"github.com/zsiec/abxclient/internal/abx/packet"
	"github.com/zsiec/abxclient/internal/abx/session"
	"github.com/zsiec/abxclient/internal/config"
	"github.com/zsiec/abxclient/internal/errors"
	"github.com/zsiec/abxclient/internal/logger"
	"github.com/zsiec/abxclient/internal/store"
)

func testConfig(t *testing.T, addr string) *config.Config {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Server.Host = host
	cfg.Server.Port = port
	cfg.Server.ConnectTimeout = time.Second
	return cfg
}

type harness struct {
	out   bytes.Buffer
	hook  *test.Hook
	log   logger.Logger
	store store.Store
}

func newHarness() *harness {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	return &harness{
		hook:  hook,
		log:   logger.NewLogrusAdapter(logrus.NewEntry(base)),
		store: store.NewMemoryStore(),
	}
}

func (h *harness) run(t *testing.T, cfg *config.Config) (Result, error) {
	t.Helper()
	return Run(context.Background(), cfg, Options{
		Store:  h.store,
		Logger: h.log,
		Output: &h.out,
		RunID:  "run-test",
	})
}

func (h *harness) messages() []string {
	var out []string
	for _, e := range h.hook.AllEntries() {
		out = append(out, e.Message)
	}
	return out
}

func (h *harness) lines() []string {
	s := strings.TrimSpace(h.out.String())
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestRun_RecoversInteriorGap(t *testing.T) {
	srv := abxtest.NewServer(t, abxtest.Book(4))
	srv.Drop(3)
	h := newHarness()

	res, err := h.run(t, testConfig(t, srv.Addr()))
	require.NoError(t, err)

	assert.Equal(t, "run-test", res.RunID)
	assert.Equal(t, []int32{3}, res.Missing)
	assert.Equal(t, []int32{3}, res.Recovery.Recovered)
	assert.Equal(t, 4, res.Displayed)
	assert.Equal(t, uint64(1), res.Loss.Lost)

	assert.Equal(t, []string{
		"[1] MSFT B Qty:10 Price:101",
		"[2] AAPL S Qty:20 Price:102",
		"[3] AMZN B Qty:30 Price:103",
		"[4] META S Qty:40 Price:104",
	}, h.lines())

	msgs := h.messages()
	assert.Contains(t, msgs, "Starting ABX Client...")
	assert.Contains(t, msgs, "Stream complete. Total valid packets received: 3")
	assert.Contains(t, msgs, "Missing 1 packets: 3")
	assert.Contains(t, msgs, "Recovered missing packet #3")
	assert.Contains(t, msgs, "Successfully retrieved and validated all packets.")

	assert.Equal(t, [][2]byte{{1, 0}, {2, 3}}, srv.Requests())
}

func TestRun_EmptyStream(t *testing.T) {
	srv := abxtest.NewServer(t, nil)
	h := newHarness()

	res, err := h.run(t, testConfig(t, srv.Addr()))
	require.NoError(t, err)

	assert.Empty(t, res.Missing)
	assert.Empty(t, res.Recovery.Attempted)
	assert.Zero(t, res.Displayed)
	assert.Empty(t, h.lines())
	assert.Empty(t, srv.ResendRequests())
	assert.Contains(t, h.messages(), "Missing 0 packets: ")
}

func TestRun_TruncatedResendLeavesGap(t *testing.T) {
	srv := abxtest.NewServer(t, abxtest.Book(4))
	srv.Drop(2)
	srv.SetResendRaw(2, make([]byte, 10))
	h := newHarness()

	res, err := h.run(t, testConfig(t, srv.Addr()))
	require.NoError(t, err)

	assert.Equal(t, []int32{2}, res.Recovery.Failed)
	assert.Equal(t, 3, res.Displayed)

	_, ok, err := h.store.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, line := range h.lines() {
		assert.False(t, strings.HasPrefix(line, "[2] "))
	}
	assert.Contains(t, h.messages(), "Failed to recover missing packet")
	assert.Contains(t, h.messages(), "Successfully retrieved and validated all packets.")
}

func TestRun_MissingFirstSequence(t *testing.T) {
	srv := abxtest.NewServer(t, abxtest.Book(3))
	srv.Drop(1)
	h := newHarness()

	res, err := h.run(t, testConfig(t, srv.Addr()))
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, res.Missing)
	assert.Equal(t, 3, res.Displayed)
}

func TestRun_TruncatedStreamKeepsEarlierPackets(t *testing.T) {
	book := abxtest.Book(3)
	raw := append(packet.MustEncode(book[0]), packet.MustEncode(book[2])...)
	raw = append(raw, 0x41, 0x42, 0x43)

	srv := abxtest.NewServer(t, book)
	srv.SetStreamRaw(raw)
	h := newHarness()

	res, err := h.run(t, testConfig(t, srv.Addr()))
	require.NoError(t, err)

	assert.Equal(t, session.StopTruncated, res.Stream.Stop)
	assert.Equal(t, []int32{2}, res.Missing)
	assert.Equal(t, 3, res.Displayed)
	assert.Contains(t, h.messages(), "Partial packet received with only 3 bytes. Skipping.")
}

func TestRun_RecoveryDisabled(t *testing.T) {
	srv := abxtest.NewServer(t, abxtest.Book(4))
	srv.Drop(2, 3)
	h := newHarness()

	cfg := testConfig(t, srv.Addr())
	cfg.Recovery.Enabled = false

	res, err := h.run(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 3}, res.Missing)
	assert.Empty(t, srv.ResendRequests())
	assert.Equal(t, 2, res.Displayed)
}

func TestRun_ConnectionFailureIsAbsorbed(t *testing.T) {
	srv := abxtest.NewServer(t, nil)
	addr := srv.Addr()
	srv.Close()
	h := newHarness()

	res, err := h.run(t, testConfig(t, addr))
	require.NoError(t, err)

	assert.ErrorIs(t, res.StreamErr, session.ErrConnection)
	assert.Empty(t, res.Missing)
	assert.Contains(t, h.messages(), "Error during StreamAllPackets")
	assert.NotContains(t, h.messages(), "Stream complete. Total valid packets received: 0")
	assert.Contains(t, h.messages(), "Successfully retrieved and validated all packets.")
}

type brokenStore struct {
	store.Store
}

func (brokenStore) Upsert(context.Context, packet.Packet) error {
	return assert.AnError
}

func TestRun_StoreFailureIsFatal(t *testing.T) {
	srv := abxtest.NewServer(t, abxtest.Book(2))
	h := newHarness()
	h.store = brokenStore{store.NewMemoryStore()}

	_, err := h.run(t, testConfig(t, srv.Addr()))
	require.Error(t, err)
	assert.Equal(t, errors.KindStore, errors.Classify(err))
	assert.False(t, errors.Recoverable(err))
}

type droppedRedisStore struct {
	store.Store
}

// go-redis reports a connection closed by the server as io.EOF.
func (droppedRedisStore) Upsert(context.Context, packet.Packet) error {
	return io.EOF
}

func TestRun_StoreEOFIsFatal(t *testing.T) {
	srv := abxtest.NewServer(t, abxtest.Book(2))
	h := newHarness()
	h.store = droppedRedisStore{store.NewMemoryStore()}

	_, err := h.run(t, testConfig(t, srv.Addr()))
	require.Error(t, err)
	assert.Equal(t, errors.KindStore, errors.Classify(err))
	assert.NotContains(t, h.messages(), "Error during StreamAllPackets")
}

func TestRun_CanceledContext(t *testing.T) {
	srv := abxtest.NewServer(t, abxtest.Book(2))
	h := newHarness()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testConfig(t, srv.Addr()), Options{Store: h.store, Output: &h.out})
	require.Error(t, err)
	assert.Equal(t, errors.KindCanceled, errors.Classify(err))
}

func TestRun_JSONDisplayWithRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Backend = config.StoreBackendRedis
	cfg.Store.Redis.Address = mr.Addr()

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Store, "run-redis")
	require.NoError(t, err)
	defer st.Close()

	srv := abxtest.NewServer(t, abxtest.Book(3))
	srv.Drop(2)

	runCfg := testConfig(t, srv.Addr())
	runCfg.Display.Format = config.DisplayFormatJSON

	var out bytes.Buffer
	res, err := Run(ctx, runCfg, Options{Store: st, Output: &out, RunID: "run-redis"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Displayed)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], `"sequence":2`)

	assert.True(t, mr.Exists("abx:run-redis:packet:2"))
}
