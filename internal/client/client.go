// Package client drives one ABX run: stream every packet, find the gaps,
// re-request each missing sequence and print the merged result.
package client

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/zsiec/abxclient/internal/abx/packet"
	"github.com/zsiec/abxclient/internal/abx/session"
	"github.com/zsiec/abxclient/internal/config"
	"github.com/zsiec/abxclient/internal/display"
	"github.com/zsiec/abxclient/internal/errors"
	"github.com/zsiec/abxclient/internal/gap"
	"github.com/zsiec/abxclient/internal/logger"
	"github.com/zsiec/abxclient/internal/metrics"
	"github.com/zsiec/abxclient/internal/recovery"
	"github.com/zsiec/abxclient/internal/store"
)

// Options carries the collaborators of a run. Store is required.
type Options struct {
	Store  store.Store
	Logger logger.Logger
	Output io.Writer // defaults to os.Stdout
	RunID  string    // generated when empty
}

// Result describes a completed run.
type Result struct {
	RunID     string
	Stream    session.StreamResult
	StreamErr error // connection failure absorbed during the stream fetch
	Loss      gap.Stats
	Missing   []int32
	Recovery  recovery.Report
	Displayed int
}

// Run executes one full fetch, recover and display cycle against the
// server in cfg. Connection, decode and truncation failures are logged and
// absorbed. The returned error is reserved for store failures, context
// cancellation and other unexpected conditions.
func Run(ctx context.Context, cfg *config.Config, opts Options) (Result, error) {
	res := Result{RunID: opts.RunID}
	if res.RunID == "" {
		res.RunID = uuid.NewString()
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNullLogger()
	}
	log = logger.WithComponent(log, "client")

	ctx = logger.WithLogger(ctx, log)
	ctx = logger.WithRunID(ctx, res.RunID)
	handler := errors.NewHandler(log)
	st := opts.Store

	log.Info("Starting ABX Client...")

	sess := session.NewClient(cfg.Server.Addr(), session.Config{
		ConnectTimeout: cfg.Server.ConnectTimeout,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		SkipInvalid:    cfg.Server.SkipInvalid,
	})

	// Step 1: stream everything the server has.
	tracker := gap.NewTracker()
	stream, err := sess.StreamAll(ctx, func(p packet.Packet) error {
		tracker.Observe(p.Sequence)
		if err := st.Upsert(ctx, p); err != nil {
			return errors.WrapStoreError(err, "failed to store streamed packet")
		}
		metrics.RecordPacket("stream")
		return nil
	})
	res.Stream = stream
	res.Loss = tracker.Stats()

	if err != nil {
		if !errors.Recoverable(err) {
			return res, err
		}
		res.StreamErr = err
		kind := handler.Handle(err, "Error during StreamAllPackets", nil)
		metrics.RecordError(session.CallStreamAll.String(), kind.Label())
	} else {
		if stream.StopErr != nil {
			metrics.RecordError(session.CallStreamAll.String(), errors.Classify(stream.StopErr).Label())
		}
		n, err := st.Len(ctx)
		if err != nil {
			return res, errors.WrapStoreError(err, "failed to count packets")
		}
		log.WithFields(map[string]interface{}{
			"stop":    string(stream.Stop),
			"bytes":   stream.BytesRead,
			"skipped": stream.Skipped,
		}).Infof("Stream complete. Total valid packets received: %d", n)
	}

	// Step 2: find the gaps.
	missing, err := gap.Scan(ctx, st)
	if err != nil {
		return res, errors.WrapStoreError(err, "failed to scan for missing sequences")
	}
	res.Missing = missing
	metrics.SetMissing(len(missing))
	log.WithFields(map[string]interface{}{
		"loss_events": res.Loss.LossEvents,
		"max_burst":   res.Loss.MaxBurst,
		"duplicates":  res.Loss.Duplicates,
		"reordered":   res.Loss.Reordered,
	}).Infof("Missing %d packets: %s", len(missing), gap.Summary(missing))

	// Step 3: ask for each one again.
	if cfg.Recovery.Enabled && len(missing) > 0 {
		orch := recovery.New(sess, st, recovery.Options{
			Limiter: recovery.NewLimiter(cfg.Recovery.RateLimit, cfg.Recovery.Burst),
			Logger:  log,
		})
		report, err := orch.RecoverAll(ctx, missing)
		res.Recovery = report
		if err != nil {
			return res, err
		}
	}

	// Step 4: print the merged set.
	packets, err := st.Ascending(ctx)
	if err != nil {
		return res, errors.WrapStoreError(err, "failed to read packets for display")
	}
	res.Displayed = len(packets)
	metrics.SetStored(len(packets))

	r := display.New(out, cfg.Display)
	if err := r.Packets(packets); err != nil {
		return res, errors.WrapInternalError(err, "failed to display packets")
	}
	stillMissing := len(missing) - len(res.Recovery.Recovered)
	if err := r.Footer(display.Summary{
		RunID:     res.RunID,
		Displayed: len(packets),
		Recovered: len(res.Recovery.Recovered),
		Missing:   stillMissing,
	}); err != nil {
		return res, errors.WrapInternalError(err, "failed to display summary")
	}

	log.Info("Successfully retrieved and validated all packets.")
	return res, nil
}
