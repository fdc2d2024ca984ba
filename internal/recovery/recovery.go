// Package recovery re-requests missing sequences one at a time and merges
// the answers into the packet store.
package recovery

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/zsiec/abxclient/internal/abx/packet"
	"github.com/zsiec/abxclient/internal/errors"
	"github.com/zsiec/abxclient/internal/logger"
	"github.com/zsiec/abxclient/internal/metrics"
	"github.com/zsiec/abxclient/internal/store"
)

// Resender fetches a single packet by sequence.
type Resender interface {
	Resend(ctx context.Context, seq int32) (packet.Packet, error)
}

// Event is the outcome of one resend attempt.
type Event struct {
	Sequence  int32
	Recovered bool
	Err       error
}

// Report summarises RecoverAll. Attempted, Recovered and Failed keep the
// order in which sequences were tried.
type Report struct {
	Attempted []int32
	Recovered []int32
	Failed    []int32
	Events    []Event
}

// Options tunes an Orchestrator.
type Options struct {
	// Limiter paces resend requests. Nil means no pacing.
	Limiter *rate.Limiter
	Logger  logger.Logger
}

// Orchestrator drives one resend per missing sequence. There is no retry
// and no backoff; a failed sequence stays missing.
type Orchestrator struct {
	resender Resender
	store    store.Store
	limiter  *rate.Limiter
	logger   logger.Logger
	handler  *errors.Handler
}

// New creates an Orchestrator writing into st.
func New(resender Resender, st store.Store, opts Options) *Orchestrator {
	l := opts.Logger
	if l == nil {
		l = logger.NewNullLogger()
	}
	l = logger.WithComponent(l, "recovery")
	return &Orchestrator{
		resender: resender,
		store:    st,
		limiter:  opts.Limiter,
		logger:   l,
		handler:  errors.NewHandler(l),
	}
}

// NewLimiter returns a limiter for perSecond requests, or nil when perSecond
// is zero.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// RecoverAll requests every sequence in missing. Resend failures are logged
// and recorded in the report; they never stop the loop. The returned error
// is non-nil only when ctx ends or the store rejects a write.
func (o *Orchestrator) RecoverAll(ctx context.Context, missing []int32) (Report, error) {
	var report Report

	for _, seq := range missing {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return report, err
			}
		}

		report.Attempted = append(report.Attempted, seq)
		ev, err := o.recoverOne(ctx, seq)
		if err != nil {
			return report, err
		}

		report.Events = append(report.Events, ev)
		if ev.Recovered {
			report.Recovered = append(report.Recovered, seq)
		} else {
			report.Failed = append(report.Failed, seq)
		}
		metrics.RecordRecovery(ev.Recovered)
	}

	return report, nil
}

func (o *Orchestrator) recoverOne(ctx context.Context, seq int32) (Event, error) {
	p, err := o.resender.Resend(ctx, seq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Event{}, ctxErr
		}
		kind := o.handler.Handle(err, "Failed to recover missing packet", map[string]interface{}{
			"sequence": seq,
		})
		metrics.RecordError("resend", kind.Label())
		return Event{Sequence: seq, Err: err}, nil
	}

	if err := o.store.Upsert(ctx, p); err != nil {
		return Event{}, errors.WrapStoreError(err, "failed to store recovered packet")
	}
	metrics.RecordPacket("resend")

	if p.Sequence != seq {
		o.logger.WithFields(map[string]interface{}{
			"sequence":  seq,
			"delivered": p.Sequence,
		}).Warnf("Resend for #%d returned packet #%d", seq, p.Sequence)
		return Event{Sequence: seq, Err: &SequenceMismatchError{Requested: seq, Received: p.Sequence}}, nil
	}

	o.logger.WithField("sequence", seq).Infof("Recovered missing packet #%d", seq)
	return Event{Sequence: seq, Recovered: true}, nil
}
