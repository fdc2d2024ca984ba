package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/zsiec/abxclient/internal/abx/frame"
	"github.com/zsiec/abxclient/internal/abx/packet"
	"github.com/zsiec/abxclient/internal/logger"
	"github.com/zsiec/abxclient/internal/metrics"
)

// CallType is the first byte of every request header.
type CallType byte

const (
	CallStreamAll CallType = 1
	CallResend    CallType = 2
)

func (c CallType) String() string {
	switch c {
	case CallStreamAll:
		return "stream_all"
	case CallResend:
		return "resend"
	default:
		return fmt.Sprintf("call_%d", byte(c))
	}
}

// MaxResendSequence is the largest sequence a resend header can address.
// The header carries the sequence in one byte while records carry it in
// four; larger values are truncated on the wire.
const MaxResendSequence = 255

// HeaderSize is the length of every request.
const HeaderSize = 2

// ErrConnection is matched by every ConnectionError.
var ErrConnection = errors.New("session: connection error")

// ConnectionError is a socket level failure during one request.
type ConnectionError struct {
	Op   string // dial, write or read
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("session: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// StreamAllHeader returns the request for call type 1.
func StreamAllHeader() [HeaderSize]byte {
	return [HeaderSize]byte{byte(CallStreamAll), 0}
}

// ResendHeader returns the request for call type 2. Only the low byte of
// seq is sent.
func ResendHeader(seq int32) [HeaderSize]byte {
	return [HeaderSize]byte{byte(CallResend), byte(seq)}
}

// Config holds per-request socket limits. Zero disables a limit.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// SkipInvalid keeps consuming the stream after a record that fails
	// validation instead of stopping at it.
	SkipInvalid bool
}

// Client issues ABX requests. Every call dials its own connection and closes
// it before returning.
type Client struct {
	addr   string
	cfg    Config
	dialer net.Dialer
}

// NewClient creates a client for the server at addr.
func NewClient(addr string, cfg Config) *Client {
	return &Client{
		addr:   addr,
		cfg:    cfg,
		dialer: net.Dialer{Timeout: cfg.ConnectTimeout},
	}
}

// Addr returns the server address.
func (c *Client) Addr() string { return c.addr }

// StopReason says why a stream-all call stopped reading.
type StopReason string

const (
	StopEndOfStream StopReason = "end_of_stream"
	StopTruncated   StopReason = "truncated"
	StopInvalid     StopReason = "invalid"
)

// StreamResult summarises one stream-all call.
type StreamResult struct {
	Delivered int
	Skipped   int
	BytesRead int64
	Stop      StopReason
	StopErr   error
}

// StreamAll requests every packet and hands each valid one to sink in
// arrival order. A truncated record ends the stream early, as does an
// invalid one unless SkipInvalid is set; both are reported in the result,
// not as an error. The returned error is a *ConnectionError, a context
// error, or whatever sink returned.
func (c *Client) StreamAll(ctx context.Context, sink func(packet.Packet) error) (StreamResult, error) {
	log := logger.WithComponent(logger.FromContext(ctx), "session").WithField("call", CallStreamAll.String())
	var res StreamResult

	err := c.roundTrip(ctx, CallStreamAll, StreamAllHeader(), func(fr *frame.Reader) error {
		defer func() { res.BytesRead = fr.BytesRead() }()
		for {
			p, err := fr.Next()
			switch {
			case err == nil:
				if err := sink(p); err != nil {
					return err
				}
				res.Delivered++
				continue
			case errors.Is(err, io.EOF):
				res.Stop = StopEndOfStream
				return nil
			case errors.Is(err, frame.ErrTruncated):
				var te *frame.TruncatedError
				if errors.As(err, &te) {
					log.Warnf("Partial packet received with only %d bytes. Skipping.", te.Read)
				}
				res.Stop, res.StopErr = StopTruncated, err
				return nil
			case errors.Is(err, packet.ErrInvalidPacket):
				log.WithError(err).Warn("Invalid packet skipped during streaming.")
				res.Skipped++
				if c.cfg.SkipInvalid {
					continue
				}
				res.Stop, res.StopErr = StopInvalid, err
				return nil
			default:
				return c.connErr(ctx, "read", err)
			}
		}
	})
	return res, err
}

// Resend requests the single packet with sequence seq. A response shorter
// than one record, including an empty one, is a truncated frame.
func (c *Client) Resend(ctx context.Context, seq int32) (packet.Packet, error) {
	log := logger.WithComponent(logger.FromContext(ctx), "session").WithFields(map[string]interface{}{
		"call":     CallResend.String(),
		"sequence": seq,
	})
	if seq < 0 || seq > MaxResendSequence {
		metrics.RecordOutOfRangeResend()
		log.Warnf("Sequence %d does not fit the one-byte resend header; the server will see %d", seq, byte(seq))
	}

	var p packet.Packet
	err := c.roundTrip(ctx, CallResend, ResendHeader(seq), func(fr *frame.Reader) error {
		var err error
		p, err = fr.Next()
		switch {
		case err == nil:
			return nil
		case errors.Is(err, io.EOF):
			return &frame.TruncatedError{Read: 0, Want: packet.Size}
		case errors.Is(err, frame.ErrTruncated), errors.Is(err, packet.ErrInvalidPacket):
			return err
		default:
			return c.connErr(ctx, "read", err)
		}
	})
	if err != nil {
		return packet.Packet{}, err
	}
	return p, nil
}

// roundTrip dials, writes header, runs consume over the response and closes
// the connection on every path.
func (c *Client) roundTrip(ctx context.Context, call CallType, header [HeaderSize]byte, consume func(*frame.Reader) error) error {
	start := time.Now()
	defer func() { metrics.ObserveSession(call.String(), time.Since(start)) }()

	log := logger.WithComponent(logger.FromContext(ctx), "session")

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return c.connErr(ctx, "dial", err)
	}
	defer conn.Close()
	log.WithField("call", call.String()).Debugf("Connected to %s", c.addr)

	// Cancellation unblocks any pending read or write.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if c.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	if _, err := conn.Write(header[:]); err != nil {
		return c.connErr(ctx, "write", err)
	}

	var r io.Reader = conn
	if c.cfg.ReadTimeout > 0 {
		r = &deadlineReader{conn: conn, timeout: c.cfg.ReadTimeout}
	}
	fr := frame.NewReader(r)
	err = consume(fr)
	metrics.AddBytes(call.String(), fr.BytesRead())
	return err
}

func (c *Client) connErr(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &ConnectionError{Op: op, Addr: c.addr, Err: err}
}

// deadlineReader refreshes the read deadline before every read so the
// timeout bounds idle time, not the whole response.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (d *deadlineReader) Read(p []byte) (int, error) {
	if err := d.conn.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
		return 0, err
	}
	return d.conn.Read(p)
}
