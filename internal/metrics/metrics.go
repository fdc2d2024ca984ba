package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Packet flow
	packetsReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abx_packets_received_total",
		Help: "Valid packets received, by source (stream or resend)",
	}, []string{"source"})

	bytesReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abx_bytes_received_total",
		Help: "Response bytes read, by call type",
	}, []string{"call"})

	recordErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abx_record_errors_total",
		Help: "Failed records and requests, by call type and error kind",
	}, []string{"call", "kind"})

	// Recovery
	recoveryAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abx_recovery_attempts_total",
		Help: "Resend attempts for missing sequences, by result",
	}, []string{"result"})

	resendOutOfRangeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abx_resend_out_of_range_total",
		Help: "Resend requests for sequences that do not fit the one-byte header",
	})

	missingSequences = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "abx_missing_sequences",
		Help: "Sequences missing after the stream fetch",
	})

	storedPackets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "abx_stored_packets",
		Help: "Packets held in the packet store",
	})

	// Connections
	sessionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "abx_session_duration_seconds",
		Help:    "Time from dial to close for one request",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
	}, []string{"call"})
)

// RecordPacket counts one valid packet from source.
func RecordPacket(source string) {
	packetsReceivedTotal.WithLabelValues(source).Inc()
}

// AddBytes adds response bytes read by a call.
func AddBytes(call string, n int64) {
	bytesReceivedTotal.WithLabelValues(call).Add(float64(n))
}

// RecordError counts a failed record or request.
func RecordError(call, kind string) {
	recordErrorsTotal.WithLabelValues(call, kind).Inc()
}

// RecordRecovery counts one resend attempt.
func RecordRecovery(recovered bool) {
	result := "failed"
	if recovered {
		result = "recovered"
	}
	recoveryAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordOutOfRangeResend counts a resend whose sequence is truncated on the wire.
func RecordOutOfRangeResend() {
	resendOutOfRangeTotal.Inc()
}

// SetMissing sets the number of missing sequences found by the gap scan.
func SetMissing(n int) {
	missingSequences.Set(float64(n))
}

// SetStored sets the packet store size.
func SetStored(n int) {
	storedPackets.Set(float64(n))
}

// ObserveSession records how long one request held its connection.
func ObserveSession(call string, d time.Duration) {
	sessionDuration.WithLabelValues(call).Observe(d.Seconds())
}
