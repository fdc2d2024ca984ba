package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPacket(t *testing.T) {
	initial := testutil.ToFloat64(packetsReceivedTotal.WithLabelValues("stream"))

	RecordPacket("stream")
	RecordPacket("stream")

	assert.Equal(t, initial+2, testutil.ToFloat64(packetsReceivedTotal.WithLabelValues("stream")))
}

func TestAddBytes(t *testing.T) {
	initial := testutil.ToFloat64(bytesReceivedTotal.WithLabelValues("resend"))
	AddBytes("resend", 17)
	assert.Equal(t, initial+17, testutil.ToFloat64(bytesReceivedTotal.WithLabelValues("resend")))
}

func TestRecordError(t *testing.T) {
	initial := testutil.ToFloat64(recordErrorsTotal.WithLabelValues("resend", "truncated"))
	RecordError("resend", "truncated")
	assert.Equal(t, initial+1, testutil.ToFloat64(recordErrorsTotal.WithLabelValues("resend", "truncated")))
}

func TestRecordRecovery(t *testing.T) {
	recovered := testutil.ToFloat64(recoveryAttemptsTotal.WithLabelValues("recovered"))
	failed := testutil.ToFloat64(recoveryAttemptsTotal.WithLabelValues("failed"))

	RecordRecovery(true)
	RecordRecovery(false)
	RecordRecovery(false)

	assert.Equal(t, recovered+1, testutil.ToFloat64(recoveryAttemptsTotal.WithLabelValues("recovered")))
	assert.Equal(t, failed+2, testutil.ToFloat64(recoveryAttemptsTotal.WithLabelValues("failed")))
}

func TestGauges(t *testing.T) {
	SetMissing(4)
	assert.Equal(t, float64(4), testutil.ToFloat64(missingSequences))

	SetStored(12)
	assert.Equal(t, float64(12), testutil.ToFloat64(storedPackets))

	initial := testutil.ToFloat64(resendOutOfRangeTotal)
	RecordOutOfRangeResend()
	assert.Equal(t, initial+1, testutil.ToFloat64(resendOutOfRangeTotal))
}

func TestObserveSession(t *testing.T) {
	ObserveSession("stream_all", 20*time.Millisecond)

	m := &dto.Metric{}
	observer, err := sessionDuration.GetMetricWithLabelValues("stream_all")
	require.NoError(t, err)
	require.NoError(t, observer.(prometheus.Histogram).Write(m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
	assert.Greater(t, m.GetHistogram().GetSampleSum(), 0.0)
}
