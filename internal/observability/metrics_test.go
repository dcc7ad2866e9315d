package observability

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRecordPresenceUpdateSetsWatermark(t *testing.T) {
	ts := time.Date(2025, time.November, 3, 9, 0, 0, 0, time.UTC)
	RecordPresenceUpdate(false, ts)

	metric := &dto.Metric{}
	require.NoError(t, presenceUpdateGauge.Write(metric))
	require.Equal(t, float64(ts.Unix()), metric.GetGauge().GetValue())
}

func TestRecordPresenceUpdateCountsByKind(t *testing.T) {
	before := counterValue(t, "heartbeat")
	RecordPresenceUpdate(true, time.Now().UTC())
	require.Equal(t, before+1, counterValue(t, "heartbeat"))
}

func TestRecordCommitCachedIgnoresZeroTime(t *testing.T) {
	RecordCommitCached(time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC))
	metric := &dto.Metric{}
	require.NoError(t, commitCachedGauge.Write(metric))
	recorded := metric.GetGauge().GetValue()

	RecordCommitCached(time.Time{})
	require.NoError(t, commitCachedGauge.Write(metric))
	require.Equal(t, recorded, metric.GetGauge().GetValue())
}

func counterValue(t *testing.T, kind string) float64 {
	t.Helper()
	metric := &dto.Metric{}
	counter, err := presenceUpdateCounter.GetMetricWithLabelValues(kind)
	require.NoError(t, err)
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}
