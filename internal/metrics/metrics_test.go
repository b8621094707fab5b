package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FrameDropped("invalid_type")
	m.FrameDropped("invalid_type")
	m.RemoteOutcome("ignored")
	m.SetOutboxPending(3)
	m.ConnectionState("connected")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesDropped.WithLabelValues("invalid_type")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemoteApplied.WithLabelValues("ignored")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OutboxPending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionTransitions.WithLabelValues("connected")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.FrameDropped("x")
		m.ReconnectScheduled()
		m.SetOutboxPending(1)
		m.DrainEntry("create", "ok")
		m.SyncCycle("full", "ok")
		m.SessionOpened()
		m.SessionClosed()
		m.Broadcast("item.created")
		m.HTTPRequest("GET", "200", 0.1)
	})
}
