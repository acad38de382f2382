package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveMutation("Judge", "applied")
	m.ObserveMutation("Judge", "applied")
	m.ObserveMutation("SelectTeam", "ignored")
	m.ObserveCacheLookup("tts_cache_v3", true)
	m.ObserveCacheLookup("tts_cache_v3", false)
	m.SetSubscribers(3)
	m.ObserveModelCall(250 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations.WithLabelValues("Judge", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("SelectTeam", "ignored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("tts_cache_v3", "hit")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Subscribers))
}

func TestMetrics_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveMutation("Reset", "applied")
		m.ObserveVersionConflict()
		m.ObserveAnswer("answered")
		m.ObserveModelCall(time.Second)
		m.ObserveCacheLookup("x", true)
		m.SetSubscribers(1)
		m.ObserveBroadcast()
	})
}
