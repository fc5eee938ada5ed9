package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSetState(t *testing.T) {
	m := New()

	m.SetState("ready")
	assert.Equal(t, 1.0, testutil.ToFloat64(ConnectionState.WithLabelValues("ready")))
	assert.Equal(t, 0.0, testutil.ToFloat64(ConnectionState.WithLabelValues("connecting")))

	m.SetState("reconnecting")
	assert.Equal(t, 0.0, testutil.ToFloat64(ConnectionState.WithLabelValues("ready")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ConnectionState.WithLabelValues("reconnecting")))
}

func TestCounters(t *testing.T) {
	m := New()

	before := testutil.ToFloat64(LinesReceived.WithLabelValues("PRIVMSG"))
	m.IncLine("PRIVMSG")
	m.IncLine("PRIVMSG")
	assert.Equal(t, before+2, testutil.ToFloat64(LinesReceived.WithLabelValues("PRIVMSG")))

	m.SetChannels(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(JoinedChannels))

	m.ObserveLatency(250 * time.Millisecond)
	assert.Equal(t, 0.25, testutil.ToFloat64(Latency))

	m.ObserveCommand("ban", "ok", 100*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(CommandDuration))
}
