package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestNewRegistryRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.ActiveConnections.Inc()
	assert.Equal(t, 1.0, gaugeValue(t, r.ActiveConnections))

	r.RouteEvictions.Inc()
	assert.Equal(t, 1.0, counterValue(t, r.RouteEvictions))

	r.FramesIn.WithLabelValues("SEND").Inc()
	r.AcksByMode.WithLabelValues("client-individual").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNoopIsIndependentOfDefaultRegistry(t *testing.T) {
	a := Noop()
	b := Noop()
	a.ActiveConnections.Inc()
	assert.Equal(t, 0.0, gaugeValue(t, b.ActiveConnections))
}
