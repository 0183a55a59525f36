package health

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorUpdateAndGet(t *testing.T) {
	m := NewMonitor()

	m.UpdateHealthy("nats", "connected")
	m.UpdateUnhealthy("syncer", "loop stalled")

	status, ok := m.Get("nats")
	require.True(t, ok)
	assert.True(t, status.IsHealthy())
	assert.Equal(t, "nats", status.Component)
	assert.False(t, status.Timestamp.IsZero())

	_, ok = m.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 2, m.Count())

	m.Remove("syncer")
	assert.Equal(t, 1, m.Count())
}

func TestAggregateRules(t *testing.T) {
	tests := []struct {
		name string
		subs []Status
		want string
	}{
		{"empty", nil, "healthy"},
		{"all healthy", []Status{NewHealthy("a", ""), NewHealthy("b", "")}, "healthy"},
		{"one degraded", []Status{NewHealthy("a", ""), NewDegraded("b", "")}, "degraded"},
		{"one unhealthy", []Status{NewDegraded("a", ""), NewUnhealthy("b", "")}, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate("sys", tt.subs)
			assert.Equal(t, tt.want, got.Status)
			assert.Len(t, got.SubStatuses, len(tt.subs))
		})
	}
}

func TestMonitorAggregateHealth(t *testing.T) {
	m := NewMonitor()
	m.UpdateHealthy("nats", "connected")
	m.UpdateDegraded("syncer", "slow ticks")

	aggregate := m.AggregateHealth("synapsed")
	assert.True(t, aggregate.IsDegraded())
	assert.Len(t, aggregate.SubStatuses, 2)
}

func TestHandler(t *testing.T) {
	m := NewMonitor()
	m.UpdateHealthy("nats", "connected")

	rec := httptest.NewRecorder()
	m.Handler("synapsed").ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	require.Equal(t, 200, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.IsHealthy())

	m.UpdateUnhealthy("nats", "connection lost")
	rec = httptest.NewRecorder()
	m.Handler("synapsed").ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, 503, rec.Code)
}
