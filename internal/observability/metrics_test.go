package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/projects/:id", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/projects/:id", "GET", 200, 5*time.Millisecond)
	m.RecordError("/projects/:id/status", "PATCH", "FORBIDDEN")
	m.RecordDenial("set_status", "FORBIDDEN")
	m.RecordTransition("Pending", "In Progress", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/projects/:id", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/projects/:id/status", "PATCH", "FORBIDDEN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.denials.WithLabelValues("set_status", "FORBIDDEN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("Pending", "In Progress", "false")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordDenial("read", "NOT_OWNER")
		m.RecordTransition("a", "b", true)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordDenial("read", "NOT_OWNER")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "project_intake_authorization_denials_total")
}
