package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ExposesCounters(t *testing.T) {
	FetchTotal.WithLabelValues("signup", "ok").Inc()
	NotificationsTotal.WithLabelValues("main", "sent").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `expawatch_fetch_total{kind="signup",status="ok"}`)
	assert.Contains(t, string(body), `expawatch_notifications_total{channel="main",result="sent"}`)
}

func TestRecordsTotal_CountsPerOutcome(t *testing.T) {
	c := RecordsTotal.WithLabelValues("application", "duplicate")
	before := testutil.ToFloat64(c)
	c.Inc()
	c.Inc()
	assert.Equal(t, before+2, testutil.ToFloat64(c))
}
