package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestObserveTransition(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransition("block", OutcomeSuccess)
	m.ObserveTransition("block", OutcomeSuccess)
	m.ObserveTransition("block", OutcomeNotFound)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("block", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("block", OutcomeNotFound)))
}

func TestAddNotificationsAndPublishFailures(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.AddNotifications("VIDEO_APPEAL_UPDATE", 3)
	m.AddNotifications("VIDEO_APPEAL_UPDATE", 0)
	m.IncPublishFailures()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Notifications.WithLabelValues("VIDEO_APPEAL_UPDATE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishFailures))
}

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveTransition("unblock", OutcomeSuccess)
		m.AddNotifications("VIDEO_BLOCK", 1)
		m.IncPublishFailures()
	})
}

func TestMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/videos/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/videos/abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("/videos/:id", http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("unmatched", http.MethodGet, "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestLatency))
}
