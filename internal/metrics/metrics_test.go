package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObservePrediction("stroke", true)
	m.ObservePrediction("stroke", false)
	m.ObservePrediction("stroke", false)
	m.ObserveWarning("heart", "missing")
	m.ObserveChatReply(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("stroke", "positive")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.predictions.WithLabelValues("stroke", "negative")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.warnings.WithLabelValues("heart", "missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatReplies.WithLabelValues("offline")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObservePrediction("diabetes", false)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `medirisk_predictions_total{domain="diabetes",outcome="negative"} 1`)
}
