package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMessagesHandledByOutcome(t *testing.T) {
	before := testutil.ToFloat64(MessagesHandled.WithLabelValues(OutcomeRejected))
	MessagesHandled.WithLabelValues(OutcomeRejected).Inc()
	after := testutil.ToFloat64(MessagesHandled.WithLabelValues(OutcomeRejected))
	if after != before+1 {
		t.Errorf("rejected counter = %v, want %v", after, before+1)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	SessionsStarted.Inc()
	SurveysCompleted.Inc()
	RetrievalSnippets.Observe(2)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	for _, name := range []string{
		"pulsebot_sessions_started_total",
		"pulsebot_surveys_completed_total",
		"pulsebot_retrieval_snippets_bucket",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestHandlerOnlyServesMetricsPath(t *testing.T) {
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for /, got %d", rr.Code)
	}
}
