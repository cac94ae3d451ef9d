package api_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/BTreeMap/PulseBot/internal/api"
	"github.com/BTreeMap/PulseBot/internal/models"
	"github.com/BTreeMap/PulseBot/internal/store"
	"github.com/BTreeMap/PulseBot/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startSession(t *testing.T, h http.Handler) models.StartReply {
	t.Helper()
	rr := testutil.Do(h, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/start", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var start models.StartReply
	testutil.DecodeJSON(t, rr, &start)
	return start
}

func sendMessage(t *testing.T, h http.Handler, sessionID, text string) models.Reply {
	t.Helper()
	req := testutil.CreateHTTPRequest(t, http.MethodPost, "/api/message",
		models.MessageRequest{SessionID: sessionID, Message: text})
	rr := testutil.Do(h, req)
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
	var reply models.Reply
	testutil.DecodeJSON(t, rr, &reply)
	return reply
}

func TestStartHandler(t *testing.T) {
	h := testutil.NewTestServer().Handler()
	rr := testutil.Do(h, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/start", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var start models.StartReply
	testutil.DecodeJSON(t, rr, &start)
	assert.NotEmpty(t, start.SessionID)
	assert.Contains(t, start.Intro, "Thanks for sharing your feedback")
	assert.Equal(t, "On a scale of 1–10, how satisfied are you with your overall experience?", start.Message)
	assert.Equal(t, []string{"1", "10"}, start.QuickReplies)
	if diff := cmp.Diff(models.Progress{Answered: 0, Total: 7, Percent: 0}, start.Progress); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestMessageHandlerRatingFlow(t *testing.T) {
	h := testutil.NewTestServer().Handler()
	start := startSession(t, h)

	reply := sendMessage(t, h, start.SessionID, "11")
	assert.Equal(t, "Please enter a number between 1 and 10.", reply.Message)
	assert.Equal(t, []string{"1", "10"}, reply.QuickReplies)
	assert.False(t, reply.Done)

	reply = sendMessage(t, h, start.SessionID, "9")
	assert.Nil(t, reply.Progress, "follow-up reply carries no progress")
	assert.Empty(t, reply.QuickReplies)
	assert.NotNil(t, reply.RAGContext)

	reply = sendMessage(t, h, start.SessionID, "Fast onboarding")
	require.NotNil(t, reply.Progress)
	assert.Equal(t, models.Progress{Answered: 1, Total: 7, Percent: 14}, *reply.Progress)
}

func TestMessageHandlerRawWireFormat(t *testing.T) {
	h := testutil.NewTestServer().Handler()
	start := startSession(t, h)

	req := testutil.CreateJSONRequest(t, http.MethodPost, "/api/message",
		`{"sessionId":"`+start.SessionID+`","message":"9"}`)
	rr := testutil.Do(h, req)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `"ragContext":[`)
	assert.Contains(t, body, `"done":false`)
	assert.NotContains(t, body, `"progress"`)
}

func TestMessageHandlerInvalidSession(t *testing.T) {
	h := testutil.NewTestServer().Handler()

	tests := []struct {
		name string
		body string
	}{
		{"unknown session", `{"sessionId":"does-not-exist","message":"9"}`},
		{"missing session", `{"message":"9"}`},
		{"empty session", `{"sessionId":"","message":"9"}`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.Do(h, testutil.CreateJSONRequest(t, http.MethodPost, "/api/message", tt.body))
			testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, tt.name)
			testutil.AssertErrorResponse(t, rr, api.MsgInvalidSession)
		})
	}
}

func TestMessageHandlerMalformedJSON(t *testing.T) {
	h := testutil.NewTestServer().Handler()
	rr := testutil.Do(h, testutil.CreateJSONRequest(t, http.MethodPost, "/api/message", `{"sessionId":`))
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "malformed JSON")
	testutil.AssertErrorResponse(t, rr, api.MsgInvalidJSON)
}

func TestHistoryHandler(t *testing.T) {
	h := testutil.NewTestServer().Handler()
	start := startSession(t, h)

	rr := testutil.Do(h, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/history/"+start.SessionID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"responses":[]`)

	var history models.History
	testutil.DecodeJSON(t, rr, &history)
	assert.Empty(t, history.Responses)
	assert.False(t, history.CreatedAt.IsZero())

	sendMessage(t, h, start.SessionID, "9")
	sendMessage(t, h, start.SessionID, "quick setup")

	rr = testutil.Do(h, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/history/"+start.SessionID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	history = models.History{}
	testutil.DecodeJSON(t, rr, &history)

	want := []models.Response{
		{ID: "overall", Type: models.ResponseTypeRating, Value: 9.0},
		{ID: "overall-followup", Type: models.ResponseTypeFollowUp, Value: "quick setup", ParentID: "overall"},
	}
	if diff := cmp.Diff(want, history.Responses); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryHandlerNotFound(t *testing.T) {
	h := testutil.NewTestServer().Handler()
	rr := testutil.Do(h, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/history/nope", nil))
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "history of unknown session")
	testutil.AssertErrorResponse(t, rr, api.MsgSessionNotFound)
}

func TestFullSurveyArchivesResult(t *testing.T) {
	st := store.NewInMemoryStore()
	h := testutil.NewTestServerWithStore(st).Handler()
	start := startSession(t, h)

	script := []string{
		"9", "Love the speed",
		"8", "Good price",
		"6", "Slow replies",
		"The dashboard",
		"Better docs",
		"email",
		"10", "Already did",
	}
	var last models.Reply
	for _, msg := range script {
		last = sendMessage(t, h, start.SessionID, msg)
	}

	assert.True(t, last.Done)
	assert.True(t, strings.HasPrefix(last.Message, "All done — thanks for your time!"))
	assert.Contains(t, last.Message, "Average rating: 8.3")
	assert.Contains(t, last.Message, "Highlight: The dashboard")
	assert.Contains(t, last.Message, "Improvement: Better docs")
	assert.Nil(t, last.Progress, "summary reply carries no progress")

	testutil.AssertResultCount(t, st, 1, "after completion")

	after := sendMessage(t, h, start.SessionID, "anything else")
	assert.True(t, after.Done)
	testutil.AssertResultCount(t, st, 1, "after post-completion message")
}

func TestHealthHandler(t *testing.T) {
	h := testutil.NewTestServer().Handler()
	startSession(t, h)

	rr := testutil.Do(h, testutil.CreateHTTPRequest(t, http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	testutil.DecodeJSON(t, rr, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["sessions"])
}

func TestRouting(t *testing.T) {
	h := testutil.NewTestServer().Handler()

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"start requires GET", http.MethodPost, "/api/start", http.StatusMethodNotAllowed},
		{"message requires POST", http.MethodGet, "/api/message", http.StatusMethodNotAllowed},
		{"history requires GET", http.MethodDelete, "/api/history/abc", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/api/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.Do(h, testutil.CreateHTTPRequest(t, tt.method, tt.path, nil))
			testutil.AssertHTTPStatus(t, tt.want, rr.Code, tt.name)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- api.ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

// handlerLabels collects every value of the "handler" label in reg.
func handlerLabels(t *testing.T, reg *prometheus.Registry) map[string]bool {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	labels := map[string]bool{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "handler" {
					labels[lp.GetValue()] = true
				}
			}
		}
	}
	return labels
}

func TestMetricsLabelledByRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := api.NewServer(testutil.NewTestEngine(), api.WithMetricsRegisterer(reg)).Handler()

	for i := 0; i < 3; i++ {
		start := startSession(t, h)
		rr := testutil.Do(h, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/history/"+start.SessionID, nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	testutil.Do(h, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/history/unknown-session", nil))
	testutil.Do(h, testutil.CreateHTTPRequest(t, http.MethodGet, "/api/nothing-here", nil))
	testutil.Do(h, testutil.CreateHTTPRequest(t, http.MethodPost, "/api/start", nil))

	want := map[string]bool{
		api.RouteStart:                true,
		api.RouteHistory:              true,
		api.HandlerIDNotFound:         true,
		api.HandlerIDMethodNotAllowed: true,
	}
	if diff := cmp.Diff(want, handlerLabels(t, reg)); diff != "" {
		t.Errorf("handler labels mismatch (-want +got):\n%s", diff)
	}
}
