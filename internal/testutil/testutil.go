// Package testutil provides common test utilities and helpers for PulseBot tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/BTreeMap/PulseBot/internal/api"
	"github.com/BTreeMap/PulseBot/internal/flow"
	"github.com/BTreeMap/PulseBot/internal/knowledge"
	"github.com/BTreeMap/PulseBot/internal/models"
	"github.com/BTreeMap/PulseBot/internal/questionnaire"
	"github.com/BTreeMap/PulseBot/internal/session"
	"github.com/BTreeMap/PulseBot/internal/store"
)

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// NewTestEngine creates an engine over the embedded questionnaire and corpus
// with a fresh session registry.
func NewTestEngine(opts ...flow.Option) *flow.Engine {
	corpus, err := knowledge.Load()
	if err != nil {
		panic("testutil: embedded corpus failed to load: " + err.Error())
	}
	return flow.NewEngine(questionnaire.MustLoad(), corpus, session.NewRegistry(), opts...)
}

// NewTestServer creates a test API server with in-memory dependencies.
func NewTestServer() *api.Server {
	return NewTestServerWithStore(store.NewInMemoryStore())
}

// NewTestServerWithStore creates a test API server that archives completed
// surveys into st. HTTP metrics go to a private registry.
func NewTestServerWithStore(st store.Store) *api.Server {
	engine := NewTestEngine(flow.WithResultSaver(st))
	return api.NewServer(engine, api.WithMetricsRegisterer(prometheus.NewRegistry()))
}

// Do sends req through h and returns the recorded response.
func Do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t TB, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// DecodeJSON decodes the recorded body into target.
func DecodeJSON(t TB, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
}

// AssertErrorResponse decodes an error envelope and checks its message.
func AssertErrorResponse(t TB, rr *httptest.ResponseRecorder, expectedMsg string) {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
		return
	}
	msg, ok := response["error"].(string)
	if !ok {
		t.Errorf("response missing or invalid 'error' field")
		return
	}
	if msg != expectedMsg {
		t.Errorf("expected error '%s', got '%s'", expectedMsg, msg)
	}
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t TB, method, url string, body interface{}) *http.Request {
	t.Helper()
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		reqBody = bytes.NewBuffer(MustMarshalJSON(t, body))
	}
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// CreateJSONRequest creates an HTTP request carrying a raw JSON body.
func CreateJSONRequest(t TB, method, url, jsonBody string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(jsonBody))
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertResultCount validates the number of archived results.
func AssertResultCount(t TB, st store.Store, expected int, label string) {
	t.Helper()
	results, err := st.ListResults(context.Background())
	if err != nil {
		t.Fatalf("%s: failed to list results: %v", label, err)
		return
	}
	if len(results) != expected {
		t.Errorf("%s: expected %d results, got %d", label, expected, len(results))
	}
}

// SeedResults archives n sample results with ids "seed-1".."seed-n".
func SeedResults(t TB, st store.Store, n int) {
	t.Helper()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		avg := float64(i)
		r := models.SurveyResult{
			SessionID:     fmt.Sprintf("seed-%d", i),
			Title:         "Seeded",
			CreatedAt:     base,
			CompletedAt:   base.Add(time.Duration(i) * time.Minute),
			AverageRating: &avg,
			Responses: []models.Response{
				{ID: "overall", Type: models.ResponseTypeRating, Value: avg},
			},
		}
		if err := st.SaveResult(context.Background(), r); err != nil {
			t.Fatalf("failed to seed result: %v", err)
		}
	}
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t TB, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t TB, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
