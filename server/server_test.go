package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testProbe(irc, slack bool) Probe {
	return Probe{
		Started:    time.Now().Add(-90 * time.Second),
		IRCReady:   func() bool { return irc },
		SlackReady: func() bool { return slack },
		Channels:   3,
	}
}

func TestHealthzAlwaysOK(t *testing.T) {
	mux := NewMux(testProbe(false, false))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d, want 200", rec.Code)
	}
}

func TestReadyzReflectsConnections(t *testing.T) {
	cases := []struct {
		name       string
		irc, slack bool
		wantCode   int
		wantFailed string
	}{
		{"both up", true, true, http.StatusOK, ""},
		{"irc down", false, true, http.StatusServiceUnavailable, "irc"},
		{"slack down", true, false, http.StatusServiceUnavailable, "slack"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := NewMux(testProbe(tc.irc, tc.slack))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tc.wantCode {
				t.Fatalf("readyz = %d, want %d", rec.Code, tc.wantCode)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if tc.wantFailed != "" && body["failed"] != tc.wantFailed {
				t.Errorf("failed = %q, want %q", body["failed"], tc.wantFailed)
			}
		})
	}
}

func TestStatusSnapshot(t *testing.T) {
	mux := NewMux(testProbe(true, true))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["mapped_channels"].(float64) != 3 {
		t.Errorf("mapped_channels = %v, want 3", body["mapped_channels"])
	}
	if body["uptime_seconds"].(float64) < 60 {
		t.Errorf("uptime_seconds = %v, want >= 60", body["uptime_seconds"])
	}
	if body["irc_connected"] != true || body["slack_connected"] != true {
		t.Errorf("connection flags wrong: %v", body)
	}
}

func TestRequestsAreTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	mux := NewMux(testProbe(true, true))
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-Correlation-ID", "corr-1")
	mux.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "GET /status" {
		t.Errorf("span name = %q", span.Name())
	}
	found := false
	for _, attr := range span.Attributes() {
		if attr.Key == "correlation_id" && attr.Value.AsString() == "corr-1" {
			found = true
		}
	}
	if !found {
		t.Errorf("correlation_id attribute missing: %v", span.Attributes())
	}
}

func TestCorrelationHeaderEchoedAndGenerated(t *testing.T) {
	mux := NewMux(testProbe(true, true))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	mux.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Correlation-ID"); got != "abc-123" {
		t.Errorf("correlation id not echoed, got %q", got)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("correlation id not generated")
	}
}
