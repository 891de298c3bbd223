package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"prodcat/monitoring"
)

// newChainedTestServer serves the registered routes through the same
// middleware chain NewServer installs, so upgrade requests have to
// survive the wrapped ResponseWriter.
func newChainedTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	RegisterHandlers(mux)

	config := DefaultServerConfig()
	chain := Chain(
		RecoveryMiddleware,
		LoggerMiddleware,
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		TimeoutMiddleware(config.Timeout),
		RequestSizeMiddleware(config.MaxRequestSize),
	)

	server := httptest.NewServer(chain(mux))
	t.Cleanup(server.Close)
	return server
}

func TestMonitorWSThroughMiddlewareChain(t *testing.T) {
	resetServingState()
	defer resetServingState()

	monitor := monitoring.NewMonitor()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Run(ctx)
	SetMonitor(monitor)

	server := newChainedTestServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/monitor"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial failed with status %d: %v", status, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for monitor.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	monitor.PublishPrediction(monitoring.PredictionEvent{
		Title:      "Samsung Galaxy Phone",
		Category:   "Electronics",
		Confidence: 0.88,
		Timestamp:  time.Now().UTC(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got monitoring.PredictionEvent
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Category != "Electronics" || got.Confidence != 0.88 {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestMonitorWSWithoutMonitor(t *testing.T) {
	resetServingState()

	req := httptest.NewRequest(http.MethodGet, "/api/ws/monitor", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(handleMonitorWS).ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a running monitor, got %d", rr.Code)
	}
}
