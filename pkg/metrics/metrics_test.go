package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

type pushCapture struct {
	mu     sync.Mutex
	method string
	path   string
	body   string
}

func newPushgateway(t *testing.T, status int) (*httptest.Server, *pushCapture) {
	t.Helper()

	capture := &pushCapture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		capture.mu.Lock()
		capture.method = r.Method
		capture.path = r.URL.Path
		capture.body = string(body)
		capture.mu.Unlock()

		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	return server, capture
}

func TestPush(t *testing.T) {
	server, capture := newPushgateway(t, http.StatusOK)

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tba_test_pushed_total",
		Help: "Test counter",
	})
	reg.MustRegister(counter)
	counter.Add(3)

	if err := Push(context.Background(), server.URL, "", "run-42", reg); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()

	if capture.method != http.MethodPut {
		t.Errorf("method = %s, want PUT", capture.method)
	}
	wantPath := "/metrics/job/" + DefaultJob + "/run_id/run-42"
	if capture.path != wantPath {
		t.Errorf("path = %s, want %s", capture.path, wantPath)
	}
	if capture.body == "" {
		t.Error("expected a non-empty metrics body")
	}
}

func TestPush_EmptyURL(t *testing.T) {
	err := Push(context.Background(), "", DefaultJob, "run", prometheus.NewRegistry())
	if !errors.Is(err, ErrNoGateway) {
		t.Errorf("Push() error = %v, want ErrNoGateway", err)
	}
}

func TestPush_GatewayError(t *testing.T) {
	server, _ := newPushgateway(t, http.StatusInternalServerError)

	err := Push(context.Background(), server.URL, DefaultJob, "run", prometheus.NewRegistry())
	if err == nil {
		t.Fatal("expected error for 500 from pushgateway")
	}
	if !strings.Contains(err.Error(), server.URL) {
		t.Errorf("error should name the gateway url, got %v", err)
	}
}
